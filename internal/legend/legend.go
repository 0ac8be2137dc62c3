// Package legend holds the display labels and colours for every bucket of
// each taxonomy.
package legend

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/built-history/internal/urban"
)

// DefaultNoData is the colour of blocks without a dominant bucket.
const DefaultNoData = "#101010"

// Entry is the label and colour of one bucket.
type Entry struct {
	Label string `yaml:"label" json:"label"`
	Color string `yaml:"color" json:"color"`
}

// Legend maps each taxonomy's buckets to entries.
type Legend struct {
	NoData  string
	entries map[urban.Taxonomy][]Entry
}

// File is the YAML layout accepted by LoadFile. Omitted sections keep the defaults.
type File struct {
	NoData  string  `yaml:"no_data"`
	Era     []Entry `yaml:"era"`
	Usage   []Entry `yaml:"usage"`
	Density []Entry `yaml:"density"`
}

var defaultEra = []Entry{
	{"1781-1871", "#e57316"},
	{"1872-1921", "#e5a717"},
	{"1922-1941", "#e6caa0"},
	{"1942-1959", "#f3f3f3"},
	{"1960-1974", "#a1e6db"},
	{"1975-1991", "#17afe6"},
	{"1992-2007", "#1616ff"},
	{"2008-2025", "#ab17e6"},
}

var defaultUsage = []Entry{
	{"Single-family houses", "rgb(184, 255, 104)"},
	{"Apartment buildings", "rgb(252, 195, 50)"},
	{"Dormitories", "rgb(255, 197, 135)"},
	{"Mixed-use buildings", "rgb(254, 127, 0)"},
	{"Offices and retail", "rgb(255, 44, 44)"},
	{"Public buildings", "rgb(64, 210, 255)"},
	{"Industrial buildings", "rgb(54, 43, 123)"},
	{"Utility buildings", "rgb(32, 134, 117)"},
}

var defaultDensity = []Entry{
	{"Low-rise (1-4 floors)", "#80fc03"},
	{"Mid-rise (5-9 floors)", "#fcba03"},
	{"Multi-storey (10-16 floors)", "#fc0303"},
	{"High-rise (17+ floors)", "#a503fc"},
}

// Default returns the built-in legend.
func Default() *Legend {
	return &Legend{
		NoData: DefaultNoData,
		entries: map[urban.Taxonomy][]Entry{
			urban.Era:         clone(defaultEra),
			urban.LandUseTax:  clone(defaultUsage),
			urban.HeightClass: clone(defaultDensity),
		},
	}
}

// LoadFile reads overrides from a YAML file on top of Default.
func LoadFile(path string) (*Legend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "legend: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "legend: parse %s", path)
	}

	lg := Default()
	if f.NoData != "" {
		lg.NoData = f.NoData
	}
	overrides := map[urban.Taxonomy][]Entry{
		urban.Era:         f.Era,
		urban.LandUseTax:  f.Usage,
		urban.HeightClass: f.Density,
	}
	for _, t := range urban.Taxonomies() {
		entries := overrides[t]
		if len(entries) == 0 {
			continue
		}
		if len(entries) != t.BucketCount() {
			return nil, eris.Errorf("legend: %s needs %d entries, got %d", t, t.BucketCount(), len(entries))
		}
		lg.entries[t] = clone(entries)
	}
	return lg, nil
}

// Entries returns a copy of the entries for t, in bucket order.
func (l *Legend) Entries(t urban.Taxonomy) []Entry {
	return clone(l.entries[t])
}

// Labels returns the bucket labels for t.
func (l *Legend) Labels(t urban.Taxonomy) []string {
	entries := l.entries[t]
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

// Color returns the colour of bucket b, or NoData when b is not a bucket of t.
func (l *Legend) Color(t urban.Taxonomy, b urban.Bucket) string {
	entries := l.entries[t]
	if !b.Valid() || int(b) >= len(entries) {
		return l.NoData
	}
	return entries[b].Color
}

// Label returns the label of bucket b, or "no data".
func (l *Legend) Label(t urban.Taxonomy, b urban.Bucket) string {
	entries := l.entries[t]
	if !b.Valid() || int(b) >= len(entries) {
		return "no data"
	}
	return entries[b].Label
}

func clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
