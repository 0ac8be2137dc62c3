package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/built-history/internal/urban"
)

// Query is one parsed aggregate request.
type Query struct {
	Window   urban.Window
	Taxonomy urban.Taxonomy
	Weighted bool
	Block    *int
}

// Key identifies the query in the result cache.
func (q Query) Key() string {
	block := "-"
	if q.Block != nil {
		block = strconv.Itoa(*q.Block)
	}
	return fmt.Sprintf("%s|%s|%t|%s", q.Window, q.Taxonomy, q.Weighted, block)
}

// Input turns the query into an engine input over the given datasets.
func (q Query) Input(buildings []urban.Building, blocks []urban.Block) urban.Input {
	return urban.Input{
		Buildings:     buildings,
		Blocks:        blocks,
		Window:        q.Window,
		Taxonomy:      q.Taxonomy,
		Weighted:      q.Weighted,
		SelectedBlock: q.Block,
	}
}

// ParseQuery reads start, end, lens, weighted and block from values. Absent
// parameters take their value from def.
func ParseQuery(values url.Values, def Query) (Query, error) {
	q := def

	start, end := def.Window.Start, def.Window.End
	if raw := values.Get("start"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Query{}, eris.Errorf("api: start %q is not a year", raw)
		}
		start = n
	}
	if raw := values.Get("end"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Query{}, eris.Errorf("api: end %q is not a year", raw)
		}
		end = n
	}
	w, err := urban.NewWindow(start, end)
	if err != nil {
		return Query{}, eris.Wrap(err, "api: window")
	}
	q.Window = w

	if raw := values.Get("lens"); raw != "" {
		t, err := urban.ParseTaxonomy(raw)
		if err != nil {
			return Query{}, eris.Wrap(err, "api: lens")
		}
		q.Taxonomy = t
	}

	if raw := values.Get("weighted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Query{}, eris.Errorf("api: weighted %q is not a boolean", raw)
		}
		q.Weighted = b
	}

	if raw := values.Get("block"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Query{}, eris.Errorf("api: block %q is not a fid", raw)
		}
		q.Block = &n
	}

	return q, nil
}
