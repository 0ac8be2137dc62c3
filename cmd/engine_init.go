package main

import (
	"context"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sells-group/built-history/internal/api"
	"github.com/sells-group/built-history/internal/config"
	"github.com/sells-group/built-history/internal/dataset"
	"github.com/sells-group/built-history/internal/legend"
	"github.com/sells-group/built-history/internal/urban"
)

// engineEnv holds the loaded snapshot and legend needed by the
// aggregate/export/serve commands.
type engineEnv struct {
	Snapshot *dataset.Snapshot
	Legend   *legend.Legend
	Defaults api.Query
}

// initEngine validates the config for mode, loads the datasets once and
// resolves the legend.
func initEngine(ctx context.Context, mode string) (*engineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	defaults, err := defaultQuery(cfg)
	if err != nil {
		return nil, err
	}

	lg, err := loadLegend(cfg.Legend)
	if err != nil {
		return nil, err
	}

	src, err := dataset.Open(ctx, cfg.Data)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	snap, err := dataset.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	return &engineEnv{Snapshot: snap, Legend: lg, Defaults: defaults}, nil
}

func loadLegend(c config.LegendConfig) (*legend.Legend, error) {
	if c.Path == "" {
		return legend.Default(), nil
	}
	return legend.LoadFile(c.Path)
}

// defaultQuery is the window and lens configured for requests that set neither.
func defaultQuery(c *config.Config) (api.Query, error) {
	w, err := urban.NewWindow(c.Window.Start, c.Window.End)
	if err != nil {
		return api.Query{}, err
	}
	t, err := urban.ParseTaxonomy(c.Lens.Taxonomy)
	if err != nil {
		return api.Query{}, err
	}
	return api.Query{Window: w, Taxonomy: t, Weighted: c.Lens.Weighted}, nil
}

// lensFlags are the query flags shared by aggregate and export.
type lensFlags struct {
	start    int
	end      int
	lens     string
	weighted bool
	block    int
}

func (f *lensFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.start, "start", 0, "first year of the window (default from config)")
	cmd.Flags().IntVar(&f.end, "end", 0, "last year of the window (default from config)")
	cmd.Flags().StringVar(&f.lens, "lens", "", "taxonomy: era, usage or density (default from config)")
	cmd.Flags().BoolVar(&f.weighted, "weighted", false, "weight areas by floor count")
	cmd.Flags().IntVar(&f.block, "block", 0, "fid of the block to summarise")
}

// query applies the flags the user set on top of defaults.
func (f *lensFlags) query(cmd *cobra.Command, defaults api.Query) (api.Query, error) {
	values := url.Values{}
	if cmd.Flags().Changed("start") {
		values.Set("start", strconv.Itoa(f.start))
	}
	if cmd.Flags().Changed("end") {
		values.Set("end", strconv.Itoa(f.end))
	}
	if f.lens != "" {
		values.Set("lens", f.lens)
	}
	if cmd.Flags().Changed("weighted") {
		values.Set("weighted", strconv.FormatBool(f.weighted))
	}
	if cmd.Flags().Changed("block") {
		values.Set("block", strconv.Itoa(f.block))
	}
	return api.ParseQuery(values, defaults)
}
