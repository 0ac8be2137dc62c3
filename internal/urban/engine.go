package urban

// Input is everything one aggregation pass depends on.
type Input struct {
	Buildings     []Building
	Blocks        []Block
	Window        Window
	Taxonomy      Taxonomy
	Weighted      bool
	SelectedBlock *int
}

// Result is a complete, freshly built aggregation. Histogram is set only for
// the height-class lens.
type Result struct {
	Window        Window            `json:"window"`
	Taxonomy      Taxonomy          `json:"taxonomy"`
	Weighted      bool              `json:"weighted"`
	FilteredCount int               `json:"filtered_count"`
	Blocks        []AggregatedBlock `json:"blocks"`
	Summary       Stats             `json:"summary"`
	Histogram     *Histogram        `json:"histogram,omitempty"`
}

// Aggregate runs the full pass: filter by window, bucket and sum per block,
// reduce to chart stats and, for the height lens, build the floor histogram.
// It never mutates its input and returns identical output for identical input.
func Aggregate(in Input) Result {
	filtered := Filter(in.Buildings, in.Window)
	blocks := AggregateBlocks(filtered, in.Blocks, in.Taxonomy, in.Weighted)
	selected := resolveSelection(in.Blocks, in.SelectedBlock)

	res := Result{
		Window:        in.Window,
		Taxonomy:      in.Taxonomy,
		Weighted:      in.Weighted,
		FilteredCount: len(filtered),
		Blocks:        blocks,
		Summary:       Summarize(blocks, in.Taxonomy, selected),
	}
	if in.Taxonomy == HeightClass {
		h := HeightHistogram(filtered, selected, in.Weighted)
		res.Histogram = &h
	}
	return res
}

// resolveSelection drops a selection that names no known block, so the
// summary and the histogram agree on scope.
func resolveSelection(blocks []Block, selected *int) *int {
	if selected == nil {
		return nil
	}
	for _, b := range blocks {
		if b.Fid == *selected {
			fid := *selected
			return &fid
		}
	}
	return nil
}
