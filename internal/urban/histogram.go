package urban

import "math"

// HistogramBins is the number of floor-count bins, covering rounded counts 0..25.
const HistogramBins = 26

// Histogram holds the metric summed per rounded floor count.
type Histogram [HistogramBins]float64

// HeightHistogram bins the filtered buildings by rounded floor count. With a
// selection only that block's buildings count. Counts rounding above 25 are
// dropped rather than folded into the top bin.
func HeightHistogram(filtered []Building, selected *int, weighted bool) Histogram {
	var h Histogram
	for _, b := range filtered {
		if selected != nil && b.BlockFid != *selected {
			continue
		}
		bin, ok := floorBin(b.FloorCount)
		if !ok {
			continue
		}
		h[bin] += Metric(b, weighted)
	}
	return h
}

// floorBin rounds half up, matching the map's floor labels.
func floorBin(floors float64) (int, bool) {
	if math.IsNaN(floors) || math.IsInf(floors, 0) {
		return 0, false
	}
	r := math.Floor(floors + 0.5)
	if r < 0 || r >= HistogramBins {
		return 0, false
	}
	return int(r), true
}
