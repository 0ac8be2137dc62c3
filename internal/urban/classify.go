package urban

import "math"

// Era cutoffs: inclusive upper bounds of each construction period.
var eraCutoffs = []int{1871, 1921, 1941, 1959, 1974, 1991, 2007, MaxYear}

// Height-class lower bounds in floors; each class runs to the next bound.
var heightFloors = []float64{1, 5, 10, 17}

// BuildingClasses holds a building's bucket under every taxonomy.
type BuildingClasses struct {
	Era     Bucket `json:"era"`
	LandUse Bucket `json:"usage"`
	Height  Bucket `json:"height"`
}

// Classify returns the bucket b falls into under t, or NoBucket.
// Rules:
//   - era: first cutoff >= YearBuilt, for YearBuilt in [MinYear, MaxYear]
//   - usage: exact land-use code match
//   - height: half-open floor ranges [1,5) [5,10) [10,17) [17,inf)
func Classify(b Building, t Taxonomy) Bucket {
	switch t {
	case Era:
		return classifyEra(b.YearBuilt)
	case LandUseTax:
		return classifyLandUse(b.LandUse)
	case HeightClass:
		return classifyHeight(b.FloorCount)
	default:
		return NoBucket
	}
}

// ClassifyMetric returns the bucket and the metric b contributes to it.
func ClassifyMetric(b Building, t Taxonomy, weighted bool) (Bucket, float64) {
	return Classify(b, t), Metric(b, weighted)
}

// ClassifyAll classifies b under every taxonomy.
func ClassifyAll(b Building) BuildingClasses {
	return BuildingClasses{
		Era:     Classify(b, Era),
		LandUse: Classify(b, LandUseTax),
		Height:  Classify(b, HeightClass),
	}
}

func classifyEra(year int) Bucket {
	// Out-of-range years are left unclassified rather than clamped.
	if year < MinYear || year > MaxYear {
		return NoBucket
	}
	for i, cutoff := range eraCutoffs {
		if year <= cutoff {
			return Bucket(i)
		}
	}
	return NoBucket
}

func classifyLandUse(lu LandUse) Bucket {
	for i, known := range landUseOrder {
		if lu == known {
			return Bucket(i)
		}
	}
	return NoBucket
}

func classifyHeight(floors float64) Bucket {
	if math.IsNaN(floors) || floors < heightFloors[0] {
		return NoBucket
	}
	for i := len(heightFloors) - 1; i >= 0; i-- {
		if floors >= heightFloors[i] {
			return Bucket(i)
		}
	}
	return NoBucket
}

// EraPresets returns the window spanned by each era bucket, in bucket order.
func EraPresets() []Window {
	out := make([]Window, len(eraCutoffs))
	start := MinYear
	for i, cutoff := range eraCutoffs {
		out[i] = Window{Start: start, End: cutoff}
		start = cutoff + 1
	}
	return out
}
