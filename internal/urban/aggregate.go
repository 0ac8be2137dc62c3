package urban

// Interval stops for the density colour ramp. A value at or above stop i is class i+1.
var (
	gsiStops = []float64{0.01, 0.05, 0.1, 0.2, 0.3}
	farStops = []float64{0.05, 0.25, 0.5, 0.75, 1}
)

// AggregatedBlock holds the statistics derived for one block in one pass.
// Every pass builds new values; nothing carries over between passes.
type AggregatedBlock struct {
	Fid              int       `json:"fid"`
	Taxonomy         Taxonomy  `json:"taxonomy"`
	Totals           []float64 `json:"totals"`
	Dominant         Bucket    `json:"dominant"`
	MemberCount      int       `json:"member_count"`
	MeanFloorCount   float64   `json:"mean_floor_count"`
	GroundSpaceIndex float64   `json:"gsi"`
	FloorAreaRatio   float64   `json:"far"`
	DensityClass     int       `json:"density_class"`
	Diversity        float64   `json:"diversity"`
}

// AggregateBlocks sums the filtered buildings into their blocks under t.
// Buildings referencing a block not in blocks are dropped. Output order follows blocks.
func AggregateBlocks(filtered []Building, blocks []Block, t Taxonomy, weighted bool) []AggregatedBlock {
	members := indexByBlock(filtered)

	out := make([]AggregatedBlock, 0, len(blocks))
	for _, blk := range blocks {
		out = append(out, aggregateBlock(blk, members[blk.Fid], t, weighted))
	}
	return out
}

// indexByBlock groups buildings by BlockFid, keeping input order within each group.
func indexByBlock(buildings []Building) map[int][]Building {
	idx := make(map[int][]Building)
	for _, b := range buildings {
		idx[b.BlockFid] = append(idx[b.BlockFid], b)
	}
	return idx
}

func aggregateBlock(blk Block, members []Building, t Taxonomy, weighted bool) AggregatedBlock {
	agg := AggregatedBlock{
		Fid:         blk.Fid,
		Taxonomy:    t,
		Totals:      make([]float64, t.BucketCount()),
		MemberCount: len(members),
	}

	var floors, metricSum float64
	for _, b := range members {
		bucket, m := ClassifyMetric(b, t, weighted)
		if bucket.Valid() {
			agg.Totals[bucket] += m
		}
		metricSum += m
		floors += b.FloorCount
	}

	agg.Dominant = DominantBucket(agg.Totals)
	agg.Diversity = SimpsonIndex(agg.Totals)
	agg.MeanFloorCount = safeDiv(floors, float64(len(members)))

	if t == HeightClass {
		ratio := safeDiv(metricSum, blk.FootprintArea)
		if weighted {
			agg.FloorAreaRatio = ratio
			agg.DensityClass = DensityClass(ratio, true)
		} else {
			agg.GroundSpaceIndex = ratio
			agg.DensityClass = DensityClass(ratio, false)
		}
	}
	return agg
}

// IndexOfMax returns the index of the first maximum in values, or -1 when empty.
func IndexOfMax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	maxIdx := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}

// DominantBucket returns the bucket with the largest total, lowest index on
// ties, or NoBucket when every total is zero.
func DominantBucket(totals []float64) Bucket {
	i := IndexOfMax(totals)
	if i < 0 || totals[i] == 0 {
		return NoBucket
	}
	return Bucket(i)
}

// SimpsonIndex returns the Gini-Simpson diversity 1 - sum(p^2) over the
// positive totals, 0 when there are none.
func SimpsonIndex(totals []float64) float64 {
	conc := SimpsonConcentration(totals)
	if conc == 0 {
		return 0
	}
	return 1 - conc
}

// SimpsonConcentration returns sum(p^2) over the positive totals, 0 when there are none.
func SimpsonConcentration(totals []float64) float64 {
	var sum float64
	for _, v := range totals {
		if v > 0 {
			sum += v
		}
	}
	if sum == 0 {
		return 0
	}
	var squares float64
	for _, v := range totals {
		if v > 0 {
			p := v / sum
			squares += p * p
		}
	}
	return squares
}

// DensityClass buckets a GSI (or FAR when far is set) value onto the 0..5 colour ramp.
func DensityClass(value float64, far bool) int {
	stops := gsiStops
	if far {
		stops = farStops
	}
	class := 0
	for _, s := range stops {
		if value >= s {
			class++
		}
	}
	return class
}

// safeDiv defines x/0 as 0.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
