package urban

// Summary scopes.
const (
	ScopeBlock    = "block"
	ScopeDistrict = "district"
)

// Stats is the record behind the lens charts: either one selected block's
// figures, or the district-wide sum of bucket totals.
type Stats struct {
	Scope            string    `json:"scope"`
	BlockFid         *int      `json:"block_fid,omitempty"`
	Taxonomy         Taxonomy  `json:"taxonomy"`
	Totals           []float64 `json:"totals"`
	Dominant         Bucket    `json:"dominant"`
	Diversity        float64   `json:"diversity"`
	MemberCount      int       `json:"member_count"`
	MeanFloorCount   float64   `json:"mean_floor_count"`
	GroundSpaceIndex float64   `json:"gsi"`
	FloorAreaRatio   float64   `json:"far"`
}

// Total is the sum of all bucket totals.
func (s Stats) Total() float64 {
	var sum float64
	for _, v := range s.Totals {
		sum += v
	}
	return sum
}

// Summarize reduces aggregated blocks to one Stats record. When selected names
// a block present in blocks its figures are returned as-is; otherwise totals are
// summed element-wise over every block. Totals always has t.BucketCount() entries.
func Summarize(blocks []AggregatedBlock, t Taxonomy, selected *int) Stats {
	if selected != nil {
		if blk, ok := findBlock(blocks, *selected); ok {
			return blockStats(blk, t)
		}
	}

	stats := Stats{
		Scope:    ScopeDistrict,
		Taxonomy: t,
		Totals:   make([]float64, t.BucketCount()),
	}
	for _, blk := range blocks {
		for i := range stats.Totals {
			if i < len(blk.Totals) {
				stats.Totals[i] += blk.Totals[i]
			}
		}
		stats.MemberCount += blk.MemberCount
	}
	stats.Dominant = DominantBucket(stats.Totals)
	stats.Diversity = SimpsonIndex(stats.Totals)
	return stats
}

func blockStats(blk AggregatedBlock, t Taxonomy) Stats {
	fid := blk.Fid
	totals := make([]float64, t.BucketCount())
	copy(totals, blk.Totals)
	return Stats{
		Scope:            ScopeBlock,
		BlockFid:         &fid,
		Taxonomy:         t,
		Totals:           totals,
		Dominant:         blk.Dominant,
		Diversity:        blk.Diversity,
		MemberCount:      blk.MemberCount,
		MeanFloorCount:   blk.MeanFloorCount,
		GroundSpaceIndex: blk.GroundSpaceIndex,
		FloorAreaRatio:   blk.FloorAreaRatio,
	}
}

func findBlock(blocks []AggregatedBlock, fid int) (AggregatedBlock, bool) {
	for _, blk := range blocks {
		if blk.Fid == fid {
			return blk, true
		}
	}
	return AggregatedBlock{}, false
}
