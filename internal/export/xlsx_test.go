package export

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/built-history/internal/legend"
	"github.com/sells-group/built-history/internal/urban"
)

func testResult(t urban.Taxonomy, selected *int) urban.Result {
	return urban.Aggregate(urban.Input{
		Buildings: []urban.Building{
			{Fid: 1, BlockFid: 1, YearBuilt: 1850, YearLost: 2099, FloorCount: 2, Area: 120, LandUse: urban.LandUseDetachedHouse},
			{Fid: 2, BlockFid: 1, YearBuilt: 1900, YearLost: 2099, FloorCount: 5, Area: 100, LandUse: urban.LandUseApartments},
			{Fid: 3, BlockFid: 2, YearBuilt: 1965, YearLost: 2099, FloorCount: 9, Area: 400, LandUse: urban.LandUseApartments},
		},
		Blocks:        []urban.Block{{Fid: 1, FootprintArea: 2000}, {Fid: 2, FootprintArea: 3000}},
		Window:        urban.FullWindow(),
		Taxonomy:      t,
		SelectedBlock: selected,
	})
}

func readSheet(t *testing.T, f *xlsx.File, name string) [][]string {
	t.Helper()
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "sheet %q missing", name)
	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		rows[i] = make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			rows[i][j] = cell.String()
		}
	}
	return rows
}

func number(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err, s)
	return v
}

func TestWriteXLSX_Usage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.xlsx")
	labels := legend.Default().Labels(urban.LandUseTax)

	require.NoError(t, WriteXLSX(path, testResult(urban.LandUseTax, nil), labels))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 2)
	_, hasHistogram := f.Sheet[SheetHistogram]
	assert.False(t, hasHistogram)

	blocks := readSheet(t, f, SheetBlocks)
	require.Len(t, blocks, 3)
	assert.Equal(t, "fid", blocks[0][0])
	assert.Equal(t, labels[0], blocks[0][8])
	assert.Len(t, blocks[0], 8+len(labels))

	assert.Equal(t, "1", blocks[1][0])
	assert.Equal(t, "Single-family houses", blocks[1][1])
	assert.InDelta(t, 120, number(t, blocks[1][8]), 1e-9)
	assert.InDelta(t, 100, number(t, blocks[1][9]), 1e-9)
	assert.Equal(t, "Apartment buildings", blocks[2][1])

	summary := readSheet(t, f, SheetSummary)
	values := map[string]string{}
	for _, row := range summary[1:] {
		values[row[0]] = row[1]
	}
	assert.Equal(t, "district", values["scope"])
	assert.Equal(t, "usage", values["taxonomy"])
	assert.Equal(t, "1781-2025", values["window"])
	assert.InDelta(t, 620, number(t, values["total"]), 1e-9)
	assert.InDelta(t, 500, number(t, values["Apartment buildings"]), 1e-9)
}

func TestWriteXLSX_DensityHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "density.xlsx")
	selected := 1
	res := testResult(urban.HeightClass, &selected)

	require.NoError(t, WriteXLSX(path, res, legend.Default().Labels(urban.HeightClass)))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Sheets, 3)

	hist := readSheet(t, f, SheetHistogram)
	require.Len(t, hist, urban.HistogramBins+1)
	assert.Equal(t, []string{"floors", "value"}, hist[0])
	assert.InDelta(t, 120, number(t, hist[3][1]), 1e-9)
	assert.InDelta(t, 100, number(t, hist[6][1]), 1e-9)
	assert.InDelta(t, 0, number(t, hist[10][1]), 1e-9)

	summary := readSheet(t, f, SheetSummary)
	values := map[string]string{}
	for _, row := range summary[1:] {
		values[row[0]] = row[1]
	}
	assert.Equal(t, "block", values["scope"])
	assert.Equal(t, "1", values["block_fid"])
	assert.InDelta(t, 0.11, number(t, values["gsi"]), 1e-9)
}

func TestWriteXLSX_LabelMismatch(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "bad.xlsx"), testResult(urban.Era, nil), []string{"only"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 8 labels")
}

func TestWriteXLSX_BadPath(t *testing.T) {
	err := WriteXLSX(filepath.Join(t.TempDir(), "missing", "dir", "out.xlsx"), testResult(urban.Era, nil), legend.Default().Labels(urban.Era))
	assert.Error(t, err)
}
