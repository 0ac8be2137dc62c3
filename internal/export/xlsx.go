// Package export writes aggregation results to spreadsheet files.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/built-history/internal/urban"
)

// Sheet names written by WriteXLSX.
const (
	SheetBlocks    = "blocks"
	SheetSummary   = "summary"
	SheetHistogram = "histogram"
)

// WriteXLSX saves res as a workbook at path. labels name the taxonomy's
// buckets and head the per-bucket columns. The histogram sheet is written only
// when res carries one.
func WriteXLSX(path string, res urban.Result, labels []string) error {
	if len(labels) != res.Taxonomy.BucketCount() {
		return eris.Errorf("export: %s needs %d labels, got %d", res.Taxonomy, res.Taxonomy.BucketCount(), len(labels))
	}

	f := xlsx.NewFile()
	if err := writeBlocks(f, res, labels); err != nil {
		return err
	}
	if err := writeSummary(f, res, labels); err != nil {
		return err
	}
	if res.Histogram != nil {
		if err := writeHistogram(f, res.Histogram); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func writeBlocks(f *xlsx.File, res urban.Result, labels []string) error {
	sheet, err := f.AddSheet(SheetBlocks)
	if err != nil {
		return eris.Wrap(err, "export: add blocks sheet")
	}

	header := []string{"fid", "dominant", "member_count", "mean_floor_count", "gsi", "far", "density_class", "diversity"}
	addStrings(sheet.AddRow(), append(header, labels...)...)

	for _, b := range res.Blocks {
		row := sheet.AddRow()
		row.AddCell().SetInt(b.Fid)
		row.AddCell().SetString(bucketLabel(b.Dominant, labels))
		row.AddCell().SetInt(b.MemberCount)
		row.AddCell().SetFloat(b.MeanFloorCount)
		row.AddCell().SetFloat(b.GroundSpaceIndex)
		row.AddCell().SetFloat(b.FloorAreaRatio)
		row.AddCell().SetInt(b.DensityClass)
		row.AddCell().SetFloat(b.Diversity)
		for _, v := range b.Totals {
			row.AddCell().SetFloat(v)
		}
	}
	return nil
}

func writeSummary(f *xlsx.File, res urban.Result, labels []string) error {
	sheet, err := f.AddSheet(SheetSummary)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	s := res.Summary
	block := ""
	if s.BlockFid != nil {
		block = strconv.Itoa(*s.BlockFid)
	}

	addStrings(sheet.AddRow(), "key", "value")
	addStrings(sheet.AddRow(), "window", res.Window.String())
	addStrings(sheet.AddRow(), "taxonomy", res.Taxonomy.String())
	addStrings(sheet.AddRow(), "weighted", strconv.FormatBool(res.Weighted))
	addStrings(sheet.AddRow(), "scope", s.Scope)
	addStrings(sheet.AddRow(), "block_fid", block)
	addStrings(sheet.AddRow(), "dominant", bucketLabel(s.Dominant, labels))
	addInt(sheet.AddRow(), "filtered_count", res.FilteredCount)
	addInt(sheet.AddRow(), "member_count", s.MemberCount)
	addFloat(sheet.AddRow(), "mean_floor_count", s.MeanFloorCount)
	addFloat(sheet.AddRow(), "gsi", s.GroundSpaceIndex)
	addFloat(sheet.AddRow(), "far", s.FloorAreaRatio)
	addFloat(sheet.AddRow(), "diversity", s.Diversity)
	addFloat(sheet.AddRow(), "total", s.Total())
	for i, v := range s.Totals {
		addFloat(sheet.AddRow(), labels[i], v)
	}
	return nil
}

func writeHistogram(f *xlsx.File, h *urban.Histogram) error {
	sheet, err := f.AddSheet(SheetHistogram)
	if err != nil {
		return eris.Wrap(err, "export: add histogram sheet")
	}
	addStrings(sheet.AddRow(), "floors", "value")
	for i, v := range h {
		row := sheet.AddRow()
		row.AddCell().SetInt(i)
		row.AddCell().SetFloat(v)
	}
	return nil
}

func bucketLabel(b urban.Bucket, labels []string) string {
	if !b.Valid() || int(b) >= len(labels) {
		return ""
	}
	return labels[b]
}

func addStrings(row *xlsx.Row, values ...string) {
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addInt(row *xlsx.Row, key string, v int) {
	row.AddCell().SetString(key)
	row.AddCell().SetInt(v)
}

func addFloat(row *xlsx.Row, key string, v float64) {
	row.AddCell().SetString(key)
	row.AddCell().SetFloat(v)
}
