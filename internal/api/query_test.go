package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/built-history/internal/urban"
)

func TestParseQuery(t *testing.T) {
	def := Query{Window: urban.FullWindow(), Taxonomy: urban.Era}

	q, err := ParseQuery(url.Values{}, def)
	require.NoError(t, err)
	assert.Equal(t, def, q)

	q, err = ParseQuery(url.Values{
		"start":    {"1900"},
		"end":      {"1950"},
		"lens":     {"height"},
		"weighted": {"1"},
		"block":    {"12"},
	}, def)
	require.NoError(t, err)
	assert.Equal(t, urban.Window{Start: 1900, End: 1950}, q.Window)
	assert.Equal(t, urban.HeightClass, q.Taxonomy)
	assert.True(t, q.Weighted)
	require.NotNil(t, q.Block)
	assert.Equal(t, 12, *q.Block)
}

func TestParseQuery_PartialWindow(t *testing.T) {
	def := Query{Window: urban.FullWindow(), Taxonomy: urban.Era}

	q, err := ParseQuery(url.Values{"start": {"2000"}}, def)
	require.NoError(t, err)
	assert.Equal(t, urban.Window{Start: 2000, End: urban.MaxYear}, q.Window)

	_, err = ParseQuery(url.Values{"end": {"1700"}}, def)
	assert.ErrorIs(t, err, urban.ErrInvalidWindow)
}

func TestParseQuery_UnknownLens(t *testing.T) {
	_, err := ParseQuery(url.Values{"lens": {"colour"}}, Query{Window: urban.FullWindow()})
	assert.ErrorIs(t, err, urban.ErrUnknownTaxonomy)
}

func TestQueryKey(t *testing.T) {
	block := 3
	a := Query{Window: urban.FullWindow(), Taxonomy: urban.LandUseTax}
	b := a
	b.Block = &block
	c := a
	c.Weighted = true

	assert.Equal(t, "1781-2025|usage|false|-", a.Key())
	assert.Equal(t, "1781-2025|usage|false|3", b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestQueryInput(t *testing.T) {
	block := 1
	q := Query{Window: urban.Window{Start: 1900, End: 1950}, Taxonomy: urban.HeightClass, Weighted: true, Block: &block}
	in := q.Input([]urban.Building{{Fid: 1}}, []urban.Block{{Fid: 1}})

	assert.Equal(t, q.Window, in.Window)
	assert.Equal(t, urban.HeightClass, in.Taxonomy)
	assert.True(t, in.Weighted)
	assert.Equal(t, &block, in.SelectedBlock)
	assert.Len(t, in.Buildings, 1)
}
