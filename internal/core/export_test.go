package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_CleanSample(t *testing.T) {
	clean, err := Clean(loadSample(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, clean))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, clean.NumRows()+1)

	assert.Equal(t,
		"country,year,sex,age,suicides_no,population,suicides/100k_pop,country-year,gdp_for_year_$,gdp_per_capita,generation",
		lines[0])
	assert.Equal(t,
		"Albania,1987,male,15-24 years,21,312900,6.71,Albania1987,2156624900,796,Generation X",
		lines[1])
	// Missing numbers are written as empty fields.
	assert.Equal(t,
		"Zimbabwe,2016,male,5-14 years,,1000000,0,Zimbabwe2016,,,Generation Z",
		lines[6])
}

func TestWriteCSV_RoundTripsThroughLoader(t *testing.T) {
	clean, err := Clean(loadSample(t))
	require.NoError(t, err)

	data, err := EncodeCSV(clean)
	require.NoError(t, err)

	reloaded, err := LoadReader(bytes.NewReader(data), ExportFileName)
	require.NoError(t, err)

	assert.Equal(t, clean.ColumnNames(), reloaded.ColumnNames())
	require.Equal(t, clean.NumRows(), reloaded.NumRows())
	for i := 0; i < clean.NumRows(); i++ {
		assert.Equal(t, clean.Record(i), reloaded.Record(i), "row %d", i)
	}
}

func TestWriteCSV_QuotesWhenNeeded(t *testing.T) {
	tbl, err := NewTable("q", []Column{{Name: "name", Kind: KindText}, {Name: "n", Kind: KindNumeric}},
		[][]Value{{TextValue("Korea, Rep."), NumberValue(1.5)}})
	require.NoError(t, err)

	data, err := EncodeCSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "name,n\n\"Korea, Rep.\",1.5\n", string(data))
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	tbl, err := NewTable("empty", []Column{{Name: "a"}, {Name: "b"}}, nil)
	require.NoError(t, err)

	data, err := EncodeCSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}
