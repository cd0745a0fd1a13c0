package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Sample(t *testing.T) {
	raw, err := Load(samplePath)
	require.NoError(t, err)

	assert.Equal(t, "suicide_sample.csv", raw.Name())
	assert.Equal(t, 6, raw.NumRows())
	assert.Equal(t, 12, raw.NumColumns())
	assert.Len(t, raw.Digest(), 64)

	for _, c := range raw.Columns() {
		assert.Equal(t, KindText, c.Kind, "column %q", c.Name)
	}

	// Cells stay literal, including separators and currency symbols.
	gdp, ok := raw.Cell(0, "gdp_for_year ($)")
	require.True(t, ok)
	assert.Equal(t, "2,156,624,900", gdp.Text)

	hdi, ok := raw.Cell(0, "HDI for year")
	require.True(t, ok)
	assert.Equal(t, "", hdi.Text)
}

// The published Kaggle file pads the GDP header as " gdp_for_year ($) ".
// Trimming it at load keeps the cleaned name gdp_for_year_$ instead of
// _gdp_for_year_$_, which downstream tools and the publish table expect.
func TestLoad_PaddedGDPHeaderTrimmed(t *testing.T) {
	raw, err := Load(samplePath)
	require.NoError(t, err)

	assert.True(t, raw.HasColumn("gdp_for_year ($)"))
	assert.False(t, raw.HasColumn(" gdp_for_year ($) "))
	for _, name := range raw.ColumnNames() {
		assert.Equal(t, strings.TrimSpace(name), name)
	}

	clean, err := Clean(raw)
	require.NoError(t, err)
	assert.True(t, clean.HasColumn(ColGDPForYear))
	assert.False(t, clean.HasColumn("_gdp_for_year_$_"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "sucide_case.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "DATA001", MapError(err).Code)
}

func TestLoadReader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     string
		wantColumns []string
		wantRows    int
	}{
		{
			name:        "header only",
			input:       "a,b\n",
			wantColumns: []string{"a", "b"},
			wantRows:    0,
		},
		{
			name:        "byte order mark removed",
			input:       "\xEF\xBB\xBFcountry,year\nPeru,1990\n",
			wantColumns: []string{"country", "year"},
			wantRows:    1,
		},
		{
			name:        "header names trimmed",
			input:       "a, gdp_for_year ($) \n1,2\n",
			wantColumns: []string{"a", "gdp_for_year ($)"},
			wantRows:    1,
		},
		{
			name:        "missing trailing newline",
			input:       "a,b\n1,2",
			wantColumns: []string{"a", "b"},
			wantRows:    1,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: "empty file",
		},
		{
			name:    "whitespace only",
			input:   " \n\n",
			wantErr: "empty file",
		},
		{
			name:    "row wider than header",
			input:   "a,b\n1,2,3\n",
			wantErr: "invalid csv",
		},
		{
			name:    "row narrower than header",
			input:   "a,b\n1\n",
			wantErr: "invalid csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := LoadReader(strings.NewReader(tt.input), "inline.csv")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, raw)
				assert.True(t, errors.Is(err, ErrDataUnavailable))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantColumns, raw.ColumnNames())
			assert.Equal(t, tt.wantRows, raw.NumRows())
		})
	}
}

func TestLoadReader_InvalidUTF8Replaced(t *testing.T) {
	raw, err := LoadReader(strings.NewReader("country\nS\xe3o Tom\xe9\n"), "latin1.csv")
	require.NoError(t, err)

	cell, ok := raw.Cell(0, "country")
	require.True(t, ok)
	assert.Equal(t, "S\uFFFDo Tom\uFFFD", cell.Text)
}

func TestLoadReader_QuotedCellsKeepCommas(t *testing.T) {
	raw, err := LoadReader(strings.NewReader("name,gdp\n\"Korea, Rep.\",\"1,000\"\n"), "q.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Korea, Rep.", "1,000"}, raw.Record(0))
}

func TestLoadReader_DigestTracksContent(t *testing.T) {
	a, err := LoadReader(strings.NewReader("a\n1\n"), "x.csv")
	require.NoError(t, err)
	b, err := LoadReader(strings.NewReader("a\n1\n"), "y.csv")
	require.NoError(t, err)
	c, err := LoadReader(strings.NewReader("a\n2\n"), "x.csv")
	require.NoError(t, err)

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}
