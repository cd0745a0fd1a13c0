package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	assert.NotEmpty(t, c.Title)
	assert.NotEmpty(t, c.Intro)
	assert.Len(t, c.Columns, 11)
	assert.Len(t, c.Issues, 11)
	assert.NotEmpty(t, c.Steps)

	assert.Same(t, c, Default())
}

func TestDescribe(t *testing.T) {
	c := Default()

	desc, ok := c.Describe("suicides_no")
	assert.True(t, ok)
	assert.Equal(t, "Total number of suicides for the group.", desc)

	_, ok = c.Describe("no_such_column")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid yaml", "columns: [unterminated"},
		{"no columns", "issues:\n  - column: a\n    issue: b\n    fix: c\n"},
		{"no issues", "columns:\n  - name: a\n    description: b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}
