package pipelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Clean(t *testing.T) {
	report := Validate("A|B|C")

	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.ItemCount)
	assert.Equal(t, 3, report.UniqueItemCount)
	assert.Empty(t, report.Issues)
}

func TestValidate_Empty(t *testing.T) {
	report := Validate("")

	assert.True(t, report.Valid)
	assert.Equal(t, 0, report.ItemCount)
}

func TestValidate_ReportsEveryKind(t *testing.T) {
	report := Validate("A||B|A|line\nbreak|")

	assert.False(t, report.Valid)
	assert.Equal(t, 4, report.ItemCount)
	assert.Equal(t, 3, report.UniqueItemCount)

	codes := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		codes = append(codes, issue.Code)
	}
	assert.Equal(t, []string{IssueEmptyItem, IssueDuplicateItem, IssueControlWhitespace}, codes)

	require.Len(t, report.Issues, 3)
	assert.Contains(t, report.Issues[0].Message, "2 empty")
	assert.Equal(t, "A", report.Issues[1].Item)
	assert.Equal(t, "line\nbreak", report.Issues[2].Item)
}

func TestValidate_Tab(t *testing.T) {
	report := Validate("a\tb")
	require.Len(t, report.Issues, 1)
	assert.Equal(t, IssueControlWhitespace, report.Issues[0].Code)
}

func TestValidate_LineBreakAtItemEdge(t *testing.T) {
	tests := []struct {
		text string
		item string
	}{
		{"A\n|B", "A\n"},
		{"A|\tB", "\tB"},
		{"A\r\n", "A\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			report := Validate(tt.text)
			assert.False(t, report.Valid)
			require.Len(t, report.Issues, 1)
			assert.Equal(t, IssueControlWhitespace, report.Issues[0].Code)
			assert.Equal(t, tt.item, report.Issues[0].Item)
		})
	}
}

func TestClean_Defaults(t *testing.T) {
	got := Clean(" A || B |A| multi\n  line\t item |", DefaultCleanOptions())
	assert.Equal(t, "A|B|multi line item", got)
	assert.True(t, Validate(got).Valid)
}

func TestClean_AllOff(t *testing.T) {
	text := " A || B |A|"
	assert.Equal(t, text, Clean(text, CleanOptions{}))
}

func TestClean_Options(t *testing.T) {
	text := " A |A||x\ny"

	tests := []struct {
		name string
		opts CleanOptions
		want string
	}{
		{"trim only", CleanOptions{TrimItems: true}, "A|A||x\ny"},
		{"empty only", CleanOptions{RemoveEmpty: true}, " A |A|x\ny"},
		{"duplicates only", CleanOptions{RemoveDuplicates: true}, " A |A||x\ny"},
		{"trim and duplicates", CleanOptions{TrimItems: true, RemoveDuplicates: true}, "A||x\ny"},
		{"line breaks only", CleanOptions{RemoveLineBreaks: true}, " A |A||x y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(text, tt.opts))
		})
	}
}
