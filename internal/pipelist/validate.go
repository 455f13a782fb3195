package pipelist

import (
	"fmt"
	"regexp"
	"strings"
)

// Issue codes reported by Validate.
const (
	IssueEmptyItem         = "empty-item"
	IssueDuplicateItem     = "duplicate-item"
	IssueControlWhitespace = "control-whitespace"
)

// Issue describes one problem found by Validate.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Item    string `json:"item,omitempty"`
}

// Report is the result of Validate. Valid is true iff Issues is empty.
type Report struct {
	Valid           bool    `json:"valid"`
	ItemCount       int     `json:"item_count"`
	UniqueItemCount int     `json:"unique_item_count"`
	Issues          []Issue `json:"issues,omitempty"`
}

// Validate reports, without fixing, empty segments, duplicate items and
// items that contain line breaks or tabs.
func Validate(text string) Report {
	items := Parse(text)
	report := Report{
		ItemCount:       len(items),
		UniqueItemCount: len(dedupe(items)),
	}

	// Line breaks and tabs are checked on the raw segments; Parse trims
	// them away at the item edges.
	var control []string
	if strings.TrimSpace(text) != "" {
		empty := 0
		for _, piece := range strings.Split(text, Separator) {
			if strings.TrimSpace(piece) == "" {
				empty++
				continue
			}
			if strings.ContainsAny(piece, "\r\n\t") {
				control = append(control, strings.Trim(piece, " "))
			}
		}
		if empty > 0 {
			report.Issues = append(report.Issues, Issue{
				Code:    IssueEmptyItem,
				Message: fmt.Sprintf("%d empty item(s) between separators", empty),
			})
		}
	}

	counts := make(map[string]int, len(items))
	for _, it := range items {
		counts[it]++
	}
	for _, it := range dedupe(items) {
		if n := counts[it]; n > 1 {
			report.Issues = append(report.Issues, Issue{
				Code:    IssueDuplicateItem,
				Message: fmt.Sprintf("item appears %d times", n),
				Item:    it,
			})
		}
	}

	for _, it := range control {
		report.Issues = append(report.Issues, Issue{
			Code:    IssueControlWhitespace,
			Message: "item contains a line break or tab",
			Item:    it,
		})
	}

	report.Valid = len(report.Issues) == 0
	return report
}

// CleanOptions selects the fixes applied by Clean. Each option works on its
// own and they compose.
type CleanOptions struct {
	RemoveDuplicates bool `json:"remove_duplicates"`
	RemoveEmpty      bool `json:"remove_empty"`
	TrimItems        bool `json:"trim_items"`
	RemoveLineBreaks bool `json:"remove_line_breaks"`
}

// DefaultCleanOptions turns every fix on.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		RemoveDuplicates: true,
		RemoveEmpty:      true,
		TrimItems:        true,
		RemoveLineBreaks: true,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean rewrites text according to opts. Unlike Serialize it works on the
// raw segments, so with every option off the text comes back unchanged.
//
// Fixes are applied in this order: line breaks, trimming, empty removal,
// duplicate removal. Duplicate detection compares segments as they are after
// the earlier fixes.
func Clean(text string, opts CleanOptions) string {
	if text == "" {
		return text
	}
	pieces := strings.Split(text, Separator)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if opts.RemoveLineBreaks {
			p = whitespaceRun.ReplaceAllString(p, " ")
		}
		if opts.TrimItems {
			p = strings.TrimSpace(p)
		}
		if opts.RemoveEmpty && strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	if opts.RemoveDuplicates {
		out = dedupe(out)
	}
	return strings.Join(out, Separator)
}
