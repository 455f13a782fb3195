package match

import (
	"regexp"
	"strings"
)

// SessionKeywords are stripped from titles when extracting a client name.
var SessionKeywords = []string{
	"therapy",
	"session",
	"counseling",
	"appointment",
	"meeting",
	"consultation",
	"treatment",
}

// separatorChars is the cutset trimmed from extracted names; separatorClass
// is the same set as a regexp character class.
const (
	separatorChars = " \t-–—:|,/"
	separatorClass = `[\s\-–—:|,/]`
)

var (
	idPattern          = regexp.MustCompile(`\(([A-Z0-9]+)\)`)
	parentheticalRegex = regexp.MustCompile(`\([^)]*\)`)
	keywordRegex       = regexp.MustCompile(`(?i)` + separatorClass + `*\b(?:` + strings.Join(SessionKeywords, "|") + `)\b` + separatorClass + `*`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
)

// ParseTitle extracts a client identifier and a client name from an
// appointment title.
//
// The identifier is the first parenthesized run of uppercase letters and
// digits, e.g. "(C001)". The name is the title with all parenthetical content
// and session keywords removed. A keyword takes the separator runs on both
// sides with it and leaves a single space behind. When nothing is left the
// untouched title is returned as the name.
//
//	ParseTitle("Therapy Session - John Doe (C001)") // "C001", "John Doe"
func ParseTitle(title string) (id, name string) {
	if m := idPattern.FindStringSubmatch(title); m != nil {
		id = m[1]
	}

	name = parentheticalRegex.ReplaceAllString(title, " ")
	name = keywordRegex.ReplaceAllString(name, " ")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	name = strings.Trim(name, separatorChars)
	if name == "" {
		name = title
	}
	return id, name
}
