package match

import "time"

// Appointment is a calendar entry as seen by the matcher.
//
// ExtractedClientID and ExtractedClientName are best-effort parses of the
// free-text title (see ParseTitle) and may both be empty.
type Appointment struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Start    time.Time `json:"start" yaml:"start"`
	End      time.Time `json:"end" yaml:"end"`
	Location string    `json:"location,omitempty" yaml:"location,omitempty"`

	ExtractedClientID   string `json:"extracted_client_id,omitempty" yaml:"-"`
	ExtractedClientName string `json:"extracted_client_name,omitempty" yaml:"-"`
}

// FromTitle builds an appointment and fills the extracted fields from title.
func FromTitle(id, title string, start, end time.Time, location string) Appointment {
	clientID, name := ParseTitle(title)
	return Appointment{
		ID:                  id,
		Title:               title,
		Start:               start,
		End:                 end,
		Location:            location,
		ExtractedClientID:   clientID,
		ExtractedClientName: name,
	}
}

// Client is a row of the client directory.
//
// Fields holds every other column of the row keyed by column name. Matching
// only looks at ID and Name.
type Client struct {
	ID     string            `json:"id" yaml:"id"`
	Name   string            `json:"name" yaml:"name"`
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field returns the value of a directory column, or "" when unset.
func (c Client) Field(column string) string {
	if c.Fields == nil {
		return ""
	}
	return c.Fields[column]
}

// Confidence labels how trustworthy an appointment-to-client link is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Rank orders confidence labels: high=3 down to none=0. Unknown labels rank
// as none.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// ParseConfidence maps a stored label back to a Confidence. Unknown labels
// become ConfidenceNone.
func ParseConfidence(s string) Confidence {
	switch c := Confidence(s); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceNone
	}
}

// Result is the outcome of Match.
//
// Client points into the candidate slice passed to Match; it is a view, not a
// copy. Confidence is ConfidenceNone exactly when Client is nil.
type Result struct {
	Client     *Client    `json:"client,omitempty"`
	Confidence Confidence `json:"confidence"`
	Strategy   string     `json:"strategy,omitempty"`
}

// Matched reports whether a client was found.
func (r Result) Matched() bool {
	return r.Client != nil
}
