package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DomainSubmission versions the submission id hash.
const DomainSubmission = "caseline/submission/v1"

// Submission is one form response. Answers are keyed by the external
// form's field ids.
type Submission struct {
	Form        string            `json:"form" yaml:"form"`
	ClientID    string            `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at" yaml:"submitted_at"`
	Answers     map[string]string `json:"answers" yaml:"answers"`
}

// DecodeSubmissions reads a YAML stream of submissions. Each document is a
// single submission or a sequence of them. JSON input is accepted since it
// is valid YAML.
func DecodeSubmissions(r io.Reader) ([]Submission, error) {
	dec := yaml.NewDecoder(r)
	subs := []Submission{}
	for doc := 1; ; doc++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return subs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode submissions: document %d: %w", doc, err)
		}
		if len(node.Content) == 0 {
			continue
		}

		body := node.Content[0]
		switch body.Kind {
		case yaml.SequenceNode:
			var batch []Submission
			if err := body.Decode(&batch); err != nil {
				return nil, fmt.Errorf("decode submissions: document %d: %w", doc, err)
			}
			subs = append(subs, batch...)
		case yaml.MappingNode:
			var sub Submission
			if err := body.Decode(&sub); err != nil {
				return nil, fmt.Errorf("decode submissions: document %d: %w", doc, err)
			}
			subs = append(subs, sub)
		case yaml.ScalarNode:
			if body.Tag == "!!null" {
				continue
			}
			return nil, fmt.Errorf("decode submissions: document %d: expected a mapping or a sequence", doc)
		default:
			return nil, fmt.Errorf("decode submissions: document %d: expected a mapping or a sequence", doc)
		}
	}
}

// SubmissionID computes the content-addressed id of a submission.
// Format: hex(SHA256(domain + 0x00 + canonical JSON)). Strings are NFC
// normalized and the timestamp is rendered in UTC, so equal submissions
// always get the same id.
func SubmissionID(sub Submission) string {
	answers := make(map[string]string, len(sub.Answers))
	for k, v := range sub.Answers {
		answers[norm.NFC.String(k)] = norm.NFC.String(v)
	}
	var at string
	if !sub.SubmittedAt.IsZero() {
		at = sub.SubmittedAt.UTC().Format(time.RFC3339Nano)
	}
	// encoding/json sorts map keys; struct field order is fixed.
	canonical, err := json.Marshal(struct {
		Form        string            `json:"form"`
		ClientID    string            `json:"client_id"`
		SubmittedAt string            `json:"submitted_at"`
		Answers     map[string]string `json:"answers"`
	}{
		Form:        norm.NFC.String(sub.Form),
		ClientID:    norm.NFC.String(sub.ClientID),
		SubmittedAt: at,
		Answers:     answers,
	})
	if err != nil {
		// Only strings and a map of strings are marshaled.
		panic(fmt.Sprintf("intake: marshal submission: %v", err))
	}
	return hashWithDomain(DomainSubmission, canonical)
}

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
