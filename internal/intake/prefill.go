package intake

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/roach88/caseline/internal/config"
	"github.com/roach88/caseline/internal/match"
)

// Session context fields. They travel on forms but are not client columns.
const (
	FieldAppointmentID = "appointment_id"
	FieldGoal          = "goal"
)

// Prefill returns the form URL with the form's prefill fields set as query
// parameters.
//
// Each prefill field takes its value from extra when present, otherwise
// from the client: the id and name columns map to the record identity and
// any other field to the column of that name. Fields with no value are left
// out.
func Prefill(form config.Form, cols config.Columns, client match.Client, extra map[string]string) (string, error) {
	u, err := url.Parse(form.BaseURL)
	if err != nil {
		return "", fmt.Errorf("form %s: base url: %w", form.Name, err)
	}

	q := u.Query()
	for _, field := range form.Prefill {
		fieldID, ok := form.FieldFor(field)
		if !ok {
			return "", fmt.Errorf("form %s: no field id for %q", form.Name, field)
		}
		value := strings.TrimSpace(prefillValue(field, cols, client, extra))
		if value == "" {
			continue
		}
		q.Set(fieldID, value)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func prefillValue(field string, cols config.Columns, client match.Client, extra map[string]string) string {
	if v, ok := extra[field]; ok {
		return v
	}
	switch field {
	case cols.ID:
		return client.ID
	case cols.Name:
		return client.Name
	default:
		return client.Field(field)
	}
}
