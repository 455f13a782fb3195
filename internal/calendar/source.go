// Package calendar provides appointment sources for matching and session
// tracking.
//
// The real calendar service is out of scope; FileSource reads an exported
// YAML document instead, and StaticSource serves a fixed list.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/caseline/internal/match"
)

// Source lists appointments overlapping the window [start, end).
// A zero start or end leaves that side of the window open.
type Source interface {
	List(ctx context.Context, start, end time.Time) ([]match.Appointment, error)
}

// record is one appointment in a calendar file.
type record struct {
	ID         string    `yaml:"id"`
	Title      string    `yaml:"title"`
	Start      time.Time `yaml:"start"`
	End        time.Time `yaml:"end"`
	Location   string    `yaml:"location,omitempty"`
	ClientID   string    `yaml:"client_id,omitempty"`
	ClientName string    `yaml:"client_name,omitempty"`
}

type document struct {
	Appointments []record `yaml:"appointments"`
}

// FileSource reads appointments from a YAML file on every List call.
type FileSource struct {
	Path string
}

// NewFileSource returns a source for the calendar file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// List implements Source.
func (s *FileSource) List(ctx context.Context, start, end time.Time) ([]match.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	appts, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", s.Path, err)
	}
	return Window(appts, start, end), nil
}

// Decode parses a calendar document. Extracted client fields come from the
// title unless the record sets client_id or client_name explicitly.
func Decode(data []byte) ([]match.Appointment, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	appts := make([]match.Appointment, 0, len(doc.Appointments))
	seen := make(map[string]bool, len(doc.Appointments))
	for i, r := range doc.Appointments {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return nil, fmt.Errorf("appointment %d: missing id", i+1)
		}
		if seen[id] {
			return nil, fmt.Errorf("appointment %s: duplicate id", id)
		}
		seen[id] = true
		if r.Start.IsZero() {
			return nil, fmt.Errorf("appointment %s: missing start", id)
		}
		if r.End.IsZero() {
			r.End = r.Start
		}
		if r.End.Before(r.Start) {
			return nil, fmt.Errorf("appointment %s: end before start", id)
		}

		a := match.FromTitle(id, r.Title, r.Start, r.End, r.Location)
		if r.ClientID != "" {
			a.ExtractedClientID = r.ClientID
		}
		if r.ClientName != "" {
			a.ExtractedClientName = r.ClientName
		}
		appts = append(appts, a)
	}
	return appts, nil
}

// Window returns the appointments overlapping [start, end), sorted by start
// time then id. The input is not modified.
func Window(appts []match.Appointment, start, end time.Time) []match.Appointment {
	out := make([]match.Appointment, 0, len(appts))
	for _, a := range appts {
		if overlaps(a, start, end) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func overlaps(a match.Appointment, start, end time.Time) bool {
	if !end.IsZero() && !a.Start.Before(end) {
		return false
	}
	if start.IsZero() {
		return true
	}
	// Zero-length appointments count when they start inside the window.
	if a.End.Equal(a.Start) {
		return !a.Start.Before(start)
	}
	return a.End.After(start)
}

// StaticSource serves a fixed appointment list.
type StaticSource struct {
	Appointments []match.Appointment
}

// List implements Source.
func (s StaticSource) List(ctx context.Context, start, end time.Time) ([]match.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Window(s.Appointments, start, end), nil
}

// Find returns the appointment with the given id from src, searching the
// whole calendar.
func Find(ctx context.Context, src Source, id string) (match.Appointment, error) {
	appts, err := src.List(ctx, time.Time{}, time.Time{})
	if err != nil {
		return match.Appointment{}, err
	}
	for _, a := range appts {
		if a.ID == id {
			return a, nil
		}
	}
	return match.Appointment{}, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
}

// ErrNotFound is returned by Find for an unknown appointment id.
var ErrNotFound = errors.New("appointment not found")
