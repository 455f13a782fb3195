package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/caseline/internal/calendar"
	"github.com/roach88/caseline/internal/config"
	"github.com/roach88/caseline/internal/intake"
	"github.com/roach88/caseline/internal/match"
	"github.com/roach88/caseline/internal/pipelist"
	"github.com/roach88/caseline/internal/sessions"
	"github.com/roach88/caseline/internal/store"
)

// Step is the position of a flow.
type Step string

const (
	StepClient Step = "client"
	StepGoal   Step = "goal"
	StepDone   Step = "done"
)

// DefaultSessionForm is the form whose link is returned when a flow ends.
const DefaultSessionForm = "session"

// Candidate is a client offered at the client step.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Flow is the state of a dialog as returned to the caller.
//
// Candidates is filled at the client step, Goals at the goal step and
// FormURL once the flow is done (empty when no session form is configured).
type Flow struct {
	Token         string           `json:"token"`
	Step          Step             `json:"step"`
	AppointmentID string           `json:"appointment_id,omitempty"`
	ClientID      string           `json:"client_id,omitempty"`
	Goal          string           `json:"goal,omitempty"`
	Suggestion    *Candidate       `json:"suggestion,omitempty"`
	Confidence    match.Confidence `json:"confidence,omitempty"`
	Candidates    []Candidate      `json:"candidates,omitempty"`
	Goals         []string         `json:"goals,omitempty"`
	FormURL       string           `json:"form_url,omitempty"`
}

// Service runs dialog flows.
type Service struct {
	store    *store.Store
	source   calendar.Source
	tracker  *sessions.Tracker
	cfg      *config.Config
	tokens   TokenGenerator
	formName string
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokens sets the flow token generator. Defaults to UUIDv7Generator.
func WithTokens(gen TokenGenerator) Option {
	return func(s *Service) { s.tokens = gen }
}

// WithSessionForm sets the form returned when a flow ends.
func WithSessionForm(name string) Option {
	return func(s *Service) { s.formName = name }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service.
func NewService(s *store.Store, src calendar.Source, cfg *config.Config, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		source:   src,
		cfg:      cfg,
		tokens:   UUIDv7Generator{},
		formName: DefaultSessionForm,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.tracker = sessions.NewTracker(s, src, svc.logger)
	return svc
}

// Begin starts a flow at the client step. When appointmentID is set, the
// appointment is matched against the directory and the hit, if any, is
// offered as the suggestion. Every client is a candidate, in directory order.
func (s *Service) Begin(ctx context.Context, appointmentID string) (Flow, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return Flow{}, err
	}

	flow := Flow{
		Token:         s.tokens.Generate(),
		Step:          StepClient,
		AppointmentID: strings.TrimSpace(appointmentID),
		Confidence:    match.ConfidenceNone,
		Candidates:    candidates(clients),
	}

	if flow.AppointmentID != "" {
		appt, err := calendar.Find(ctx, s.source, flow.AppointmentID)
		if err != nil {
			return Flow{}, err
		}
		suggest(&flow, appt, clients)
	}

	if err := s.save(ctx, flow); err != nil {
		return Flow{}, err
	}
	s.logger.Info("dialog started", "flow", flow.Token, "appointment", flow.AppointmentID)
	return flow, nil
}

// ChooseClient answers the client step and moves the flow to the goal step.
func (s *Service) ChooseClient(ctx context.Context, token, clientID string) (Flow, error) {
	flow, err := s.load(ctx, token, StepClient)
	if err != nil {
		return Flow{}, err
	}
	client, err := s.client(ctx, token, clientID)
	if err != nil {
		return Flow{}, err
	}

	flow.Step = StepGoal
	flow.ClientID = client.ID
	flow.Goals = pipelist.Parse(client.Field(s.cfg.Columns.Goals))
	if err := s.save(ctx, flow); err != nil {
		return Flow{}, err
	}
	s.logger.Debug("dialog client chosen", "flow", token, "client", client.ID)
	return flow, nil
}

// ChooseGoal answers the goal step and finishes the flow. The goal must be
// one of the client's goals. When the flow names an appointment, the session
// is linked to the client and the goal recorded on it.
func (s *Service) ChooseGoal(ctx context.Context, token, goal string) (Flow, error) {
	flow, err := s.load(ctx, token, StepGoal)
	if err != nil {
		return Flow{}, err
	}
	client, err := s.client(ctx, token, flow.ClientID)
	if err != nil {
		return Flow{}, err
	}
	goal = strings.TrimSpace(goal)
	if !pipelist.Contains(client.Field(s.cfg.Columns.Goals), goal) {
		return Flow{}, newError(ErrCodeUnknownGoal, token, "client %s has no goal %q", client.ID, goal)
	}

	if flow.AppointmentID != "" {
		if _, err := s.tracker.Link(ctx, flow.AppointmentID, client.ID); err != nil {
			return Flow{}, err
		}
		if _, err := s.tracker.SetGoal(ctx, flow.AppointmentID, goal); err != nil {
			return Flow{}, err
		}
	}

	flow.Step = StepDone
	flow.Goal = goal
	if flow.FormURL, err = s.formURL(flow, client); err != nil {
		return Flow{}, err
	}
	if err := s.save(ctx, flow); err != nil {
		return Flow{}, err
	}
	s.logger.Info("dialog finished", "flow", token, "client", client.ID, "goal", goal)
	return flow, nil
}

// Get returns the current state of a flow with the view of its step
// rebuilt from the directory and the calendar: candidates and suggestion at
// the client step, the client's goals at the goal step and the form link
// once done. An appointment that has left the calendar drops the suggestion.
func (s *Service) Get(ctx context.Context, token string) (Flow, error) {
	flow, err := s.record(ctx, token)
	if err != nil {
		return Flow{}, err
	}

	switch flow.Step {
	case StepClient:
		clients, err := s.store.ListClients(ctx)
		if err != nil {
			return Flow{}, err
		}
		flow.Confidence = match.ConfidenceNone
		flow.Candidates = candidates(clients)
		if flow.AppointmentID == "" {
			break
		}
		appt, err := calendar.Find(ctx, s.source, flow.AppointmentID)
		if errors.Is(err, calendar.ErrNotFound) {
			s.logger.Warn("dialog appointment gone", "flow", token, "appointment", flow.AppointmentID)
			break
		}
		if err != nil {
			return Flow{}, err
		}
		suggest(&flow, appt, clients)
	case StepGoal:
		client, err := s.client(ctx, token, flow.ClientID)
		if err != nil {
			return Flow{}, err
		}
		flow.Goals = pipelist.Parse(client.Field(s.cfg.Columns.Goals))
	case StepDone:
		client, err := s.client(ctx, token, flow.ClientID)
		if err != nil {
			return Flow{}, err
		}
		if flow.FormURL, err = s.formURL(flow, client); err != nil {
			return Flow{}, err
		}
	}
	return flow, nil
}

// record loads the stored fields of a flow without the step view.
func (s *Service) record(ctx context.Context, token string) (Flow, error) {
	rec, err := s.store.GetFlow(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return Flow{}, newError(ErrCodeFlowNotFound, token, "no such flow")
	}
	if err != nil {
		return Flow{}, err
	}
	return Flow{
		Token:         rec.Token,
		Step:          Step(rec.Step),
		AppointmentID: rec.AppointmentID,
		ClientID:      rec.ClientID,
		Goal:          rec.Goal,
	}, nil
}

func (s *Service) load(ctx context.Context, token string, want Step) (Flow, error) {
	flow, err := s.record(ctx, token)
	if err != nil {
		return Flow{}, err
	}
	if flow.Step != want {
		return Flow{}, newError(ErrCodeWrongStep, token, "flow is at step %q, not %q", flow.Step, want)
	}
	return flow, nil
}

// formURL is empty when no session form is configured.
func (s *Service) formURL(flow Flow, client match.Client) (string, error) {
	form, ok := s.cfg.Form(s.formName)
	if !ok {
		return "", nil
	}
	return intake.Prefill(form, s.cfg.Columns, client, map[string]string{
		intake.FieldAppointmentID: flow.AppointmentID,
		intake.FieldGoal:          flow.Goal,
	})
}

func (s *Service) client(ctx context.Context, token, clientID string) (match.Client, error) {
	c, err := s.store.GetClient(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return match.Client{}, newError(ErrCodeUnknownClient, token, "no client %q", clientID)
	}
	return c, err
}

func (s *Service) save(ctx context.Context, flow Flow) error {
	err := s.store.PutFlow(ctx, store.Flow{
		Token:         flow.Token,
		Step:          string(flow.Step),
		AppointmentID: flow.AppointmentID,
		ClientID:      flow.ClientID,
		Goal:          flow.Goal,
	})
	if err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	return nil
}

func suggest(flow *Flow, appt match.Appointment, clients []match.Client) {
	r := match.Match(appt, clients)
	if r.Matched() {
		flow.Suggestion = &Candidate{ID: r.Client.ID, Name: r.Client.Name}
	}
	flow.Confidence = r.Confidence
}

func candidates(clients []match.Client) []Candidate {
	out := make([]Candidate, 0, len(clients))
	for _, c := range clients {
		out = append(out, Candidate{ID: c.ID, Name: c.Name})
	}
	return out
}
