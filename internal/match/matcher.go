package match

// Strategy looks for a single client for an appointment. It returns nil when
// it has nothing to say, and otherwise a pointer into clients.
type Strategy struct {
	Name string
	Find func(appt Appointment, clients []Client) *Client
}

// Strategy names as reported in Result.Strategy.
const (
	StrategyID          = "id"
	StrategyExactName   = "exact-name"
	StrategyPartialName = "partial-name"
)

// DefaultStrategies returns the id → exact name → partial name cascade.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyID, Find: findByID},
		{Name: StrategyExactName, Find: findByExactName},
		{Name: StrategyPartialName, Find: findByPartialName},
	}
}

// Match resolves appt to at most one client using DefaultStrategies.
func Match(appt Appointment, clients []Client) Result {
	return MatchWith(appt, clients, DefaultStrategies())
}

// MatchWith runs strategies in order and returns the first hit. The
// confidence of a hit is Score(appt, client), so a result from Match and a
// later Score call on the same pair always agree.
func MatchWith(appt Appointment, clients []Client, strategies []Strategy) Result {
	for _, s := range strategies {
		if s.Find == nil {
			continue
		}
		c := s.Find(appt, clients)
		if c == nil {
			continue
		}
		return Result{Client: c, Confidence: Score(appt, c), Strategy: s.Name}
	}
	return Result{Confidence: ConfidenceNone}
}

// Score computes the confidence of linking appt to client.
//
// Identifier or exact name equality is high, name containment in either
// direction is medium, and any other pairing is low. A nil client is none.
// Score does not check that client would have been picked by Match; a
// caller-chosen client that shares nothing with the title still scores low.
func Score(appt Appointment, client *Client) Confidence {
	if client == nil {
		return ConfidenceNone
	}
	switch {
	case equalFold(appt.ExtractedClientID, client.ID):
		return ConfidenceHigh
	case equalFold(appt.ExtractedClientName, client.Name):
		return ConfidenceHigh
	case containsEither(appt.ExtractedClientName, client.Name):
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func findByID(appt Appointment, clients []Client) *Client {
	if fold(appt.ExtractedClientID) == "" {
		return nil
	}
	for i := range clients {
		if equalFold(appt.ExtractedClientID, clients[i].ID) {
			return &clients[i]
		}
	}
	return nil
}

func findByExactName(appt Appointment, clients []Client) *Client {
	if fold(appt.ExtractedClientName) == "" {
		return nil
	}
	for i := range clients {
		if equalFold(appt.ExtractedClientName, clients[i].Name) {
			return &clients[i]
		}
	}
	return nil
}

func findByPartialName(appt Appointment, clients []Client) *Client {
	if fold(appt.ExtractedClientName) == "" {
		return nil
	}
	for i := range clients {
		if containsEither(appt.ExtractedClientName, clients[i].Name) {
			return &clients[i]
		}
	}
	return nil
}
