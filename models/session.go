package models

import "time"

// Conversation states. The flow is linear with back-navigation; Cancelled and
// Expired are absorbing.
const (
	StateAwaitingCategory     = "awaiting_category"
	StateAwaitingDuration     = "awaiting_duration"
	StateAwaitingExtras       = "awaiting_extras"
	StateAwaitingSlotChoice   = "awaiting_slot_choice"
	StateAwaitingConfirmation = "awaiting_confirmation"
	StateCompleted            = "completed"
	StateCancelled            = "cancelled"
	StateExpired              = "expired"
)

// ChatTurn is one message in the bounded per-session history.
type ChatTurn struct {
	Role string    `bson:"role" json:"role"` // "client" or "bot"
	Text string    `bson:"text" json:"text"`
	At   time.Time `bson:"at" json:"at"`
}

// ConversationSession is the durable draft state for one (provider, client
// phone) pair. It survives restarts; the Redis copy is only a hot cache over
// the Mongo record.
type ConversationSession struct {
	ID          string `bson:"id" json:"id"`
	ProviderID  string `bson:"providerId" json:"providerId"`
	ClientPhone string `bson:"clientPhone" json:"clientPhone"`

	State string `bson:"state" json:"state"`

	Category         string   `bson:"category,omitempty" json:"category,omitempty"`
	DurationMin      int      `bson:"durationMin,omitempty" json:"durationMin,omitempty"`
	BasePriceMinor   int64    `bson:"basePriceMinor,omitempty" json:"basePriceMinor,omitempty"`
	Extras           []string `bson:"extras,omitempty" json:"extras,omitempty"`
	ExtrasTotalMinor int64    `bson:"extrasTotalMinor,omitempty" json:"extrasTotalMinor,omitempty"`

	// Offered carries the windows presented in the current turn, keyed by the
	// ordinal the client types. Generation is bumped every time a fresh batch
	// is presented; a selection answering an older generation is stale.
	Offered    []OfferedWindow `bson:"offered,omitempty" json:"offered,omitempty"`
	Generation int             `bson:"generation" json:"generation"`

	// PickedWindow holds the selection awaiting confirmation, together with
	// the generation it was picked from.
	PickedWindow     *OfferedWindow `bson:"pickedWindow,omitempty" json:"pickedWindow,omitempty"`
	PickedGeneration int            `bson:"pickedGeneration,omitempty" json:"pickedGeneration,omitempty"`

	History []ChatTurn `bson:"history,omitempty" json:"history,omitempty"`

	Language      string    `bson:"language,omitempty" json:"language,omitempty"`
	AppointmentID string    `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	LastUpdate    time.Time `bson:"lastUpdate" json:"lastUpdate"`
}

// Terminal reports whether the session reached an absorbing state.
func (s *ConversationSession) Terminal() bool {
	switch s.State {
	case StateCompleted, StateCancelled, StateExpired:
		return true
	}
	return false
}

// IdleSince reports whether the session has gone untouched for longer than
// the given idle window as of now.
func (s *ConversationSession) IdleSince(now time.Time, idle time.Duration) bool {
	return now.Sub(s.LastUpdate) > idle
}

// AppendTurn appends to the history and evicts the oldest turns past cap.
func (s *ConversationSession) AppendTurn(turn ChatTurn, cap int) {
	s.History = append(s.History, turn)
	if cap > 0 && len(s.History) > cap {
		s.History = s.History[len(s.History)-cap:]
	}
}
