package models

import "time"

// Availability modes for an agent.
const (
	ModeActive = "active" // auto-booking allowed
	ModeAway   = "away"   // auto-booking off; openings may still be surfaced
	ModeGhost  = "ghost"  // never auto-bookable, client sees no openings
)

// Agent is an individually bookable identity under a Provider (the "slot" of
// the booking domain, distinct from a calendar time slot). An agent without
// its own business hours or pricing tiers falls back to the provider defaults.
type Agent struct {
	ID         string `bson:"id" json:"id"`
	ProviderID string `bson:"providerId" json:"providerId"`
	Name       string `bson:"name" json:"name"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`

	// ApproxAddress is shown while booking; ExactAddress is disclosed only
	// near appointment time by the messaging layer, never by this core.
	ApproxAddress string `bson:"approxAddress,omitempty" json:"approxAddress,omitempty"`
	ExactAddress  string `bson:"exactAddress,omitempty" json:"-"`

	AvailabilityMode string `bson:"availabilityMode" json:"availabilityMode"`

	// While now < ManualOverrideUntil the bot must not auto-book this agent,
	// regardless of mode. Zero value means no override.
	ManualOverrideUntil time.Time `bson:"manualOverrideUntil,omitempty" json:"manualOverrideUntil,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OverrideActive reports whether the manual override is in force at t.
func (a *Agent) OverrideActive(t time.Time) bool {
	return !a.ManualOverrideUntil.IsZero() && t.Before(a.ManualOverrideUntil)
}
