package models

import "time"

// Appointment statuses.
const (
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
	AppointmentNoShow    = "no_show"
)

// Appointment is a committed booking. For a given agent no two appointments
// with status other than cancelled may have overlapping [start, start+duration)
// ranges; the booking arbiter is the only writer allowed to create these.
type Appointment struct {
	ID          string    `bson:"id" json:"id"`
	ProviderID  string    `bson:"providerId" json:"providerId"`
	AgentID     string    `bson:"agentId" json:"agentId"`
	ServiceID   string    `bson:"serviceId,omitempty" json:"serviceId,omitempty"` // optional metadata
	ClientPhone string    `bson:"clientPhone" json:"clientPhone"`
	Start       time.Time `bson:"start" json:"start"`
	DurationMin int       `bson:"durationMin" json:"durationMin"`
	Status      string    `bson:"status" json:"status"`
	PriceMinor  int64     `bson:"priceMinor,omitempty" json:"priceMinor,omitempty"`
	SessionID   string    `bson:"sessionId,omitempty" json:"sessionId,omitempty"` // back-reference, never embedded
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// End returns the exclusive end instant of the appointment.
func (a *Appointment) End() time.Time {
	return a.Start.Add(time.Duration(a.DurationMin) * time.Minute)
}

// Blocks reports whether the appointment occupies calendar time: cancelled
// appointments free their window, every other status keeps it.
func (a *Appointment) Blocks() bool {
	return a.Status != AppointmentCancelled
}
