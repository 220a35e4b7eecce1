package models

import "time"

// Provider is the tenant owner. It holds the default business hours and
// pricing used by any of its agents that do not carry overrides.
type Provider struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Phone     string    `bson:"phone" json:"phone"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	TimeZone  string    `bson:"timeZone" json:"timeZone"` // IANA name, e.g. "Europe/Madrid"
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
