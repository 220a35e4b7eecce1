package models

import (
	"fmt"
	"time"
)

// Window is a candidate bookable [start, end) range for one agent, long
// enough for the requested duration.
type Window struct {
	AgentID string    `bson:"agentId" json:"agentId"`
	Start   time.Time `bson:"start" json:"start"`
	End     time.Time `bson:"end" json:"end"`
}

// Label renders the window for a chat prompt.
func (w Window) Label() string {
	return fmt.Sprintf("%s %s", w.Start.Format("Mon 02 Jan"), w.Start.Format("15:04"))
}

// OfferedWindow is a window presented to a client with the ordinal the client
// types to pick it. Valid only for the generation it was offered under.
type OfferedWindow struct {
	Ordinal int       `bson:"ordinal" json:"ordinal"`
	AgentID string    `bson:"agentId" json:"agentId"`
	Start   time.Time `bson:"start" json:"start"`
	End     time.Time `bson:"end" json:"end"`
}
