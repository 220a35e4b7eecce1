package models

import "time"

// BusinessHours is one open/close record per (scope, weekday). ScopeID is
// either an agent ID (override) or a provider ID (default); weekday 0 is
// Sunday. Times are minutes from midnight in the provider's time zone.
type BusinessHours struct {
	ID          string `bson:"id" json:"id"`
	ScopeID     string `bson:"scopeId" json:"scopeId"`
	Weekday     int    `bson:"weekday" json:"weekday"` // 0..6, 0 = Sunday
	OpenMinute  int    `bson:"openMinute" json:"openMinute"`
	CloseMinute int    `bson:"closeMinute" json:"closeMinute"`
	IsClosed    bool   `bson:"isClosed" json:"isClosed"`
}

// BlockedRange is an explicit [start, end) exclusion independent of the
// recurring hours, e.g. a vacation or an operator hold.
type BlockedRange struct {
	ID        string    `bson:"id" json:"id"`
	AgentID   string    `bson:"agentId" json:"agentId"`
	Start     time.Time `bson:"start" json:"start"`
	End       time.Time `bson:"end" json:"end"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Overlaps reports whether the blocked range intersects [start, end).
func (b *BlockedRange) Overlaps(start, end time.Time) bool {
	return b.Start.Before(end) && start.Before(b.End)
}
