package calendar

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "calibook/database/repository/appointment"
	scheduleRepo "calibook/database/repository/schedule"
	"calibook/models"
)

// Loader assembles calendar snapshots from storage. The agent's own business
// hours win; an agent with no hours of its own falls back to the provider
// defaults, so every agent resolves to exactly one effective scope.
type Loader struct {
	Schedule     scheduleRepo.ScheduleRepository
	Appointments appointmentRepo.AppointmentRepository
}

// Load builds a snapshot for the agent covering [from, to).
func (l *Loader) Load(ctx context.Context, agent *models.Agent, provider *models.Provider, from, to time.Time) (Snapshot, error) {
	loc, err := time.LoadLocation(provider.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	hours, err := l.Schedule.GetHoursByScope(ctx, agent.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load agent hours: %w", err)
	}
	if len(hours) == 0 {
		hours, err = l.Schedule.GetHoursByScope(ctx, provider.ID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to load provider hours: %w", err)
		}
	}
	byDay := make(map[int]models.BusinessHours, len(hours))
	for _, h := range hours {
		byDay[h.Weekday] = h
	}

	blocked, err := l.Schedule.ListBlockedRanges(ctx, agent.ID, from, to)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load blocked ranges: %w", err)
	}

	busy, err := l.Appointments.ListOverlapping(ctx, agent.ID, from, to)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load appointments: %w", err)
	}

	return Snapshot{
		AgentID: agent.ID,
		Hours:   byDay,
		Blocked: blocked,
		Busy:    busy,
		Loc:     loc,
	}, nil
}
