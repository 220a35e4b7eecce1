// File: services/booking/arbiter.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	agentRepo "calibook/database/repository/agent"
	appointmentRepo "calibook/database/repository/appointment"
	providerRepo "calibook/database/repository/provider"
	"calibook/models"
	"calibook/services/calendar"
	"calibook/services/gate"
	"calibook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitRequest is a proposed appointment handed to the arbiter.
type CommitRequest struct {
	ProviderID  string
	AgentID     string
	ClientPhone string
	ServiceID   string // optional metadata, never load-bearing for conflicts
	SessionID   string
	Start       time.Time
	DurationMin int
	PriceMinor  int64
}

// Arbiter is the transactional boundary that turns a proposed window into a
// committed appointment. The first valid commit for an overlapping window
// wins; later attempts are rejected and must restart from fresh windows.
type Arbiter struct {
	Providers    providerRepo.ProviderRepository
	Agents       agentRepo.AgentRepository
	Appointments appointmentRepo.AppointmentRepository
	Loader       *calendar.Loader
	Gate         *gate.Gate

	locks *utils.KeyMutex
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewArbiter wires an arbiter with its per-agent lock table.
func NewArbiter(providers providerRepo.ProviderRepository, agents agentRepo.AgentRepository,
	appointments appointmentRepo.AppointmentRepository, loader *calendar.Loader, g *gate.Gate) *Arbiter {
	return &Arbiter{
		Providers:    providers,
		Agents:       agents,
		Appointments: appointments,
		Loader:       loader,
		Gate:         g,
		locks:        utils.NewKeyMutex(),
		Now:          time.Now,
	}
}

// Commit re-validates the proposed window under the agent's serialization
// boundary and inserts the appointment, or rejects with an AvailabilityError.
// Every check is re-run here even though the calendar already produced the
// window: time passed between showing and confirming, and another
// conversation or the operator may have consumed the slot.
func (ar *Arbiter) Commit(ctx context.Context, req CommitRequest) (*models.Appointment, error) {
	if req.DurationMin <= 0 {
		return nil, fmt.Errorf("invalid duration %d", req.DurationMin)
	}
	logger := utils.GetLogger()
	end := req.Start.Add(time.Duration(req.DurationMin) * time.Minute)

	ar.locks.Lock(req.AgentID)
	defer ar.locks.Unlock(req.AgentID)

	agent, err := ar.Agents.GetByID(ctx, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("agent not found: %w", err)
	}
	provider, err := ar.Providers.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("provider not found: %w", err)
	}

	// Overlap re-check against this agent's committed appointments only.
	overlapping, err := ar.Appointments.ListOverlapping(ctx, req.AgentID, req.Start, end)
	if err != nil {
		return nil, fmt.Errorf("overlap check failed: %w", err)
	}
	if len(overlapping) > 0 {
		logger.Info("commit rejected, window taken",
			zap.String("agentId", req.AgentID), zap.Time("start", req.Start))
		return nil, newError(CodeSlotTaken, "the selected time was just booked")
	}

	// Hours and blocked-range re-check: the exact window must still survive
	// the calendar computation.
	snap, err := ar.Loader.Load(ctx, agent, provider, req.Start, end)
	if err != nil {
		return nil, err
	}
	if !windowStillOpen(snap, req.Start, end, req.DurationMin) {
		logger.Info("commit rejected, window outside open hours",
			zap.String("agentId", req.AgentID), zap.Time("start", req.Start))
		return nil, newError(CodeNoLongerAvailable, "the selected time is no longer offered")
	}

	// Mode gate re-check; mode can flip mid-conversation.
	decision, err := ar.Gate.CanAutoBook(ctx, agent, req.ClientPhone, ar.Now())
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		logger.Info("commit rejected by availability gate",
			zap.String("agentId", req.AgentID), zap.String("reason", decision.Reason))
		return nil, newError(CodeModeClosed, "booking is closed for this agent (%s)", decision.Reason)
	}

	now := ar.Now().UTC()
	appt := &models.Appointment{
		ID:          uuid.New().String(),
		ProviderID:  req.ProviderID,
		AgentID:     req.AgentID,
		ServiceID:   req.ServiceID,
		ClientPhone: req.ClientPhone,
		Start:       req.Start,
		DurationMin: req.DurationMin,
		Status:      models.AppointmentConfirmed,
		PriceMinor:  req.PriceMinor,
		SessionID:   req.SessionID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ar.Appointments.InsertIfFree(ctx, appt); err != nil {
		if errors.Is(err, appointmentRepo.ErrWindowTaken) {
			return nil, newError(CodeSlotTaken, "the selected time was just booked")
		}
		return nil, fmt.Errorf("failed to commit appointment: %w", err)
	}

	logger.Info("appointment committed",
		zap.String("appointmentId", appt.ID),
		zap.String("agentId", appt.AgentID),
		zap.Time("start", appt.Start))
	return appt, nil
}

// Cancel marks an appointment cancelled, freeing its window.
func (ar *Arbiter) Cancel(ctx context.Context, appointmentID string) error {
	return ar.Appointments.UpdateStatus(ctx, appointmentID, models.AppointmentCancelled)
}

// windowStillOpen checks that [start, end) survives the calendar computation
// intact: restricted to exactly that range, the computation must return the
// range itself.
func windowStillOpen(snap calendar.Snapshot, start, end time.Time, durationMin int) bool {
	for _, w := range calendar.Windows(snap, start, end, durationMin) {
		if w.Start.Equal(start) && w.End.Equal(end) {
			return true
		}
	}
	return false
}
