// File: services/gate/gate.go
package gate

import (
	"context"
	"time"

	blacklistRepo "calibook/database/repository/blacklist"
	"calibook/models"
	"calibook/utils"

	"go.uber.org/zap"
)

// Denial reasons.
const (
	ReasonGhost          = "ghost_mode"
	ReasonAway           = "away_mode"
	ReasonManualOverride = "manual_override"
	ReasonBlacklisted    = "blacklisted"
)

// Decision is the outcome of an auto-booking policy check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Gate evaluates whether the bot may auto-book an agent at a given instant.
// The check is cheap and is re-run at commit time, because mode and override
// can change between showing windows and the client confirming.
type Gate struct {
	Blacklist blacklistRepo.BlacklistRepository
	// SurfaceWhenAway lets "away" agents still have their next openings
	// listed for manual follow-up; auto-booking stays denied either way.
	SurfaceWhenAway bool
}

// CanAutoBook returns the policy decision for (agent, client, now).
func (g *Gate) CanAutoBook(ctx context.Context, agent *models.Agent, clientPhone string, now time.Time) (Decision, error) {
	logger := utils.GetLogger()

	if g.Blacklist != nil && clientPhone != "" {
		listed, err := g.Blacklist.IsListed(ctx, clientPhone)
		if err != nil {
			return Decision{}, err
		}
		if listed {
			logger.Warn("auto-booking denied for blacklisted client",
				zap.String("agentId", agent.ID))
			return Decision{Allowed: false, Reason: ReasonBlacklisted}, nil
		}
	}

	// Manual override wins over every mode: the operator took the channel.
	if agent.OverrideActive(now) {
		return Decision{Allowed: false, Reason: ReasonManualOverride}, nil
	}

	switch agent.AvailabilityMode {
	case models.ModeGhost:
		return Decision{Allowed: false, Reason: ReasonGhost}, nil
	case models.ModeAway:
		return Decision{Allowed: false, Reason: ReasonAway}, nil
	default:
		return Decision{Allowed: true}, nil
	}
}

// ShouldSurfaceWindows reports whether the agent's openings may be shown to
// the client at all. Ghost agents are invisible; away agents only when the
// manual-follow-up flag is on.
func (g *Gate) ShouldSurfaceWindows(agent *models.Agent) bool {
	switch agent.AvailabilityMode {
	case models.ModeGhost:
		return false
	case models.ModeAway:
		return g.SurfaceWhenAway
	default:
		return true
	}
}
