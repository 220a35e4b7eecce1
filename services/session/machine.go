// File: services/session/machine.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	agentRepo "calibook/database/repository/agent"
	pricingRepo "calibook/database/repository/pricing"
	providerRepo "calibook/database/repository/provider"
	sessionRepo "calibook/database/repository/session"
	"calibook/models"
	"calibook/services/booking"
	"calibook/services/calendar"
	"calibook/services/gate"
	"calibook/services/pricing"
	"calibook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine drives the per-(provider, client phone) conversation state machine.
// Turns for the same pair are serialized in arrival order; turns for
// different pairs run in parallel.
type Engine struct {
	Sessions    sessionRepo.SessionRepository
	Providers   providerRepo.ProviderRepository
	Agents      agentRepo.AgentRepository
	PricingRepo pricingRepo.PricingRepository
	Pricing     *pricing.Resolver
	Loader      *calendar.Loader
	Gate        *gate.Gate
	Arbiter     *booking.Arbiter

	IdleTimeout time.Duration
	HistoryCap  int
	BatchSize   int // windows offered per prompt
	Horizon     time.Duration

	turns *utils.KeyMutex
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewEngine wires a conversation engine with its turn-ordering lock table.
func NewEngine(sessions sessionRepo.SessionRepository, providers providerRepo.ProviderRepository,
	agents agentRepo.AgentRepository, pricingR pricingRepo.PricingRepository, resolver *pricing.Resolver,
	loader *calendar.Loader, g *gate.Gate, arbiter *booking.Arbiter,
	idle time.Duration, historyCap, batchSize, horizonDays int) *Engine {
	return &Engine{
		Sessions:    sessions,
		Providers:   providers,
		Agents:      agents,
		PricingRepo: pricingR,
		Pricing:     resolver,
		Loader:      loader,
		Gate:        g,
		Arbiter:     arbiter,
		IdleTimeout: idle,
		HistoryCap:  historyCap,
		BatchSize:   batchSize,
		Horizon:     time.Duration(horizonDays) * 24 * time.Hour,
		turns:       utils.NewKeyMutex(),
		Now:         time.Now,
	}
}

// HandleTurn processes one inbound message and returns the reply to send.
func (e *Engine) HandleTurn(ctx context.Context, providerID, phone, text string) (*Reply, error) {
	if providerID == "" || phone == "" || strings.TrimSpace(text) == "" {
		return nil, invalid("providerId, phone and text are required")
	}

	key := providerID + ":" + phone
	e.turns.Lock(key)
	defer e.turns.Unlock(key)

	logger := utils.GetLogger()
	now := e.Now().UTC()

	sess, expired, err := e.loadOrStart(ctx, providerID, phone, text, now)
	if err != nil {
		return nil, err
	}

	sess.AppendTurn(models.ChatTurn{Role: "client", Text: text, At: now}, e.HistoryCap)
	sess.LastUpdate = now

	var reply *Reply
	switch {
	case isCancel(text):
		sess.State = models.StateCancelled
		reply = &Reply{Text: "Okay, the booking was cancelled. Write again anytime.", Terminal: true}
	case isBack(text):
		reply, err = e.stepBack(ctx, sess)
	default:
		reply, err = e.advance(ctx, sess, text, now)
	}
	if err != nil {
		return nil, err
	}

	if expired && reply.Code == "" {
		reply.Code = CodeSessionExpired
	}
	sess.AppendTurn(models.ChatTurn{Role: "bot", Text: reply.Text, At: e.Now().UTC()}, e.HistoryCap)

	if sess.Terminal() {
		if err := e.Sessions.Archive(ctx, sess); err != nil {
			return nil, err
		}
	} else if err := e.Sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	logger.Debug("conversation turn handled",
		zap.String("providerId", providerID),
		zap.String("state", sess.State))
	return reply, nil
}

// loadOrStart returns the active session for the pair, lazily expiring a
// stale one. An expired or missing session yields a fresh one; a stray late
// message never resumes expired state.
func (e *Engine) loadOrStart(ctx context.Context, providerID, phone, text string, now time.Time) (*models.ConversationSession, bool, error) {
	sess, err := e.Sessions.GetActive(ctx, providerID, phone)
	switch {
	case err == nil:
		if sess.IdleSince(now, e.IdleTimeout) {
			sess.State = models.StateExpired
			if err := e.Sessions.Archive(ctx, sess); err != nil {
				return nil, false, err
			}
			utils.GetLogger().Info("session expired, starting fresh",
				zap.String("sessionId", sess.ID))
			return e.fresh(providerID, phone, text, now), true, nil
		}
		return sess, false, nil
	case errors.Is(err, sessionRepo.ErrNotFound):
		return e.fresh(providerID, phone, text, now), false, nil
	default:
		return nil, false, err
	}
}

func (e *Engine) fresh(providerID, phone, text string, now time.Time) *models.ConversationSession {
	return &models.ConversationSession{
		ID:          uuid.New().String(),
		ProviderID:  providerID,
		ClientPhone: phone,
		State:       models.StateAwaitingCategory,
		Language:    detectLanguage(text),
		CreatedAt:   now,
		LastUpdate:  now,
	}
}

// advance dispatches the input against the current state.
func (e *Engine) advance(ctx context.Context, sess *models.ConversationSession, text string, now time.Time) (*Reply, error) {
	switch sess.State {
	case models.StateAwaitingCategory:
		return e.onCategory(ctx, sess, text)
	case models.StateAwaitingDuration:
		return e.onDuration(ctx, sess, text)
	case models.StateAwaitingExtras:
		return e.onExtras(ctx, sess, text, now)
	case models.StateAwaitingSlotChoice:
		return e.onSlotChoice(ctx, sess, text, now)
	case models.StateAwaitingConfirmation:
		return e.onConfirmation(ctx, sess, text, now)
	default:
		return nil, fmt.Errorf("session %s in unexpected state %q", sess.ID, sess.State)
	}
}

// stepBack moves one state backwards; fresh windows are computed when
// re-entering slot choice since old ones may have shifted.
func (e *Engine) stepBack(ctx context.Context, sess *models.ConversationSession) (*Reply, error) {
	switch sess.State {
	case models.StateAwaitingDuration:
		sess.State = models.StateAwaitingCategory
		return &Reply{Text: promptCategory()}, nil
	case models.StateAwaitingExtras:
		sess.State = models.StateAwaitingDuration
		return e.durationPrompt(ctx, sess)
	case models.StateAwaitingSlotChoice:
		sess.State = models.StateAwaitingExtras
		return e.extrasPrompt(ctx, sess)
	case models.StateAwaitingConfirmation:
		sess.PickedWindow = nil
		return e.presentWindows(ctx, sess, e.Now().UTC(), "")
	default:
		return &Reply{Text: promptCategory()}, nil
	}
}

func (e *Engine) onCategory(ctx context.Context, sess *models.ConversationSession, text string) (*Reply, error) {
	category, ok := parseCategory(text)
	if !ok {
		return &Reply{Text: "Sorry, I didn't get that.\n" + promptCategory()}, nil
	}
	sess.Category = category
	sess.State = models.StateAwaitingDuration
	return e.durationPrompt(ctx, sess)
}

func (e *Engine) onDuration(ctx context.Context, sess *models.ConversationSession, text string) (*Reply, error) {
	duration, ok := parseDuration(text)
	if !ok {
		r, err := e.durationPrompt(ctx, sess)
		if err != nil {
			return nil, err
		}
		return &Reply{Text: "Please give the duration in minutes.\n" + r.Text}, nil
	}

	quote, err := e.Pricing.Quote(ctx, sess.ProviderID, "", duration, sess.Category, nil)
	if err != nil {
		var perr *pricing.PricingError
		if errors.As(err, &perr) {
			r, rerr := e.durationPrompt(ctx, sess)
			if rerr != nil {
				return nil, rerr
			}
			return &Reply{Text: "That duration doesn't work: " + perr.Message + "\n" + r.Text}, nil
		}
		return nil, err
	}

	sess.DurationMin = duration
	sess.BasePriceMinor = quote.BasePriceMinor
	sess.State = models.StateAwaitingExtras
	return e.extrasPrompt(ctx, sess)
}

func (e *Engine) onExtras(ctx context.Context, sess *models.ConversationSession, text string, now time.Time) (*Reply, error) {
	extras := parseExtras(text)

	quote, err := e.Pricing.Quote(ctx, sess.ProviderID, "", sess.DurationMin, sess.Category, extras)
	if err != nil {
		var perr *pricing.PricingError
		if errors.As(err, &perr) {
			r, rerr := e.extrasPrompt(ctx, sess)
			if rerr != nil {
				return nil, rerr
			}
			return &Reply{Text: perr.Message + "\n" + r.Text}, nil
		}
		return nil, err
	}

	sess.Extras = extras
	sess.ExtrasTotalMinor = quote.ExtrasTotalMinor
	return e.presentWindows(ctx, sess, now, "")
}

func (e *Engine) onSlotChoice(ctx context.Context, sess *models.ConversationSession, text string, now time.Time) (*Reply, error) {
	ordinal := parseOrdinal(text)
	if ordinal == 0 {
		if len(sess.Offered) == 0 {
			return e.presentWindows(ctx, sess, now, "")
		}
		return &Reply{Text: "Please reply with the number of a listed time.\n" + promptWindows(sess.Offered)}, nil
	}

	var picked *models.OfferedWindow
	for i := range sess.Offered {
		if sess.Offered[i].Ordinal == ordinal {
			picked = &sess.Offered[i]
			break
		}
	}
	if picked == nil {
		// The number answers a mapping that is gone; the windows underneath
		// may have shifted, so re-present instead of guessing.
		r, err := e.presentWindows(ctx, sess, now, "That option is no longer on the list.")
		if err != nil {
			return nil, err
		}
		r.Code = CodeStaleMapping
		return r, nil
	}

	w := *picked
	sess.PickedWindow = &w
	sess.PickedGeneration = sess.Generation
	sess.State = models.StateAwaitingConfirmation
	total := sess.BasePriceMinor + sess.ExtrasTotalMinor
	return &Reply{Text: promptConfirmation(w, total)}, nil
}

func (e *Engine) onConfirmation(ctx context.Context, sess *models.ConversationSession, text string, now time.Time) (*Reply, error) {
	switch {
	case isNegative(text):
		sess.PickedWindow = nil
		return e.presentWindows(ctx, sess, now, "")
	case !isAffirmative(text):
		if sess.PickedWindow == nil {
			return e.presentWindows(ctx, sess, now, "")
		}
		total := sess.BasePriceMinor + sess.ExtrasTotalMinor
		return &Reply{Text: "Please reply 'yes' or 'no'.\n" + promptConfirmation(*sess.PickedWindow, total)}, nil
	}

	if sess.PickedWindow == nil || sess.PickedGeneration != sess.Generation {
		// Confirmation against an outdated offering; structurally stale.
		r, err := e.presentWindows(ctx, sess, now, "Those times were refreshed in the meantime.")
		if err != nil {
			return nil, err
		}
		r.Code = CodeStaleMapping
		return r, nil
	}

	picked := *sess.PickedWindow
	appt, err := e.Arbiter.Commit(ctx, booking.CommitRequest{
		ProviderID:  sess.ProviderID,
		AgentID:     picked.AgentID,
		ClientPhone: sess.ClientPhone,
		SessionID:   sess.ID,
		Start:       picked.Start,
		DurationMin: sess.DurationMin,
		PriceMinor:  sess.BasePriceMinor + sess.ExtrasTotalMinor,
	})
	if err != nil {
		var averr *booking.AvailabilityError
		if errors.As(err, &averr) {
			// Expected under concurrent demand: someone else won the window.
			// Fall back to slot choice with a fresh batch, never fail the
			// whole conversation.
			sess.PickedWindow = nil
			return e.presentWindows(ctx, sess, now, "Sorry, that time was just taken.")
		}
		return nil, err
	}

	sess.State = models.StateCompleted
	sess.AppointmentID = appt.ID
	return &Reply{
		Text: fmt.Sprintf("Booked! %s %s, total %s. See you then.",
			appt.Start.Format("Mon 02 Jan"), appt.Start.Format("15:04"),
			formatMinor(appt.PriceMinor)),
		Terminal: true,
	}, nil
}

// presentWindows computes the next batch of bookable windows across the
// provider's surfaceable agents, assigns fresh ordinals, bumps the mapping
// generation and moves the session to slot choice.
func (e *Engine) presentWindows(ctx context.Context, sess *models.ConversationSession, now time.Time, notice string) (*Reply, error) {
	provider, err := e.Providers.GetByID(ctx, sess.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("provider not found: %w", err)
	}
	agents, err := e.Agents.ListByProvider(ctx, sess.ProviderID)
	if err != nil {
		return nil, err
	}

	// Free ranges get carved into concrete duration-sized start times; the
	// client picks a start, not a range.
	horizon := now.Add(e.Horizon)
	need := time.Duration(sess.DurationMin) * time.Minute
	var candidates []models.Window
	for i := range agents {
		agent := &agents[i]
		if !e.Gate.ShouldSurfaceWindows(agent) {
			continue
		}
		snap, err := e.Loader.Load(ctx, agent, provider, now, horizon)
		if err != nil {
			return nil, err
		}
		it := calendar.NewIterator(snap, now, horizon, sess.DurationMin)
		taken := 0
		for taken < e.BatchSize {
			batch := it.Next(e.BatchSize)
			if len(batch) == 0 {
				break
			}
			for _, w := range batch {
				for start := w.Start; taken < e.BatchSize && !start.Add(need).After(w.End); start = start.Add(need) {
					candidates = append(candidates, models.Window{
						AgentID: w.AgentID, Start: start, End: start.Add(need),
					})
					taken++
				}
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})
	if len(candidates) > e.BatchSize {
		candidates = candidates[:e.BatchSize]
	}

	sess.Generation++
	sess.State = models.StateAwaitingSlotChoice
	sess.Offered = nil
	sess.PickedWindow = nil

	if len(candidates) == 0 {
		return &Reply{Text: withNotice(notice, "There are no bookable times right now. Try again a bit later, or type 'cancel'.")}, nil
	}

	for i, w := range candidates {
		sess.Offered = append(sess.Offered, models.OfferedWindow{
			Ordinal: i + 1,
			AgentID: w.AgentID,
			Start:   w.Start,
			End:     w.End,
		})
	}
	return &Reply{Text: withNotice(notice, promptWindows(sess.Offered))}, nil
}

func (e *Engine) durationPrompt(ctx context.Context, sess *models.ConversationSession) (*Reply, error) {
	tiers, err := e.PricingRepo.ListTiersByScope(ctx, sess.ProviderID)
	if err != nil {
		return nil, err
	}
	var durations []int
	for _, t := range tiers {
		if t.Active && t.Category == sess.Category && pricing.CategoryAllowed(t.DurationMin, sess.Category) {
			durations = append(durations, t.DurationMin)
		}
	}
	return &Reply{Text: promptDuration(durations)}, nil
}

func (e *Engine) extrasPrompt(ctx context.Context, sess *models.ConversationSession) (*Reply, error) {
	extras, err := e.PricingRepo.ListExtras(ctx, sess.ProviderID, true)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: promptExtras(extras)}, nil
}

func withNotice(notice, text string) string {
	if notice == "" {
		return text
	}
	return notice + "\n" + text
}
