package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	appointmentRepo "calibook/database/repository/appointment"
	sessionRepo "calibook/database/repository/session"
	"calibook/models"
	"calibook/services/booking"
	"calibook/services/calendar"
	"calibook/services/gate"
	"calibook/services/pricing"

	"go.mongodb.org/mongo-driver/mongo"
)

type memSessionRepo struct {
	mu       sync.Mutex
	active   map[string]*models.ConversationSession // provider:phone
	archived []models.ConversationSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{active: make(map[string]*models.ConversationSession)}
}

func sessKey(providerID, phone string) string { return providerID + ":" + phone }

func (r *memSessionRepo) GetActive(ctx context.Context, providerID, phone string) (*models.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.active[sessKey(providerID, phone)]
	if !ok {
		return nil, sessionRepo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Save(ctx context.Context, s *models.ConversationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.active[sessKey(s.ProviderID, s.ClientPhone)] = &cp
	return nil
}

func (r *memSessionRepo) ListActive(ctx context.Context, providerID string) ([]models.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ConversationSession
	for _, s := range r.active {
		if s.ProviderID == providerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) Archive(ctx context.Context, s *models.ConversationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, sessKey(s.ProviderID, s.ClientPhone))
	r.archived = append(r.archived, *s)
	return nil
}

type stubProviderRepo struct{}

func (stubProviderRepo) Create(ctx context.Context, p *models.Provider) error { return nil }
func (stubProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	return &models.Provider{ID: id, TimeZone: "UTC"}, nil
}
func (stubProviderRepo) Update(ctx context.Context, p *models.Provider) error { return nil }
func (stubProviderRepo) Delete(ctx context.Context, id string) error          { return nil }
func (stubProviderRepo) List(ctx context.Context) ([]models.Provider, error)  { return nil, nil }

type stubAgentRepo struct {
	agents []models.Agent
}

func (s *stubAgentRepo) Create(ctx context.Context, a *models.Agent) error { return nil }
func (s *stubAgentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	for i := range s.agents {
		if s.agents[i].ID == id {
			a := s.agents[i]
			return &a, nil
		}
	}
	return nil, errors.New("not found")
}
func (s *stubAgentRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Agent, error) {
	return s.agents, nil
}
func (s *stubAgentRepo) Update(ctx context.Context, a *models.Agent) error              { return nil }
func (s *stubAgentRepo) Delete(ctx context.Context, id string) error                    { return nil }
func (s *stubAgentRepo) SetAvailabilityMode(ctx context.Context, id, mode string) error { return nil }
func (s *stubAgentRepo) SetManualOverride(ctx context.Context, id string, until time.Time) error {
	return nil
}

type stubScheduleRepo struct {
	hours map[string][]models.BusinessHours
}

func (s *stubScheduleRepo) UpsertHours(ctx context.Context, h *models.BusinessHours) error {
	return nil
}
func (s *stubScheduleRepo) GetHoursByScope(ctx context.Context, scopeID string) ([]models.BusinessHours, error) {
	return s.hours[scopeID], nil
}
func (s *stubScheduleRepo) DeleteHours(ctx context.Context, scopeID string, weekday int) error {
	return nil
}
func (s *stubScheduleRepo) CreateBlockedRange(ctx context.Context, b *models.BlockedRange) error {
	return nil
}
func (s *stubScheduleRepo) ListBlockedRanges(ctx context.Context, agentID string, from, to time.Time) ([]models.BlockedRange, error) {
	return nil, nil
}
func (s *stubScheduleRepo) DeleteBlockedRange(ctx context.Context, id string) error { return nil }

type memApptRepo struct {
	mu    sync.Mutex
	appts map[string]models.Appointment
}

func (r *memApptRepo) InsertIfFree(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := appt.End()
	for _, ex := range r.appts {
		if ex.AgentID == appt.AgentID && ex.Blocks() &&
			ex.Start.Before(end) && appt.Start.Before(ex.End()) {
			return appointmentRepo.ErrWindowTaken
		}
	}
	r.appts[appt.ID] = *appt
	return nil
}

func (r *memApptRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &a, nil
}

func (r *memApptRepo) ListOverlapping(ctx context.Context, agentID string, from, to time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.AgentID == agentID && a.Blocks() && a.Start.Before(to) && from.Before(a.End()) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memApptRepo) ListByAgent(ctx context.Context, agentID string, from, to time.Time) ([]models.Appointment, error) {
	return r.ListOverlapping(ctx, agentID, from, to)
}

func (r *memApptRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return errors.New("not found")
	}
	a.Status = status
	r.appts[id] = a
	return nil
}

type stubPricingRepo struct {
	tiers  []models.PricingTier
	extras []models.Extra
}

func (s *stubPricingRepo) UpsertTier(ctx context.Context, t *models.PricingTier) error { return nil }
func (s *stubPricingRepo) GetTier(ctx context.Context, scopeID string, d int, cat string) (*models.PricingTier, error) {
	for i := range s.tiers {
		t := s.tiers[i]
		if t.ScopeID == scopeID && t.DurationMin == d && t.Category == cat {
			return &t, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}
func (s *stubPricingRepo) ListTiersByScope(ctx context.Context, scopeID string) ([]models.PricingTier, error) {
	var out []models.PricingTier
	for _, t := range s.tiers {
		if t.ScopeID == scopeID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *stubPricingRepo) DeleteTier(ctx context.Context, id string) error        { return nil }
func (s *stubPricingRepo) UpsertExtra(ctx context.Context, e *models.Extra) error { return nil }
func (s *stubPricingRepo) GetExtraByName(ctx context.Context, providerID, name string) (*models.Extra, error) {
	for i := range s.extras {
		e := s.extras[i]
		if e.ProviderID == providerID && e.Name == name {
			return &e, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}
func (s *stubPricingRepo) ListExtras(ctx context.Context, providerID string, activeOnly bool) ([]models.Extra, error) {
	var out []models.Extra
	for _, e := range s.extras {
		if e.ProviderID == providerID && (!activeOnly || e.Active) {
			out = append(out, e)
		}
	}
	return out, nil
}
func (s *stubPricingRepo) DeleteExtra(ctx context.Context, id string) error { return nil }

type stubBlacklist struct{}

func (stubBlacklist) IsListed(ctx context.Context, phone string) (bool, error) { return false, nil }
func (stubBlacklist) Add(ctx context.Context, phone, reason string) error      { return nil }
func (stubBlacklist) Remove(ctx context.Context, phone string) error           { return nil }

// clock is a mutable test clock shared by the engine and the arbiter.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type machineFixture struct {
	engine   *Engine
	sessions *memSessionRepo
	appts    *memApptRepo
	clock    *clock
}

// newMachineFixture wires a full engine over in-memory repositories: one
// provider, one active agent open 10:00-12:00 every day, private tiers for
// 30 and 60 minutes.
func newMachineFixture() *machineFixture {
	clk := &clock{t: time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)}

	hours := make([]models.BusinessHours, 0, 7)
	for d := 0; d < 7; d++ {
		hours = append(hours, models.BusinessHours{
			ScopeID: "agent-1", Weekday: d, OpenMinute: 10 * 60, CloseMinute: 12 * 60,
		})
	}
	agents := &stubAgentRepo{agents: []models.Agent{
		{ID: "agent-1", ProviderID: "prov-1", AvailabilityMode: models.ModeActive},
	}}
	sched := &stubScheduleRepo{hours: map[string][]models.BusinessHours{"agent-1": hours}}
	appts := &memApptRepo{appts: make(map[string]models.Appointment)}
	priceRepo := &stubPricingRepo{tiers: []models.PricingTier{
		{ScopeID: "prov-1", DurationMin: 30, Category: models.CategoryPrivate, PriceMinor: 8000, Active: true},
		{ScopeID: "prov-1", DurationMin: 60, Category: models.CategoryPrivate, PriceMinor: 15000, Active: true},
	}}
	sessions := newMemSessionRepo()

	loader := &calendar.Loader{Schedule: sched, Appointments: appts}
	g := &gate.Gate{Blacklist: stubBlacklist{}}
	resolver := &pricing.Resolver{Repo: priceRepo}
	arbiter := booking.NewArbiter(stubProviderRepo{}, agents, appts, loader, g)
	arbiter.Now = clk.Now

	engine := NewEngine(sessions, stubProviderRepo{}, agents, priceRepo, resolver,
		loader, g, arbiter, 30*time.Minute, 20, 6, 14)
	engine.Now = clk.Now

	return &machineFixture{engine: engine, sessions: sessions, appts: appts, clock: clk}
}

func (f *machineFixture) turn(t *testing.T, phone, text string) *Reply {
	t.Helper()
	r, err := f.engine.HandleTurn(context.Background(), "prov-1", phone, text)
	if err != nil {
		t.Fatalf("turn %q failed: %v", text, err)
	}
	return r
}

func (f *machineFixture) activeSession(t *testing.T, phone string) *models.ConversationSession {
	t.Helper()
	s, err := f.sessions.GetActive(context.Background(), "prov-1", phone)
	if err != nil {
		t.Fatalf("no active session for %s: %v", phone, err)
	}
	return s
}

func TestHandleTurn_FullBookingFlow(t *testing.T) {
	f := newMachineFixture()

	r := f.turn(t, "555", "hi")
	if !strings.Contains(r.Text, "private") {
		t.Fatalf("expected category prompt, got %q", r.Text)
	}

	r = f.turn(t, "555", "1")
	if !strings.Contains(r.Text, "30 min") || !strings.Contains(r.Text, "60 min") {
		t.Fatalf("expected duration prompt with tiers, got %q", r.Text)
	}

	r = f.turn(t, "555", "60")
	if !strings.Contains(r.Text, "extras") {
		t.Fatalf("expected extras prompt, got %q", r.Text)
	}

	r = f.turn(t, "555", "none")
	if !strings.Contains(r.Text, "1. Mon 02 Mar 10:00") {
		t.Fatalf("expected concrete start times, got %q", r.Text)
	}
	if !strings.Contains(r.Text, "2. Mon 02 Mar 11:00") {
		t.Fatalf("expected hourly carving of the open range, got %q", r.Text)
	}

	r = f.turn(t, "555", "2")
	if !strings.Contains(r.Text, "Book Mon 02 Mar 11:00 for 150.00?") {
		t.Fatalf("expected confirmation with total, got %q", r.Text)
	}

	r = f.turn(t, "555", "yes")
	if !r.Terminal || !strings.Contains(r.Text, "Booked!") {
		t.Fatalf("expected terminal booking reply, got %+v", r)
	}

	// The appointment landed and the session was archived as completed.
	if len(f.appts.appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(f.appts.appts))
	}
	for _, a := range f.appts.appts {
		if !a.Start.Equal(time.Date(2026, time.March, 2, 11, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start: %v", a.Start)
		}
		if a.PriceMinor != 15000 || a.Status != models.AppointmentConfirmed {
			t.Errorf("unexpected appointment: %+v", a)
		}
	}
	if len(f.sessions.archived) != 1 || f.sessions.archived[0].State != models.StateCompleted {
		t.Fatalf("expected archived completed session, got %+v", f.sessions.archived)
	}
	if f.sessions.archived[0].AppointmentID == "" {
		t.Error("completed session missing appointment reference")
	}
}

func TestHandleTurn_CancelKeywordIsAbsorbing(t *testing.T) {
	f := newMachineFixture()
	f.turn(t, "555", "hi")
	f.turn(t, "555", "1")

	r := f.turn(t, "555", "cancel")
	if !r.Terminal {
		t.Fatalf("cancel should be terminal, got %+v", r)
	}
	if len(f.sessions.archived) != 1 || f.sessions.archived[0].State != models.StateCancelled {
		t.Fatalf("expected archived cancelled session, got %+v", f.sessions.archived)
	}

	// The next message starts over at category.
	r = f.turn(t, "555", "hello again")
	if !strings.Contains(r.Text, "private") {
		t.Errorf("expected fresh category prompt, got %q", r.Text)
	}
}

func TestHandleTurn_BackNavigation(t *testing.T) {
	f := newMachineFixture()
	f.turn(t, "555", "hi")
	f.turn(t, "555", "1")

	r := f.turn(t, "555", "back")
	if !strings.Contains(r.Text, "private") {
		t.Fatalf("expected category prompt after back, got %q", r.Text)
	}
	if s := f.activeSession(t, "555"); s.State != models.StateAwaitingCategory {
		t.Errorf("unexpected state %q", s.State)
	}
}

func TestHandleTurn_UnknownDurationReprompts(t *testing.T) {
	f := newMachineFixture()
	f.turn(t, "555", "hi")
	f.turn(t, "555", "1")

	// 45 has no tier for this provider; the machine explains and stays put.
	r := f.turn(t, "555", "45")
	if !strings.Contains(r.Text, "That duration doesn't work") {
		t.Fatalf("expected tier rejection, got %q", r.Text)
	}
	if s := f.activeSession(t, "555"); s.State != models.StateAwaitingDuration {
		t.Errorf("unexpected state %q", s.State)
	}
}

func TestHandleTurn_StaleOrdinalRepresentsWindows(t *testing.T) {
	f := newMachineFixture()
	f.turn(t, "555", "hi")
	f.turn(t, "555", "1")
	f.turn(t, "555", "60")
	f.turn(t, "555", "none")

	before := f.activeSession(t, "555")

	r := f.turn(t, "555", "9")
	if !strings.Contains(r.Text, "no longer on the list") {
		t.Fatalf("expected stale-choice notice, got %q", r.Text)
	}
	after := f.activeSession(t, "555")
	if after.State != models.StateAwaitingSlotChoice {
		t.Errorf("unexpected state %q", after.State)
	}
	if after.Generation <= before.Generation {
		t.Errorf("generation not bumped: %d -> %d", before.Generation, after.Generation)
	}
}

func TestHandleTurn_IdleSessionExpiresLazily(t *testing.T) {
	f := newMachineFixture()
	f.turn(t, "555", "hi")
	f.turn(t, "555", "1")

	// Past the idle window the next message must not resume the old draft.
	f.clock.Advance(31 * time.Minute)
	r := f.turn(t, "555", "2")
	if !strings.Contains(r.Text, "How long") {
		t.Fatalf("expected fresh flow consuming %q as category, got %q", "2", r.Text)
	}
	if len(f.sessions.archived) != 1 || f.sessions.archived[0].State != models.StateExpired {
		t.Fatalf("expected archived expired session, got %+v", f.sessions.archived)
	}
	if s := f.activeSession(t, "555"); s.Category != models.CategoryOutcall {
		t.Errorf("fresh session should have consumed the message, got %+v", s)
	}
}

func TestHandleTurn_LostRaceFallsBackToFreshWindows(t *testing.T) {
	f := newMachineFixture()

	// Two clients walk to confirmation of the same 10:00 window.
	for _, phone := range []string{"555", "777"} {
		f.turn(t, phone, "hi")
		f.turn(t, phone, "1")
		f.turn(t, phone, "60")
		f.turn(t, phone, "none")
		f.turn(t, phone, "1")
	}

	r := f.turn(t, "555", "yes")
	if !r.Terminal {
		t.Fatalf("first confirmation should win, got %+v", r)
	}

	r = f.turn(t, "777", "yes")
	if r.Terminal {
		t.Fatalf("second confirmation must not book, got %+v", r)
	}
	if !strings.Contains(r.Text, "just taken") {
		t.Fatalf("expected lost-race notice, got %q", r.Text)
	}
	// The fallback batch no longer carries the consumed window.
	if strings.Contains(r.Text, "Mon 02 Mar 10:00") {
		t.Errorf("consumed window re-offered: %q", r.Text)
	}
	s := f.activeSession(t, "777")
	if s.State != models.StateAwaitingSlotChoice {
		t.Errorf("unexpected state %q", s.State)
	}

	// The conversation recovers: pick the remaining window and book it.
	f.turn(t, "777", "1")
	r = f.turn(t, "777", "yes")
	if !r.Terminal || !strings.Contains(r.Text, "Booked!") {
		t.Fatalf("recovery booking failed, got %+v", r)
	}
	if len(f.appts.appts) != 2 {
		t.Errorf("expected 2 appointments, got %d", len(f.appts.appts))
	}
}

func TestHandleTurn_HistoryStaysBounded(t *testing.T) {
	f := newMachineFixture()
	f.engine.HistoryCap = 6

	f.turn(t, "555", "hi")
	for i := 0; i < 10; i++ {
		f.turn(t, "555", "gibberish")
	}
	s := f.activeSession(t, "555")
	if len(s.History) > 6 {
		t.Fatalf("history exceeded cap: %d turns", len(s.History))
	}
	// The newest turn is always retained.
	last := s.History[len(s.History)-1]
	if last.Role != "bot" {
		t.Errorf("expected trailing bot turn, got %+v", last)
	}
}
