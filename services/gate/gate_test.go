package gate

import (
	"context"
	"testing"
	"time"

	"calibook/models"
)

type fakeBlacklist struct {
	listed map[string]bool
}

func (f *fakeBlacklist) IsListed(ctx context.Context, phone string) (bool, error) {
	return f.listed[phone], nil
}
func (f *fakeBlacklist) Add(ctx context.Context, phone, reason string) error { return nil }
func (f *fakeBlacklist) Remove(ctx context.Context, phone string) error      { return nil }

func agentInMode(mode string) *models.Agent {
	return &models.Agent{ID: "agent-1", ProviderID: "prov-1", AvailabilityMode: mode}
}

func TestCanAutoBook_Modes(t *testing.T) {
	g := &Gate{Blacklist: &fakeBlacklist{}}
	now := time.Now()

	tests := []struct {
		mode       string
		allowed    bool
		wantReason string
	}{
		{models.ModeActive, true, ""},
		{models.ModeAway, false, ReasonAway},
		{models.ModeGhost, false, ReasonGhost},
	}
	for _, tt := range tests {
		d, err := g.CanAutoBook(context.Background(), agentInMode(tt.mode), "555", now)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.mode, err)
		}
		if d.Allowed != tt.allowed || d.Reason != tt.wantReason {
			t.Errorf("%s: got %+v", tt.mode, d)
		}
	}
}

func TestCanAutoBook_ManualOverrideWinsOverActiveMode(t *testing.T) {
	g := &Gate{Blacklist: &fakeBlacklist{}}
	now := time.Now()

	agent := agentInMode(models.ModeActive)
	agent.ManualOverrideUntil = now.Add(30 * time.Minute)

	d, err := g.CanAutoBook(context.Background(), agent, "555", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed || d.Reason != ReasonManualOverride {
		t.Errorf("expected manual override denial, got %+v", d)
	}

	// An elapsed override no longer applies.
	agent.ManualOverrideUntil = now.Add(-time.Minute)
	d, _ = g.CanAutoBook(context.Background(), agent, "555", now)
	if !d.Allowed {
		t.Errorf("elapsed override should not deny, got %+v", d)
	}
}

func TestCanAutoBook_BlacklistedClient(t *testing.T) {
	g := &Gate{Blacklist: &fakeBlacklist{listed: map[string]bool{"666": true}}}

	d, err := g.CanAutoBook(context.Background(), agentInMode(models.ModeActive), "666", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed || d.Reason != ReasonBlacklisted {
		t.Errorf("expected blacklist denial, got %+v", d)
	}
}

func TestShouldSurfaceWindows(t *testing.T) {
	g := &Gate{}
	if g.ShouldSurfaceWindows(agentInMode(models.ModeGhost)) {
		t.Error("ghost agents must stay invisible")
	}
	if g.ShouldSurfaceWindows(agentInMode(models.ModeAway)) {
		t.Error("away agents hidden unless the follow-up flag is on")
	}
	g.SurfaceWhenAway = true
	if !g.ShouldSurfaceWindows(agentInMode(models.ModeAway)) {
		t.Error("away agents should surface with the follow-up flag")
	}
	if !g.ShouldSurfaceWindows(agentInMode(models.ModeActive)) {
		t.Error("active agents always surface")
	}
}
