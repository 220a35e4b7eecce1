package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"calibook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type fakePricingRepo struct {
	tiers  map[string]models.PricingTier // key scope|duration|category
	extras map[string]models.Extra       // key provider|name
}

func tierKey(scope string, d int, cat string) string {
	return fmt.Sprintf("%s|%d|%s", scope, d, cat)
}

func newFakeRepo() *fakePricingRepo {
	return &fakePricingRepo{
		tiers:  make(map[string]models.PricingTier),
		extras: make(map[string]models.Extra),
	}
}

func (f *fakePricingRepo) addTier(scope string, d int, cat string, price int64, active bool) {
	f.tiers[tierKey(scope, d, cat)] = models.PricingTier{
		ScopeID: scope, DurationMin: d, Category: cat, PriceMinor: price, Active: active,
	}
}

func (f *fakePricingRepo) addExtra(provider, name string, surcharge int64, active bool) {
	f.extras[provider+"|"+name] = models.Extra{
		ProviderID: provider, Name: name, SurchargeMinor: surcharge, Active: active,
	}
}

func (f *fakePricingRepo) UpsertTier(ctx context.Context, t *models.PricingTier) error { return nil }
func (f *fakePricingRepo) GetTier(ctx context.Context, scope string, d int, cat string) (*models.PricingTier, error) {
	t, ok := f.tiers[tierKey(scope, d, cat)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &t, nil
}
func (f *fakePricingRepo) ListTiersByScope(ctx context.Context, scope string) ([]models.PricingTier, error) {
	var out []models.PricingTier
	for _, t := range f.tiers {
		if t.ScopeID == scope {
			out = append(out, t)
		}
	}
	return out, nil
}
func (f *fakePricingRepo) DeleteTier(ctx context.Context, id string) error { return nil }
func (f *fakePricingRepo) UpsertExtra(ctx context.Context, e *models.Extra) error {
	return nil
}
func (f *fakePricingRepo) GetExtraByName(ctx context.Context, provider, name string) (*models.Extra, error) {
	e, ok := f.extras[provider+"|"+name]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &e, nil
}
func (f *fakePricingRepo) ListExtras(ctx context.Context, provider string, activeOnly bool) ([]models.Extra, error) {
	var out []models.Extra
	for _, e := range f.extras {
		if e.ProviderID == provider && (!activeOnly || e.Active) {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f *fakePricingRepo) DeleteExtra(ctx context.Context, id string) error { return nil }

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var perr *PricingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PricingError, got %v", err)
	}
	return perr.Code
}

func TestQuote_OutcallUnderHourRejectedByPolicy(t *testing.T) {
	repo := newFakeRepo()
	// A tier row exists, but the policy table wins regardless.
	repo.addTier("prov-1", 45, models.CategoryOutcall, 10000, true)
	r := &Resolver{Repo: repo}

	_, err := r.Quote(context.Background(), "prov-1", "", 45, models.CategoryOutcall, nil)
	if codeOf(t, err) != CodeCategoryUnavailableForDuration {
		t.Errorf("unexpected code: %v", err)
	}
}

func TestQuote_OutcallAtHourSucceeds(t *testing.T) {
	repo := newFakeRepo()
	repo.addTier("prov-1", 60, models.CategoryOutcall, 20000, true)
	r := &Resolver{Repo: repo}

	q, err := r.Quote(context.Background(), "prov-1", "", 60, models.CategoryOutcall, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.BasePriceMinor != 20000 || q.TotalMinor != 20000 {
		t.Errorf("unexpected quote: %+v", q)
	}
}

func TestQuote_TierUndefinedAndInactive(t *testing.T) {
	repo := newFakeRepo()
	repo.addTier("prov-1", 90, models.CategoryPrivate, 15000, false)
	r := &Resolver{Repo: repo}

	_, err := r.Quote(context.Background(), "prov-1", "", 30, models.CategoryPrivate, nil)
	if codeOf(t, err) != CodeTierUndefined {
		t.Errorf("unexpected code: %v", err)
	}

	_, err = r.Quote(context.Background(), "prov-1", "", 90, models.CategoryPrivate, nil)
	if codeOf(t, err) != CodeTierInactive {
		t.Errorf("unexpected code: %v", err)
	}
}

func TestQuote_AgentTierOverridesProviderDefault(t *testing.T) {
	repo := newFakeRepo()
	repo.addTier("prov-1", 60, models.CategoryPrivate, 10000, true)
	repo.addTier("agent-1", 60, models.CategoryPrivate, 12000, true)
	r := &Resolver{Repo: repo}

	q, err := r.Quote(context.Background(), "prov-1", "agent-1", 60, models.CategoryPrivate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.BasePriceMinor != 12000 {
		t.Errorf("agent override not applied: %+v", q)
	}

	// Agent without its own tier falls back to the provider default.
	q, err = r.Quote(context.Background(), "prov-1", "agent-2", 60, models.CategoryPrivate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.BasePriceMinor != 10000 {
		t.Errorf("provider fallback not applied: %+v", q)
	}
}

func TestQuote_Extras(t *testing.T) {
	repo := newFakeRepo()
	repo.addTier("prov-1", 60, models.CategoryPrivate, 10000, true)
	repo.addExtra("prov-1", "massage", 3000, true)
	repo.addExtra("prov-1", "champagne", 5000, false)
	r := &Resolver{Repo: repo}

	q, err := r.Quote(context.Background(), "prov-1", "", 60, models.CategoryPrivate, []string{"massage"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ExtrasTotalMinor != 3000 || q.TotalMinor != 13000 {
		t.Errorf("unexpected quote: %+v", q)
	}

	// Inactive and unknown extras fail loudly instead of being dropped.
	_, err = r.Quote(context.Background(), "prov-1", "", 60, models.CategoryPrivate, []string{"champagne"})
	if codeOf(t, err) != CodeExtraUnavailable {
		t.Errorf("unexpected code for inactive extra: %v", err)
	}
	_, err = r.Quote(context.Background(), "prov-1", "", 60, models.CategoryPrivate, []string{"karaoke"})
	if codeOf(t, err) != CodeExtraUnavailable {
		t.Errorf("unexpected code for unknown extra: %v", err)
	}
}
