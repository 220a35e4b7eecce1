// File: services/pricing/resolver.go
package pricing

import (
	"context"
	"errors"

	pricingRepo "calibook/database/repository/pricing"
	"calibook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Duration buckets for the category policy table.
const (
	bucketShort = "short" // under 60 minutes
	bucketLong  = "long"  // 60 minutes and up
)

// categoryPolicy is the hard business policy of which categories each
// duration bucket supports, independent of tier configuration. New buckets
// or categories are added here, not as scattered conditionals.
var categoryPolicy = map[string]map[string]bool{
	bucketShort: {
		models.CategoryPrivate: true,
	},
	bucketLong: {
		models.CategoryPrivate: true,
		models.CategoryOutcall: true,
	},
}

func bucketFor(durationMin int) string {
	if durationMin >= 60 {
		return bucketLong
	}
	return bucketShort
}

// CategoryAllowed reports whether the policy table permits the category for
// the duration at all.
func CategoryAllowed(durationMin int, category string) bool {
	return categoryPolicy[bucketFor(durationMin)][category]
}

// Resolver computes quotes from pricing tiers and extras. Read-only with
// respect to the rest of the core.
type Resolver struct {
	Repo pricingRepo.PricingRepository
}

// Quote prices a (duration, category, extras) selection for one agent. The
// agent's own tier wins; if the agent has no tier for the pair, the provider
// default is consulted.
func (r *Resolver) Quote(ctx context.Context, providerID, agentID string, durationMin int, category string, extraNames []string) (*models.Quote, error) {
	if !CategoryAllowed(durationMin, category) {
		return nil, newError(CodeCategoryUnavailableForDuration,
			"category %q is not offered for %d-minute appointments", category, durationMin)
	}

	tier, err := r.lookupTier(ctx, providerID, agentID, durationMin, category)
	if err != nil {
		return nil, err
	}
	if !tier.Active {
		return nil, newError(CodeTierInactive,
			"tier for %d minutes (%s) is currently inactive", durationMin, category)
	}

	var extrasTotal int64
	for _, name := range extraNames {
		extra, err := r.Repo.GetExtraByName(ctx, providerID, name)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, newError(CodeExtraUnavailable, "extra %q is not offered", name)
			}
			return nil, err
		}
		if !extra.Active {
			return nil, newError(CodeExtraUnavailable, "extra %q is currently unavailable", name)
		}
		extrasTotal += extra.SurchargeMinor
	}

	return &models.Quote{
		BasePriceMinor:   tier.PriceMinor,
		ExtrasTotalMinor: extrasTotal,
		TotalMinor:       tier.PriceMinor + extrasTotal,
	}, nil
}

func (r *Resolver) lookupTier(ctx context.Context, providerID, agentID string, durationMin int, category string) (*models.PricingTier, error) {
	if agentID != "" {
		tier, err := r.Repo.GetTier(ctx, agentID, durationMin, category)
		if err == nil {
			return tier, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}
	tier, err := r.Repo.GetTier(ctx, providerID, durationMin, category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newError(CodeTierUndefined,
				"no tier defined for %d minutes (%s)", durationMin, category)
		}
		return nil, err
	}
	return tier, nil
}
