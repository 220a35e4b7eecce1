package models

// Pricing categories.
const (
	CategoryPrivate = "private"
	CategoryOutcall = "outcall"
)

// PricingTier maps (duration, category) to a price in minor currency units.
// ScopeID is an agent ID for per-agent overrides or a provider ID for the
// tenant defaults, same scoping rule as BusinessHours.
type PricingTier struct {
	ID          string `bson:"id" json:"id"`
	ScopeID     string `bson:"scopeId" json:"scopeId"`
	DurationMin int    `bson:"durationMin" json:"durationMin"`
	Category    string `bson:"category" json:"category"`
	PriceMinor  int64  `bson:"priceMinor" json:"priceMinor"`
	Active      bool   `bson:"active" json:"active"`
}

// Extra is a named add-on with a flat surcharge, toggled per provider.
type Extra struct {
	ID             string `bson:"id" json:"id"`
	ProviderID     string `bson:"providerId" json:"providerId"`
	Name           string `bson:"name" json:"name"`
	SurchargeMinor int64  `bson:"surchargeMinor" json:"surchargeMinor"`
	Active         bool   `bson:"active" json:"active"`
	Custom         bool   `bson:"custom,omitempty" json:"custom,omitempty"`
}

// Quote is the priced result of a (duration, category, extras) selection.
type Quote struct {
	BasePriceMinor   int64 `json:"basePriceMinor"`
	ExtrasTotalMinor int64 `json:"extrasTotalMinor"`
	TotalMinor       int64 `json:"totalMinor"`
}
