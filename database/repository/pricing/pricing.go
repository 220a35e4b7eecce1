// File: database/repository/pricing/pricing.go
package pricingRepo

import (
	"context"
	"fmt"
	"time"

	"calibook/database"
	"calibook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PricingRepository stores the duration/category price tiers and the extras.
type PricingRepository interface {
	UpsertTier(ctx context.Context, t *models.PricingTier) error
	GetTier(ctx context.Context, scopeID string, durationMin int, category string) (*models.PricingTier, error)
	ListTiersByScope(ctx context.Context, scopeID string) ([]models.PricingTier, error)
	DeleteTier(ctx context.Context, id string) error

	UpsertExtra(ctx context.Context, e *models.Extra) error
	GetExtraByName(ctx context.Context, providerID, name string) (*models.Extra, error)
	ListExtras(ctx context.Context, providerID string, activeOnly bool) ([]models.Extra, error)
	DeleteExtra(ctx context.Context, id string) error
}

type mongoPricingRepo struct {
	tiers  *mongo.Collection
	extras *mongo.Collection
}

// NewMongoPricingRepo constructs a new MongoDB PricingRepository.
func NewMongoPricingRepo() PricingRepository {
	db := database.DB()
	return &mongoPricingRepo{
		tiers:  db.Collection("pricing_tiers"),
		extras: db.Collection("extras"),
	}
}

func (r *mongoPricingRepo) UpsertTier(ctx context.Context, t *models.PricingTier) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	filter := bson.M{"scopeId": t.ScopeID, "durationMin": t.DurationMin, "category": t.Category}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.tiers.ReplaceOne(ctx, filter, t, opts); err != nil {
		return fmt.Errorf("failed to upsert pricing tier: %w", err)
	}
	return nil
}

func (r *mongoPricingRepo) GetTier(ctx context.Context, scopeID string, durationMin int, category string) (*models.PricingTier, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{"scopeId": scopeID, "durationMin": durationMin, "category": category}
	var t models.PricingTier
	if err := r.tiers.FindOne(ctx, filter).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *mongoPricingRepo) ListTiersByScope(ctx context.Context, scopeID string) ([]models.PricingTier, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Find().SetSort(bson.M{"durationMin": 1})
	cursor, err := r.tiers.Find(ctx, bson.M{"scopeId": scopeID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.PricingTier
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoPricingRepo) DeleteTier(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.tiers.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoPricingRepo) UpsertExtra(ctx context.Context, e *models.Extra) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	filter := bson.M{"providerId": e.ProviderID, "name": e.Name}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.extras.ReplaceOne(ctx, filter, e, opts); err != nil {
		return fmt.Errorf("failed to upsert extra: %w", err)
	}
	return nil
}

func (r *mongoPricingRepo) GetExtraByName(ctx context.Context, providerID, name string) (*models.Extra, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var e models.Extra
	if err := r.extras.FindOne(ctx, bson.M{"providerId": providerID, "name": name}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *mongoPricingRepo) ListExtras(ctx context.Context, providerID string, activeOnly bool) ([]models.Extra, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{"providerId": providerID}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.extras.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.Extra
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoPricingRepo) DeleteExtra(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.extras.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
