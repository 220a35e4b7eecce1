// File: database/repository/schedule/schedule.go
package scheduleRepo

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

// ScheduleRepository stores the recurring business hours and the one-off
// blocked ranges an agent's calendar is derived from.
type ScheduleRepository interface {
	UpsertHours(ctx context.Context, h *models.BusinessHours) error
	GetHoursByScope(ctx context.Context, scopeID string) ([]models.BusinessHours, error)
	DeleteHours(ctx context.Context, scopeID string, weekday int) error

	CreateBlockedRange(ctx context.Context, b *models.BlockedRange) error
	ListBlockedRanges(ctx context.Context, agentID string, from, to time.Time) ([]models.BlockedRange, error)
	DeleteBlockedRange(ctx context.Context, id string) error
}

type mongoScheduleRepo struct {
	hours   *mongo.Collection
	blocked *mongo.Collection
}

// NewMongoScheduleRepo constructs a new MongoDB ScheduleRepository.
func NewMongoScheduleRepo() ScheduleRepository {
	db := database.DB()
	return &mongoScheduleRepo{
		hours:   db.Collection("business_hours"),
		blocked: db.Collection("blocked_ranges"),
	}
}

// UpsertHours writes the record for (scope, weekday), replacing any existing
// one. Exactly one record per weekday per scope is kept.
func (r *mongoScheduleRepo) UpsertHours(ctx context.Context, h *models.BusinessHours) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if h.Weekday < 0 || h.Weekday > 6 {
		return fmt.Errorf("weekday %d out of range", h.Weekday)
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	filter := bson.M{"scopeId": h.ScopeID, "weekday": h.Weekday}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.hours.ReplaceOne(ctx, filter, h, opts); err != nil {
		return fmt.Errorf("failed to upsert business hours: %w", err)
	}
	return nil
}

func (r *mongoScheduleRepo) GetHoursByScope(ctx context.Context, scopeID string) ([]models.BusinessHours, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cursor, err := r.hours.Find(ctx, bson.M{"scopeId": scopeID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.BusinessHours
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoScheduleRepo) DeleteHours(ctx context.Context, scopeID string, weekday int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.hours.DeleteOne(ctx, bson.M{"scopeId": scopeID, "weekday": weekday})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoScheduleRepo) CreateBlockedRange(ctx context.Context, b *models.BlockedRange) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if !b.End.After(b.Start) {
		return fmt.Errorf("blocked range end must be after start")
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = time.Now().UTC()
	if _, err := r.blocked.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to insert blocked range: %w", err)
	}
	return nil
}

// ListBlockedRanges returns the agent's blocked ranges intersecting [from, to).
func (r *mongoScheduleRepo) ListBlockedRanges(ctx context.Context, agentID string, from, to time.Time) ([]models.BlockedRange, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{
		"agentId": agentID,
		"start":   bson.M{"$lt": to},
		"end":     bson.M{"$gt": from},
	}
	cursor, err := r.blocked.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.BlockedRange
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoScheduleRepo) DeleteBlockedRange(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.blocked.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
