// File: database/repository/agent/agent.go
package agentRepo

import (
	"context"
	"fmt"
	"time"

	"calibook/database"
	"calibook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AgentRepository interface {
	Create(ctx context.Context, a *models.Agent) error
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Agent, error)
	Update(ctx context.Context, a *models.Agent) error
	Delete(ctx context.Context, id string) error
	SetAvailabilityMode(ctx context.Context, id, mode string) error
	SetManualOverride(ctx context.Context, id string, until time.Time) error
}

type mongoAgentRepo struct {
	coll *mongo.Collection
}

// NewMongoAgentRepo constructs a new MongoDB AgentRepository.
func NewMongoAgentRepo() AgentRepository {
	return &mongoAgentRepo{coll: database.DB().Collection("agents")}
}

func (r *mongoAgentRepo) Create(ctx context.Context, a *models.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.AvailabilityMode == "" {
		a.AvailabilityMode = models.ModeActive
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

func (r *mongoAgentRepo) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var a models.Agent
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *mongoAgentRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cursor, err := r.coll.Find(ctx, bson.M{"providerId": providerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.Agent
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoAgentRepo) Update(ctx context.Context, a *models.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	a.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": a.ID}, a)
	if err != nil {
		return fmt.Errorf("failed to update agent %s: %w", a.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAgentRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAgentRepo) SetAvailabilityMode(ctx context.Context, id, mode string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{"$set": bson.M{"availabilityMode": mode, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoAgentRepo) SetManualOverride(ctx context.Context, id string, until time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{"$set": bson.M{"manualOverrideUntil": until, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
