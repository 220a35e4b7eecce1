// File: database/repository/session/session.go
package sessionRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"calibook/database"
	"calibook/models"
	"calibook/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no active session exists for the key.
var ErrNotFound = errors.New("conversation session not found")

// SessionRepository persists conversation sessions. Every mutation is written
// through to Mongo; Redis holds a hot copy keyed session:<provider>:<phone>
// so the common turn path avoids a Mongo round trip. A restart therefore
// resumes mid-conversation state from Mongo.
type SessionRepository interface {
	GetActive(ctx context.Context, providerID, phone string) (*models.ConversationSession, error)
	Save(ctx context.Context, s *models.ConversationSession) error
	ListActive(ctx context.Context, providerID string) ([]models.ConversationSession, error)
	// Archive marks the hot cache invalid for a terminal session; the Mongo
	// record is kept for history.
	Archive(ctx context.Context, s *models.ConversationSession) error
}

type mongoSessionRepo struct {
	coll  *mongo.Collection
	cache *redis.Client
	ttl   time.Duration
}

// NewMongoSessionRepo constructs the session repository with its Redis hot cache.
func NewMongoSessionRepo(cacheTTL time.Duration) SessionRepository {
	return &mongoSessionRepo{
		coll:  database.DB().Collection("sessions"),
		cache: utils.GetSessionCacheClient(),
		ttl:   cacheTTL,
	}
}

func cacheKey(providerID, phone string) string {
	return fmt.Sprintf("session:%s:%s", providerID, phone)
}

func (r *mongoSessionRepo) GetActive(ctx context.Context, providerID, phone string) (*models.ConversationSession, error) {
	key := cacheKey(providerID, phone)
	if data, err := r.cache.Get(ctx, key).Result(); err == nil {
		var s models.ConversationSession
		if err := json.Unmarshal([]byte(data), &s); err == nil {
			return &s, nil
		}
		// Corrupt cache entry; fall through to Mongo.
		r.cache.Del(ctx, key)
	}

	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{
		"providerId":  providerID,
		"clientPhone": phone,
		"state": bson.M{"$nin": bson.A{
			models.StateCompleted, models.StateCancelled, models.StateExpired,
		}},
	}
	opts := options.FindOne().SetSort(bson.M{"lastUpdate": -1})
	var s models.ConversationSession
	if err := r.coll.FindOne(mctx, filter, opts).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	r.warmCache(ctx, &s)
	return &s, nil
}

func (r *mongoSessionRepo) Save(ctx context.Context, s *models.ConversationSession) error {
	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(mctx, bson.M{"id": s.ID}, s, opts); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	if s.Terminal() {
		r.cache.Del(ctx, cacheKey(s.ProviderID, s.ClientPhone))
		return nil
	}
	r.warmCache(ctx, s)
	return nil
}

func (r *mongoSessionRepo) ListActive(ctx context.Context, providerID string) ([]models.ConversationSession, error) {
	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{
		"providerId": providerID,
		"state": bson.M{"$nin": bson.A{
			models.StateCompleted, models.StateCancelled, models.StateExpired,
		}},
	}
	cursor, err := r.coll.Find(mctx, filter, options.Find().SetSort(bson.M{"lastUpdate": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(mctx)
	var out []models.ConversationSession
	if err := cursor.All(mctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoSessionRepo) Archive(ctx context.Context, s *models.ConversationSession) error {
	if err := r.Save(ctx, s); err != nil {
		return err
	}
	r.cache.Del(ctx, cacheKey(s.ProviderID, s.ClientPhone))
	return nil
}

func (r *mongoSessionRepo) warmCache(ctx context.Context, s *models.ConversationSession) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	r.cache.Set(ctx, cacheKey(s.ProviderID, s.ClientPhone), data, r.ttl)
}
