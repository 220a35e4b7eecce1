// File: database/repository/blacklist/blacklist.go
package blacklistRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"calibook/database"
	"calibook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Entry is one blocklisted client phone. Entries span all providers; the
// availability gate consults them before any auto-booking decision.
type Entry struct {
	ID        string    `bson:"id" json:"id"`
	Phone     string    `bson:"phone" json:"phone"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// BlacklistRepository is a read-mostly lookup over the shared blocklist.
// Lookups are cached in Redis for cacheTTL; the write paths invalidate.
type BlacklistRepository interface {
	IsListed(ctx context.Context, phone string) (bool, error)
	Add(ctx context.Context, phone, reason string) error
	Remove(ctx context.Context, phone string) error
}

type mongoBlacklistRepo struct {
	coll  *mongo.Collection
	cache *redis.Client
	ttl   time.Duration
}

// NewMongoBlacklistRepo constructs a new BlacklistRepository.
func NewMongoBlacklistRepo(cacheTTL time.Duration) BlacklistRepository {
	return &mongoBlacklistRepo{
		coll:  database.DB().Collection("blacklist"),
		cache: utils.GetCacheClient(),
		ttl:   cacheTTL,
	}
}

func blKey(phone string) string { return "blacklist:" + phone }

func (r *mongoBlacklistRepo) IsListed(ctx context.Context, phone string) (bool, error) {
	if v, err := r.cache.Get(ctx, blKey(phone)).Result(); err == nil {
		return v == "1", nil
	}

	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := r.coll.FindOne(mctx, bson.M{"phone": phone}).Err()
	switch {
	case err == nil:
		r.cache.Set(ctx, blKey(phone), "1", r.ttl)
		return true, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		r.cache.Set(ctx, blKey(phone), "0", r.ttl)
		return false, nil
	default:
		return false, fmt.Errorf("blacklist lookup failed: %w", err)
	}
}

func (r *mongoBlacklistRepo) Add(ctx context.Context, phone, reason string) error {
	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	entry := Entry{ID: uuid.New().String(), Phone: phone, Reason: reason, CreatedAt: time.Now().UTC()}
	if _, err := r.coll.InsertOne(mctx, entry); err != nil {
		return fmt.Errorf("failed to insert blacklist entry: %w", err)
	}
	r.cache.Del(ctx, blKey(phone))
	return nil
}

func (r *mongoBlacklistRepo) Remove(ctx context.Context, phone string) error {
	mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.DeleteMany(mctx, bson.M{"phone": phone}); err != nil {
		return err
	}
	r.cache.Del(ctx, blKey(phone))
	return nil
}
