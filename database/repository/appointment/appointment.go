// File: database/repository/appointment/appointment.go
package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"calibook/database"
	"calibook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrWindowTaken is returned by InsertIfFree when a non-cancelled appointment
// already occupies part of the requested window.
var ErrWindowTaken = errors.New("appointment window already taken")

// AppointmentRepository stores committed bookings. InsertIfFree is the only
// write path that creates appointments; it re-checks the overlap invariant
// inside a transaction so concurrent commits cannot both land.
type AppointmentRepository interface {
	InsertIfFree(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	ListOverlapping(ctx context.Context, agentID string, from, to time.Time) ([]models.Appointment, error)
	ListByAgent(ctx context.Context, agentID string, from, to time.Time) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new MongoDB AppointmentRepository.
func NewMongoAppointmentRepo() AppointmentRepository {
	return &mongoAppointmentRepo{coll: database.DB().Collection("appointments")}
}

// overlapFilter matches non-cancelled appointments for the agent whose
// [start, start+duration) range intersects [from, to). End instants are
// denormalized into an "end" field on insert so the range scan stays indexable.
func overlapFilter(agentID string, from, to time.Time) bson.M {
	return bson.M{
		"agentId": agentID,
		"status":  bson.M{"$ne": models.AppointmentCancelled},
		"start":   bson.M{"$lt": to},
		"end":     bson.M{"$gt": from},
	}
}

type appointmentDoc struct {
	models.Appointment `bson:",inline"`
	End                time.Time `bson:"end"`
}

func (r *mongoAppointmentRepo) InsertIfFree(ctx context.Context, appt *models.Appointment) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		count, err := r.coll.CountDocuments(sc, overlapFilter(appt.AgentID, appt.Start, appt.End()))
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		if count > 0 {
			return ErrWindowTaken
		}
		doc := appointmentDoc{Appointment: *appt, End: appt.End()}
		if _, err := r.coll.InsertOne(sc, doc); err != nil {
			return fmt.Errorf("insert appointment failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrWindowTaken) {
			return ErrWindowTaken
		}
		return fmt.Errorf("appointment transaction failed: %w", err)
	}
	return nil
}

func (r *mongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var a models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&a); err != nil {
		return nil, fmt.Errorf("appointment not found: %w", err)
	}
	return &a, nil
}

// ListOverlapping returns non-cancelled appointments intersecting [from, to).
func (r *mongoAppointmentRepo) ListOverlapping(ctx context.Context, agentID string, from, to time.Time) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Find().SetSort(bson.M{"start": 1})
	cursor, err := r.coll.Find(ctx, overlapFilter(agentID, from, to), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByAgent returns all appointments (any status) starting in [from, to).
func (r *mongoAppointmentRepo) ListByAgent(ctx context.Context, agentID string, from, to time.Time) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	filter := bson.M{"agentId": agentID, "start": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().SetSort(bson.M{"start": 1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoAppointmentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating appointment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
