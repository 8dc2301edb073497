package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"workouttribe/apperr"
)

const mongoTimeout = 5 * time.Second

type mongoEventRepo struct {
	col *mongo.Collection
}

func NewMongoEventRepository(col *mongo.Collection) EventRepository {
	return &mongoEventRepo{col: col}
}

func (r *mongoEventRepo) Load(ctx context.Context, id string) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var e Event
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Event{}, apperr.NotFound("event", id)
		}
		return Event{}, fmt.Errorf("load event %s: %w", id, err)
	}
	return e.Clone(), nil
}

// Save relies on the version field for optimistic concurrency: the replace
// only matches the document the caller loaded.
func (r *mongoEventRepo) Save(ctx context.Context, e *Event) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	next := e.Clone()
	next.Version = e.Version + 1

	if e.Version == 0 {
		if _, err := r.col.InsertOne(ctx, next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("insert event %s: %w", e.ID, apperr.ErrConflict)
			}
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		e.Version = next.Version
		return nil
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": e.ID, "version": e.Version}, next)
	if err != nil {
		return fmt.Errorf("replace event %s: %w", e.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace event %s at version %d: %w", e.ID, e.Version, apperr.ErrConflict)
	}
	e.Version = next.Version
	return nil
}

func (r *mongoEventRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("event", id)
	}
	return nil
}

func (r *mongoEventRepo) List(ctx context.Context) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer cur.Close(ctx)

	out := []Event{}
	for cur.Next(ctx) {
		var e Event
		if err := cur.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, e.Clone())
	}
	return out, cur.Err()
}
