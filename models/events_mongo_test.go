package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"workouttribe/apperr"
)

func eventDoc(id string, version int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Run " + id},
		{Key: "creator", Value: "u-1"},
		{Key: "maxParticipants", Value: 4},
		{Key: "participants", Value: bson.A{"u-2"}},
		{Key: "status", Value: "upcoming"},
		{Key: "version", Value: version},
	}
}

func TestMongoEventRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("load", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "app.events", mtest.FirstBatch, eventDoc("e-1", 3)))

		e, err := repo.Load(ctx, "e-1")
		require.NoError(mt, err)
		assert.Equal(mt, "e-1", e.ID)
		assert.Equal(mt, int64(3), e.Version)
		assert.Equal(mt, []string{"u-2"}, e.Participants)
	})

	mt.Run("load missing", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "app.events", mtest.FirstBatch))

		_, err := repo.Load(ctx, "nope")
		assert.ErrorIs(mt, err, apperr.ErrNotFound)
	})

	mt.Run("insert bumps version", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		e := newEvent()
		require.NoError(mt, repo.Save(ctx, &e))
		assert.Equal(mt, int64(1), e.Version)
	})

	mt.Run("insert duplicate id", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		e := newEvent()
		assert.ErrorIs(mt, repo.Save(ctx, &e), apperr.ErrConflict)
		assert.Equal(mt, int64(0), e.Version)
	})

	mt.Run("replace matches version", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1},
		))

		e := newEvent()
		e.Version = 4
		require.NoError(mt, repo.Save(ctx, &e))
		assert.Equal(mt, int64(5), e.Version)
	})

	mt.Run("replace stale version", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0},
		))

		e := newEvent()
		e.Version = 4
		assert.ErrorIs(mt, repo.Save(ctx, &e), apperr.ErrConflict)
		assert.Equal(mt, int64(4), e.Version)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.NoError(mt, repo.Delete(ctx, "e-1"))
		assert.ErrorIs(mt, repo.Delete(ctx, "e-1"), apperr.ErrNotFound)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewMongoEventRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "app.events", mtest.FirstBatch,
			eventDoc("e-1", 1), eventDoc("e-2", 2)))

		list, err := repo.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "e-2", list[1].ID)
	})
}
