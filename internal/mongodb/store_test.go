package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/contactbook/contactbook/internal/models"
)

func TestOwnedFilter(t *testing.T) {
	id := primitive.NewObjectID()
	owner := primitive.NewObjectID()

	filter, ok := ownedFilter(id.Hex(), owner.Hex())
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "_id", Value: id}, {Key: "user", Value: owner}}, filter)

	_, ok = ownedFilter("not-an-object-id", owner.Hex())
	assert.False(t, ok)
	_, ok = ownedFilter(id.Hex(), "")
	assert.False(t, ok)
}

func TestPatchSet_OnlySetFields(t *testing.T) {
	phone := "555-0100"
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	set := patchSet(models.ContactPatch{PhoneNumber: &phone}, at)
	assert.Equal(t, bson.D{
		{Key: "phoneNumber", Value: phone},
		{Key: "updatedAt", Value: at},
	}, set)
}

func TestUserStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate email", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := store.Create(context.Background(), &models.User{Email: "a@b.c"})
		assert.ErrorIs(mt, err, models.ErrEmailExists)
	})

	mt.Run("create assigns id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Email: "a@b.c", PasswordHash: "h"}
		require.NoError(mt, store.Create(context.Background(), u))
		_, err := primitive.ObjectIDFromHex(u.ID)
		assert.NoError(mt, err)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "contactbook.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "a@b.c"},
			{Key: "password", Value: "hash"},
			{Key: "isConfirmed", Value: true},
		}))

		u, err := store.GetByEmail(context.Background(), "a@b.c")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), u.ID)
		assert.Equal(mt, "hash", u.PasswordHash)
		assert.True(mt, u.IsConfirmed)
		assert.Nil(mt, u.LastLogin)
	})

	mt.Run("get by email missing", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "contactbook.users", mtest.FirstBatch))

		_, err := store.GetByEmail(context.Background(), "nobody@b.c")
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "contactbook.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "email", Value: "a@b.c"},
			{Key: "password", Value: "hash"},
		}))

		u, err := store.GetByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "a@b.c", u.Email)
	})

	mt.Run("get by malformed id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)

		_, err := store.GetByID(context.Background(), "not-an-object-id")
		assert.ErrorIs(mt, err, models.ErrUserNotFound)
	})
}

func TestContactStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	owner := primitive.NewObjectID()

	mt.Run("list by owner", func(mt *mtest.T) {
		store := NewContactStore(mt.DB)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "contactbook.contacts", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: first}, {Key: "firstName", Value: "Ada"}, {Key: "user", Value: owner}},
			bson.D{{Key: "_id", Value: second}, {Key: "firstName", Value: "Grace"}, {Key: "user", Value: owner}},
		))

		list, err := store.ListByOwner(context.Background(), owner.Hex())
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, first.Hex(), list[0].ID)
		assert.Equal(mt, "Grace", list[1].FirstName)
		assert.Equal(mt, owner.Hex(), list[1].UserID)
	})

	mt.Run("get owned missing", func(mt *mtest.T) {
		store := NewContactStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "contactbook.contacts", mtest.FirstBatch))

		_, err := store.GetOwned(context.Background(), primitive.NewObjectID().Hex(), owner.Hex())
		assert.ErrorIs(mt, err, models.ErrContactNotFound)
	})

	mt.Run("malformed id never queries", func(mt *mtest.T) {
		store := NewContactStore(mt.DB)

		_, err := store.GetOwned(context.Background(), "123", owner.Hex())
		assert.ErrorIs(mt, err, models.ErrContactNotFound)
		assert.ErrorIs(mt, store.DeleteOwned(context.Background(), "123", owner.Hex()), models.ErrContactNotFound)

		ok, err := store.Exists(context.Background(), "123")
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("update owned", func(mt *mtest.T) {
		store := NewContactStore(mt.DB)
		name := "Grace"
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := store.UpdateOwned(context.Background(), primitive.NewObjectID().Hex(), owner.Hex(),
			models.ContactPatch{FirstName: &name}, time.Now())
		assert.NoError(mt, err)
	})

	mt.Run("update foreign matches nothing", func(mt *mtest.T) {
		store := NewContactStore(mt.DB)
		name := "Grace"
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := store.UpdateOwned(context.Background(), primitive.NewObjectID().Hex(), owner.Hex(),
			models.ContactPatch{FirstName: &name}, time.Now())
		assert.ErrorIs(mt, err, models.ErrContactNotFound)
	})

	mt.Run("delete owned", func(mt *mtest.T) {
		store := NewContactStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, store.DeleteOwned(context.Background(), primitive.NewObjectID().Hex(), owner.Hex()))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		err := store.DeleteOwned(context.Background(), primitive.NewObjectID().Hex(), owner.Hex())
		assert.ErrorIs(mt, err, models.ErrContactNotFound)
	})
}
