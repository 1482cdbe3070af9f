package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/contactbook/contactbook/internal/models"
)

func bsonD(key string, value any) bson.D {
	return bson.D{{Key: key, Value: value}}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	IsConfirmed  bool               `bson:"isConfirmed"`
	LastLogin    *time.Time         `bson:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		IsConfirmed:  d.IsConfirmed,
		LastLogin:    d.LastLogin,
		CreatedAt:    d.CreatedAt,
	}
}

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	doc := userDocument{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsConfirmed:  user.IsConfirmed,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user %s: %w", user.Email, models.ErrEmailExists)
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bsonD("email", email))
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrUserNotFound
	}
	return s.findOne(ctx, bsonD("_id", oid))
}

func (s *UserStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrUserNotFound
	}

	res, err := s.coll.UpdateOne(ctx, bsonD("_id", oid), bsonD("$set", bsonD("lastLogin", at)))
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}
