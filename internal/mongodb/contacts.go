package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/contactbook/contactbook/internal/models"
)

type contactDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	FirstName   string             `bson:"firstName"`
	LastName    string             `bson:"lastName"`
	PhoneNumber string             `bson:"phoneNumber"`
	User        primitive.ObjectID `bson:"user"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *contactDocument) toModel() *models.Contact {
	return &models.Contact{
		ID:          d.ID.Hex(),
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		PhoneNumber: d.PhoneNumber,
		UserID:      d.User.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type ContactStore struct {
	coll *mongo.Collection
}

func NewContactStore(db *mongo.Database) *ContactStore {
	return &ContactStore{coll: db.Collection(contactsCollection)}
}

// ownedFilter matches id AND owner. ok is false when either id is not an
// ObjectID, which can never match.
func ownedFilter(id, ownerID string) (bson.D, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "user", Value: owner}}, true
}

// patchSet builds the $set document for the set fields of patch.
func patchSet(patch models.ContactPatch, at time.Time) bson.D {
	set := bson.D{}
	if patch.FirstName != nil {
		set = append(set, bson.E{Key: "firstName", Value: *patch.FirstName})
	}
	if patch.LastName != nil {
		set = append(set, bson.E{Key: "lastName", Value: *patch.LastName})
	}
	if patch.PhoneNumber != nil {
		set = append(set, bson.E{Key: "phoneNumber", Value: *patch.PhoneNumber})
	}
	return append(set, bson.E{Key: "updatedAt", Value: at})
}

func (s *ContactStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Contact, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []*models.Contact{}, nil
	}

	cur, err := s.coll.Find(ctx, bsonD("user", owner), options.Find().SetSort(bsonD("_id", 1)))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer cur.Close(ctx)

	contacts := []*models.Contact{}
	for cur.Next(ctx) {
		var doc contactDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode contact: %w", err)
		}
		contacts = append(contacts, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactStore) GetOwned(ctx context.Context, id, ownerID string) (*models.Contact, error) {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return nil, models.ErrContactNotFound
	}

	var doc contactDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return doc.toModel(), nil
}

func (s *ContactStore) Exists(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	n, err := s.coll.CountDocuments(ctx, bsonD("_id", oid), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("probe contact: %w", err)
	}
	return n > 0, nil
}

func (s *ContactStore) Create(ctx context.Context, contact *models.Contact) error {
	owner, err := primitive.ObjectIDFromHex(contact.UserID)
	if err != nil {
		return fmt.Errorf("create contact: invalid owner id %q", contact.UserID)
	}

	doc := contactDocument{
		ID:          primitive.NewObjectID(),
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		PhoneNumber: contact.PhoneNumber,
		User:        owner,
		CreatedAt:   contact.CreatedAt,
		UpdatedAt:   contact.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	contact.ID = doc.ID.Hex()
	return nil
}

func (s *ContactStore) UpdateOwned(ctx context.Context, id, ownerID string, patch models.ContactPatch, at time.Time) error {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return models.ErrContactNotFound
	}

	res, err := s.coll.UpdateOne(ctx, filter, bsonD("$set", patchSet(patch, at)))
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrContactNotFound
	}
	return nil
}

func (s *ContactStore) DeleteOwned(ctx context.Context, id, ownerID string) error {
	filter, ok := ownedFilter(id, ownerID)
	if !ok {
		return models.ErrContactNotFound
	}

	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrContactNotFound
	}
	return nil
}
