package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adoptme/pet-adoption/backend/internal/common"
	"github.com/adoptme/pet-adoption/backend/internal/models"
)

// MongoStore handles pet listing CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("pets")}
}

func (s *MongoStore) Insert(ctx context.Context, pet *models.Pet) (string, error) {
	now := time.Now()
	pet.CreatedAt = now
	pet.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, pet)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	pet.ID = oid
	return oid.Hex(), nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Pet, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	var pet models.Pet
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&pet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &pet, nil
}

// All returns every listing, newest first.
func (s *MongoStore) All(ctx context.Context) ([]models.Pet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pets []models.Pet
	if err := cur.All(ctx, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error) {
	cur, err := s.col.Find(ctx, bson.M{"owner": ownerID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pets []models.Pet
	if err := cur.All(ctx, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteByOwner removes every listing owned by the given user in one bulk
// operation and returns the number removed.
func (s *MongoStore) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"owner": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
