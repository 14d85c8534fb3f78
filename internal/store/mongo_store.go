package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/klass-lk/postboard/internal/model"
)

type mongoDocument struct {
	ID        string       `bson:"_id"`
	Posts     []model.Post `bson:"posts"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// MongoStore keeps the whole collection inside one MongoDB document.
type MongoStore struct {
	collection *mongo.Collection
	documentID string
	timeout    time.Duration
}

func NewMongoStore(db *mongo.Database, cfg MongoConfig, timeout time.Duration) *MongoStore {
	collection := cfg.Collection
	if collection == "" {
		collection = "blog_posts"
	}
	documentID := cfg.Document
	if documentID == "" {
		documentID = "blog_posts"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &MongoStore{
		collection: db.Collection(collection),
		documentID: documentID,
		timeout:    timeout,
	}
}

// Initialize inserts the seed document; a duplicate key means it already exists.
func (s *MongoStore) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection.InsertOne(ctx, s.document(model.SeedPosts()))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to initialize %s: %w", s.documentID, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": s.documentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotInitialized, s.documentID)
		}
		return nil, fmt.Errorf("failed to load %s: %w", s.documentID, err)
	}
	if doc.Posts == nil {
		doc.Posts = []model.Post{}
	}
	return doc.Posts, nil
}

func (s *MongoStore) Save(ctx context.Context, posts []model.Post) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": s.documentID},
		s.document(posts),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", s.documentID, err)
	}
	return nil
}

func (s *MongoStore) document(posts []model.Post) mongoDocument {
	if posts == nil {
		posts = []model.Post{}
	}
	return mongoDocument{
		ID:        s.documentID,
		Posts:     posts,
		UpdatedAt: time.Now().UTC(),
	}
}
