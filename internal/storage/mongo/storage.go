package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcoot/chessrooms/internal/model"
	"github.com/mcoot/chessrooms/internal/storage"
)

// Config holds MongoDB connection settings
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// DefaultConfig returns defaults for a local MongoDB
func DefaultConfig() Config {
	return Config{
		URI:        "mongodb://localhost:27017",
		Database:   "chessrooms",
		Collection: "users",
		Timeout:    10 * time.Second,
	}
}

// Storage is a MongoDB-backed user store
type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to MongoDB and ensures the unique indexes exist
func New(ctx context.Context, cfg Config) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := &Storage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewWithCollection wraps an existing collection (for testing)
func NewWithCollection(collection *mongo.Collection) *Storage {
	return &Storage{collection: collection}
}

// Close disconnects the client if this storage owns one
func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

var _ storage.UserStore = (*Storage)(nil)

// EnsureIndexes creates unique indexes on username, email and userId
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) (bool, error) {
	if user.Games == nil {
		user.Games = []model.GameRecord{}
	}
	_, err := s.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Storage) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Storage) UpdateRatingAndAppendGame(ctx context.Context, username string, rating int, game model.GameRecord) (bool, error) {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{
			"$set":  bson.M{"rating": rating},
			"$push": bson.M{"games": game},
		},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (s *Storage) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := s.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
