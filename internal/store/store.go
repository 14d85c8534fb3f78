package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klass-lk/postboard/internal/model"
)

var (
	// ErrNotInitialized is returned by Load when the collection document does not exist.
	ErrNotInitialized = errors.New("post collection not initialized")
	// ErrCorrupt is returned by Load when the stored document cannot be decoded.
	ErrCorrupt = errors.New("post collection is corrupt")
)

const (
	BackendFile     = "file"
	BackendS3       = "s3"
	BackendMongo    = "mongo"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"

	defaultTimeout = 5 * time.Second
)

// Store persists the whole post collection as one unit. Every call reads or
// writes the full collection; nothing is cached between calls.
type Store interface {
	// Initialize writes the seed collection if no collection exists yet.
	Initialize(ctx context.Context) error
	Load(ctx context.Context) ([]model.Post, error)
	// Save overwrites the stored collection. It is not atomic.
	Save(ctx context.Context, posts []model.Post) error
}

// Config selects and configures a backend.
type Config struct {
	Backend  string         `yaml:"backend"`
	Timeout  time.Duration  `yaml:"timeout"`
	File     FileConfig     `yaml:"file"`
	S3       S3Config       `yaml:"s3"`
	Mongo    MongoConfig    `yaml:"mongo"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	SQL      SQLConfig      `yaml:"sql"`
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

// Open builds the configured backend. The returned close function releases
// any connection the backend holds and is never nil.
func Open(ctx context.Context, cfg Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.File.Path), noop, nil

	case BackendS3:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, noop, err
		}
		return NewS3Store(client, cfg.S3.Bucket, cfg.S3.Key, cfg.timeout()), noop, nil

	case BackendMongo:
		db, err := cfg.Mongo.Connect(ctx)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() error {
			return db.Client().Disconnect(context.Background())
		}
		return NewMongoStore(db, cfg.Mongo, cfg.timeout()), closeFn, nil

	case BackendDynamoDB:
		client, err := NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, noop, err
		}
		return NewDynamoDBStore(client, cfg.DynamoDB, cfg.timeout()), noop, nil

	case BackendPostgres:
		sqlConfig := cfg.SQL
		if sqlConfig.Driver == "" {
			sqlConfig.Driver = "postgres"
		}
		db, err := sqlConfig.Connect(ctx)
		if err != nil {
			return nil, noop, err
		}
		return NewSQLStore(db, sqlConfig.Table, cfg.timeout()), db.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// encode renders the collection document: a JSON array indented by four spaces.
func encode(posts []model.Post) ([]byte, error) {
	if posts == nil {
		posts = []model.Post{}
	}
	data, err := json.MarshalIndent(posts, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode posts: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]model.Post, error) {
	var posts []model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}
