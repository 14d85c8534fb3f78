package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConfig struct {
	URI        string            `yaml:"uri"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	Username   string            `yaml:"username"`
	Password   string            `yaml:"password"`
	Database   string            `yaml:"database"`
	Collection string            `yaml:"collection"`
	Document   string            `yaml:"document"`
	Options    map[string]string `yaml:"options"`
}

func NewMongoConfig() *MongoConfig {
	return &MongoConfig{
		Host:       "localhost",
		Port:       27017,
		Database:   "postboard",
		Collection: "blog_posts",
		Document:   "blog_posts",
		Options:    make(map[string]string),
	}
}

func (c *MongoConfig) WithURI(uri string) *MongoConfig {
	c.URI = uri
	return c
}

func (c *MongoConfig) WithCredentials(username, password string) *MongoConfig {
	c.Username = username
	c.Password = password
	return c
}

func (c *MongoConfig) WithHost(host string, port int) *MongoConfig {
	c.Host = host
	c.Port = port
	return c
}

func (c *MongoConfig) WithDatabase(database string) *MongoConfig {
	c.Database = database
	return c
}

func (c *MongoConfig) WithCollection(collection, document string) *MongoConfig {
	c.Collection = collection
	c.Document = document
	return c
}

func (c *MongoConfig) WithOption(key, value string) *MongoConfig {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return c
}

// BuildURI returns URI when set, otherwise assembles one from the host fields.
// Options are emitted in key order so the result is stable.
func (c *MongoConfig) BuildURI() string {
	if c.URI != "" {
		return c.URI
	}

	var auth string
	if c.Username != "" && c.Password != "" {
		auth = fmt.Sprintf("%s:%s@", c.Username, c.Password)
	}

	uri := fmt.Sprintf("mongodb://%s%s:%d", auth, c.Host, c.Port)

	if len(c.Options) > 0 {
		keys := make([]string, 0, len(c.Options))
		for key := range c.Options {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, c.Options[key]))
		}
		uri += "/?" + strings.Join(pairs, "&")
	}

	return uri
}

func (c *MongoConfig) Connect(ctx context.Context) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.BuildURI()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(c.Database), nil
}
