package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klass-lk/postboard/internal/store"
)

const (
	DefaultPort = 5000
	DefaultHost = "0.0.0.0"
	DefaultFile = "config.yaml"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  store.Config `yaml:"store"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	// Runtime is "http" or "lambda". Empty leaves the choice to LAMBDA_RUNTIME.
	Runtime     string   `yaml:"runtime"`
}

// Default is the configuration used when nothing else is set: the JSON file
// backend, served on 0.0.0.0:5000.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Store: store.Config{
			Backend:  store.BackendFile,
			File:     store.FileConfig{Path: store.DefaultFilePath},
			S3:       store.S3Config{Key: store.DefaultFilePath},
			Mongo:    *store.NewMongoConfig(),
			DynamoDB: *store.NewDynamoDBConfig(),
			SQL:      *store.NewSQLConfig(),
		},
	}
}

// Load layers the YAML file at path over the defaults, then applies the
// environment. An empty path falls back to CONFIG_FILE and then to
// config.yaml; only an explicitly named file has to exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	setString(&c.Server.Host, "HOST")
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString(&c.Server.Runtime, "SERVER_RUNTIME")
	switch c.Server.Runtime {
	case "", "http", "lambda":
	default:
		return fmt.Errorf("invalid server runtime %q", c.Server.Runtime)
	}

	setString(&c.Store.Backend, "STORE_BACKEND")
	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STORE_TIMEOUT %q: %w", v, err)
		}
		c.Store.Timeout = timeout
	}

	setString(&c.Store.File.Path, "BLOG_POSTS_FILE")

	setString(&c.Store.S3.Bucket, "S3_BUCKET")
	setString(&c.Store.S3.Key, "S3_KEY")
	setString(&c.Store.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Store.S3.Region, "AWS_REGION")

	setString(&c.Store.DynamoDB.TableName, "DYNAMODB_TABLE")
	setString(&c.Store.DynamoDB.Endpoint, "DYNAMODB_ENDPOINT")
	setString(&c.Store.DynamoDB.Region, "AWS_REGION")

	setString(&c.Store.Mongo.URI, "MONGO_URI")
	setString(&c.Store.Mongo.Database, "MONGO_DATABASE")

	setString(&c.Store.SQL.DSN, "DATABASE_URL")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
