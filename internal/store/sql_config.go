package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

type SQLConfig struct {
	Driver   string            `yaml:"driver"`
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Options  map[string]string `yaml:"options"`
}

func NewSQLConfig() *SQLConfig {
	return &SQLConfig{
		Driver:  "postgres",
		Host:    "localhost",
		Port:    5432,
		Table:   "blog_posts",
		Options: make(map[string]string),
	}
}

func (c *SQLConfig) WithDriver(driver string) *SQLConfig {
	c.Driver = driver
	return c
}

func (c *SQLConfig) WithDSN(dsn string) *SQLConfig {
	c.DSN = dsn
	return c
}

func (c *SQLConfig) WithCredentials(username, password string) *SQLConfig {
	c.Username = username
	c.Password = password
	return c
}

func (c *SQLConfig) WithHost(host string, port int) *SQLConfig {
	c.Host = host
	c.Port = port
	return c
}

func (c *SQLConfig) WithDatabase(database string) *SQLConfig {
	c.Database = database
	return c
}

func (c *SQLConfig) WithTable(table string) *SQLConfig {
	c.Table = table
	return c
}

func (c *SQLConfig) WithOption(key, value string) *SQLConfig {
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	c.Options[key] = value
	return c
}

// BuildDSN returns DSN when set, otherwise a key/value connection string for
// postgres. sslmode defaults to disable unless given as an option.
func (c *SQLConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Driver {
	case "postgres":
		parts := []string{
			fmt.Sprintf("host=%s", c.Host),
			fmt.Sprintf("port=%d", c.Port),
			fmt.Sprintf("user=%s", c.Username),
			fmt.Sprintf("password=%s", c.Password),
			fmt.Sprintf("dbname=%s", c.Database),
		}
		if _, ok := c.Options["sslmode"]; !ok {
			parts = append(parts, "sslmode=disable")
		}
		keys := make([]string, 0, len(c.Options))
		for key := range c.Options {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, c.Options[key]))
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func (c *SQLConfig) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(c.Driver, c.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
