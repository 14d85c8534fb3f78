package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/klass-lk/postboard/internal/model"
)

// undefined_table
const pqUndefinedTable = "42P01"

// SQLStore keeps the collection as rows of a postgres table. A position column
// preserves collection order since ids are not unique.
type SQLStore struct {
	db      *sql.DB
	table   string
	columns []string
	timeout time.Duration
}

func NewSQLStore(db *sql.DB, table string, timeout time.Duration) *SQLStore {
	if table == "" {
		table = "blog_posts"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SQLStore{
		db:      db,
		table:   table,
		columns: columnsOf(model.Post{}),
		timeout: timeout,
	}
}

// Initialize creates and seeds the table when it does not exist. An existing
// table is left alone even if it is empty.
func (s *SQLStore) Initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)",
		s.table).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check table %s: %w", s.table, err)
	}
	if exists {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.createTableQuery()); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	if err := s.insertAll(ctx, tx, model.SeedPosts()); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Load(ctx context.Context) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY position",
		strings.Join(s.columns, ","), pq.QuoteIdentifier(s.table))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable {
			return nil, fmt.Errorf("%w: table %s", ErrNotInitialized, s.table)
		}
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(scanTargets(&post)...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Save replaces every row inside one transaction.
func (s *SQLStore) Save(ctx context.Context, posts []model.Post) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", pq.QuoteIdentifier(s.table))); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear %s: %w", s.table, err)
	}
	if err := s.insertAll(ctx, tx, posts); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) insertAll(ctx context.Context, tx *sql.Tx, posts []model.Post) error {
	placeholders := make([]string, len(s.columns)+1)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (position,%s) VALUES (%s)",
		pq.QuoteIdentifier(s.table),
		strings.Join(s.columns, ","),
		strings.Join(placeholders, ","))

	for i, post := range posts {
		values := append([]interface{}{i}, valuesOf(post)...)
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *SQLStore) createTableQuery() string {
	var post model.Post
	typ := reflect.TypeOf(post)

	columns := []string{"position INTEGER PRIMARY KEY"}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		sqlType := "TEXT NOT NULL DEFAULT ''"
		switch field.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			sqlType = "INTEGER NOT NULL"
		}
		columns = append(columns, fmt.Sprintf("%s %s", columnName(field), sqlType))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pq.QuoteIdentifier(s.table), strings.Join(columns, ", "))
}

func columnName(field reflect.StructField) string {
	if tag := field.Tag.Get("db"); tag != "" {
		return tag
	}
	return strings.ToLower(field.Name)
}

func columnsOf(doc interface{}) []string {
	typ := reflect.TypeOf(doc)
	columns := make([]string, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		columns[i] = columnName(typ.Field(i))
	}
	return columns
}

func valuesOf(doc interface{}) []interface{} {
	val := reflect.ValueOf(doc)
	values := make([]interface{}, val.NumField())
	for i := 0; i < val.NumField(); i++ {
		values[i] = val.Field(i).Interface()
	}
	return values
}

// scanTargets returns pointers to the fields of dest in declaration order.
func scanTargets(dest interface{}) []interface{} {
	val := reflect.ValueOf(dest).Elem()
	targets := make([]interface{}, val.NumField())
	for i := 0; i < val.NumField(); i++ {
		targets[i] = val.Field(i).Addr().Interface()
	}
	return targets
}
