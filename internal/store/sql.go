package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}
	return nil
}

// SQLStore keeps each record as one JSON document row. The WHERE clause of
// a query is translated into the dialect's JSON operators.
type SQLStore struct {
	db      *sql.DB
	table   string
	dialect dialect
}

// NewPostgresStore stores the collection in a JSONB table.
func NewPostgresStore(db *sql.DB, table string) (*SQLStore, error) {
	return newSQLStore(db, table, postgresDialect{})
}

// NewSQLiteStore stores the collection in a JSON text table.
func NewSQLiteStore(db *sql.DB, table string) (*SQLStore, error) {
	return newSQLStore(db, table, sqliteDialect{})
}

func newSQLStore(db *sql.DB, table string, d dialect) (*SQLStore, error) {
	if err := validIdentifier(table); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, table: table, dialect: d}, nil
}

// EnsureSchema creates the collection table when it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTable(s.table)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) ph(n int) string {
	return s.dialect.placeholder(n, "")
}

func (s *SQLStore) Get(ctx context.Context, id string) (models.Record, error) {
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = %s", s.table, s.ph(1))
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return decodeRecord(raw)
}

func (s *SQLStore) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	rec = prepareCreate(rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	query := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (%s, %s) ON CONFLICT (id) DO NOTHING",
		s.table, s.ph(1), s.dialect.placeholder(2, "jsonb"))
	res, err := s.db.ExecContext(ctx, query, rec.ID(), string(doc))
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", rec.ID(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrConflict
	}
	return rec, nil
}

func (s *SQLStore) Replace(ctx context.Context, id string, rec models.Record) (models.Record, error) {
	rec = prepareReplace(id, rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	query := fmt.Sprintf("UPDATE %s SET doc = %s WHERE id = %s", s.table, s.dialect.placeholder(1, "jsonb"), s.ph(2))
	res, err := s.db.ExecContext(ctx, query, string(doc), id)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", s.table, s.ph(1))
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	return s.Query(ctx, querylang.PassThrough())
}

func (s *SQLStore) Query(ctx context.Context, q querylang.Query) ([]models.Record, error) {
	where, args, err := translateSQL(s.dialect, q.Where)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT doc FROM %s", s.table)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY " + s.dialect.orderColumn()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func decodeRecord(raw []byte) (models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return rec, nil
}
