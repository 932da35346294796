package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "modernc.org/sqlite"
)

const definitionsTable = "form_definitions"

// SQLStore is a Store backed by SQLite through ent's SQL driver.
type SQLStore struct {
	drv *entsql.Driver
	now func() time.Time
}

// OpenSQLite opens the SQLite database at dsn and prepares the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	s, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open SQLite handle and creates the definitions
// table if it does not exist.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{
		drv: entsql.OpenDB(dialect.SQLite, db),
		now: time.Now,
	}
	query, args := entsql.Dialect(dialect.SQLite).
		CreateTable(definitionsTable).
		IfNotExists().
		Columns(
			entsql.Column("id").Type("text").Attr("NOT NULL"),
			entsql.Column("definition").Type("text").Attr("NOT NULL"),
			entsql.Column("updated_at").Type("text").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("creating %s: %w", definitionsTable, err)
	}
	return s, nil
}

func (s *SQLStore) Put(ctx context.Context, id string, definition []byte) (*Record, error) {
	rec := &Record{ID: id, Definition: append([]byte(nil), definition...), UpdatedAt: s.now().UTC()}
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(definitionsTable).
		Columns("id", "definition", "updated_at").
		Values(rec.ID, string(rec.Definition), rec.UpdatedAt.Format(time.RFC3339Nano)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := s.drv.Exec(ctx, query, args, nil); err != nil {
		return nil, fmt.Errorf("storing %q: %w", id, err)
	}
	return rec, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("id", "definition", "updated_at").
		From(entsql.Table(definitionsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	recs, err := s.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return &recs[0], nil
}

// List returns every record ordered by id.
func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("id", "definition", "updated_at").
		From(entsql.Table(definitionsTable)).
		OrderBy("id").
		Query()
	return s.query(ctx, query, args)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(definitionsTable).
		Where(entsql.EQ("id", id)).
		Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("deleting %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.drv.Close() }

func (s *SQLStore) query(ctx context.Context, query string, args []any) ([]Record, error) {
	var rows entsql.Rows
	if err := s.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("querying %s: %w", definitionsTable, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			rec       Record
			def, when string
		)
		if err := rows.Scan(&rec.ID, &def, &when); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, when)
		if err != nil {
			return nil, fmt.Errorf("record %q: bad updated_at: %w", rec.ID, err)
		}
		rec.Definition = []byte(def)
		rec.UpdatedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}
