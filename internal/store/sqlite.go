package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/pbaille/fitlog/internal/domain"
)

// Driver names registered by the two sqlite packages
const (
	DriverCgo  = "sqlite3"
	DriverPure = "sqlite"
)

// SQLite stores notes in a single table with events as a JSON column
type SQLite struct {
	db     *sql.DB
	driver string
}

// OpenSQLite opens (and creates if needed) the database at dbPath with the
// given driver. The connection is verified so an unusable driver, such as
// the cgo driver in a CGO_ENABLED=0 build, fails here rather than later.
func OpenSQLite(ctx context.Context, driver, dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer; sqlite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	s := &SQLite{db: db, driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS notes (
  id TEXT PRIMARY KEY,
  ts INTEGER NOT NULL,
  raw TEXT NOT NULL,
  summary TEXT NOT NULL,
  events TEXT NOT NULL,
  pending INTEGER NOT NULL DEFAULT 0,
  attachments TEXT
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create notes table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS notes_ts ON notes (ts DESC, id DESC)`); err != nil {
		return fmt.Errorf("create notes index: %w", err)
	}
	return nil
}

func (s *SQLite) Name() string {
	if s.driver == DriverCgo {
		return "sqlite"
	}
	return "sqlite-pure"
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Put(ctx context.Context, n domain.Note) error {
	events, err := json.Marshal(n.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	var attachments sql.NullString
	if len(n.Attachments) > 0 {
		b, err := json.Marshal(n.Attachments)
		if err != nil {
			return fmt.Errorf("encode attachments: %w", err)
		}
		attachments = sql.NullString{String: string(b), Valid: true}
	}

	const stmt = `
INSERT INTO notes (id, ts, raw, summary, events, pending, attachments)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  ts=excluded.ts,
  raw=excluded.raw,
  summary=excluded.summary,
  events=excluded.events,
  pending=excluded.pending,
  attachments=excluded.attachments;
`
	_, err = s.db.ExecContext(ctx, stmt, n.ID, n.TS, n.Raw, n.Summary, string(events), n.Pending, attachments)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	return nil
}

const noteColumns = "id, ts, raw, summary, events, pending, attachments"

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (domain.Note, error) {
	var (
		n           domain.Note
		events      string
		attachments sql.NullString
	)
	if err := row.Scan(&n.ID, &n.TS, &n.Raw, &n.Summary, &events, &n.Pending, &attachments); err != nil {
		return domain.Note{}, err
	}
	if err := json.Unmarshal([]byte(events), &n.Events); err != nil {
		return domain.Note{}, fmt.Errorf("decode note %s: %w", n.ID, err)
	}
	if attachments.Valid && attachments.String != "" {
		if err := json.Unmarshal([]byte(attachments.String), &n.Attachments); err != nil {
			return domain.Note{}, fmt.Errorf("decode note %s attachments: %w", n.ID, err)
		}
	}
	return n, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (domain.Note, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, ErrNotFound
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, before int64, limit int) ([]domain.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes"
	var args []any
	if before > 0 {
		query += " WHERE ts < ?"
		args = append(args, before)
	}
	query += " ORDER BY ts DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}
