package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/screener/internal/model"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("history entry not found")

// SQLiteStore keeps screening history and consultant transcripts in a SQLite
// database.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int
}

var (
	_ model.HistoryStore    = (*SQLiteStore)(nil)
	_ model.TranscriptStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// its tables exist. Only the newest historyLimit entries are kept.
func NewSQLiteStore(dbPath string, historyLimit int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; sqlite would otherwise return SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS history_entries (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			created_at      INTEGER NOT NULL,
			job_description TEXT NOT NULL,
			resumes         TEXT NOT NULL,
			results         TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS consultant_messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			session    TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS consultant_messages_session ON consultant_messages (session, seq)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, historyLimit: historyLimit}, nil
}

// AddEntry saves a screening run and drops entries beyond the history limit.
func (s *SQLiteStore) AddEntry(ctx context.Context, entry model.HistoryEntry) error {
	resumes, err := json.Marshal(entry.Resumes)
	if err != nil {
		return fmt.Errorf("encoding resumes for %s: %w", entry.ID, err)
	}
	results, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("encoding results for %s: %w", entry.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add entry: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_entries (id, title, created_at, job_description, resumes, results)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Title, entry.Timestamp.UnixMilli(), entry.JobDescription, string(resumes), string(results))
	if err != nil {
		return fmt.Errorf("inserting history entry %s: %w", entry.ID, err)
	}

	if s.historyLimit > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM history_entries WHERE id NOT IN (
				SELECT id FROM history_entries ORDER BY created_at DESC, rowid DESC LIMIT ?
			)`, s.historyLimit)
		if err != nil {
			return fmt.Errorf("trimming history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add entry: %w", err)
	}
	return nil
}

// Entries returns up to limit entries, newest first. limit <= 0 returns all.
func (s *SQLiteStore) Entries(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, job_description, resumes, results
		 FROM history_entries ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// Entry returns one entry by ID, or ErrNotFound.
func (s *SQLiteStore) Entry(ctx context.Context, id string) (model.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, job_description, resumes, results
		 FROM history_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryEntry{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return e, err
}

// DeleteEntry removes one entry, or returns ErrNotFound.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting history entry %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// ClearHistory removes every entry.
func (s *SQLiteStore) ClearHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (model.HistoryEntry, error) {
	var (
		e                model.HistoryEntry
		createdAt        int64
		resumes, results string
	)
	if err := sc.Scan(&e.ID, &e.Title, &createdAt, &e.JobDescription, &resumes, &results); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("reading history entry: %w", err)
	}
	e.Timestamp = time.UnixMilli(createdAt)
	if err := json.Unmarshal([]byte(resumes), &e.Resumes); err != nil {
		return e, fmt.Errorf("decoding resumes for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(results), &e.Results); err != nil {
		return e, fmt.Errorf("decoding results for %s: %w", e.ID, err)
	}
	return e, nil
}

// Append adds a message to the end of a consultant session.
func (s *SQLiteStore) Append(ctx context.Context, session string, msg model.ConsultantMessage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO consultant_messages (session, role, content) VALUES (?, ?, ?)",
		session, string(msg.Role), msg.Content)
	if err != nil {
		return fmt.Errorf("appending message to session %s: %w", session, err)
	}
	return nil
}

// Messages returns a session's messages in the order they were appended.
func (s *SQLiteStore) Messages(ctx context.Context, session string) ([]model.ConsultantMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM consultant_messages WHERE session = ? ORDER BY seq", session)
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", session, err)
	}
	defer rows.Close()

	var msgs []model.ConsultantMessage
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("reading session %s: %w", session, err)
		}
		msgs = append(msgs, model.ConsultantMessage{Role: model.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading session %s: %w", session, err)
	}
	return msgs, nil
}

// ClearTranscript deletes every message of a session.
func (s *SQLiteStore) ClearTranscript(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM consultant_messages WHERE session = ?", session); err != nil {
		return fmt.Errorf("clearing session %s: %w", session, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
