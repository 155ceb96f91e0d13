package session

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps sessions in a SQLite database. Evaluation and improvements are
// stored as JSON documents.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; queued through the pool instead of failing with "database is locked".
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Migrate applies the embedded migrations that have not run yet.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, applicationID string) (*Session, error) {
	var (
		out                      Session
		evaluation, improvements sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT application_id, opportunity, application, evaluation, improvements, created_at, updated_at
		FROM sessions WHERE application_id = ?`, applicationID).
		Scan(&out.ApplicationID, &out.Opportunity, &out.Application, &evaluation, &improvements, &out.CreatedAt, &out.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", applicationID, err)
	}

	if evaluation.Valid {
		if err := json.Unmarshal([]byte(evaluation.String), &out.Evaluation); err != nil {
			return nil, fmt.Errorf("decode evaluation of %s: %w", applicationID, err)
		}
	}
	if improvements.Valid {
		if err := json.Unmarshal([]byte(improvements.String), &out.Improvements); err != nil {
			return nil, fmt.Errorf("decode improvements of %s: %w", applicationID, err)
		}
	}

	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	return &out, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sess *Session) error {
	if err := validate(sess); err != nil {
		return err
	}

	evaluation, err := encodeNullable(sess.Evaluation != nil, sess.Evaluation)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	improvements, err := encodeNullable(sess.Improvements != nil, sess.Improvements)
	if err != nil {
		return fmt.Errorf("encode improvements: %w", err)
	}

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions
		(application_id, opportunity, application, evaluation, improvements, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(application_id) DO UPDATE SET
			opportunity = excluded.opportunity,
			application = excluded.application,
			evaluation = excluded.evaluation,
			improvements = excluded.improvements,
			updated_at = excluded.updated_at`,
		sess.ApplicationID, sess.Opportunity, sess.Application, evaluation, improvements, now, now)
	if err != nil {
		return fmt.Errorf("put session %s: %w", sess.ApplicationID, err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT created_at FROM sessions WHERE application_id = ?", sess.ApplicationID).Scan(&sess.CreatedAt); err != nil {
		return fmt.Errorf("read session %s: %w", sess.ApplicationID, err)
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.UpdatedAt = now
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeNullable(present bool, v any) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
