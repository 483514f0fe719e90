package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// Store is a SQLite implementation of SnapshotStore. Each Save replaces all
// session rows inside one transaction.
type Store struct {
	db *sql.DB
}

var _ ports.SnapshotStore = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			user_id INTEGER PRIMARY KEY,
			current_step TEXT NOT NULL,
			step_history TEXT NOT NULL,
			answers TEXT NOT NULL,
			submission_ids TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_updated_at TEXT NOT NULL,
			started_at TEXT NOT NULL,
			last_submitted_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) Save(ctx context.Context, snap *ports.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sessions
		(user_id, current_step, step_history, answers, submission_ids,
		 created_at, last_updated_at, started_at, last_submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for userID, sess := range snap.Sessions {
		history, err := json.Marshal(sess.StepHistory)
		if err != nil {
			return fmt.Errorf("failed to marshal step history: %w", err)
		}
		answers, err := json.Marshal(sess.Answers)
		if err != nil {
			return fmt.Errorf("failed to marshal answers: %w", err)
		}
		submissions, err := json.Marshal(sess.SubmissionIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal submission ids: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			userID, string(sess.CurrentStep), string(history), string(answers), string(submissions),
			formatTime(sess.CreatedAt), formatTime(sess.LastUpdatedAt),
			formatTime(sess.StartedAt), formatTime(sess.LastSubmittedAt),
		); err != nil {
			return fmt.Errorf("failed to insert session %d: %w", userID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO snapshot_meta (id, version, saved_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET version=excluded.version, saved_at=excluded.saved_at;
	`, snap.Version, formatTime(snap.SavedAt)); err != nil {
		return fmt.Errorf("failed to write snapshot meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*ports.Snapshot, error) {
	var (
		snap    ports.Snapshot
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, saved_at FROM snapshot_meta WHERE id = 1`).
		Scan(&snap.Version, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot meta: %w", err)
	}
	if snap.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT user_id, current_step, step_history, answers, submission_ids,
		created_at, last_updated_at, started_at, last_submitted_at FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	snap.Sessions = make(map[int64]*domain.Session)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		snap.Sessions[sess.UserID] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return &snap, nil
}

func scanSession(rows *sql.Rows) (*domain.Session, error) {
	var (
		sess                                       domain.Session
		step, history, answers, submissions        string
		createdAt, updatedAt, startedAt, submitted string
	)
	if err := rows.Scan(&sess.UserID, &step, &history, &answers, &submissions,
		&createdAt, &updatedAt, &startedAt, &submitted); err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	sess.CurrentStep = domain.StepID(step)

	if err := json.Unmarshal([]byte(history), &sess.StepHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step history: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	if err := json.Unmarshal([]byte(submissions), &sess.SubmissionIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission ids: %w", err)
	}

	var err error
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&sess.CreatedAt, createdAt},
		{&sess.LastUpdatedAt, updatedAt},
		{&sess.StartedAt, startedAt},
		{&sess.LastSubmittedAt, submitted},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}

	return &sess, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Zero times are stored as empty strings.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
