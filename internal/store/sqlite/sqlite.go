// Package sqlite implements the answer store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"coachrag/internal/domain"
	"coachrag/internal/store"
	"coachrag/internal/store/sqlite/migrations"
)

// FileName is the database file created inside the data directory.
const FileName = "answers.db"

// Store is a SQLite-backed store.Store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// NewStore opens (or creates) the database in dataDir and applies pending
// migrations. An empty dataDir defaults to ~/.coachrag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".coachrag", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: dbPath, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Create stores a new unsummarized answer.
func (s *Store) Create(ctx context.Context, userID, rawText string) (domain.Answer, error) {
	a := domain.Answer{
		ID:        uuid.NewString(),
		UserID:    userID,
		RawText:   rawText,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO answers (id, user_id, raw_text, created_at) VALUES (?, ?, ?, ?)",
		a.ID, a.UserID, a.RawText, a.CreatedAt.UnixNano())
	if err != nil {
		return domain.Answer{}, fmt.Errorf("inserting answer: %w", err)
	}
	return a, nil
}

// SetSummary writes the summary if the answer has none yet.
func (s *Store) SetSummary(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE answers SET summary = ? WHERE id = ? AND summary IS NULL", summary, id)
	if err != nil {
		return fmt.Errorf("updating summary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating summary: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return store.ErrSummaryExists
}

// Get returns one answer by id.
func (s *Store) Get(ctx context.Context, id string) (domain.Answer, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, raw_text, summary, created_at FROM answers WHERE id = ?", id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Answer{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("getting answer: %w", err)
	}
	return a, nil
}

// List returns every answer of the user.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Answer, error) {
	return s.list(ctx, userID, "")
}

// ListWithSummary returns the user's summarized answers.
func (s *Store) ListWithSummary(ctx context.Context, userID string) ([]domain.Answer, error) {
	return s.list(ctx, userID, " AND summary IS NOT NULL")
}

// ListPending returns the user's answers without a summary.
func (s *Store) ListPending(ctx context.Context, userID string) ([]domain.Answer, error) {
	return s.list(ctx, userID, " AND summary IS NULL")
}

func (s *Store) list(ctx context.Context, userID, filter string) ([]domain.Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, raw_text, summary, created_at FROM answers WHERE user_id = ?"+filter+" ORDER BY rowid",
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnswer(r scanner) (domain.Answer, error) {
	var (
		a       domain.Answer
		summary sql.NullString
		created int64
	)
	if err := r.Scan(&a.ID, &a.UserID, &a.RawText, &summary, &created); err != nil {
		return domain.Answer{}, err
	}
	if summary.Valid {
		v := summary.String
		a.Summary = &v
	}
	a.CreatedAt = time.Unix(0, created).UTC()
	return a, nil
}
