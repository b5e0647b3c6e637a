package activity

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// SQLiteLog keeps the activity log in a SQLite table.
type SQLiteLog struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSQLiteLog opens (or creates) the database at path. Use ":memory:" for
// a throwaway log.
func NewSQLiteLog(path string, clock clockwork.Clock, logger *slog.Logger) (*SQLiteLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("activity sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create activity db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS activity_log (
  id TEXT PRIMARY KEY,
  action TEXT NOT NULL,
  collection TEXT NOT NULL,
  document_id TEXT NOT NULL,
  document_title TEXT,
  user_email TEXT,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_log_created_at ON activity_log(created_at DESC);
`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize activity schema: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLog{db: db, clock: clock, logger: logger}, nil
}

// sqliteTimeLayout sorts lexicographically in chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLiteLog) Append(ctx context.Context, rec schema.ActivityRecord) (schema.ActivityRecord, error) {
	if err := rec.Validate(); err != nil {
		return schema.ActivityRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.clock.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, action, collection, document_id, document_title, user_email, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);`,
		rec.ID,
		string(rec.Action),
		string(rec.Collection),
		rec.DocumentID,
		nullable(rec.DocumentTitle),
		nullable(rec.UserEmail),
		rec.CreatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return schema.ActivityRecord{}, fmt.Errorf("append activity: %w", err)
	}
	return rec, nil
}

func (s *SQLiteLog) Recent(ctx context.Context, limit int) ([]schema.ActivityRecord, error) {
	if limit <= 0 {
		limit = MaxFetch
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, collection, document_id, document_title, user_email, created_at
FROM activity_log
ORDER BY created_at DESC, id ASC
LIMIT ?;`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]schema.ActivityRecord, 0, limit)
	for rows.Next() {
		var (
			id, action, collection, documentID, created string
			title, email                                sql.NullString
		)
		if err := rows.Scan(&id, &action, &collection, &documentID, &title, &email, &created); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		doc := schema.Document{
			"action":        action,
			"collection":    collection,
			"documentId":    documentID,
			"documentTitle": title.String,
			"userEmail":     email.String,
			"createdAt":     created,
		}
		rec, err := schema.DecodeActivity(id, doc)
		if err != nil {
			s.logger.Warn("activity.decode: skipping row", slog.String("id", id), slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

func (s *SQLiteLog) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Log = (*SQLiteLog)(nil)
var _ Log = (*DocumentLog)(nil)
