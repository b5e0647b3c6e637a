// Package activity implements the admin activity log and the feed
// controller that filters and paginates it.
package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

// LogCollection is the store collection holding activity records.
const LogCollection = "activity_log"

// Source returns the most recent records, newest first.
type Source interface {
	Recent(ctx context.Context, limit int) ([]schema.ActivityRecord, error)
}

// Log is an append-only activity log. Records are never updated or deleted.
type Log interface {
	Source
	Append(ctx context.Context, rec schema.ActivityRecord) (schema.ActivityRecord, error)
}

// DocumentLog keeps the activity log in a collection of a DocumentStore.
type DocumentLog struct {
	store  sdk.DocumentStore
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewDocumentLog builds a log over store. A nil clock uses the wall clock and
// a nil logger uses slog.Default.
func NewDocumentLog(store sdk.DocumentStore, clock clockwork.Clock, logger *slog.Logger) *DocumentLog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentLog{store: store, clock: clock, logger: logger}
}

// Append assigns an ID and creation time and stores the record.
func (l *DocumentLog) Append(ctx context.Context, rec schema.ActivityRecord) (schema.ActivityRecord, error) {
	if err := ctx.Err(); err != nil {
		return schema.ActivityRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return schema.ActivityRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = l.clock.Now().UTC()

	if err := l.store.Set(LogCollection, rec.ID, rec.Document()); err != nil {
		return schema.ActivityRecord{}, fmt.Errorf("append activity: %w", err)
	}
	return rec, nil
}

// Recent returns up to limit records ordered by createdAt descending.
// Documents that fail to decode are skipped with a warning.
func (l *DocumentLog) Recent(ctx context.Context, limit int) ([]schema.ActivityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := l.store.Query(LogCollection, schema.Query{OrderBy: "createdAt", Desc: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}

	out := make([]schema.ActivityRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := schema.DecodeActivity(e.ID, e.Doc)
		if err != nil {
			l.logger.Warn("activity.decode: skipping record", slog.String("id", e.ID), slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
