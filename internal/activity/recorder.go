package activity

import (
	"context"
	"log/slog"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// Recorder appends one record per CRUD mutation. Append failures are logged
// and never fail the mutation that triggered them.
type Recorder struct {
	log    Log
	logger *slog.Logger
}

func NewRecorder(l Log, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: l, logger: logger}
}

// Record logs that userEmail applied action to collection/documentID.
func (r *Recorder) Record(ctx context.Context, action schema.Action, collection schema.Collection, documentID, documentTitle, userEmail string) {
	if r == nil || r.log == nil {
		return
	}
	rec, err := r.log.Append(ctx, schema.ActivityRecord{
		Action:        action,
		Collection:    collection,
		DocumentID:    documentID,
		DocumentTitle: documentTitle,
		UserEmail:     userEmail,
	})
	if err != nil {
		r.logger.Error("activity.record failed",
			slog.String("action", string(action)),
			slog.String("collection", string(collection)),
			slog.String("document_id", documentID),
			slog.Any("error", err))
		return
	}
	r.logger.Debug("activity.recorded", slog.String("id", rec.ID), slog.String("action", string(action)))
}

// Title is the display title recorded for doc: its title, else its name.
func Title(doc schema.Document) string {
	if title := doc.String("title"); title != "" {
		return title
	}
	return doc.String("name")
}
