package cvactivity

import (
	"context"
	"strings"

	"github.com/goliatone/go-users/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-cvwizard/cv"
)

// Config configures the activity-logging history.
type Config struct {
	Next       cv.ExportHistory
	Sink       types.ActivitySink
	Channel    string
	ObjectType string
	Logger     cv.Logger
}

// History records exports in Next and mirrors each record to a go-users
// activity sink as an "export.succeeded" or "export.failed" entry.
type History struct {
	next       cv.ExportHistory
	sink       types.ActivitySink
	channel    string
	objectType string
	logger     cv.Logger
}

var _ cv.ExportHistory = (*History)(nil)

// NewHistory creates a new activity-logging history.
func NewHistory(cfg Config) *History {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = "cv"
	}
	objectType := strings.TrimSpace(cfg.ObjectType)
	if objectType == "" {
		objectType = "cv_export"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = cv.NopLogger{}
	}
	return &History{
		next:       cfg.Next,
		sink:       cfg.Sink,
		channel:    channel,
		objectType: objectType,
		logger:     logger,
	}
}

// Record stores rec and emits the activity entry. Sink failures are logged,
// never returned, so the export outcome is not affected.
func (h *History) Record(ctx context.Context, rec cv.ExportRecord) (cv.ExportRecord, error) {
	if h == nil || h.next == nil {
		return rec, cv.NewError(cv.KindInternal, "activity history is not configured", nil)
	}
	stored, err := h.next.Record(ctx, rec)
	if err != nil {
		return stored, err
	}
	if err := h.Emit(ctx, stored); err != nil {
		h.logger.Errorf("activity emit failed for export %s: %v", stored.ID, err)
	}
	return stored, nil
}

// List delegates to the wrapped history.
func (h *History) List(ctx context.Context, filter cv.HistoryFilter) ([]cv.ExportRecord, error) {
	if h == nil || h.next == nil {
		return nil, cv.NewError(cv.KindInternal, "activity history is not configured", nil)
	}
	return h.next.List(ctx, filter)
}

// Emit logs a single export record to the configured ActivitySink.
func (h *History) Emit(ctx context.Context, rec cv.ExportRecord) error {
	if h.sink == nil {
		return cv.NewError(cv.KindNotImpl, "activity sink not configured", nil)
	}
	objectID := strings.TrimSpace(rec.ID)
	if objectID == "" {
		return cv.NewError(cv.KindValidation, "activity object ID is required", nil)
	}
	status := rec.Status
	if status == "" {
		status = cv.ExportStatusSucceeded
	}

	record, err := activity.BuildRecordFromUUID(
		parseUUID(rec.SessionID),
		"export."+string(status),
		h.objectType,
		objectID,
		buildMetadata(rec),
		activity.WithChannel(h.channel),
		activity.WithOccurredAt(rec.CreatedAt),
	)
	if err != nil {
		return err
	}
	return h.sink.Log(ctx, record)
}

func buildMetadata(rec cv.ExportRecord) map[string]any {
	meta := map[string]any{
		"format":   string(rec.Format),
		"filename": rec.Filename,
		"size":     rec.Size,
	}
	if rec.SessionID != "" {
		meta["session_id"] = rec.SessionID
	}
	if rec.Template != "" {
		meta["template"] = rec.Template
	}
	if rec.Location != "" {
		meta["location"] = rec.Location
	}
	if rec.Error != "" {
		meta["error"] = rec.Error
	}
	return meta
}

// parseUUID maps session IDs onto the actor slot; non-UUID IDs become uuid.Nil.
func parseUUID(value string) uuid.UUID {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
