package cv

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExportStatus is the outcome of a recorded export.
type ExportStatus string

const (
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

// ExportRecord is one entry of the export history.
type ExportRecord struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Format      Format       `json:"format"`
	Template    string       `json:"template,omitempty"`
	Filename    string       `json:"filename"`
	ContentType string       `json:"content_type,omitempty"`
	Size        int64        `json:"size"`
	Location    string       `json:"location,omitempty"`
	Status      ExportStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// HistoryFilter narrows List results. Zero fields match everything.
type HistoryFilter struct {
	SessionID string
	Format    Format
	Status    ExportStatus
	Since     time.Time
	Limit     int
}

func (f HistoryFilter) matches(rec ExportRecord) bool {
	if f.SessionID != "" && rec.SessionID != f.SessionID {
		return false
	}
	if f.Format != "" && rec.Format != f.Format {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// ExportHistory records export attempts. List returns newest first.
type ExportHistory interface {
	Record(ctx context.Context, rec ExportRecord) (ExportRecord, error)
	List(ctx context.Context, filter HistoryFilter) ([]ExportRecord, error)
}

// MemoryHistory keeps export records in memory.
type MemoryHistory struct {
	Now   func() time.Time
	NewID func() string

	mu      sync.Mutex
	records []ExportRecord
}

var _ ExportHistory = (*MemoryHistory)(nil)

// NewMemoryHistory creates an empty in-memory history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{Now: time.Now}
}

// Record stores rec, filling ID and CreatedAt when missing.
func (h *MemoryHistory) Record(ctx context.Context, rec ExportRecord) (ExportRecord, error) {
	if err := ctx.Err(); err != nil {
		return ExportRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = h.nextID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = h.now()
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return rec, nil
}

// List returns matching records, newest first.
func (h *MemoryHistory) List(ctx context.Context, filter HistoryFilter) ([]ExportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	out := make([]ExportRecord, 0, len(h.records))
	for _, rec := range h.records {
		if filter.matches(rec) {
			out = append(out, rec)
		}
	}
	h.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (h *MemoryHistory) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *MemoryHistory) nextID() string {
	if h.NewID != nil {
		if id := h.NewID(); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
