package historybun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-cvwizard/cv"
)

// Store keeps the export history in a Bun-backed database.
type Store struct {
	DB    *bun.DB
	Now   func() time.Time
	NewID func() string
}

var _ cv.ExportHistory = (*Store)(nil)

// NewStore creates a Bun-backed export history.
func NewStore(db *bun.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

// CreateSchema creates the history table when missing.
func (s *Store) CreateSchema(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return cv.NewError(cv.KindNotImpl, "history database not configured", nil)
	}
	if _, err := s.DB.NewCreateTable().Model((*recordModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return cv.NewError(cv.KindInternal, "create history table failed", err)
	}
	_, err := s.DB.NewCreateIndex().
		Model((*recordModel)(nil)).
		Index("export_history_session_created_idx").
		Column("session_id", "created_at").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return cv.NewError(cv.KindInternal, "create history index failed", err)
	}
	return nil
}

// Record inserts rec, filling ID and CreatedAt when missing.
func (s *Store) Record(ctx context.Context, rec cv.ExportRecord) (cv.ExportRecord, error) {
	if s == nil || s.DB == nil {
		return cv.ExportRecord{}, cv.NewError(cv.KindNotImpl, "history database not configured", nil)
	}
	if rec.ID == "" {
		rec.ID = s.nextID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.Status == "" {
		rec.Status = cv.ExportStatusSucceeded
	}

	model := modelFromRecord(rec)
	if _, err := s.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return cv.ExportRecord{}, cv.NewError(cv.KindInternal, "insert history record failed", err)
	}
	return rec, nil
}

// Get returns a record by ID.
func (s *Store) Get(ctx context.Context, id string) (cv.ExportRecord, error) {
	if s == nil || s.DB == nil {
		return cv.ExportRecord{}, cv.NewError(cv.KindNotImpl, "history database not configured", nil)
	}
	if id == "" {
		return cv.ExportRecord{}, cv.NewError(cv.KindValidation, "history record ID is required", nil)
	}

	model := new(recordModel)
	err := s.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cv.ExportRecord{}, cv.NewError(cv.KindNotFound, fmt.Sprintf("history record %q not found", id), nil)
		}
		return cv.ExportRecord{}, cv.NewError(cv.KindInternal, "select history record failed", err)
	}
	return model.toRecord(), nil
}

// List returns records matching filter, newest first.
func (s *Store) List(ctx context.Context, filter cv.HistoryFilter) ([]cv.ExportRecord, error) {
	if s == nil || s.DB == nil {
		return nil, cv.NewError(cv.KindNotImpl, "history database not configured", nil)
	}

	models := make([]recordModel, 0)
	query := s.DB.NewSelect().Model(&models)
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.Format != "" {
		query = query.Where("format = ?", string(filter.Format))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since.UTC())
	}
	query = query.Order("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, cv.NewError(cv.KindInternal, "list history failed", err)
	}

	records := make([]cv.ExportRecord, 0, len(models))
	for _, model := range models {
		records = append(records, model.toRecord())
	}
	return records, nil
}

// Cleanup deletes records created before the cutoff.
func (s *Store) Cleanup(ctx context.Context, before time.Time) (int, error) {
	if s == nil || s.DB == nil {
		return 0, cv.NewError(cv.KindNotImpl, "history database not configured", nil)
	}
	res, err := s.DB.NewDelete().Model((*recordModel)(nil)).Where("created_at < ?", before.UTC()).Exec(ctx)
	if err != nil {
		return 0, cv.NewError(cv.KindInternal, "prune history failed", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

type recordModel struct {
	bun.BaseModel `bun:"table:export_history,alias:eh"`

	ID          string    `bun:",pk"`
	SessionID   string    `bun:"session_id,notnull"`
	Format      string    `bun:",notnull"`
	Template    string    `bun:"template"`
	Filename    string    `bun:"filename,notnull"`
	ContentType string    `bun:"content_type"`
	Size        int64     `bun:"size"`
	Location    string    `bun:"location"`
	Status      string    `bun:",notnull"`
	Error       string    `bun:"error"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func modelFromRecord(rec cv.ExportRecord) recordModel {
	return recordModel{
		ID:          rec.ID,
		SessionID:   rec.SessionID,
		Format:      string(rec.Format),
		Template:    rec.Template,
		Filename:    rec.Filename,
		ContentType: rec.ContentType,
		Size:        rec.Size,
		Location:    rec.Location,
		Status:      string(rec.Status),
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt.UTC(),
	}
}

func (m recordModel) toRecord() cv.ExportRecord {
	return cv.ExportRecord{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Format:      cv.Format(m.Format),
		Template:    m.Template,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		Size:        m.Size,
		Location:    m.Location,
		Status:      cv.ExportStatus(m.Status),
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) nextID() string {
	if s.NewID != nil {
		if id := s.NewID(); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
