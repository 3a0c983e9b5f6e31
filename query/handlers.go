package query

import (
	"context"

	"github.com/goliatone/go-cvwizard/cv"
	"github.com/goliatone/go-errors"
)

func sessionRequired() error {
	return errors.New("cv session is required", errors.CategoryInternal).
		WithTextCode("SESSION_REQUIRED")
}

// CurrentStepHandler returns the active wizard state.
type CurrentStepHandler struct {
	Session *cv.Session
}

func NewCurrentStepHandler(session *cv.Session) *CurrentStepHandler {
	return &CurrentStepHandler{Session: session}
}

func (h *CurrentStepHandler) Query(ctx context.Context, msg CurrentStep) (cv.StepState, error) {
	_ = ctx
	_ = msg
	if h == nil || h.Session == nil {
		return cv.StepState{}, sessionRequired()
	}
	return h.Session.Wizard().ActiveState(), nil
}

// ProfileSnapshotHandler returns a profile snapshot.
type ProfileSnapshotHandler struct {
	Session *cv.Session
}

func NewProfileSnapshotHandler(session *cv.Session) *ProfileSnapshotHandler {
	return &ProfileSnapshotHandler{Session: session}
}

func (h *ProfileSnapshotHandler) Query(ctx context.Context, msg ProfileSnapshot) (cv.Profile, error) {
	_ = ctx
	_ = msg
	if h == nil || h.Session == nil {
		return cv.Profile{}, sessionRequired()
	}
	return h.Session.Store().Snapshot(), nil
}

// RenderDocumentHandler renders the current profile.
type RenderDocumentHandler struct {
	Session *cv.Session
}

func NewRenderDocumentHandler(session *cv.Session) *RenderDocumentHandler {
	return &RenderDocumentHandler{Session: session}
}

func (h *RenderDocumentHandler) Query(ctx context.Context, msg RenderDocument) (cv.Document, error) {
	_ = msg
	if h == nil || h.Session == nil {
		return cv.Document{}, sessionRequired()
	}
	return h.Session.Render(ctx)
}

// ExportSettingsHandler returns the export configuration for a format.
type ExportSettingsHandler struct {
	Session *cv.Session
}

func NewExportSettingsHandler(session *cv.Session) *ExportSettingsHandler {
	return &ExportSettingsHandler{Session: session}
}

func (h *ExportSettingsHandler) Query(ctx context.Context, msg ExportSettings) (cv.ExportConfig, error) {
	_ = ctx
	if h == nil || h.Session == nil {
		return cv.ExportConfig{}, sessionRequired()
	}
	return h.Session.ExportConfig(msg.Format), nil
}

// ExportHistoryHandler lists recorded exports for the session. Sessions
// without a history yield an empty list.
type ExportHistoryHandler struct {
	Session *cv.Session
}

func NewExportHistoryHandler(session *cv.Session) *ExportHistoryHandler {
	return &ExportHistoryHandler{Session: session}
}

func (h *ExportHistoryHandler) Query(ctx context.Context, msg ExportHistory) ([]cv.ExportRecord, error) {
	if h == nil || h.Session == nil {
		return nil, sessionRequired()
	}
	history := h.Session.History()
	if history == nil {
		return []cv.ExportRecord{}, nil
	}
	return history.List(ctx, cv.HistoryFilter{
		SessionID: h.Session.ID(),
		Format:    msg.Format,
		Status:    msg.Status,
		Limit:     msg.Limit,
	})
}
