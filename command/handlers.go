package command

import (
	"context"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-cvwizard/cv"
)

func sessionRequired() error {
	return errors.New("cv session is required", errors.CategoryInternal).
		WithTextCode("SESSION_REQUIRED")
}

// SetFieldHandler assigns scalar profile fields.
type SetFieldHandler struct {
	Session *cv.Session
}

func NewSetFieldHandler(session *cv.Session) *SetFieldHandler {
	return &SetFieldHandler{Session: session}
}

func (h *SetFieldHandler) Execute(ctx context.Context, msg SetField) error {
	_ = ctx
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	return h.Session.Store().SetField(msg.Section, msg.Key, msg.Value)
}

// AppendEducationHandler appends education entries.
type AppendEducationHandler struct {
	Session *cv.Session
}

func NewAppendEducationHandler(session *cv.Session) *AppendEducationHandler {
	return &AppendEducationHandler{Session: session}
}

func (h *AppendEducationHandler) Execute(ctx context.Context, msg AppendEducation) error {
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	count := h.Session.Store().AppendEducation(msg.Entry)
	storeResult(ctx, msg.Result, count)
	return nil
}

// AppendExperienceHandler appends experience entries.
type AppendExperienceHandler struct {
	Session *cv.Session
}

func NewAppendExperienceHandler(session *cv.Session) *AppendExperienceHandler {
	return &AppendExperienceHandler{Session: session}
}

func (h *AppendExperienceHandler) Execute(ctx context.Context, msg AppendExperience) error {
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	count := h.Session.Store().AppendExperience(msg.Entry)
	storeResult(ctx, msg.Result, count)
	return nil
}

// RemoveEducationHandler removes education entries.
type RemoveEducationHandler struct {
	Session *cv.Session
}

func NewRemoveEducationHandler(session *cv.Session) *RemoveEducationHandler {
	return &RemoveEducationHandler{Session: session}
}

func (h *RemoveEducationHandler) Execute(ctx context.Context, msg RemoveEducation) error {
	_ = ctx
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	return h.Session.Store().RemoveEducation(msg.Index)
}

// RemoveExperienceHandler removes experience entries.
type RemoveExperienceHandler struct {
	Session *cv.Session
}

func NewRemoveExperienceHandler(session *cv.Session) *RemoveExperienceHandler {
	return &RemoveExperienceHandler{Session: session}
}

func (h *RemoveExperienceHandler) Execute(ctx context.Context, msg RemoveExperience) error {
	_ = ctx
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	return h.Session.Store().RemoveExperience(msg.Index)
}

// ResetProfileHandler restores the seed profile.
type ResetProfileHandler struct {
	Session *cv.Session
}

func NewResetProfileHandler(session *cv.Session) *ResetProfileHandler {
	return &ResetProfileHandler{Session: session}
}

func (h *ResetProfileHandler) Execute(ctx context.Context, msg ResetProfile) error {
	_ = ctx
	_ = msg
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	h.Session.Store().Reset()
	return nil
}

// NextStepHandler advances the wizard.
type NextStepHandler struct {
	Session *cv.Session
}

func NewNextStepHandler(session *cv.Session) *NextStepHandler {
	return &NextStepHandler{Session: session}
}

func (h *NextStepHandler) Execute(ctx context.Context, msg NextStep) error {
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	wizard := h.Session.Wizard()
	moved := wizard.Advance()
	storeResult(ctx, msg.Result, StepResult{State: wizard.ActiveState(), Moved: moved})
	return nil
}

// PreviousStepHandler retreats the wizard.
type PreviousStepHandler struct {
	Session *cv.Session
}

func NewPreviousStepHandler(session *cv.Session) *PreviousStepHandler {
	return &PreviousStepHandler{Session: session}
}

func (h *PreviousStepHandler) Execute(ctx context.Context, msg PreviousStep) error {
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	wizard := h.Session.Wizard()
	moved := wizard.Retreat()
	storeResult(ctx, msg.Result, StepResult{State: wizard.ActiveState(), Moved: moved})
	return nil
}

// JumpToStepHandler moves the wizard to an arbitrary step.
type JumpToStepHandler struct {
	Session *cv.Session
}

func NewJumpToStepHandler(session *cv.Session) *JumpToStepHandler {
	return &JumpToStepHandler{Session: session}
}

func (h *JumpToStepHandler) Execute(ctx context.Context, msg JumpToStep) error {
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	wizard := h.Session.Wizard()
	before := wizard.CurrentStep()
	if err := wizard.JumpTo(msg.Step); err != nil {
		return err
	}
	state := wizard.ActiveState()
	storeResult(ctx, msg.Result, StepResult{State: state, Moved: state.Current != before})
	return nil
}

// SelectTemplateHandler records the presentation template.
type SelectTemplateHandler struct {
	Session *cv.Session
	// Known, when set, rejects names it reports as unknown.
	Known func(name string) bool
}

func NewSelectTemplateHandler(session *cv.Session, known func(name string) bool) *SelectTemplateHandler {
	return &SelectTemplateHandler{Session: session, Known: known}
}

func (h *SelectTemplateHandler) Execute(ctx context.Context, msg SelectTemplate) error {
	_ = ctx
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	if h.Known != nil && !h.Known(msg.Name) {
		return errors.New("template "+msg.Name+" not found", errors.CategoryNotFound).
			WithTextCode("TEMPLATE_NOT_FOUND")
	}
	return h.Session.SelectTemplate(msg.Name)
}

// ExportDocumentHandler exports the current profile.
type ExportDocumentHandler struct {
	Session *cv.Session
}

func NewExportDocumentHandler(session *cv.Session) *ExportDocumentHandler {
	return &ExportDocumentHandler{Session: session}
}

func (h *ExportDocumentHandler) Execute(ctx context.Context, msg ExportDocument) error {
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	var (
		outcome cv.ExportOutcome
		err     error
	)
	if msg.Config != nil {
		cfg := *msg.Config
		if msg.Format != "" {
			cfg.Format = msg.Format
		}
		outcome, err = h.Session.ExportWith(ctx, cfg)
	} else {
		outcome, err = h.Session.Export(ctx, msg.Format)
	}
	if err != nil {
		return err
	}
	storeResult(ctx, msg.Result, outcome)
	return nil
}

// ConnectivityChangedHandler forwards connectivity signals to the session.
type ConnectivityChangedHandler struct {
	Session *cv.Session
}

func NewConnectivityChangedHandler(session *cv.Session) *ConnectivityChangedHandler {
	return &ConnectivityChangedHandler{Session: session}
}

func (h *ConnectivityChangedHandler) Execute(ctx context.Context, msg ConnectivityChanged) error {
	_ = ctx
	if h == nil || h.Session == nil {
		return sessionRequired()
	}
	h.Session.SetOnline(msg.Online)
	return nil
}

// DownloadCleaner removes downloads created before a cutoff.
type DownloadCleaner interface {
	Cleanup(ctx context.Context, before time.Time) (int, error)
}

// CleanupDownloadsHandler removes expired downloads.
type CleanupDownloadsHandler struct {
	Cleaner   DownloadCleaner
	Retention time.Duration
	Config    gcmd.HandlerConfig
	Clock     func() time.Time
}

func NewCleanupDownloadsHandler(cleaner DownloadCleaner, retention time.Duration) *CleanupDownloadsHandler {
	return &CleanupDownloadsHandler{
		Cleaner:   cleaner,
		Retention: retention,
		Config:    gcmd.HandlerConfig{Expression: "0 * * * *"},
	}
}

func (h *CleanupDownloadsHandler) Execute(ctx context.Context, msg CleanupDownloads) error {
	if h == nil || h.Cleaner == nil {
		return errors.New("download cleaner is required", errors.CategoryInternal).
			WithTextCode("CLEANER_REQUIRED")
	}
	now := msg.Now
	if now.IsZero() {
		if h.Clock != nil {
			now = h.Clock()
		} else {
			now = time.Now()
		}
	}
	count, err := h.Cleaner.Cleanup(ctx, now.Add(-h.Retention))
	if err != nil {
		return err
	}
	storeResult(ctx, msg.Result, count)
	return nil
}

func (h *CleanupDownloadsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), CleanupDownloads{})
	}
}

func (h *CleanupDownloadsHandler) CronOptions() gcmd.HandlerConfig {
	return h.Config
}

func storeResult[T any](ctx context.Context, target *T, value T) {
	if target != nil {
		*target = value
	}
	if res := gcmd.ResultFromContext[T](ctx); res != nil {
		res.Store(value)
	}
}
