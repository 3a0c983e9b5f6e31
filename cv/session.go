package cv

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-cvwizard/notify"
	"github.com/google/uuid"
)

// SessionConfig supplies dependencies for a Session.
type SessionConfig struct {
	ID            string
	TotalSteps    int
	StepNames     []string
	Seed          Profile
	Exporters     map[Format]Exporter
	Deliverer     Deliverer
	Notifier      notify.Notifier
	ReadyNotifier notify.ReadyNotifier
	Export        ExportConfig
	Template      string
	History       ExportHistory
	Logger        Logger
}

// ExportOutcome describes a delivered export.
type ExportOutcome struct {
	Artifact Artifact
	Location string
}

// ExportResult carries the outcome of ExportAsync.
type ExportResult struct {
	Outcome ExportOutcome
	Err     error
}

// Session is the single owner of a profile and wizard position.
type Session struct {
	id        string
	store     *ProfileStore
	wizard    *Wizard
	exporters map[Format]Exporter
	deliverer Deliverer
	notifier  notify.Notifier
	ready     notify.ReadyNotifier
	defaults  ExportConfig
	history   ExportHistory
	logger    Logger

	mu       sync.Mutex
	template string
	online   bool
}

// NewSession creates a session positioned on the first step.
func NewSession(cfg SessionConfig) (*Session, error) {
	total := cfg.TotalSteps
	if total == 0 {
		total = DefaultTotalSteps
	}
	var opts []WizardOption
	if len(cfg.StepNames) > 0 {
		opts = append(opts, WithStepNames(cfg.StepNames...))
	}
	wizard, err := NewWizard(total, opts...)
	if err != nil {
		return nil, err
	}

	defaults := cfg.Export
	if defaults == (ExportConfig{}) {
		defaults = DefaultExportConfig()
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}

	exporters := make(map[Format]Exporter, len(cfg.Exporters))
	for format, exporter := range cfg.Exporters {
		if exporter != nil {
			exporters[format] = exporter
		}
	}

	return &Session{
		id:        id,
		store:     NewProfileStore(cfg.Seed),
		wizard:    wizard,
		exporters: exporters,
		deliverer: cfg.Deliverer,
		notifier:  notifier,
		ready:     cfg.ReadyNotifier,
		defaults:  defaults,
		history:   cfg.History,
		logger:    logger,
		template:  cfg.Template,
		online:    true,
	}, nil
}

func (s *Session) ID() string { return s.id }

// Store returns the profile store owned by the session.
func (s *Session) Store() *ProfileStore { return s.store }

// Wizard returns the wizard owned by the session.
func (s *Session) Wizard() *Wizard { return s.wizard }

// History returns the export history, or nil when none is configured.
func (s *Session) History() ExportHistory { return s.history }

// Notify forwards a message to the session notifier.
func (s *Session) Notify(message string, severity notify.Severity) notify.Notification {
	return s.notifier.Notify(message, severity)
}

// SelectTemplate records the presentation template used by markup exporters.
func (s *Session) SelectTemplate(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewError(KindValidation, "template name is required", nil)
	}
	s.mu.Lock()
	s.template = name
	s.mu.Unlock()

	s.logger.Infof("session %s selected template %s", s.id, name)
	s.notifier.Notify(fmt.Sprintf("Template %q selected", name), notify.SeveritySuccess)
	return nil
}

// Template returns the selected presentation template.
func (s *Session) Template() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template
}

// SetOnline consumes a connectivity signal. It only produces notifications.
func (s *Session) SetOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()
	if !changed {
		return
	}

	if online {
		s.notifier.Notify("Back online", notify.SeveritySuccess)
		return
	}
	s.notifier.Notify("You are offline. Changes stay on this device.", notify.SeverityWarning)
}

// Online reports the last connectivity signal.
func (s *Session) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Render renders a point-in-time snapshot of the profile.
func (s *Session) Render(ctx context.Context) (Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case res := <-RenderAsync(ctx, s.store.Snapshot()):
		return res.Document, res.Err
	case <-ctx.Done():
		return Document{}, ctx.Err()
	}
}

// ExportConfig returns the defaults for format with the session template and
// the filename derived from the profile name.
func (s *Session) ExportConfig(format Format) ExportConfig {
	cfg := s.defaults
	if format != "" {
		cfg.Format = format
	}
	if cfg.Format == "" {
		cfg.Format = FormatPDF
	}
	cfg.Template = s.Template()
	name, _ := s.store.Field(SectionPersonal, FieldName)
	cfg.Filename = Filename(name, cfg.Format)
	return cfg
}

// Export renders and exports the profile in the given format using the session
// defaults.
func (s *Session) Export(ctx context.Context, format Format) (ExportOutcome, error) {
	return s.ExportWith(ctx, s.ExportConfig(format))
}

// ExportWith renders a snapshot, exports it and delivers the artifact. Failures
// are reported through the notifier and returned as export errors; the profile
// and wizard are never modified.
func (s *Session) ExportWith(ctx context.Context, cfg ExportConfig) (ExportOutcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Filename != "" {
		cfg.Filename = SafeFilename(cfg.Filename, cfg.Format)
	}
	outcome, err := s.export(ctx, cfg)
	s.recordHistory(ctx, cfg, outcome, err)
	if err != nil {
		s.logger.Errorf("session %s export %s failed: %v", s.id, cfg.Format, err)
		s.notifier.Notify("Export failed: "+err.Error(), notify.SeverityError)
		return ExportOutcome{}, err
	}

	s.logger.Infof("session %s exported %s (%d bytes)", s.id, outcome.Artifact.Filename, len(outcome.Artifact.Data))
	s.notifier.Notify(fmt.Sprintf("%s downloaded", outcome.Artifact.Filename), notify.SeveritySuccess)
	s.sendReady(ctx, cfg, outcome)
	return outcome, nil
}

// ExportAsync runs ExportWith on its own goroutine. Cancel ctx to abandon the
// export; the channel receives exactly one result.
func (s *Session) ExportAsync(ctx context.Context, cfg ExportConfig) <-chan ExportResult {
	out := make(chan ExportResult, 1)
	go func() {
		defer close(out)
		outcome, err := s.ExportWith(ctx, cfg)
		out <- ExportResult{Outcome: outcome, Err: err}
	}()
	return out
}

func (s *Session) export(ctx context.Context, cfg ExportConfig) (ExportOutcome, error) {
	if err := cfg.Validate(); err != nil {
		return ExportOutcome{}, ExportFailed("invalid export configuration", err)
	}
	exporter, ok := s.exporters[cfg.Format]
	if !ok {
		return ExportOutcome{}, NewError(KindExport, fmt.Sprintf("no exporter available for %s", cfg.Format), nil)
	}
	if cfg.Filename == "" {
		name, _ := s.store.Field(SectionPersonal, FieldName)
		cfg.Filename = Filename(name, cfg.Format)
	}
	if cfg.Template == "" {
		cfg.Template = s.Template()
	}

	doc, err := s.Render(ctx)
	if err != nil {
		return ExportOutcome{}, ExportFailed("render failed", err)
	}

	artifact, err := exporter.Export(ctx, doc, cfg)
	if err != nil {
		return ExportOutcome{}, ExportFailed("exporter failed", err)
	}
	if err := ctx.Err(); err != nil {
		return ExportOutcome{}, ExportFailed("export canceled", err)
	}
	if artifact.Filename == "" {
		artifact.Filename = cfg.Filename
	} else {
		artifact.Filename = SafeFilename(artifact.Filename, cfg.Format)
	}
	if len(artifact.Data) == 0 {
		return ExportOutcome{}, NewError(KindExport, "exporter produced an empty document", nil)
	}

	outcome := ExportOutcome{Artifact: artifact}
	if s.deliverer != nil {
		location, err := s.deliverer.Deliver(ctx, artifact)
		if err != nil {
			return ExportOutcome{}, ExportFailed("delivery failed", err)
		}
		outcome.Location = location
	}
	return outcome, nil
}

func (s *Session) recordHistory(ctx context.Context, cfg ExportConfig, outcome ExportOutcome, exportErr error) {
	if s.history == nil {
		return
	}
	rec := ExportRecord{
		SessionID: s.id,
		Format:    cfg.Format,
		Template:  cfg.Template,
		Filename:  cfg.Filename,
		Status:    ExportStatusSucceeded,
	}
	if rec.Template == "" {
		rec.Template = s.Template()
	}
	if rec.Filename == "" {
		name, _ := s.store.Field(SectionPersonal, FieldName)
		rec.Filename = Filename(name, cfg.Format)
	}
	if exportErr != nil {
		rec.Status = ExportStatusFailed
		rec.Error = exportErr.Error()
	} else {
		rec.Filename = outcome.Artifact.Filename
		rec.ContentType = outcome.Artifact.ContentType
		rec.Size = int64(len(outcome.Artifact.Data))
		rec.Location = outcome.Location
	}
	// Recording outlives a canceled export so the failure is still kept.
	if _, err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Errorf("session %s export history record failed: %v", s.id, err)
	}
}

func (s *Session) sendReady(ctx context.Context, cfg ExportConfig, outcome ExportOutcome) {
	if s.ready == nil {
		return
	}
	artifact := outcome.Artifact
	evt := notify.ReadyEvent{
		ActorID:  s.id,
		FileName: artifact.Filename,
		Format:   string(cfg.Format),
		URL:      outcome.Location,
		Message:  "Your CV is ready",
		Attachment: &notify.Attachment{
			Filename:    artifact.Filename,
			ContentType: artifact.ContentType,
			Data:        artifact.Data,
			Size:        int64(len(artifact.Data)),
		},
	}
	if err := s.ready.Send(ctx, evt); err != nil {
		s.logger.Errorf("session %s ready notification failed: %v", s.id, err)
	}
}

type discardNotifier struct{}

func (discardNotifier) Notify(message string, severity notify.Severity) notify.Notification {
	return notify.Notification{Message: message, Severity: severity.Normalize(), Phase: notify.PhaseRemoved}
}
