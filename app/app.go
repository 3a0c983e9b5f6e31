package app

import (
	"context"
	"os"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	gojob "github.com/goliatone/go-job"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	cvactivity "github.com/goliatone/go-cvwizard/adapters/activity"
	"github.com/goliatone/go-cvwizard/adapters/cvapi"
	historybun "github.com/goliatone/go-cvwizard/adapters/history/bun"
	cvjob "github.com/goliatone/go-cvwizard/adapters/job"
	"github.com/goliatone/go-cvwizard/adapters/notifications/gonotifications"
	exportpdf "github.com/goliatone/go-cvwizard/adapters/pdf"
	exportsqlite "github.com/goliatone/go-cvwizard/adapters/sqlite"
	storefs "github.com/goliatone/go-cvwizard/adapters/store/fs"
	exporttemplate "github.com/goliatone/go-cvwizard/adapters/template"
	exportxlsx "github.com/goliatone/go-cvwizard/adapters/xlsx"
	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/config"
	"github.com/goliatone/go-cvwizard/cv"
	"github.com/goliatone/go-cvwizard/notify"
)

// asyncBatchTimeout bounds a background batch run.
const asyncBatchTimeout = 10 * time.Minute

// App holds the wired CV wizard dependencies.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Session    *cv.Session
	Channel    *notify.Channel
	Templates  *exporttemplate.Pongo2Executor
	Exporters  map[cv.Format]cv.Exporter
	Downloads  *storefs.Store
	Signer     *storefs.HMACSigner
	History    cv.ExportHistory
	Ready      notify.ReadyNotifier
	Batch      *cvcmd.BatchCommand
	BatchTask  *cvjob.BatchTask
	Scheduler  *cvjob.Scheduler
	Cancels    *cvjob.CancelRegistry
	Cleanup    *cvcmd.CleanupDownloadsHandler
	Registry   *gcmd.Registry
	// API configures the wizard transports.
	API cvapi.Config

	historyCleanup *cvcmd.CleanupDownloadsHandler
	subscriptions  []dispatcher.Subscription
	closers        []func() error
	cron           *cron.Cron
}

// New wires the session, exporters, storage and background work from cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sugar := logger.Sugar()
	a := &App{Config: cfg, Logger: logger, Registry: gcmd.NewRegistry()}

	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if err := os.MkdirAll(cfg.Downloads.Dir, 0o755); err != nil {
		return nil, cv.NewError(cv.KindInternal, "create downloads directory failed", err)
	}

	templates, err := exporttemplate.NewPongo2Executor()
	if err != nil {
		return nil, err
	}
	a.Templates = templates
	a.Exporters = a.buildExporters(cfg, templates)

	a.Downloads = storefs.NewStore(cfg.Downloads.Dir)
	a.Downloads.BaseURL = strings.TrimRight(cfg.Server.BasePath, "/")
	if cfg.Downloads.Secret != "" {
		a.Signer = &storefs.HMACSigner{Secret: []byte(cfg.Downloads.Secret)}
		a.Downloads.Signer = a.Signer
	}

	if err := a.openHistory(ctx, cfg, sugar); err != nil {
		return nil, err
	}

	if cfg.Notifications.Ready.Enabled {
		ready := cfg.Notifications.Ready
		notifier, err := gonotifications.Setup(ctx, gonotifications.SetupConfig{
			Recipients:    ready.Recipients,
			Channels:      ready.Channels,
			DefaultLocale: ready.Locale,
			SMTP: gonotifications.SMTPConfig{
				Host:        ready.SMTPHost,
				Port:        ready.SMTPPort,
				From:        ready.SMTPFrom,
				Username:    ready.SMTPUser,
				Password:    ready.SMTPPassword,
				UseStartTLS: ready.SMTPStartTLS,
			},
			Logger: sugar.Named("notifications"),
		})
		if err != nil {
			return nil, err
		}
		a.Ready = notifier
	}

	a.Channel = notify.NewChannel(notify.Config{
		DismissAfter: cfg.Notifications.DismissAfter,
		ExitDuration: cfg.Notifications.ExitDuration,
		Sinks:        []notify.Sink{notify.LogSink{Logger: sugar.Named("notify")}},
	})
	a.closers = append(a.closers, a.Channel.Close)

	seed, err := config.LoadSeedProfile(cfg.Wizard.SeedProfile)
	if err != nil {
		return nil, err
	}
	session, err := a.newSession(uuid.NewString(), seed, a.Channel, a.Ready)
	if err != nil {
		return nil, err
	}
	a.Session = session

	a.Batch = cvcmd.NewBatchExportCommand(a.NewBatchSession, a.loadBatch, cvcmd.WithBatchLimits(cvcmd.BatchLimits{
		MaxRequests: cfg.Batch.MaxRequests,
		MinInterval: cfg.Batch.MinInterval,
	}), cvcmd.WithBatchCronConfig(gcmd.HandlerConfig{Expression: cfg.Batch.Cron}))
	a.wireBatchJobs(sugar)

	a.Cleanup = cvcmd.NewCleanupDownloadsHandler(a.Downloads, cfg.Downloads.Retention)
	if cfg.Downloads.CleanupCron != "" {
		a.Cleanup.Config = gcmd.HandlerConfig{Expression: cfg.Downloads.CleanupCron}
	}

	subs, err := RegisterHandlers(a.Registry, session, HandlerOptions{KnownTemplate: templates.Has})
	a.subscriptions = subs
	if err != nil {
		return nil, err
	}
	a.subscriptions = append(a.subscriptions, dispatcher.SubscribeCommand(a.Cleanup))

	a.API = cvapi.Config{
		Session:        session,
		Preview:        a.Exporters[cv.FormatHTML],
		Templates:      templates,
		Notifications:  a.Channel,
		Downloads:      a.Downloads,
		Verifier:       a.verifier(),
		BasePath:       cfg.Server.BasePath,
		Logger:         sugar.Named("api"),
		MaxBufferBytes: cfg.Export.MaxBytes,
	}

	ok = true
	sugar.Infow("cv wizard ready",
		"session", session.ID(),
		"formats", len(a.Exporters),
		"templates", templates.Names(),
		"history", historyKind(cfg),
	)
	return a, nil
}

func (a *App) buildExporters(cfg config.Config, templates *exporttemplate.Pongo2Executor) map[cv.Format]cv.Exporter {
	renderer := exporttemplate.Renderer{Templates: templates, TemplateName: cfg.Wizard.DefaultTemplate}
	if cfg.Export.ShowGenerated {
		renderer.Now = time.Now
	}
	exporters := map[cv.Format]cv.Exporter{
		cv.FormatHTML: exporttemplate.Exporter{Renderer: renderer},
		cv.FormatXLSX: exportxlsx.Exporter{MaxBytes: cfg.Export.MaxBytes},
		cv.FormatSQLite: exportsqlite.Exporter{
			Enabled:  cfg.Export.SQLiteEnabled,
			MaxBytes: cfg.Export.MaxBytes,
		},
	}
	if cfg.PDF.Enabled {
		exporters[cv.FormatPDF] = exportpdf.Exporter{
			Enabled:      true,
			HTMLRenderer: renderer,
			Engine:       a.pdfEngine(cfg.PDF),
			MaxHTMLBytes: cfg.Export.MaxBytes,
		}
	}
	return exporters
}

func (a *App) pdfEngine(cfg config.PDFConfig) exportpdf.Engine {
	if cfg.Engine == "wkhtmltopdf" {
		return exportpdf.WKHTMLTOPDFEngine{Command: cfg.WKHTMLTOPDFPath, Timeout: cfg.Timeout}
	}
	engine := &exportpdf.ChromiumEngine{
		BrowserPath: cfg.BrowserPath,
		Headless:    true,
		Timeout:     cfg.Timeout,
	}
	a.closers = append(a.closers, engine.Close)
	return engine
}

func (a *App) openHistory(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) error {
	if strings.TrimSpace(cfg.History.DSN) == "" {
		a.History = cv.NewMemoryHistory()
	} else {
		store, err := historybun.OpenSQLite(ctx, cfg.History.DSN)
		if err != nil {
			return err
		}
		a.History = store
		a.closers = append(a.closers, store.Close)
	}

	if cleaner, ok := a.History.(cvcmd.DownloadCleaner); ok && cfg.History.Retention > 0 {
		a.historyCleanup = cvcmd.NewCleanupDownloadsHandler(cleaner, cfg.History.Retention)
	}
	if channel := strings.TrimSpace(cfg.History.ActivityChannel); channel != "" {
		a.History = cvactivity.NewHistory(cvactivity.Config{
			Next:    a.History,
			Sink:    activityLogSink{logger: a.Logger.Named("activity")},
			Channel: channel,
			Logger:  sugar.Named("activity"),
		})
	}
	return nil
}

func (a *App) newSession(id string, seed cv.Profile, notifier notify.Notifier, ready notify.ReadyNotifier) (*cv.Session, error) {
	return cv.NewSession(cv.SessionConfig{
		ID:            id,
		TotalSteps:    a.Config.Wizard.TotalSteps,
		Seed:          seed,
		Exporters:     a.Exporters,
		Deliverer:     storefs.Deliverer{Store: a.Downloads, SessionID: id, TTL: a.Config.Downloads.TTL},
		Notifier:      notifier,
		ReadyNotifier: ready,
		Export:        a.Config.ExportDefaults(),
		Template:      a.Config.Wizard.DefaultTemplate,
		History:       a.History,
		Logger:        a.Logger.Sugar().Named("session"),
	})
}

// NewBatchSession builds a headless session for batch exports. Batch sessions
// share storage and history but raise no notifications.
func (a *App) NewBatchSession(seed cv.Profile) (*cv.Session, error) {
	return a.newSession("batch-"+uuid.NewString(), seed, nil, nil)
}

func (a *App) loadBatch(ctx context.Context) ([]cvcmd.BatchRequest, error) {
	_ = ctx
	if strings.TrimSpace(a.Config.Batch.File) == "" {
		return nil, nil
	}
	return cvcmd.LoadBatchRequests(a.Config.Batch.File)
}

func (a *App) wireBatchJobs(logger *zap.SugaredLogger) {
	a.Cancels = cvjob.NewCancelRegistry()
	a.BatchTask = cvjob.NewBatchTask(cvjob.TaskConfig{
		Exporter:       a.Batch,
		Loader:         a.loadBatch,
		CancelRegistry: a.Cancels,
		RetryPolicy:    cvjob.RetryPolicy{MaxRetries: 2},
		OnComplete: func(r cvjob.Result) {
			if r.Err != nil {
				logger.Errorw("batch export failed", "request", r.RequestID, "exported", r.Exported, "failed", r.Failed, "error", r.Err)
				return
			}
			logger.Infow("batch export finished", "request", r.RequestID, "exported", r.Exported, "skipped", r.Skipped)
		},
		Logger: logger.Named("batch"),
	})

	enqueuer := cvjob.EnqueuerFunc(a.BatchTask.Execute)
	if a.Config.Batch.Async {
		enqueuer = func(ctx context.Context, msg *gojob.ExecutionMessage) error {
			go func() {
				execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncBatchTimeout)
				defer cancel()
				_ = a.BatchTask.Execute(execCtx, msg)
			}()
			return nil
		}
	}
	a.Scheduler = cvjob.NewScheduler(cvjob.Config{
		Enqueuer: enqueuer,
		Dedupe:   true,
		Logger:   logger.Named("batch"),
	})
}

func (a *App) verifier() cvapi.URLVerifier {
	if a.Signer == nil {
		return nil
	}
	return a.Signer
}

type scheduledJob struct {
	name    string
	expr    string
	handler func() error
}

// StartSchedules runs the cron-driven cleanup and batch handlers.
func (a *App) StartSchedules() error {
	if a == nil || a.cron != nil {
		return nil
	}
	c := cron.New()
	jobs := []scheduledJob{
		{"downloads cleanup", a.Cleanup.CronOptions().Expression, a.Cleanup.CronHandler()},
		{"batch export", a.Batch.CronOptions().Expression, a.BatchTask.GetHandler()},
	}
	if a.historyCleanup != nil {
		jobs = append(jobs, scheduledJob{"history cleanup", a.historyCleanup.CronOptions().Expression, a.historyCleanup.CronHandler()})
	}

	logger := a.Logger.Sugar().Named("cron")
	for _, entry := range jobs {
		if strings.TrimSpace(entry.expr) == "" {
			continue
		}
		name, handler := entry.name, entry.handler
		if _, err := c.AddFunc(entry.expr, func() {
			if err := handler(); err != nil {
				logger.Errorw("scheduled job failed", "job", name, "error", err)
			}
		}); err != nil {
			return cv.NewError(cv.KindValidation, "invalid cron expression for "+name, err)
		}
	}
	c.Start()
	a.cron = c
	return nil
}

// Close stops schedules and releases resources in reverse order.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.cron != nil {
		<-a.cron.Stop().Done()
		a.cron = nil
	}
	for _, sub := range a.subscriptions {
		sub.Unsubscribe()
	}
	a.subscriptions = nil

	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func historyKind(cfg config.Config) string {
	if strings.TrimSpace(cfg.History.DSN) == "" {
		return "memory"
	}
	return "sqlite"
}
