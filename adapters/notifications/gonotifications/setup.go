package gonotifications

import (
	"context"
	"fmt"
	"html"
	"strings"

	i18n "github.com/goliatone/go-i18n"
	"github.com/goliatone/go-notifications/pkg/adapters"
	"github.com/goliatone/go-notifications/pkg/adapters/console"
	notifsmtp "github.com/goliatone/go-notifications/pkg/adapters/smtp"
	notifconfig "github.com/goliatone/go-notifications/pkg/config"
	"github.com/goliatone/go-notifications/pkg/inbox"
	"github.com/goliatone/go-notifications/pkg/interfaces/broadcaster"
	"github.com/goliatone/go-notifications/pkg/interfaces/cache"
	notiflogger "github.com/goliatone/go-notifications/pkg/interfaces/logger"
	"github.com/goliatone/go-notifications/pkg/notifier"
	"github.com/goliatone/go-notifications/pkg/onready"
	"github.com/goliatone/go-notifications/pkg/storage"
	"github.com/goliatone/go-notifications/pkg/templates"

	"github.com/goliatone/go-cvwizard/cv"
)

const defaultFrom = "no-reply@example.com"

// SMTPConfig enables the SMTP channel when Host is set.
type SMTPConfig struct {
	Host          string
	Port          int
	From          string
	Username      string
	Password      string
	UseTLS        bool
	UseStartTLS   bool
	SkipTLSVerify bool
}

// SetupConfig configures an in-memory go-notifications stack.
type SetupConfig struct {
	Recipients    []string
	Channels      []string
	DefaultLocale string
	SMTP          SMTPConfig
	Logger        cv.Logger
}

// Setup builds a "document ready" notifier backed by go-notifications with
// in-memory storage and localized onready templates. The console adapter is
// always registered; SMTP joins it when configured.
func Setup(ctx context.Context, cfg SetupConfig) (*Notifier, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	locale := strings.TrimSpace(cfg.DefaultLocale)
	if locale == "" {
		locale = "en"
	}
	logSink := logAdapter{base: cfg.Logger}

	store := i18n.NewStaticStore(onready.Translations())
	translator, err := i18n.NewSimpleTranslator(store, i18n.WithTranslatorDefaultLocale(locale))
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "notifications translator setup failed", err)
	}

	providers := storage.NewMemoryProviders()
	tplSvc, err := templates.New(templates.Dependencies{
		Repository:    providers.Templates,
		Cache:         &cache.Nop{},
		Logger:        logSink,
		Translator:    translator,
		Fallbacks:     i18n.NewStaticFallbackResolver(),
		DefaultLocale: locale,
	})
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "notifications templates setup failed", err)
	}

	inboxSvc, err := inbox.New(inbox.Dependencies{
		Repository:  providers.Inbox,
		Broadcaster: &broadcaster.Nop{},
		Logger:      logSink,
	})
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "notifications inbox setup failed", err)
	}

	registration, err := onready.Register(ctx, onready.Dependencies{
		Definitions: providers.Definitions,
		Templates:   tplSvc,
	}, onready.Options{})
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "onready definition registration failed", err)
	}

	manager, err := notifier.New(notifier.Dependencies{
		Definitions: providers.Definitions,
		Events:      providers.Events,
		Messages:    providers.Messages,
		Attempts:    providers.DeliveryAttempts,
		Templates:   tplSvc,
		Adapters:    adapters.NewRegistry(messengers(logSink, cfg.SMTP)...),
		Logger:      logSink,
		Config: notifconfig.DispatcherConfig{
			EnvFallbackAllowlist: cfg.Recipients,
		},
		Inbox: inboxSvc,
	})
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "notifications manager setup failed", err)
	}

	ready, err := onready.NewNotifier(manager, registration.DefinitionCode)
	if err != nil {
		return nil, cv.NewError(cv.KindInternal, "onready notifier setup failed", err)
	}

	out := NewNotifier(ready)
	out.Recipients = append([]string(nil), cfg.Recipients...)
	out.Channels = append([]string(nil), cfg.Channels...)
	if len(out.Channels) == 0 {
		out.Channels = []string{"email"}
	}
	return out, nil
}

func messengers(logSink notiflogger.Logger, cfg SMTPConfig) []adapters.Messenger {
	list := make([]adapters.Messenger, 0, 2)
	if host := strings.TrimSpace(cfg.Host); host != "" {
		from := strings.TrimSpace(cfg.From)
		if from == "" {
			from = defaultFrom
		}
		smtp := notifsmtp.New(logSink, notifsmtp.WithConfig(notifsmtp.Config{
			Host:          host,
			Port:          cfg.Port,
			From:          from,
			Username:      cfg.Username,
			Password:      cfg.Password,
			UseTLS:        cfg.UseTLS,
			UseStartTLS:   cfg.UseStartTLS,
			SkipTLSVerify: cfg.SkipTLSVerify,
		}))
		list = append(list, smtpDefaults{base: smtp, from: from})
	}
	return append(list, console.New(logSink))
}

// smtpDefaults fills the sender and HTML body the SMTP adapter expects.
type smtpDefaults struct {
	base adapters.Messenger
	from string
}

func (a smtpDefaults) Name() string { return a.base.Name() }

func (a smtpDefaults) Capabilities() adapters.Capability { return a.base.Capabilities() }

func (a smtpDefaults) Send(ctx context.Context, msg adapters.Message) error {
	msg.Subject = html.UnescapeString(msg.Subject)
	msg.Metadata = ensureMeta(msg.Metadata, "from", a.from)
	if strings.TrimSpace(msg.Body) != "" {
		msg.Metadata = ensureMeta(msg.Metadata, "html_body", msg.Body)
	}
	return a.base.Send(ctx, msg)
}

func ensureMeta(meta map[string]any, key, value string) map[string]any {
	if strings.TrimSpace(value) == "" {
		return meta
	}
	if meta == nil {
		meta = make(map[string]any)
	}
	if raw, ok := meta[key]; ok && raw != nil && strings.TrimSpace(fmt.Sprint(raw)) != "" {
		return meta
	}
	meta[key] = value
	return meta
}

// logAdapter routes go-notifications logs into a cv.Logger.
type logAdapter struct {
	base cv.Logger
}

func (l logAdapter) With(fields ...notiflogger.Field) notiflogger.Logger {
	_ = fields
	return l
}

func (l logAdapter) Debug(msg string, fields ...notiflogger.Field) {
	if l.base != nil {
		l.base.Debugf("notifications: %s%s", msg, formatFields(fields))
	}
}

func (l logAdapter) Info(msg string, fields ...notiflogger.Field) {
	if l.base != nil {
		l.base.Infof("notifications: %s%s", msg, formatFields(fields))
	}
}

func (l logAdapter) Warn(msg string, fields ...notiflogger.Field) {
	if l.base != nil {
		l.base.Infof("notifications warning: %s%s", msg, formatFields(fields))
	}
}

func (l logAdapter) Error(msg string, fields ...notiflogger.Field) {
	if l.base != nil {
		l.base.Errorf("notifications: %s%s", msg, formatFields(fields))
	}
}

func formatFields(fields []notiflogger.Field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
	}
	return " " + strings.Join(parts, " ")
}
