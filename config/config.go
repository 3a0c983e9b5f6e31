package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-cvwizard/cv"
)

// Config holds the CV wizard configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Wizard        WizardConfig        `yaml:"wizard"`
	Export        ExportConfig        `yaml:"export"`
	PDF           PDFConfig           `yaml:"pdf"`
	Downloads     DownloadsConfig     `yaml:"downloads"`
	History       HistoryConfig       `yaml:"history"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Batch         BatchConfig         `yaml:"batch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port" validate:"required,numeric"`
	BasePath string `yaml:"base_path" validate:"required,startswith=/"`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// WizardConfig configures the step wizard and its seed data.
type WizardConfig struct {
	TotalSteps      int    `yaml:"total_steps" validate:"min=1"`
	SeedProfile     string `yaml:"seed_profile"`
	DefaultTemplate string `yaml:"default_template"`
}

// ExportConfig holds the default export settings.
type ExportConfig struct {
	DefaultFormat string  `yaml:"default_format" validate:"oneof=pdf html xlsx sqlite"`
	PageSize      string  `yaml:"page_size" validate:"oneof=A3 A4 A5 B5 LETTER LEGAL"`
	Orientation   string  `yaml:"orientation" validate:"oneof=portrait landscape"`
	MarginMM      float64 `yaml:"margin_mm" validate:"gte=0"`
	ImageQuality  float64 `yaml:"image_quality" validate:"gt=0,lte=1"`
	MaxBytes      int64   `yaml:"max_bytes" validate:"gte=0"`
	SQLiteEnabled bool    `yaml:"sqlite_enabled"`
	ShowGenerated bool    `yaml:"show_generated"`
}

// PDFConfig selects and tunes the PDF engine.
type PDFConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Engine          string        `yaml:"engine" validate:"oneof=chromium wkhtmltopdf"`
	BrowserPath     string        `yaml:"browser_path"`
	WKHTMLTOPDFPath string        `yaml:"wkhtmltopdf_path"`
	Timeout         time.Duration `yaml:"timeout" validate:"gte=0"`
}

// DownloadsConfig configures delivered download storage.
type DownloadsConfig struct {
	Dir         string        `yaml:"dir" validate:"required"`
	Secret      string        `yaml:"secret"`
	TTL         time.Duration `yaml:"ttl" validate:"gte=0"`
	Retention   time.Duration `yaml:"retention" validate:"gte=0"`
	CleanupCron string        `yaml:"cleanup_cron"`
}

// HistoryConfig selects the export history backend. An empty DSN keeps
// history in memory.
type HistoryConfig struct {
	DSN       string        `yaml:"dsn"`
	Retention time.Duration `yaml:"retention" validate:"gte=0"`
	// ActivityChannel mirrors every record to the activity log when set.
	ActivityChannel string `yaml:"activity_channel"`
}

// NotificationsConfig tunes the notification lifecycle.
type NotificationsConfig struct {
	DismissAfter time.Duration `yaml:"dismiss_after" validate:"gt=0"`
	ExitDuration time.Duration `yaml:"exit_duration" validate:"gte=0"`
	Ready        ReadyConfig   `yaml:"ready"`
}

// ReadyConfig enables "document ready" messages through go-notifications.
type ReadyConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Recipients   []string `yaml:"recipients" validate:"required_if=Enabled true,dive,email"`
	Channels     []string `yaml:"channels"`
	Locale       string   `yaml:"locale"`
	SMTPHost     string   `yaml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port" validate:"gte=0,lte=65535"`
	SMTPFrom     string   `yaml:"smtp_from" validate:"omitempty,email"`
	SMTPUser     string   `yaml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password"`
	SMTPStartTLS bool     `yaml:"smtp_starttls"`
}

// BatchConfig configures batch exports.
type BatchConfig struct {
	File        string        `yaml:"file"`
	Cron        string        `yaml:"cron"`
	MaxRequests int           `yaml:"max_requests" validate:"gte=0"`
	MinInterval time.Duration `yaml:"min_interval" validate:"gte=0"`
	Async       bool          `yaml:"async"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:     "localhost",
			Port:     "8080",
			BasePath: "/api/cv",
		},
		Log: LogConfig{
			Level: "info",
		},
		Wizard: WizardConfig{
			TotalSteps:      cv.DefaultTotalSteps,
			DefaultTemplate: "classic",
		},
		Export: ExportConfig{
			DefaultFormat: string(cv.FormatPDF),
			PageSize:      "A4",
			Orientation:   string(cv.OrientationPortrait),
			MarginMM:      10,
			ImageQuality:  0.98,
			MaxBytes:      8 << 20,
			SQLiteEnabled: true,
		},
		PDF: PDFConfig{
			Enabled: true,
			Engine:  "chromium",
			Timeout: 30 * time.Second,
		},
		Downloads: DownloadsConfig{
			Dir:         "./downloads",
			TTL:         15 * time.Minute,
			Retention:   24 * time.Hour,
			CleanupCron: "0 * * * *",
		},
		Notifications: NotificationsConfig{
			DismissAfter: 3 * time.Second,
			ExitDuration: 300 * time.Millisecond,
			Ready: ReadyConfig{
				Channels: []string{"email"},
				Locale:   "en",
				SMTPPort: 587,
			},
		},
		Batch: BatchConfig{
			Cron:        "0 0 * * *",
			MinInterval: 100 * time.Millisecond,
		},
	}
}

// ExportDefaults converts the export section into session defaults.
func (c Config) ExportDefaults() cv.ExportConfig {
	return cv.ExportConfig{
		Format:       cv.Format(c.Export.DefaultFormat),
		Margins:      cv.UniformMargins(c.Export.MarginMM),
		ImageQuality: c.Export.ImageQuality,
		PageSize:     c.Export.PageSize,
		Orientation:  cv.Orientation(c.Export.Orientation),
		Template:     c.Wizard.DefaultTemplate,
	}
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid configuration").
			WithTextCode("CONFIG_INVALID")
	}
	if c.Downloads.Secret != "" && c.Downloads.TTL <= 0 {
		return errors.New("signed downloads require a positive downloads.ttl", errors.CategoryValidation).
			WithTextCode("DOWNLOAD_TTL_REQUIRED")
	}
	return nil
}
