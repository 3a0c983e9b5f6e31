package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cvwizard/cv"
)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an optional YAML file layered over the defaults.
	File string
	// EnvFiles are loaded with godotenv before overrides apply. Missing files
	// are ignored.
	EnvFiles []string
	Lookup   LookupFunc
}

// Load builds a validated configuration: defaults, then File, then the
// environment.
func Load(opts LoadOptions) (Config, error) {
	cfg := Defaults()

	for _, file := range opts.EnvFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, errors.CategoryValidation, "env file invalid").
				WithTextCode("ENV_FILE_INVALID")
		}
	}

	if path := strings.TrimSpace(opts.File); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, errors.CategoryExternal, "read config file failed").
				WithTextCode("CONFIG_FILE_READ")
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return Config{}, errors.Wrap(err, errors.CategoryValidation, "config file invalid").
				WithTextCode("CONFIG_FILE_INVALID")
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := ApplyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with CVWIZARD_* variables. PORT and HOST are also
// honoured for platform compatibility.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	env := envReader{lookup: lookup}

	env.str(&cfg.Server.Host, "HOST", "CVWIZARD_HOST")
	env.str(&cfg.Server.Port, "PORT", "CVWIZARD_PORT")
	env.str(&cfg.Server.BasePath, "CVWIZARD_BASE_PATH")

	env.str(&cfg.Log.Level, "CVWIZARD_LOG_LEVEL")
	env.boolean(&cfg.Log.Development, "CVWIZARD_LOG_DEVELOPMENT")

	env.integer(&cfg.Wizard.TotalSteps, "CVWIZARD_TOTAL_STEPS")
	env.str(&cfg.Wizard.SeedProfile, "CVWIZARD_SEED_PROFILE")
	env.str(&cfg.Wizard.DefaultTemplate, "CVWIZARD_TEMPLATE")

	env.str(&cfg.Export.DefaultFormat, "CVWIZARD_EXPORT_FORMAT")
	env.str(&cfg.Export.PageSize, "CVWIZARD_PAGE_SIZE")
	env.str(&cfg.Export.Orientation, "CVWIZARD_ORIENTATION")
	env.float(&cfg.Export.MarginMM, "CVWIZARD_MARGIN_MM")
	env.float(&cfg.Export.ImageQuality, "CVWIZARD_IMAGE_QUALITY")
	env.int64(&cfg.Export.MaxBytes, "CVWIZARD_EXPORT_MAX_BYTES")
	env.boolean(&cfg.Export.SQLiteEnabled, "CVWIZARD_SQLITE_ENABLED")
	env.boolean(&cfg.Export.ShowGenerated, "CVWIZARD_EXPORT_SHOW_GENERATED")

	env.boolean(&cfg.PDF.Enabled, "CVWIZARD_PDF_ENABLED")
	env.str(&cfg.PDF.Engine, "CVWIZARD_PDF_ENGINE")
	env.str(&cfg.PDF.BrowserPath, "CVWIZARD_CHROMIUM_PATH")
	env.str(&cfg.PDF.WKHTMLTOPDFPath, "CVWIZARD_WKHTMLTOPDF_PATH")
	env.duration(&cfg.PDF.Timeout, "CVWIZARD_PDF_TIMEOUT")

	env.str(&cfg.Downloads.Dir, "CVWIZARD_DOWNLOAD_DIR")
	env.str(&cfg.Downloads.Secret, "CVWIZARD_DOWNLOAD_SECRET")
	env.duration(&cfg.Downloads.TTL, "CVWIZARD_DOWNLOAD_TTL")
	env.duration(&cfg.Downloads.Retention, "CVWIZARD_DOWNLOAD_RETENTION")
	env.str(&cfg.Downloads.CleanupCron, "CVWIZARD_CLEANUP_CRON")

	env.str(&cfg.History.DSN, "CVWIZARD_HISTORY_DSN")
	env.duration(&cfg.History.Retention, "CVWIZARD_HISTORY_RETENTION")
	env.str(&cfg.History.ActivityChannel, "CVWIZARD_ACTIVITY_CHANNEL")

	env.duration(&cfg.Notifications.DismissAfter, "CVWIZARD_NOTIFY_DISMISS_AFTER")
	env.duration(&cfg.Notifications.ExitDuration, "CVWIZARD_NOTIFY_EXIT_DURATION")
	env.boolean(&cfg.Notifications.Ready.Enabled, "CVWIZARD_READY_ENABLED")
	env.list(&cfg.Notifications.Ready.Recipients, "CVWIZARD_READY_RECIPIENTS")
	env.list(&cfg.Notifications.Ready.Channels, "CVWIZARD_READY_CHANNELS")
	env.str(&cfg.Notifications.Ready.Locale, "CVWIZARD_READY_LOCALE")
	env.str(&cfg.Notifications.Ready.SMTPHost, "CVWIZARD_SMTP_HOST")
	env.integer(&cfg.Notifications.Ready.SMTPPort, "CVWIZARD_SMTP_PORT")
	env.str(&cfg.Notifications.Ready.SMTPFrom, "CVWIZARD_SMTP_FROM")
	env.str(&cfg.Notifications.Ready.SMTPUser, "CVWIZARD_SMTP_USER")
	env.str(&cfg.Notifications.Ready.SMTPPassword, "CVWIZARD_SMTP_PASSWORD")
	env.boolean(&cfg.Notifications.Ready.SMTPStartTLS, "CVWIZARD_SMTP_STARTTLS")

	env.str(&cfg.Batch.File, "CVWIZARD_BATCH_FILE")
	env.str(&cfg.Batch.Cron, "CVWIZARD_BATCH_CRON")
	env.integer(&cfg.Batch.MaxRequests, "CVWIZARD_BATCH_MAX_REQUESTS")
	env.duration(&cfg.Batch.MinInterval, "CVWIZARD_BATCH_MIN_INTERVAL")
	env.boolean(&cfg.Batch.Async, "CVWIZARD_BATCH_ASYNC")

	return env.err
}

type envReader struct {
	lookup LookupFunc
	err    error
}

func (r *envReader) value(keys ...string) (string, string, bool) {
	if r.err != nil || r.lookup == nil {
		return "", "", false
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if v, ok := r.lookup(keys[i]); ok && strings.TrimSpace(v) != "" {
			return keys[i], strings.TrimSpace(v), true
		}
	}
	return "", "", false
}

func (r *envReader) fail(key, raw string, err error) {
	r.err = errors.Wrap(err, errors.CategoryValidation, "invalid value "+strconv.Quote(raw)+" for "+key).
		WithTextCode("ENV_INVALID")
}

func (r *envReader) str(dst *string, keys ...string) {
	if _, v, ok := r.value(keys...); ok {
		*dst = v
	}
}

func (r *envReader) list(dst *[]string, keys ...string) {
	if _, v, ok := r.value(keys...); ok {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
	}
}

func (r *envReader) boolean(dst *bool, keys ...string) {
	key, v, ok := r.value(keys...)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) integer(dst *int, keys ...string) {
	key, v, ok := r.value(keys...)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) int64(dst *int64, keys ...string) {
	key, v, ok := r.value(keys...)
	if !ok {
		return
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) float(dst *float64, keys ...string) {
	key, v, ok := r.value(keys...)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = parsed
}

func (r *envReader) duration(dst *time.Duration, keys ...string) {
	key, v, ok := r.value(keys...)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = parsed
}

// LoadSeedProfile reads a YAML profile used to prefill the wizard.
func LoadSeedProfile(path string) (cv.Profile, error) {
	if strings.TrimSpace(path) == "" {
		return cv.Profile{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return cv.Profile{}, errors.Wrap(err, errors.CategoryExternal, "read seed profile failed").
			WithTextCode("SEED_PROFILE_READ")
	}
	var profile cv.Profile
	if err := yaml.Unmarshal(content, &profile); err != nil {
		return cv.Profile{}, errors.Wrap(err, errors.CategoryValidation, "seed profile invalid").
			WithTextCode("SEED_PROFILE_INVALID")
	}
	return profile, nil
}
