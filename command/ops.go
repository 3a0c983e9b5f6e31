package command

import (
	"context"
	"os"
	"strings"
	"time"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cvwizard/cv"
)

// BatchRequest describes one profile to export in a batch run.
type BatchRequest struct {
	Profile  cv.Profile  `json:"profile" yaml:"profile"`
	Formats  []cv.Format `json:"formats" yaml:"formats"`
	Template string      `json:"template,omitempty" yaml:"template,omitempty"`
}

// FormatList returns the requested formats, defaulting to pdf.
func (r BatchRequest) FormatList() []cv.Format {
	if len(r.Formats) == 0 {
		return []cv.Format{cv.FormatPDF}
	}
	return r.Formats
}

// BatchLoader loads batch requests from a source.
type BatchLoader func(ctx context.Context) ([]BatchRequest, error)

// SessionFactory builds a session seeded with a profile.
type SessionFactory func(seed cv.Profile) (*cv.Session, error)

// BatchCommand exports many profiles through CLI or cron.
type BatchCommand struct {
	factory    SessionFactory
	loader     BatchLoader
	cliConfig  gcmd.CLIConfig
	cronConfig gcmd.HandlerConfig
	limits     BatchLimits
	sleep      func(time.Duration)
}

// BatchOption customizes batch commands.
type BatchOption func(*BatchCommand)

// BatchLimits bounds batch execution throughput.
type BatchLimits struct {
	MaxRequests int
	MinInterval time.Duration
}

// WithBatchCLIConfig overrides CLI configuration.
func WithBatchCLIConfig(cfg gcmd.CLIConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cliConfig = cfg
	}
}

// WithBatchCronConfig overrides cron configuration.
func WithBatchCronConfig(cfg gcmd.HandlerConfig) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.cronConfig = cfg
	}
}

// WithBatchLimits overrides batch execution limits.
func WithBatchLimits(limits BatchLimits) BatchOption {
	return func(cmd *BatchCommand) {
		cmd.limits = limits
	}
}

// NewBatchExportCommand creates a batch export CLI/Cron command.
func NewBatchExportCommand(factory SessionFactory, loader BatchLoader, opts ...BatchOption) *BatchCommand {
	cmd := &BatchCommand{
		factory: factory,
		loader:  loader,
		cliConfig: gcmd.CLIConfig{
			Path:        []string{"cv-batch-export"},
			Description: "Export a batch of CV profiles",
			Group:       "cv",
		},
		cronConfig: gcmd.HandlerConfig{Expression: "0 0 * * *"},
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cmd)
		}
	}
	return cmd
}

// Run exports every request from the given file, or from the loader when
// from is empty. It returns the number of documents exported.
func (c *BatchCommand) Run(ctx context.Context, from string) (int, error) {
	return c.run(ctx, from)
}

// Limits returns the configured execution limits.
func (c *BatchCommand) Limits() BatchLimits {
	if c == nil {
		return BatchLimits{}
	}
	return c.limits
}

// CronHandler executes scheduled batch exports.
func (c *BatchCommand) CronHandler() func() error {
	return func() error {
		_, err := c.run(context.Background(), "")
		return err
	}
}

// CronOptions returns cron configuration.
func (c *BatchCommand) CronOptions() gcmd.HandlerConfig {
	if c == nil {
		return gcmd.HandlerConfig{}
	}
	return c.cronConfig
}

// CLIHandler exposes the CLI handler.
func (c *BatchCommand) CLIHandler() any {
	return &batchCLI{cmd: c}
}

// CLIOptions returns CLI configuration.
func (c *BatchCommand) CLIOptions() gcmd.CLIConfig {
	if c == nil {
		return gcmd.CLIConfig{}
	}
	return c.cliConfig
}

func (c *BatchCommand) run(ctx context.Context, from string) (int, error) {
	if c == nil {
		return 0, errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	if c.factory == nil {
		return 0, errors.New("session factory is required", errors.CategoryValidation).
			WithTextCode("SESSION_FACTORY_REQUIRED")
	}

	requests, err := c.loadRequests(ctx, from)
	if err != nil {
		return 0, err
	}
	return c.exportAll(ctx, requests)
}

// Export runs the given requests directly, bypassing the loader.
func (c *BatchCommand) Export(ctx context.Context, requests []BatchRequest) (int, error) {
	if c == nil {
		return 0, errors.New("batch command is nil", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	if c.factory == nil {
		return 0, errors.New("session factory is required", errors.CategoryValidation).
			WithTextCode("SESSION_FACTORY_REQUIRED")
	}
	return c.exportAll(ctx, requests)
}

func (c *BatchCommand) exportAll(ctx context.Context, requests []BatchRequest) (int, error) {
	count := 0
	for i, item := range requests {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if c.limits.MaxRequests > 0 && i >= c.limits.MaxRequests {
			break
		}
		session, err := c.factory(item.Profile)
		if err != nil {
			return count, err
		}
		if item.Template != "" {
			if err := session.SelectTemplate(item.Template); err != nil {
				return count, err
			}
		}
		for _, format := range item.FormatList() {
			if _, err := session.Export(ctx, format); err != nil {
				return count, err
			}
			count++
		}
		if c.limits.MinInterval > 0 && c.sleep != nil {
			c.sleep(c.limits.MinInterval)
		}
	}
	return count, nil
}

func (c *BatchCommand) loadRequests(ctx context.Context, from string) ([]BatchRequest, error) {
	if strings.TrimSpace(from) != "" {
		return LoadBatchRequests(from)
	}
	if c.loader == nil {
		return nil, errors.New("batch loader not configured", errors.CategoryValidation).
			WithTextCode("LOADER_REQUIRED")
	}
	return c.loader(ctx)
}

type batchCLI struct {
	cmd  *BatchCommand
	From string `kong:"name='from',help='Path to a YAML or JSON list of profiles'"`
}

func (c *batchCLI) Run() error {
	if c == nil || c.cmd == nil {
		return errors.New("batch command is required", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL")
	}
	_, err := c.cmd.run(context.Background(), c.From)
	return err
}

// LoadBatchRequests reads a YAML (or JSON) list of batch requests.
func LoadBatchRequests(path string) ([]BatchRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read batch file failed").
			WithTextCode("BATCH_FILE_READ")
	}

	var requests []BatchRequest
	if err := yaml.Unmarshal(content, &requests); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "batch file invalid").
			WithTextCode("BATCH_FILE_INVALID")
	}
	return requests, nil
}

// CLIHandler exposes cleanup via CLI.
func (h *CleanupDownloadsHandler) CLIHandler() any {
	return &cleanupCLI{handler: h}
}

// CLIOptions describes cleanup CLI metadata.
func (h *CleanupDownloadsHandler) CLIOptions() gcmd.CLIConfig {
	return gcmd.CLIConfig{
		Path:        []string{"cv-downloads-cleanup"},
		Description: "Remove expired CV downloads",
		Group:       "cv",
	}
}

type cleanupCLI struct {
	handler *CleanupDownloadsHandler
}

func (c *cleanupCLI) Run() error {
	if c == nil || c.handler == nil {
		return errors.New("cleanup handler is required", errors.CategoryInternal).
			WithTextCode("CLEANUP_HANDLER_REQUIRED")
	}
	return c.handler.Execute(context.Background(), CleanupDownloads{})
}
