package cvjob

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"

	errorslib "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"

	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/cv"
)

const (
	DefaultBatchTaskID   = "cv:batch-export"
	DefaultBatchTaskPath = "cv:batch-export"
)

var (
	backoffRand   = rand.New(rand.NewSource(time.Now().UnixNano()))
	backoffRandMu sync.Mutex
)

// Payload captures the job execution input.
type Payload struct {
	RequestID string               `json:"request_id"`
	Requests  []cvcmd.BatchRequest `json:"requests"`
}

// BatchExporter runs batch requests. *command.BatchCommand satisfies it.
type BatchExporter interface {
	Export(ctx context.Context, requests []cvcmd.BatchRequest) (int, error)
}

// limited is implemented by exporters that carry their own request cap.
type limited interface {
	Limits() cvcmd.BatchLimits
}

// Result summarizes a finished batch job.
type Result struct {
	RequestID string
	Exported  int
	// Failed counts the failing export and every export skipped after it.
	Failed int
	// Skipped counts requests dropped by the request cap.
	Skipped int
	Err     error
}

// TaskConfig configures the batch export task.
type TaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	RetryPolicy    RetryPolicy
	CancelRegistry *CancelRegistry
	Exporter       BatchExporter
	// MaxRequests caps requests per job. Zero falls back to the exporter's
	// own limits when it exposes them.
	MaxRequests int
	// Loader feeds the non-queue handler, e.g. a cron trigger.
	Loader     cvcmd.BatchLoader
	OnComplete func(Result)
	Logger     cv.Logger
}

// BatchTask executes batch export jobs.
type BatchTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	retryPolicy    RetryPolicy
	cancelRegistry *CancelRegistry
	exporter       BatchExporter
	maxRequests    int
	loader         cvcmd.BatchLoader
	onComplete     func(Result)
	logger         cv.Logger
}

var _ job.Task = (*BatchTask)(nil)

// NewBatchTask creates a new batch export task.
func NewBatchTask(cfg TaskConfig) *BatchTask {
	logger := cfg.Logger
	if logger == nil {
		logger = cv.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = DefaultBatchTaskID
	}
	path := cfg.Path
	if path == "" {
		path = DefaultBatchTaskPath
	}

	return &BatchTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		retryPolicy:    cfg.RetryPolicy,
		cancelRegistry: cfg.CancelRegistry,
		exporter:       cfg.Exporter,
		maxRequests:    cfg.MaxRequests,
		loader:         cfg.Loader,
		onComplete:     cfg.OnComplete,
		logger:         logger,
	}
}

// GetID returns the task identifier.
func (t *BatchTask) GetID() string { return t.id }

// GetHandler returns a handler for non-queue execution paths.
func (t *BatchTask) GetHandler() func() error {
	return func() error {
		if t == nil {
			return cv.NewError(cv.KindInternal, "task is nil", nil)
		}
		if t.loader == nil {
			return cv.NewError(cv.KindNotImpl, "batch loader not configured", nil)
		}

		ctx := context.Background()
		requests, err := t.loader(ctx)
		if err != nil {
			return err
		}
		if len(requests) == 0 {
			return nil
		}
		encoded, err := encodePayload(Payload{RequestID: t.id, Requests: requests})
		if err != nil {
			return err
		}
		return t.Execute(ctx, &job.ExecutionMessage{
			JobID:      t.id,
			ScriptPath: t.path,
			Parameters: map[string]any{"payload": encoded},
		})
	}
}

// GetHandlerConfig returns scheduler options for the task.
func (t *BatchTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

// GetConfig returns task config defaults.
func (t *BatchTask) GetConfig() job.Config { return t.config }

// GetPath returns the task path.
func (t *BatchTask) GetPath() string { return t.path }

// GetEngine returns nil because this task is code-driven.
func (t *BatchTask) GetEngine() job.Engine { return nil }

// Execute exports every format of every request in the payload. Each format
// is exported and retried on its own, so a retry never repeats a finished
// export. The first export that fails for good stops the batch.
func (t *BatchTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if t == nil {
		return cv.NewError(cv.KindInternal, "task is nil", nil)
	}
	if t.exporter == nil {
		return cv.NewError(cv.KindNotImpl, "batch exporter not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}
	if payload.RequestID == "" {
		return cv.NewError(cv.KindValidation, "request ID is required", nil)
	}

	execCtx := ctx
	if t.cancelRegistry != nil {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithCancel(ctx)
		defer cancel()
		release := t.cancelRegistry.Register(payload.RequestID, cancel)
		defer release()
	}

	result := Result{RequestID: payload.RequestID}
	requests := payload.Requests
	if limit := t.requestLimit(); limit > 0 && len(requests) > limit {
		result.Skipped = len(requests) - limit
		requests = requests[:limit]
		t.logger.Infof("batch %s capped at %d requests, %d skipped", result.RequestID, limit, result.Skipped)
	}

	units := splitByFormat(requests)
	for i, unit := range units {
		exported, err := t.exportWithRetry(execCtx, unit)
		result.Exported += exported
		if err != nil {
			result.Failed = len(units) - i
			result.Err = err
			break
		}
	}

	if result.Err != nil {
		t.logger.Errorf("batch %s failed after %d exports: %v", result.RequestID, result.Exported, result.Err)
	} else {
		t.logger.Infof("batch %s exported %d documents", result.RequestID, result.Exported)
	}
	if t.onComplete != nil {
		t.onComplete(result)
	}
	return result.Err
}

func (t *BatchTask) requestLimit() int {
	if t.maxRequests > 0 {
		return t.maxRequests
	}
	if l, ok := t.exporter.(limited); ok {
		return l.Limits().MaxRequests
	}
	return 0
}

// splitByFormat turns each request into one single-format request per format.
func splitByFormat(requests []cvcmd.BatchRequest) []cvcmd.BatchRequest {
	units := make([]cvcmd.BatchRequest, 0, len(requests))
	for _, req := range requests {
		for _, format := range req.FormatList() {
			units = append(units, cvcmd.BatchRequest{
				Profile:  req.Profile,
				Formats:  []cv.Format{format},
				Template: req.Template,
			})
		}
	}
	return units
}

func (t *BatchTask) exportWithRetry(ctx context.Context, unit cvcmd.BatchRequest) (int, error) {
	policy := t.retryPolicy
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		exported, err := t.exporter.Export(ctx, []cvcmd.BatchRequest{unit})
		if err == nil {
			return exported, nil
		}
		if !policy.shouldRetry(err) || attempt >= policy.MaxRetries {
			return exported, err
		}

		attempt++
		t.logger.Debugf("batch export retry %d for %s (%s): %v", attempt, unit.Profile.Personal.Name, unit.Formats[0], err)
		if serr := sleepWithContext(ctx, policy.backoffDelay(attempt)); serr != nil {
			return exported, serr
		}
	}
}

func encodePayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, cv.NewError(cv.KindValidation, "payload is not serializable", err)
	}
	return json.RawMessage(raw), nil
}

func decodePayload(msg *job.ExecutionMessage) (Payload, error) {
	if msg == nil || msg.Parameters == nil {
		return Payload{}, cv.NewError(cv.KindValidation, "job payload is required", nil)
	}

	raw, ok := msg.Parameters["payload"]
	if !ok {
		return Payload{}, cv.NewError(cv.KindValidation, "job payload missing", nil)
	}

	switch value := raw.(type) {
	case Payload:
		return value, nil
	case *Payload:
		if value == nil {
			return Payload{}, cv.NewError(cv.KindValidation, "job payload is nil", nil)
		}
		return *value, nil
	case json.RawMessage:
		return unmarshalPayload(value)
	case []byte:
		return unmarshalPayload(value)
	case string:
		return unmarshalPayload([]byte(value))
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return Payload{}, cv.NewError(cv.KindValidation, "job payload is invalid", err)
		}
		return unmarshalPayload(data)
	}
}

func unmarshalPayload(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, cv.NewError(cv.KindValidation, "job payload is empty", nil)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, cv.NewError(cv.KindValidation, "job payload is invalid", err)
	}
	return payload, nil
}

// RetryPolicy determines retry behavior for retryable errors.
type RetryPolicy struct {
	MaxRetries int
	Backoff    job.BackoffConfig
	Retryable  func(error) bool
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if err == nil || p.MaxRetries <= 0 {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return defaultRetryable(err)
}

func (p RetryPolicy) backoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return computeBackoffDelay(attempt, p.Backoff)
}

func defaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errorslib.IsRetryableError(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	// Classify by the innermost cause: an export error wrapping a validation
	// or not-found error is permanent.
	root := cv.RootError(err)
	if root == nil {
		return false
	}
	switch root.Kind {
	case cv.KindTimeout:
		return true
	case cv.KindExport:
		// Only export errors with a foreign cause, such as a crashed browser
		// or converter process, are transient.
		return root.Err != nil
	}
	return false
}

func computeBackoffDelay(attempt int, cfg job.BackoffConfig) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	maxInterval := cfg.MaxInterval
	if maxInterval <= 0 {
		maxInterval = 5 * time.Second
	}

	switch cfg.Strategy {
	case job.BackoffFixed:
		return applyJitter(interval, cfg.Jitter)
	case job.BackoffExponential:
		delay := interval
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay > maxInterval {
				delay = maxInterval
				break
			}
		}
		return applyJitter(delay, cfg.Jitter)
	default:
		return 0
	}
}

func applyJitter(delay time.Duration, jitter bool) time.Duration {
	if !jitter || delay <= 0 {
		return delay
	}
	// +/-50% jitter
	half := float64(delay) * 0.5
	backoffRandMu.Lock()
	offset := (backoffRand.Float64()*2 - 1) * half
	backoffRandMu.Unlock()
	jittered := float64(delay) + offset
	if jittered < 0 {
		return 0
	}
	return time.Duration(jittered)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
