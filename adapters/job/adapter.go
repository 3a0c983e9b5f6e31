package cvjob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"

	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/cv"
	job "github.com/goliatone/go-job"
)

// Enqueuer delivers execution messages to go-job.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *job.ExecutionMessage) error
}

// EnqueuerFunc adapts a function to an Enqueuer.
type EnqueuerFunc func(ctx context.Context, msg *job.ExecutionMessage) error

func (f EnqueuerFunc) Enqueue(ctx context.Context, msg *job.ExecutionMessage) error {
	if f == nil {
		return cv.NewError(cv.KindInternal, "enqueuer is nil", nil)
	}
	return f(ctx, msg)
}

// Config configures the batch export scheduler.
type Config struct {
	Enqueuer Enqueuer
	TaskID   string
	TaskPath string
	// Dedupe derives an idempotency key from the request content so repeated
	// submissions merge into one job.
	Dedupe bool
	NewID  func() string
	Logger cv.Logger
}

// Scheduler enqueues batch export jobs.
type Scheduler struct {
	enqueuer Enqueuer
	taskID   string
	taskPath string
	dedupe   bool
	newID    func() string
	logger   cv.Logger
}

// NewScheduler creates a new job scheduler adapter.
func NewScheduler(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = cv.NopLogger{}
	}
	taskID := cfg.TaskID
	if taskID == "" {
		taskID = DefaultBatchTaskID
	}
	taskPath := cfg.TaskPath
	if taskPath == "" {
		taskPath = DefaultBatchTaskPath
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Scheduler{
		enqueuer: cfg.Enqueuer,
		taskID:   taskID,
		taskPath: taskPath,
		dedupe:   cfg.Dedupe,
		newID:    newID,
		logger:   logger,
	}
}

// RequestBatch enqueues the requests for asynchronous export and returns the
// batch request ID.
func (s *Scheduler) RequestBatch(ctx context.Context, requests []cvcmd.BatchRequest) (string, error) {
	if s == nil {
		return "", cv.NewError(cv.KindInternal, "scheduler is nil", nil)
	}
	if s.enqueuer == nil {
		return "", cv.NewError(cv.KindNotImpl, "job enqueuer not configured", nil)
	}
	if len(requests) == 0 {
		return "", cv.NewError(cv.KindValidation, "at least one batch request is required", nil)
	}

	payload := Payload{
		RequestID: s.newID(),
		Requests:  requests,
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return "", err
	}

	msg := &job.ExecutionMessage{
		JobID:      s.taskID,
		ScriptPath: s.taskPath,
		Parameters: map[string]any{"payload": encoded},
	}
	if s.dedupe {
		key, err := idempotencyKey(requests)
		if err != nil {
			return "", err
		}
		msg.IdempotencyKey = key
		msg.DedupPolicy = job.DedupPolicyMerge
	}

	if err := s.enqueuer.Enqueue(ctx, msg); err != nil {
		s.logger.Errorf("batch %s enqueue failed: %v", payload.RequestID, err)
		return "", err
	}
	s.logger.Infof("batch %s enqueued with %d requests", payload.RequestID, len(requests))
	return payload.RequestID, nil
}

func idempotencyKey(requests []cvcmd.BatchRequest) (string, error) {
	raw, err := json.Marshal(requests)
	if err != nil {
		return "", cv.NewError(cv.KindValidation, "batch requests are not serializable", err)
	}
	sum := sha256.Sum256(raw)
	return "cv:batch:" + hex.EncodeToString(sum[:]), nil
}
