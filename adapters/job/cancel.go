package cvjob

import (
	"context"
	"sync"

	"github.com/goliatone/go-cvwizard/cv"
)

// CancelRegistry tracks running batch jobs for cancellation.
type CancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewCancelRegistry creates a new registry for job cancellation.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

// Register associates a cancel func with a batch request ID.
func (r *CancelRegistry) Register(requestID string, cancel context.CancelFunc) func() {
	if r == nil || requestID == "" || cancel == nil {
		return func() {}
	}
	r.mu.Lock()
	r.cancels[requestID] = cancel
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.cancels, requestID)
		r.mu.Unlock()
	}
}

// Running reports whether a batch with the given ID is executing.
func (r *CancelRegistry) Running(requestID string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[requestID]
	return ok
}

// Cancel triggers context cancellation for a running batch.
func (r *CancelRegistry) Cancel(requestID string) error {
	if r == nil {
		return cv.NewError(cv.KindInternal, "cancel registry is nil", nil)
	}
	if requestID == "" {
		return cv.NewError(cv.KindValidation, "request ID is required", nil)
	}

	r.mu.Lock()
	cancel, ok := r.cancels[requestID]
	r.mu.Unlock()
	if !ok {
		return cv.NewError(cv.KindNotFound, "batch not running", nil)
	}
	cancel()
	return nil
}
