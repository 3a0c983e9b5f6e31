package notify

import "sync"

// Logger is the subset of logging used by LogSink.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// LogSink writes lifecycle transitions to a logger.
type LogSink struct {
	Logger Logger
}

func (s LogSink) Publish(evt Event) {
	if s.Logger == nil {
		return
	}
	n := evt.Notification
	if n.Severity == SeverityError && evt.Phase == PhaseVisible {
		s.Logger.Errorf("notification %s [%s] %s: %s", n.ID, n.Severity, evt.Phase, n.Message)
		return
	}
	s.Logger.Infof("notification %s [%s] %s: %s", n.ID, n.Severity, evt.Phase, n.Message)
}

// Recorder keeps every published event and forwards it to an optional channel.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

// NewRecorder creates a recorder. When buffer is positive, events are also sent
// on Events() without blocking the publisher.
func NewRecorder(buffer int) *Recorder {
	r := &Recorder{}
	if buffer > 0 {
		r.ch = make(chan Event, buffer)
	}
	return r
}

func (r *Recorder) Publish(evt Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	if r.ch != nil {
		select {
		case r.ch <- evt:
		default:
		}
	}
}

// Events returns the forwarding channel, nil when unbuffered.
func (r *Recorder) Events() <-chan Event {
	return r.ch
}

// Snapshot returns the recorded events in publish order.
func (r *Recorder) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event for a notification id.
func (r *Recorder) Last(id string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Notification.ID == id {
			return r.events[i], true
		}
	}
	return Event{}, false
}
