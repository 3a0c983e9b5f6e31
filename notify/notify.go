package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDismissAfter is how long a notification stays visible.
const DefaultDismissAfter = 3000 * time.Millisecond

// DefaultExitDuration is the length of the exit transition before removal.
const DefaultExitDuration = 300 * time.Millisecond

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Normalize returns the severity, defaulting unknown values to info.
func (s Severity) Normalize() Severity {
	switch s {
	case SeveritySuccess, SeverityWarning, SeverityError:
		return s
	default:
		return SeverityInfo
	}
}

// Phase is the lifecycle position of a notification.
type Phase string

const (
	PhaseVisible Phase = "visible"
	PhaseExiting Phase = "exiting"
	PhaseRemoved Phase = "removed"
)

// Notification is a transient user-feedback message.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// Event reports a lifecycle transition.
type Event struct {
	Notification Notification
	Phase        Phase
	At           time.Time
}

// Sink receives lifecycle events. Publish is called outside the channel lock,
// so sinks may call back into the channel.
type Sink interface {
	Publish(evt Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(evt Event)

func (f SinkFunc) Publish(evt Event) {
	if f != nil {
		f(evt)
	}
}

// Notifier is the fire-and-forget surface used by session code.
type Notifier interface {
	Notify(message string, severity Severity) Notification
}

// Config configures a Channel.
type Config struct {
	DismissAfter time.Duration
	ExitDuration time.Duration
	Sinks        []Sink
	Now          func() time.Time
	IDGenerator  func() string
}

// Channel runs one independent dismiss timer per notification.
type Channel struct {
	dismissAfter time.Duration
	exitDuration time.Duration
	sinks        []Sink
	now          func() time.Time
	newID        func() string

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	closed  bool
}

type entry struct {
	notification Notification
	timer        *time.Timer
}

var _ Notifier = (*Channel)(nil)

// NewChannel creates a notification channel.
func NewChannel(cfg Config) *Channel {
	dismiss := cfg.DismissAfter
	if dismiss <= 0 {
		dismiss = DefaultDismissAfter
	}
	exit := cfg.ExitDuration
	if exit < 0 {
		exit = 0
	} else if exit == 0 {
		exit = DefaultExitDuration
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.IDGenerator
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Channel{
		dismissAfter: dismiss,
		exitDuration: exit,
		sinks:        append([]Sink(nil), cfg.Sinks...),
		now:          now,
		newID:        newID,
		entries:      make(map[string]*entry),
	}
}

// AddSink registers an additional sink.
func (c *Channel) AddSink(sink Sink) {
	if sink == nil {
		return
	}
	c.mu.Lock()
	c.sinks = append(c.sinks, sink)
	c.mu.Unlock()
}

// Notify shows a notification and schedules its dismissal. It never blocks on
// other notifications.
func (c *Channel) Notify(message string, severity Severity) Notification {
	n := Notification{
		ID:        c.newID(),
		Message:   message,
		Severity:  severity.Normalize(),
		Phase:     PhaseVisible,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		n.Phase = PhaseRemoved
		return n
	}
	sinks := c.sinksLocked()
	c.mu.Unlock()

	c.publish(sinks, n, PhaseVisible)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return n
	}
	e := &entry{notification: n}
	c.entries[n.ID] = e
	c.order = append(c.order, n.ID)
	e.timer = time.AfterFunc(c.dismissAfter, func() { c.exit(n.ID) })
	return n
}

// Dismiss starts the exit transition of one notification early. It reports
// false when the notification is unknown or already exiting.
func (c *Channel) Dismiss(id string) bool {
	return c.exit(id)
}

func (c *Channel) exit(id string) bool {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok || e.notification.Phase != PhaseVisible {
		c.mu.Unlock()
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.notification.Phase = PhaseExiting
	n := e.notification
	sinks := c.sinksLocked()
	c.mu.Unlock()

	c.publish(sinks, n, PhaseExiting)

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[id]; ok && current == e {
		e.timer = time.AfterFunc(c.exitDuration, func() { c.remove(id) })
	}
	return true
}

func (c *Channel) remove(id string) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.entries, id)
	c.order = removeID(c.order, id)
	e.notification.Phase = PhaseRemoved
	n := e.notification
	sinks := c.sinksLocked()
	c.mu.Unlock()

	c.publish(sinks, n, PhaseRemoved)
}

// Active returns notifications that have not been removed, oldest first.
func (c *Channel) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, 0, len(c.order))
	for _, id := range c.order {
		if e, ok := c.entries[id]; ok {
			out = append(out, e.notification)
		}
	}
	return out
}

// Close stops every pending timer. Notifications still on screen are dropped
// without further events.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.entries, id)
	}
	c.order = nil
	return nil
}

func (c *Channel) sinksLocked() []Sink {
	return append([]Sink(nil), c.sinks...)
}

func (c *Channel) publish(sinks []Sink, n Notification, phase Phase) {
	n.Phase = phase
	evt := Event{Notification: n, Phase: phase, At: c.now()}
	for _, sink := range sinks {
		if sink != nil {
			sink.Publish(evt)
		}
	}
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
