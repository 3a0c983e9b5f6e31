package notify

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, rec *Recorder, id string, phase Phase, timeout time.Duration) Event {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if evt, ok := rec.Last(id); ok && evt.Phase == phase {
			return evt
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("notification %s did not reach %s within %s", id, phase, timeout)
	return Event{}
}

func phasesFor(events []Event, id string) []Phase {
	var phases []Phase
	for _, evt := range events {
		if evt.Notification.ID == id {
			phases = append(phases, evt.Phase)
		}
	}
	return phases
}

func TestChannel_ConcurrentNotificationsAreIndependent(t *testing.T) {
	rec := NewRecorder(0)
	ch := NewChannel(Config{
		DismissAfter: 30 * time.Millisecond,
		ExitDuration: 10 * time.Millisecond,
		Sinks:        []Sink{rec},
	})
	defer ch.Close()

	var wg sync.WaitGroup
	results := make([]Notification, 2)
	for i, severity := range []Severity{SeverityError, SeveritySuccess} {
		wg.Add(1)
		go func(i int, severity Severity) {
			defer wg.Done()
			results[i] = ch.Notify("message", severity)
		}(i, severity)
	}
	wg.Wait()

	for _, n := range results {
		waitFor(t, rec, n.ID, PhaseRemoved, time.Second)
	}

	events := rec.Snapshot()
	for _, n := range results {
		got := phasesFor(events, n.ID)
		want := []Phase{PhaseVisible, PhaseExiting, PhaseRemoved}
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", n.Severity, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", n.Severity, want, got)
			}
		}
	}
	if results[0].Severity != SeverityError || results[1].Severity != SeveritySuccess {
		t.Fatalf("severities were not preserved: %+v", results)
	}
	if len(ch.Active()) != 0 {
		t.Fatalf("expected no active notifications")
	}
}

func TestChannel_DismissDoesNotAffectOthers(t *testing.T) {
	rec := NewRecorder(0)
	ch := NewChannel(Config{
		DismissAfter: 80 * time.Millisecond,
		ExitDuration: 5 * time.Millisecond,
		Sinks:        []Sink{rec},
	})
	defer ch.Close()

	first := ch.Notify("first", SeverityInfo)
	second := ch.Notify("second", SeverityWarning)

	if !ch.Dismiss(first.ID) {
		t.Fatalf("expected dismiss to start exit")
	}
	if ch.Dismiss(first.ID) {
		t.Fatalf("second dismiss must be a no-op")
	}
	waitFor(t, rec, first.ID, PhaseRemoved, time.Second)

	if evt, _ := rec.Last(second.ID); evt.Phase != PhaseVisible {
		t.Fatalf("second notification changed early: %s", evt.Phase)
	}
	active := ch.Active()
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("expected only the second notification active, got %+v", active)
	}

	removed := waitFor(t, rec, second.ID, PhaseRemoved, time.Second)
	if elapsed := removed.At.Sub(second.CreatedAt); elapsed < 80*time.Millisecond {
		t.Fatalf("second notification dismissed after %s, before its own timer", elapsed)
	}
}

func TestChannel_DefaultsAndSeverity(t *testing.T) {
	ch := NewChannel(Config{IDGenerator: func() string { return "fixed" }})
	defer ch.Close()

	if ch.dismissAfter != DefaultDismissAfter || ch.exitDuration != DefaultExitDuration {
		t.Fatalf("unexpected defaults %s/%s", ch.dismissAfter, ch.exitDuration)
	}
	n := ch.Notify("hello", "")
	if n.Severity != SeverityInfo || n.ID != "fixed" || n.Phase != PhaseVisible {
		t.Fatalf("unexpected notification %+v", n)
	}
	if Severity("loud").Normalize() != SeverityInfo {
		t.Fatalf("unknown severity must default to info")
	}
}

func TestChannel_CloseStopsTimers(t *testing.T) {
	rec := NewRecorder(0)
	ch := NewChannel(Config{DismissAfter: 10 * time.Millisecond, Sinks: []Sink{rec}})
	n := ch.Notify("bye", SeverityInfo)
	if err := ch.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if got := phasesFor(rec.Snapshot(), n.ID); len(got) != 1 {
		t.Fatalf("expected only the visible event after close, got %v", got)
	}
	if after := ch.Notify("late", SeverityInfo); after.Phase != PhaseRemoved {
		t.Fatalf("notify after close must not schedule, got %+v", after)
	}
}

func TestChannel_SinkMayCallBack(t *testing.T) {
	var ch *Channel
	rec := NewRecorder(8)
	ch = NewChannel(Config{
		DismissAfter: time.Hour,
		ExitDuration: time.Millisecond,
		Sinks: []Sink{rec, SinkFunc(func(evt Event) {
			if evt.Phase == PhaseVisible {
				_ = ch.Active()
			}
		})},
	})
	defer ch.Close()

	n := ch.Notify("reentrant", SeverityInfo)
	ch.Dismiss(n.ID)
	waitFor(t, rec, n.ID, PhaseRemoved, time.Second)
}

type captureLogger struct {
	infos, errors int
}

func (l *captureLogger) Infof(string, ...any)  { l.infos++ }
func (l *captureLogger) Errorf(string, ...any) { l.errors++ }

func TestLogSink(t *testing.T) {
	logger := &captureLogger{}
	sink := LogSink{Logger: logger}
	sink.Publish(Event{Notification: Notification{Severity: SeverityError}, Phase: PhaseVisible})
	sink.Publish(Event{Notification: Notification{Severity: SeverityError}, Phase: PhaseRemoved})
	sink.Publish(Event{Notification: Notification{Severity: SeverityInfo}, Phase: PhaseVisible})
	if logger.errors != 1 || logger.infos != 2 {
		t.Fatalf("unexpected log counts %+v", logger)
	}
	LogSink{}.Publish(Event{})
}
