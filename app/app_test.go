package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/config"
	"github.com/goliatone/go-cvwizard/cv"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.PDF.Enabled = false
	cfg.Downloads.Dir = filepath.Join(t.TempDir(), "downloads")
	cfg.Downloads.Secret = "secret"
	cfg.Batch.Cron = ""
	return cfg
}

func newApp(t *testing.T, cfg config.Config) (*App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	a, err := New(context.Background(), cfg, zap.New(core))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, logs
}

func TestNew_WiresSessionAndExport(t *testing.T) {
	a, logs := newApp(t, testConfig(t))

	if _, ok := a.Exporters[cv.FormatPDF]; ok {
		t.Fatalf("expected pdf exporter to be disabled")
	}
	if logs.FilterMessage("cv wizard ready").Len() != 1 {
		t.Fatalf("expected startup log")
	}

	if err := a.Session.Store().SetField(cv.SectionPersonal, cv.FieldName, "Ada Lovelace"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	outcome, err := a.Session.Export(context.Background(), cv.FormatHTML)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(outcome.Location, "/api/cv/downloads/") || !strings.Contains(outcome.Location, "sig=") {
		t.Fatalf("expected signed download location, got %q", outcome.Location)
	}

	records, err := a.History.List(context.Background(), cv.HistoryFilter{SessionID: a.Session.ID()})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || records[0].Status != cv.ExportStatusSucceeded {
		t.Fatalf("unexpected history %+v", records)
	}
}

func TestNew_SQLiteHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.DSN = "file:" + filepath.Join(t.TempDir(), "history.db")
	cfg.History.Retention = 0
	a, _ := newApp(t, cfg)

	if _, err := a.Session.Export(context.Background(), cv.FormatXLSX); err != nil {
		t.Fatalf("export xlsx: %v", err)
	}
	records, err := a.History.List(context.Background(), cv.HistoryFilter{Format: cv.FormatXLSX})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one xlsx record, got %+v", records)
	}
}

func TestNew_ActivityChannelLogsExports(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.ActivityChannel = "cv"
	a, logs := newApp(t, cfg)

	if _, err := a.Session.Export(context.Background(), cv.FormatHTML); err != nil {
		t.Fatalf("export: %v", err)
	}
	if logs.FilterMessage("activity").Len() != 1 {
		t.Fatalf("expected one activity log entry, got %d", logs.FilterMessage("activity").Len())
	}
}

func TestNew_ShowGeneratedStampsHTML(t *testing.T) {
	cfg := testConfig(t)
	plain, _ := newApp(t, cfg)
	outcome, err := plain.Session.Export(context.Background(), cv.FormatHTML)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(string(outcome.Artifact.Data), "<footer>Generated") {
		t.Fatalf("generated footer should be opt-in")
	}

	cfg = testConfig(t)
	cfg.Export.ShowGenerated = true
	stamped, _ := newApp(t, cfg)
	outcome, err = stamped.Session.Export(context.Background(), cv.FormatHTML)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(outcome.Artifact.Data), "<footer>Generated") {
		t.Fatalf("expected generated footer")
	}
}

func TestScheduler_RunsBatchSynchronously(t *testing.T) {
	a, _ := newApp(t, testConfig(t))

	id, err := a.Scheduler.RequestBatch(context.Background(), []cvcmd.BatchRequest{{
		Profile: cv.Profile{Personal: cv.Personal{Name: "Grace Hopper"}},
		Formats: []cv.Format{cv.FormatHTML, cv.FormatSQLite},
	}})
	if err != nil {
		t.Fatalf("request batch: %v", err)
	}
	if id == "" {
		t.Fatalf("expected batch id")
	}

	records, err := a.History.List(context.Background(), cv.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two batch exports, got %+v", records)
	}
	for _, rec := range records {
		if rec.SessionID == a.Session.ID() {
			t.Fatalf("batch exports must not use the interactive session")
		}
		if !strings.HasPrefix(rec.Filename, "Grace_Hopper_CV.") {
			t.Fatalf("unexpected filename %q", rec.Filename)
		}
	}
}

func TestStartSchedules(t *testing.T) {
	a, _ := newApp(t, testConfig(t))
	if err := a.StartSchedules(); err != nil {
		t.Fatalf("start schedules: %v", err)
	}
	if err := a.StartSchedules(); err != nil {
		t.Fatalf("second start should be a no-op: %v", err)
	}

	cfg := testConfig(t)
	cfg.Downloads.CleanupCron = "every tuesday"
	bad, _ := newApp(t, cfg)
	if err := bad.StartSchedules(); !cv.IsKind(err, cv.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCleanupRemovesExpiredDownloads(t *testing.T) {
	cfg := testConfig(t)
	cfg.Downloads.Retention = 0
	a, _ := newApp(t, cfg)

	if _, err := a.Session.Export(context.Background(), cv.FormatHTML); err != nil {
		t.Fatalf("export: %v", err)
	}
	var removed int
	if err := a.Cleanup.Execute(context.Background(), cvcmd.CleanupDownloads{Result: &removed}); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one download removed, got %d", removed)
	}
	entries, _ := os.ReadDir(filepath.Join(cfg.Downloads.Dir, "downloads"))
	for _, entry := range entries {
		nested, _ := os.ReadDir(filepath.Join(cfg.Downloads.Dir, "downloads", entry.Name()))
		for _, file := range nested {
			if !strings.HasSuffix(file.Name(), ".json") {
				t.Fatalf("expected artifact removed, found %s", file.Name())
			}
		}
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LogConfig{Level: "debug", Development: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("expected debug enabled")
	}
	if _, err := NewLogger(config.LogConfig{Level: "loud"}); !cv.IsKind(err, cv.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
