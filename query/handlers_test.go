package query

import (
	"context"
	"errors"
	"testing"

	errorslib "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cvwizard/cv"
)

func newSession(t *testing.T) *cv.Session {
	t.Helper()
	session, err := cv.NewSession(cv.SessionConfig{
		Seed: cv.Profile{Personal: cv.Personal{Name: "Ada Lovelace", Email: "ada@example.com"}},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session
}

func TestCurrentStepHandler(t *testing.T) {
	session := newSession(t)
	session.Wizard().Advance()

	state, err := NewCurrentStepHandler(session).Query(context.Background(), CurrentStep{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if state.Current != 2 || state.Total != cv.DefaultTotalSteps || state.Name != "education" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestProfileSnapshotHandler_ReturnsCopy(t *testing.T) {
	session := newSession(t)
	handler := NewProfileSnapshotHandler(session)

	snap, err := handler.Query(context.Background(), ProfileSnapshot{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	_ = session.Store().SetField(cv.SectionPersonal, cv.FieldName, "Grace Hopper")
	if snap.Personal.Name != "Ada Lovelace" {
		t.Fatalf("snapshot must not observe later edits, got %q", snap.Personal.Name)
	}
}

func TestRenderDocumentHandler(t *testing.T) {
	doc, err := NewRenderDocumentHandler(newSession(t)).Query(context.Background(), RenderDocument{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if doc.PersonalLine() != "Ada Lovelace | ada@example.com" {
		t.Fatalf("unexpected personal line %q", doc.PersonalLine())
	}
}

func TestRenderDocumentHandler_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRenderDocumentHandler(newSession(t)).Query(ctx, RenderDocument{})
	if err == nil {
		t.Fatalf("expected canceled render")
	}
}

func TestExportSettingsHandler(t *testing.T) {
	cfg, err := NewExportSettingsHandler(newSession(t)).Query(context.Background(), ExportSettings{Format: cv.FormatXLSX})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if cfg.Filename != "Ada_Lovelace_CV.xlsx" || cfg.Format != cv.FormatXLSX {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestExportSettings_Validate(t *testing.T) {
	err := ExportSettings{Format: "docx"}.Validate()
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "FORMAT_UNSUPPORTED" {
		t.Fatalf("expected FORMAT_UNSUPPORTED, got %v", err)
	}
}

func TestHandlers_RequireSession(t *testing.T) {
	var handler *CurrentStepHandler
	_, err := handler.Query(context.Background(), CurrentStep{})
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "SESSION_REQUIRED" {
		t.Fatalf("expected SESSION_REQUIRED, got %v", err)
	}
}

func TestExportHistoryHandler(t *testing.T) {
	session := newSession(t)
	records, err := NewExportHistoryHandler(session).Query(context.Background(), ExportHistory{})
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history without store, got %v %v", records, err)
	}

	history := cv.NewMemoryHistory()
	exporter := cv.ExporterFunc(func(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
		return cv.Artifact{Data: []byte("<html></html>")}, nil
	})
	session, err = cv.NewSession(cv.SessionConfig{
		ID:        "s-1",
		Seed:      cv.Profile{Personal: cv.Personal{Name: "Ada Lovelace"}},
		Exporters: map[cv.Format]cv.Exporter{cv.FormatHTML: exporter},
		History:   history,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := history.Record(context.Background(), cv.ExportRecord{SessionID: "other", Format: cv.FormatHTML}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := session.Export(context.Background(), cv.FormatHTML); err != nil {
		t.Fatalf("export: %v", err)
	}
	_, _ = session.Export(context.Background(), cv.FormatPDF)

	records, err = NewExportHistoryHandler(session).Query(context.Background(), ExportHistory{Status: cv.ExportStatusSucceeded})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "Ada_Lovelace_CV.html" || records[0].SessionID != "s-1" {
		t.Fatalf("unexpected records %+v", records)
	}

	records, _ = NewExportHistoryHandler(session).Query(context.Background(), ExportHistory{})
	if len(records) != 2 {
		t.Fatalf("expected both session exports, got %d", len(records))
	}
}

func TestExportHistory_Validate(t *testing.T) {
	if err := (ExportHistory{Limit: -1}).Validate(); err == nil {
		t.Fatalf("expected negative limit to be rejected")
	}
	var ge *errorslib.Error
	if err := (ExportHistory{Status: "pending"}).Validate(); !errors.As(err, &ge) || ge.TextCode != "STATUS_UNSUPPORTED" {
		t.Fatalf("expected STATUS_UNSUPPORTED, got %v", err)
	}
}
