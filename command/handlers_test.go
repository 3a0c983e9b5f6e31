package command

import (
	"context"
	"errors"
	"testing"
	"time"

	gcmd "github.com/goliatone/go-command"
	errorslib "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cvwizard/cv"
)

func newSession(t *testing.T, exporters map[cv.Format]cv.Exporter) *cv.Session {
	t.Helper()
	session, err := cv.NewSession(cv.SessionConfig{Exporters: exporters})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session
}

func TestSetFieldHandler_UpdatesStore(t *testing.T) {
	session := newSession(t, nil)
	handler := NewSetFieldHandler(session)

	if err := handler.Execute(context.Background(), SetField{Section: cv.SectionPersonal, Key: cv.FieldName, Value: "Ada"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := session.Store().Snapshot().Personal.Name; got != "Ada" {
		t.Fatalf("expected name Ada, got %q", got)
	}

	err := handler.Execute(context.Background(), SetField{Section: cv.SectionPersonal, Key: "nickname", Value: "x"})
	if !cv.IsKind(err, cv.KindUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}
}

func TestAppendEducationHandler_StoresResults(t *testing.T) {
	session := newSession(t, nil)
	handler := NewAppendEducationHandler(session)

	var got int
	result := gcmd.NewResult[int]()
	ctx := gcmd.ContextWithResult(context.Background(), result)

	if err := handler.Execute(ctx, AppendEducation{Entry: cv.EducationEntry{Degree: "BSc"}, Result: &got}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected result pointer 1, got %d", got)
	}
	stored, ok := result.Load()
	if !ok || stored != 1 {
		t.Fatalf("expected context result 1, got %d (%v)", stored, ok)
	}
}

func TestRemoveExperienceHandler_IndexOutOfRange(t *testing.T) {
	session := newSession(t, nil)
	_ = NewAppendExperienceHandler(session).Execute(context.Background(), AppendExperience{Entry: cv.ExperienceEntry{Title: "Dev"}})

	err := NewRemoveExperienceHandler(session).Execute(context.Background(), RemoveExperience{Index: 3})
	if !cv.IsKind(err, cv.KindIndexOutOfRange) {
		t.Fatalf("expected index out of range, got %v", err)
	}
	if err := NewRemoveExperienceHandler(session).Execute(context.Background(), RemoveExperience{Index: 0}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n := len(session.Store().Snapshot().Experience); n != 0 {
		t.Fatalf("expected empty experience, got %d", n)
	}
}

func TestNavigationHandlers(t *testing.T) {
	session := newSession(t, nil)

	var res StepResult
	if err := NewPreviousStepHandler(session).Execute(context.Background(), PreviousStep{Result: &res}); err != nil {
		t.Fatalf("previous: %v", err)
	}
	if res.Moved || res.State.Current != 1 {
		t.Fatalf("expected clamp at step 1, got %+v", res)
	}

	if err := NewNextStepHandler(session).Execute(context.Background(), NextStep{Result: &res}); err != nil {
		t.Fatalf("next: %v", err)
	}
	if !res.Moved || res.State.Current != 2 {
		t.Fatalf("expected step 2, got %+v", res)
	}

	jump := NewJumpToStepHandler(session)
	if err := jump.Execute(context.Background(), JumpToStep{Step: 5, Result: &res}); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if res.State.Current != 5 || res.State.CanAdvance {
		t.Fatalf("expected last step, got %+v", res.State)
	}
	if err := jump.Execute(context.Background(), JumpToStep{Step: 9}); !cv.IsKind(err, cv.KindOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if session.Wizard().CurrentStep() != 5 {
		t.Fatalf("failed jump must not move the wizard")
	}
}

func TestSelectTemplateHandler_RejectsUnknown(t *testing.T) {
	session := newSession(t, nil)
	handler := NewSelectTemplateHandler(session, func(name string) bool { return name == "classic" })

	err := handler.Execute(context.Background(), SelectTemplate{Name: "neon"})
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "TEMPLATE_NOT_FOUND" {
		t.Fatalf("expected TEMPLATE_NOT_FOUND, got %v", err)
	}
	if err := handler.Execute(context.Background(), SelectTemplate{Name: "classic"}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if session.Template() != "classic" {
		t.Fatalf("expected classic, got %q", session.Template())
	}
}

func TestExportDocumentHandler_StoresOutcome(t *testing.T) {
	var seen cv.ExportConfig
	session := newSession(t, map[cv.Format]cv.Exporter{
		cv.FormatHTML: cv.ExporterFunc(func(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
			seen = cfg
			return cv.Artifact{ContentType: "text/html", Data: []byte("<html></html>")}, nil
		}),
	})
	_ = session.Store().SetField(cv.SectionPersonal, cv.FieldName, "Ada Lovelace")

	result := gcmd.NewResult[cv.ExportOutcome]()
	ctx := gcmd.ContextWithResult(context.Background(), result)
	cfg := cv.DefaultExportConfig()
	cfg.Orientation = cv.OrientationLandscape

	if err := NewExportDocumentHandler(session).Execute(ctx, ExportDocument{Format: cv.FormatHTML, Config: &cfg}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	outcome, ok := result.Load()
	if !ok {
		t.Fatalf("expected context result")
	}
	if outcome.Artifact.Filename != "Ada_Lovelace_CV.html" {
		t.Fatalf("unexpected filename %q", outcome.Artifact.Filename)
	}
	if seen.Format != cv.FormatHTML || !seen.Landscape() {
		t.Fatalf("expected html landscape config, got %+v", seen)
	}
}

func TestExportDocumentHandler_MissingExporter(t *testing.T) {
	session := newSession(t, nil)
	err := NewExportDocumentHandler(session).Execute(context.Background(), ExportDocument{Format: cv.FormatXLSX})
	if !cv.IsKind(err, cv.KindExport) {
		t.Fatalf("expected export error, got %v", err)
	}
}

func TestConnectivityChangedHandler(t *testing.T) {
	session := newSession(t, nil)
	handler := NewConnectivityChangedHandler(session)
	if err := handler.Execute(context.Background(), ConnectivityChanged{Online: true}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !session.Online() {
		t.Fatalf("expected online")
	}
}

func TestHandlers_RequireSession(t *testing.T) {
	var handler *NextStepHandler
	err := handler.Execute(context.Background(), NextStep{})
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "SESSION_REQUIRED" {
		t.Fatalf("expected SESSION_REQUIRED, got %v", err)
	}
}

type stubCleaner struct {
	before time.Time
	count  int
}

func (s *stubCleaner) Cleanup(ctx context.Context, before time.Time) (int, error) {
	_ = ctx
	s.before = before
	return s.count, nil
}

func TestCleanupDownloadsHandler_UsesRetention(t *testing.T) {
	cleaner := &stubCleaner{count: 3}
	handler := NewCleanupDownloadsHandler(cleaner, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var got int
	if err := handler.Execute(context.Background(), CleanupDownloads{Now: now, Result: &got}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != 3 {
		t.Fatalf("expected 3 removed, got %d", got)
	}
	if !cleaner.before.Equal(now.Add(-time.Hour)) {
		t.Fatalf("unexpected cutoff %v", cleaner.before)
	}
}

func TestMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		msg  interface{ Validate() error }
		code string
	}{
		{name: "set field section", msg: SetField{Key: "name"}, code: "SECTION_REQUIRED"},
		{name: "set field key", msg: SetField{Section: cv.SectionPersonal}, code: "FIELD_REQUIRED"},
		{name: "remove index", msg: RemoveEducation{Index: -1}, code: "INDEX_INVALID"},
		{name: "jump step", msg: JumpToStep{Step: 0}, code: "STEP_INVALID"},
		{name: "template", msg: SelectTemplate{Name: "  "}, code: "TEMPLATE_REQUIRED"},
		{name: "export format", msg: ExportDocument{}, code: "FORMAT_REQUIRED"},
		{name: "export config", msg: ExportDocument{Config: &cv.ExportConfig{ImageQuality: 2}}, code: "EXPORT_CONFIG_INVALID"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			var ge *errorslib.Error
			if !errors.As(err, &ge) || ge.TextCode != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
	if err := (SetField{Section: cv.SectionSkills, Key: cv.FieldSoft}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}
