package command

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-cvwizard/cv"
	errorslib "github.com/goliatone/go-errors"
)

type captureFactory struct {
	seeds   []cv.Profile
	exports []cv.Artifact
}

func (c *captureFactory) build(seed cv.Profile) (*cv.Session, error) {
	c.seeds = append(c.seeds, seed)
	return cv.NewSession(cv.SessionConfig{
		Seed: seed,
		Exporters: map[cv.Format]cv.Exporter{
			cv.FormatPDF:  c.exporter("application/pdf"),
			cv.FormatHTML: c.exporter("text/html"),
		},
	})
}

func (c *captureFactory) exporter(contentType string) cv.Exporter {
	return cv.ExporterFunc(func(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
		artifact := cv.Artifact{Filename: cfg.Filename, ContentType: contentType, Data: []byte(doc.Name)}
		c.exports = append(c.exports, artifact)
		return artifact, nil
	})
}

func TestBatchCommand_RunHonorsLimits(t *testing.T) {
	factory := &captureFactory{}
	loader := func(ctx context.Context) ([]BatchRequest, error) {
		return []BatchRequest{
			{Profile: cv.Profile{Personal: cv.Personal{Name: "Ada"}}},
			{Profile: cv.Profile{Personal: cv.Personal{Name: "Grace"}}},
		}, nil
	}

	cmd := NewBatchExportCommand(factory.build, loader, WithBatchLimits(BatchLimits{MaxRequests: 1, MinInterval: time.Millisecond}))
	cmd.sleep = func(time.Duration) {}

	count, err := cmd.run(context.Background(), "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 export, got %d", count)
	}
	if len(factory.seeds) != 1 || factory.seeds[0].Personal.Name != "Ada" {
		t.Fatalf("unexpected seeds: %+v", factory.seeds)
	}
	if factory.exports[0].Filename != "Ada_CV.pdf" {
		t.Fatalf("expected pdf default, got %q", factory.exports[0].Filename)
	}
}

func TestBatchCommand_RunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	content := `
- profile:
    personal:
      name: Ada Lovelace
  formats: [pdf, html]
  template: modern
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	factory := &captureFactory{}
	cmd := NewBatchExportCommand(factory.build, nil)
	count, err := cmd.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 exports, got %d", count)
	}
	if factory.exports[1].Filename != "Ada_Lovelace_CV.html" {
		t.Fatalf("unexpected filename %q", factory.exports[1].Filename)
	}
}

func TestBatchCommand_RequiresLoader(t *testing.T) {
	cmd := NewBatchExportCommand((&captureFactory{}).build, nil)
	_, err := cmd.run(context.Background(), "")
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "LOADER_REQUIRED" {
		t.Fatalf("expected LOADER_REQUIRED, got %v", err)
	}
}

func TestLoadBatchRequests_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(path, []byte("profile: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadBatchRequests(path)
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "BATCH_FILE_INVALID" {
		t.Fatalf("expected BATCH_FILE_INVALID, got %v", err)
	}
}

func TestBatchCommand_CLIAndCronOptions(t *testing.T) {
	cmd := NewBatchExportCommand((&captureFactory{}).build, nil)
	if got := cmd.CLIOptions().Path; len(got) != 1 || got[0] != "cv-batch-export" {
		t.Fatalf("unexpected cli path %v", got)
	}
	if cmd.CronOptions().Expression == "" {
		t.Fatalf("expected cron expression")
	}
}

func TestBatchCommand_ExportRunsGivenRequests(t *testing.T) {
	factory := &captureFactory{}
	cmd := NewBatchExportCommand(factory.build, nil)

	count, err := cmd.Export(context.Background(), []BatchRequest{
		{Profile: cv.Profile{Personal: cv.Personal{Name: "Ada"}}, Formats: []cv.Format{cv.FormatHTML, cv.FormatPDF}},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if count != 2 || len(factory.exports) != 2 {
		t.Fatalf("expected 2 exports, got %d (%d captured)", count, len(factory.exports))
	}
	if factory.exports[0].Filename != "Ada_CV.html" {
		t.Fatalf("unexpected filename %q", factory.exports[0].Filename)
	}
}

func TestBatchCommand_ExportStopsOnCanceledContext(t *testing.T) {
	factory := &captureFactory{}
	cmd := NewBatchExportCommand(factory.build, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count, err := cmd.Export(ctx, []BatchRequest{{Profile: cv.Profile{Personal: cv.Personal{Name: "Ada"}}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if count != 0 || len(factory.seeds) != 0 {
		t.Fatalf("expected no work, got count=%d seeds=%d", count, len(factory.seeds))
	}
}

func TestBatchCommand_ExportRequiresFactory(t *testing.T) {
	cmd := NewBatchExportCommand(nil, nil)
	_, err := cmd.Export(context.Background(), nil)
	var ge *errorslib.Error
	if !errors.As(err, &ge) || ge.TextCode != "SESSION_FACTORY_REQUIRED" {
		t.Fatalf("expected SESSION_FACTORY_REQUIRED, got %v", err)
	}
}
