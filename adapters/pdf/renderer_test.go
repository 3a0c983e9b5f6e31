package exportpdf

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	exporttemplate "github.com/goliatone/go-cvwizard/adapters/template"
	"github.com/goliatone/go-cvwizard/cv"
)

type stubHTMLRenderer struct {
	html string
	err  error
	opts *exporttemplate.Options
}

func (r stubHTMLRenderer) Render(ctx context.Context, doc cv.Document, w io.Writer, opts exporttemplate.Options) (int64, error) {
	_ = ctx
	_ = doc
	if r.opts != nil {
		*r.opts = opts
	}
	if r.err != nil {
		return 0, r.err
	}
	n, err := io.WriteString(w, r.html)
	return int64(n), err
}

func sampleDocument() cv.Document {
	return cv.Render(cv.Profile{Personal: cv.Personal{Name: "Ada Lovelace", Email: "ada@example.com"}})
}

func TestExporter_Disabled(t *testing.T) {
	_, err := Exporter{}.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if err == nil {
		t.Fatalf("expected error")
	}
	if cv.KindFromError(err) != cv.KindNotImpl {
		t.Fatalf("expected not_implemented, got %v", cv.KindFromError(err))
	}
}

func TestExporter_MissingHTMLRenderer(t *testing.T) {
	_, err := Exporter{Enabled: true}.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if cv.KindFromError(err) != cv.KindValidation {
		t.Fatalf("expected validation error, got %v", cv.KindFromError(err))
	}
}

func TestExporter_MissingEngine(t *testing.T) {
	exporter := Exporter{
		Enabled:      true,
		HTMLRenderer: stubHTMLRenderer{html: "<html></html>"},
	}
	_, err := exporter.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if cv.KindFromError(err) != cv.KindValidation {
		t.Fatalf("expected validation error, got %v", cv.KindFromError(err))
	}
}

func TestExporter_RendersPDF(t *testing.T) {
	var got RenderRequest
	engine := EngineFunc(func(ctx context.Context, req RenderRequest) ([]byte, error) {
		_ = ctx
		got = req
		return []byte("%PDF-1.4"), nil
	})
	var htmlOpts exporttemplate.Options
	exporter := Exporter{
		Enabled:      true,
		HTMLRenderer: stubHTMLRenderer{html: "<html>ok</html>", opts: &htmlOpts},
		Engine:       engine,
	}

	cfg := cv.DefaultExportConfig()
	cfg.Filename = "Ada_Lovelace_CV.pdf"
	cfg.Orientation = cv.OrientationLandscape
	cfg.Margins = cv.Margins{Top: 12, Right: 8, Bottom: 12, Left: 8}

	artifact, err := exporter.Export(context.Background(), sampleDocument(), cfg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if string(artifact.Data) != "%PDF-1.4" {
		t.Fatalf("unexpected output: %q", artifact.Data)
	}
	if artifact.ContentType != ContentType || artifact.Filename != "Ada_Lovelace_CV.pdf" {
		t.Fatalf("unexpected artifact metadata: %+v", artifact)
	}
	if string(got.HTML) != "<html>ok</html>" {
		t.Fatalf("unexpected html: %q", got.HTML)
	}
	if got.Options.MarginTop != "12mm" || got.Options.MarginLeft != "8mm" {
		t.Fatalf("unexpected margins: %+v", got.Options)
	}
	if got.Options.Landscape == nil || !*got.Options.Landscape {
		t.Fatalf("expected landscape option")
	}
	if got.Options.PageSize != "A4" {
		t.Fatalf("expected A4, got %q", got.Options.PageSize)
	}
	if htmlOpts.Orientation != cv.OrientationLandscape {
		t.Fatalf("expected html options to carry orientation, got %+v", htmlOpts)
	}
}

func TestExporter_OptionsOverride(t *testing.T) {
	var got RenderRequest
	exporter := Exporter{
		Enabled:      true,
		HTMLRenderer: stubHTMLRenderer{html: "<html></html>"},
		Engine: EngineFunc(func(ctx context.Context, req RenderRequest) ([]byte, error) {
			got = req
			return []byte("%PDF"), nil
		}),
		Options: Options{PageSize: "Letter", ExternalAssetsPolicy: ExternalAssetsBlock},
	}
	if _, err := exporter.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got.Options.PageSize != "Letter" || got.Options.ExternalAssetsPolicy != ExternalAssetsBlock {
		t.Fatalf("expected override options, got %+v", got.Options)
	}
	if got.Options.MarginTop != "10mm" {
		t.Fatalf("expected config margins to survive override, got %q", got.Options.MarginTop)
	}
}

func TestExporter_EmptyEngineOutput(t *testing.T) {
	exporter := Exporter{
		Enabled:      true,
		HTMLRenderer: stubHTMLRenderer{html: "<html></html>"},
		Engine: EngineFunc(func(ctx context.Context, req RenderRequest) ([]byte, error) {
			return nil, nil
		}),
	}
	_, err := exporter.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if cv.KindFromError(err) != cv.KindExport {
		t.Fatalf("expected export error, got %v", err)
	}
}

func TestExporter_MaxHTMLBytes(t *testing.T) {
	exporter := Exporter{
		Enabled:      true,
		HTMLRenderer: stubHTMLRenderer{html: "0123456789"},
		Engine: EngineFunc(func(ctx context.Context, req RenderRequest) ([]byte, error) {
			return []byte("pdf"), nil
		}),
		MaxHTMLBytes: 4,
	}
	_, err := exporter.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig())
	if cv.KindFromError(err) != cv.KindValidation {
		t.Fatalf("expected validation error, got %v", cv.KindFromError(err))
	}
}

func TestExporter_WithTemplateRenderer(t *testing.T) {
	executor, err := exporttemplate.NewPongo2Executor()
	if err != nil {
		t.Fatalf("executor: %v", err)
	}
	var html string
	exporter := Exporter{
		Enabled:      true,
		HTMLRenderer: exporttemplate.Renderer{Templates: executor},
		Engine: EngineFunc(func(ctx context.Context, req RenderRequest) ([]byte, error) {
			html = string(req.HTML)
			return []byte("%PDF"), nil
		}),
	}
	if _, err := exporter.Export(context.Background(), sampleDocument(), cv.DefaultExportConfig()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(html, "Ada Lovelace | ada@example.com") {
		t.Fatalf("expected personal line in html, got %q", html)
	}
}

func TestWKHTMLTOPDFArgs(t *testing.T) {
	cfg := cv.DefaultExportConfig()
	cfg.ImageQuality = 0.98
	args := wkhtmltopdfArgs(OptionsFromExport(cfg))
	want := []string{
		"--page-size", "A4",
		"--orientation", "Portrait",
		"--margin-top", "10mm",
		"--margin-right", "10mm",
		"--margin-bottom", "10mm",
		"--margin-left", "10mm",
		"--image-quality", "98",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", args, want)
	}
}

func TestImageQualityPercent(t *testing.T) {
	tests := []struct {
		quality float64
		want    int
	}{
		{quality: 0, want: 0},
		{quality: 0.001, want: 1},
		{quality: 0.5, want: 50},
		{quality: 1, want: 100},
	}
	for _, tc := range tests {
		if got := (Options{ImageQuality: tc.quality}).ImageQualityPercent(); got != tc.want {
			t.Fatalf("ImageQualityPercent(%v): expected %d, got %d", tc.quality, tc.want, got)
		}
	}
}

func TestWKHTMLTOPDFEngine_MissingBinary(t *testing.T) {
	engine := WKHTMLTOPDFEngine{Command: "/nonexistent/wkhtmltopdf"}
	_, err := engine.Render(context.Background(), RenderRequest{HTML: []byte("<html></html>")})
	if cv.KindFromError(err) != cv.KindExport {
		t.Fatalf("expected export error, got %v", err)
	}
}
