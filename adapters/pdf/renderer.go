package exportpdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	exporttemplate "github.com/goliatone/go-cvwizard/adapters/template"
	"github.com/goliatone/go-cvwizard/cv"
)

// DefaultMaxHTMLBytes guards in-memory HTML buffering before PDF conversion.
const DefaultMaxHTMLBytes int64 = 8 * 1024 * 1024

// ContentType is the media type of PDF artifacts.
const ContentType = "application/pdf"

// RenderRequest contains HTML input and render options for PDF engines.
type RenderRequest struct {
	HTML    []byte
	Options Options
}

// Engine renders HTML content into PDF bytes.
type Engine interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, req RenderRequest) ([]byte, error)

func (f EngineFunc) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if f == nil {
		return nil, errors.New("pdf engine func is nil")
	}
	return f(ctx, req)
}

// HTMLRenderer renders a document into HTML markup.
type HTMLRenderer interface {
	Render(ctx context.Context, doc cv.Document, w io.Writer, opts exporttemplate.Options) (int64, error)
}

// Exporter converts documents to PDF through HTML.
type Exporter struct {
	Enabled      bool
	HTMLRenderer HTMLRenderer
	Engine       Engine
	MaxHTMLBytes int64
	// Options override values derived from the export configuration.
	Options Options
}

var _ cv.Exporter = Exporter{}

// Export renders doc to HTML and converts it with the configured engine.
func (e Exporter) Export(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
	if !e.Enabled {
		return cv.Artifact{}, cv.NewError(cv.KindNotImpl, "pdf exporter is disabled", nil)
	}
	if e.HTMLRenderer == nil {
		return cv.Artifact{}, cv.NewError(cv.KindValidation, "pdf exporter requires html renderer", nil)
	}
	if e.Engine == nil {
		return cv.Artifact{}, cv.NewError(cv.KindValidation, "pdf exporter requires engine", nil)
	}

	buffer := newLimitedBuffer(e.MaxHTMLBytes)
	if _, err := e.HTMLRenderer.Render(ctx, doc, buffer, exporttemplate.OptionsFromExport(cfg)); err != nil {
		return cv.Artifact{}, err
	}

	pdf, err := e.Engine.Render(ctx, RenderRequest{
		HTML:    buffer.Bytes(),
		Options: mergeOptions(OptionsFromExport(cfg), e.Options),
	})
	if err != nil {
		return cv.Artifact{}, err
	}
	if len(pdf) == 0 {
		return cv.Artifact{}, cv.NewError(cv.KindExport, "pdf engine returned no output", nil)
	}

	return cv.Artifact{
		Filename:    cfg.Filename,
		ContentType: ContentType,
		Data:        pdf,
	}, nil
}

// WKHTMLTOPDFEngine invokes wkhtmltopdf for HTML-to-PDF conversion.
type WKHTMLTOPDFEngine struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Render executes wkhtmltopdf using stdin/stdout for HTML/PDF.
func (e WKHTMLTOPDFEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = "wkhtmltopdf"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append([]string{"--quiet"}, wkhtmltopdfArgs(req.Options)...)
	args = append(args, e.Args...)
	args = append(args, "-", "-")
	cmd := exec.CommandContext(cmdCtx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(req.HTML)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "wkhtmltopdf failed"
		}
		return nil, cv.NewError(cv.KindExport, message, err)
	}
	return stdout.Bytes(), nil
}

func wkhtmltopdfArgs(opts Options) []string {
	var args []string
	if opts.PageSize != "" {
		args = append(args, "--page-size", opts.PageSize)
	}
	if opts.Landscape != nil {
		orientation := "Portrait"
		if *opts.Landscape {
			orientation = "Landscape"
		}
		args = append(args, "--orientation", orientation)
	}
	for _, margin := range []struct {
		flag, value string
	}{
		{"--margin-top", opts.MarginTop},
		{"--margin-right", opts.MarginRight},
		{"--margin-bottom", opts.MarginBottom},
		{"--margin-left", opts.MarginLeft},
	} {
		if margin.value != "" {
			args = append(args, margin.flag, strings.ReplaceAll(margin.value, " ", ""))
		}
	}
	if q := opts.ImageQualityPercent(); q > 0 {
		args = append(args, "--image-quality", strconv.Itoa(q))
	}
	if opts.PrintBackground != nil && !*opts.PrintBackground {
		args = append(args, "--no-background")
	}
	if opts.Scale != 0 {
		args = append(args, "--zoom", strconv.FormatFloat(opts.Scale, 'f', -1, 64))
	}
	return args
}

type limitedBuffer struct {
	buf     bytes.Buffer
	maxSize int64
}

func newLimitedBuffer(maxSize int64) *limitedBuffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxHTMLBytes
	}
	return &limitedBuffer{maxSize: maxSize}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.maxSize > 0 && int64(b.buf.Len()+len(p)) > b.maxSize {
		return 0, cv.NewError(cv.KindValidation, "pdf exporter max html bytes exceeded", nil)
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}
