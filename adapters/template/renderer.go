package exporttemplate

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-cvwizard/cv"
)

// DefaultTemplateName is used when neither options nor renderer name a template.
const DefaultTemplateName = "classic"

// DefaultAccent is the accent color used by templates that support one.
const DefaultAccent = "#2f5d8a"

// TemplateExecutor executes a named template with data.
type TemplateExecutor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

// Options configures a single render.
type Options struct {
	TemplateName string
	Title        string
	Lang         string
	Accent       string
	PageSize     string
	Orientation  cv.Orientation
	Margins      cv.Margins
	GeneratedAt  time.Time
}

// OptionsFromExport derives render options from an export configuration.
func OptionsFromExport(cfg cv.ExportConfig) Options {
	return Options{
		TemplateName: cfg.Template,
		PageSize:     cfg.PageSize,
		Orientation:  cfg.Orientation,
		Margins:      cfg.Margins,
	}
}

// Renderer renders documents to HTML.
type Renderer struct {
	Templates    TemplateExecutor
	TemplateName string
	// Now stamps renders with a generated date when Options.GeneratedAt is unset.
	Now func() time.Time
}

// TemplateMeta is the page-level context passed to templates.
type TemplateMeta struct {
	TemplateName string `json:"template_name"`
	Title        string `json:"title"`
	Lang         string `json:"lang"`
	Accent       string `json:"accent"`
	PageSize     string `json:"page_size"`
	Orientation  string `json:"orientation"`
	MarginTop    string `json:"margin_top"`
	MarginRight  string `json:"margin_right"`
	MarginBottom string `json:"margin_bottom"`
	MarginLeft   string `json:"margin_left"`
	Generated    string `json:"generated,omitempty"`
}

// TemplateData is the context passed to templates.
type TemplateData struct {
	Document DocumentView `json:"document"`
	Meta     TemplateMeta `json:"meta"`
}

// Render executes the selected template for doc and reports the bytes written.
func (r Renderer) Render(ctx context.Context, doc cv.Document, w io.Writer, opts Options) (int64, error) {
	if r.Templates == nil {
		return 0, cv.NewError(cv.KindValidation, "template renderer requires templates", nil)
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}

	name := opts.TemplateName
	if name == "" {
		name = r.TemplateName
	}
	if name == "" {
		name = DefaultTemplateName
	}
	opts.TemplateName = name
	if opts.GeneratedAt.IsZero() && r.Now != nil {
		opts.GeneratedAt = r.Now()
	}

	data := TemplateData{
		Document: NewDocumentView(doc),
		Meta:     templateMeta(doc, opts),
	}

	cw := &countingWriter{w: w}
	if err := r.Templates.ExecuteTemplate(cw, name, data); err != nil {
		return cw.count, err
	}
	return cw.count, nil
}

func templateMeta(doc cv.Document, opts Options) TemplateMeta {
	meta := TemplateMeta{
		TemplateName: opts.TemplateName,
		Title:        opts.Title,
		Lang:         opts.Lang,
		Accent:       opts.Accent,
		PageSize:     opts.PageSize,
		Orientation:  string(opts.Orientation),
		MarginTop:    millimeters(opts.Margins.Top),
		MarginRight:  millimeters(opts.Margins.Right),
		MarginBottom: millimeters(opts.Margins.Bottom),
		MarginLeft:   millimeters(opts.Margins.Left),
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(cv.Filename(doc.Name, cv.FormatHTML), ".html")
	}
	if meta.Lang == "" {
		meta.Lang = "en"
	}
	if meta.Accent == "" {
		meta.Accent = DefaultAccent
	}
	if meta.PageSize == "" {
		meta.PageSize = "A4"
	}
	if meta.Orientation == "" {
		meta.Orientation = string(cv.OrientationPortrait)
	}
	if !opts.GeneratedAt.IsZero() {
		meta.Generated = opts.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return meta
}

func millimeters(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "mm"
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}
