package exporttemplate

import (
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-cvwizard/cv"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

// Pongo2Executor executes Django-style templates compiled with pongo2.
type Pongo2Executor struct {
	mu        sync.RWMutex
	templates map[string]*pongo2.Template
}

var _ TemplateExecutor = (*Pongo2Executor)(nil)

// NewPongo2Executor creates an executor preloaded with the built-in templates.
func NewPongo2Executor() (*Pongo2Executor, error) {
	e := &Pongo2Executor{templates: make(map[string]*pongo2.Template)}
	entries, err := builtinTemplates.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		src, err := builtinTemplates.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if err := e.Register(name, string(src)); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register compiles src and stores it under name, replacing any previous one.
func (e *Pongo2Executor) Register(name, src string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return cv.NewError(cv.KindValidation, "template name is required", nil)
	}
	tpl, err := pongo2.FromString(src)
	if err != nil {
		return cv.NewError(cv.KindValidation, fmt.Sprintf("template %q does not compile", name), err)
	}
	e.mu.Lock()
	e.templates[name] = tpl
	e.mu.Unlock()
	return nil
}

// Names lists registered templates in sorted order.
func (e *Pongo2Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (e *Pongo2Executor) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.templates[name]
	return ok
}

// ExecuteTemplate renders a named template. TemplateData is exposed to the
// template as "doc" and "meta"; any other value as "data".
func (e *Pongo2Executor) ExecuteTemplate(w io.Writer, name string, data any) error {
	e.mu.RLock()
	tpl, ok := e.templates[name]
	e.mu.RUnlock()
	if !ok {
		return cv.NewError(cv.KindNotFound, fmt.Sprintf("template %q not found", name), nil)
	}

	ctx := pongo2.Context{"data": data}
	if td, ok := data.(TemplateData); ok {
		ctx = pongo2.Context{"doc": td.Document, "meta": td.Meta}
	}
	return tpl.ExecuteWriter(ctx, w)
}
