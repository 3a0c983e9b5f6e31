// Package exporttemplate projects cv documents into HTML markup.
//
// Renderer executes a named template through a TemplateExecutor. Pongo2Executor
// ships with the built-in "classic" and "modern" templates and accepts custom
// Django-style templates via Register; a *html/template.Template also satisfies
// TemplateExecutor.
//
// Output is deterministic for a given document and options: no timestamps are
// written unless Options.GeneratedAt or Renderer.Now is set. Exporter wraps Renderer as a
// cv.Exporter producing text/html artifacts, and is also the HTML source for
// the PDF adapter.
package exporttemplate
