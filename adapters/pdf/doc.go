// Package exportpdf exports cv documents as PDF files.
//
// Exporter renders HTML through an injected HTML renderer (normally the
// exporttemplate adapter) and converts it with a pluggable Engine: a shared
// headless Chromium driven by chromedp, or the wkhtmltopdf binary. Exporting is
// gated by Exporter.Enabled.
package exportpdf
