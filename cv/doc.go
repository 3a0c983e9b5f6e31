// Package cv implements a step-gated CV builder: a ProfileStore holding the
// collected data, a Wizard owning the step position, a pure Render function
// producing a style-free Document, and a Session that hands rendered documents
// to pluggable Exporters.
//
// A Session is constructed explicitly by the caller; nothing in this package
// keeps global state.
package cv
