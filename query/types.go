package query

import (
	"github.com/goliatone/go-cvwizard/cv"
	"github.com/goliatone/go-errors"
)

// CurrentStep requests the active wizard state.
type CurrentStep struct{}

func (CurrentStep) Type() string { return "cv:wizard:current" }

func (CurrentStep) Validate() error { return nil }

// ProfileSnapshot requests a point-in-time copy of the profile.
type ProfileSnapshot struct{}

func (ProfileSnapshot) Type() string { return "cv:profile:snapshot" }

func (ProfileSnapshot) Validate() error { return nil }

// RenderDocument requests the rendered document for the current profile.
type RenderDocument struct{}

func (RenderDocument) Type() string { return "cv:document:render" }

func (RenderDocument) Validate() error { return nil }

// ExportSettings requests the export configuration the session would use.
type ExportSettings struct {
	Format cv.Format
}

func (ExportSettings) Type() string { return "cv:export:settings" }

func (msg ExportSettings) Validate() error {
	switch msg.Format {
	case "", cv.FormatPDF, cv.FormatHTML, cv.FormatXLSX, cv.FormatSQLite:
		return nil
	}
	return errors.New("unsupported export format "+string(msg.Format), errors.CategoryValidation).
		WithTextCode("FORMAT_UNSUPPORTED")
}

// ExportHistory lists the session's recorded exports, newest first.
type ExportHistory struct {
	Format cv.Format
	Status cv.ExportStatus
	Limit  int
}

func (ExportHistory) Type() string { return "cv:export:history" }

func (msg ExportHistory) Validate() error {
	if msg.Limit < 0 {
		return errors.New("limit must not be negative", errors.CategoryValidation).
			WithTextCode("LIMIT_INVALID")
	}
	switch msg.Status {
	case "", cv.ExportStatusSucceeded, cv.ExportStatusFailed:
		return nil
	}
	return errors.New("unknown export status "+string(msg.Status), errors.CategoryValidation).
		WithTextCode("STATUS_UNSUPPORTED")
}
