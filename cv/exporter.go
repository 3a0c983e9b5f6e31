package cv

import (
	"context"
	"fmt"
	"strings"
)

// Format identifies an export format.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatHTML   Format = "html"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// Orientation is the page orientation token.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Margins are page margins in millimeters.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// UniformMargins returns equal margins on every side.
func UniformMargins(mm float64) Margins {
	return Margins{Top: mm, Right: mm, Bottom: mm, Left: mm}
}

// ExportConfig configures an export.
type ExportConfig struct {
	Format       Format      `json:"format"`
	Margins      Margins     `json:"margins"`
	ImageQuality float64     `json:"image_quality"`
	PageSize     string      `json:"page_size"`
	Orientation  Orientation `json:"orientation"`
	Filename     string      `json:"filename"`
	Template     string      `json:"template,omitempty"`
}

// DefaultExportConfig mirrors the standard A4 portrait CV output.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:       FormatPDF,
		Margins:      UniformMargins(10),
		ImageQuality: 0.98,
		PageSize:     "A4",
		Orientation:  OrientationPortrait,
	}
}

// Validate checks the export configuration ranges.
func (c ExportConfig) Validate() error {
	if c.ImageQuality < 0 || c.ImageQuality > 1 {
		return NewError(KindValidation, fmt.Sprintf("image quality must be within [0, 1], got %v", c.ImageQuality), nil)
	}
	for _, m := range []float64{c.Margins.Top, c.Margins.Right, c.Margins.Bottom, c.Margins.Left} {
		if m < 0 {
			return NewError(KindValidation, "page margins must not be negative", nil)
		}
	}
	switch c.Orientation {
	case "", OrientationPortrait, OrientationLandscape:
	default:
		return NewError(KindValidation, fmt.Sprintf("unknown orientation %q", c.Orientation), nil)
	}
	if strings.ContainsAny(c.Filename, `/\`) {
		return NewError(KindValidation, "filename must not contain path separators", nil)
	}
	return nil
}

// Landscape reports whether the orientation is landscape.
func (c ExportConfig) Landscape() bool {
	return c.Orientation == OrientationLandscape
}

// Artifact is an exported binary document.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter turns a rendered document into a binary artifact.
type Exporter interface {
	Export(ctx context.Context, doc Document, cfg ExportConfig) (Artifact, error)
}

// ExporterFunc adapts a function to an Exporter.
type ExporterFunc func(ctx context.Context, doc Document, cfg ExportConfig) (Artifact, error)

func (f ExporterFunc) Export(ctx context.Context, doc Document, cfg ExportConfig) (Artifact, error) {
	if f == nil {
		return Artifact{}, NewError(KindNotImpl, "exporter func is nil", nil)
	}
	return f(ctx, doc, cfg)
}

// Deliverer hands a finished artifact to the user, for example as a download.
type Deliverer interface {
	Deliver(ctx context.Context, artifact Artifact) (string, error)
}

// DelivererFunc adapts a function to a Deliverer.
type DelivererFunc func(ctx context.Context, artifact Artifact) (string, error)

func (f DelivererFunc) Deliver(ctx context.Context, artifact Artifact) (string, error) {
	if f == nil {
		return "", NewError(KindNotImpl, "deliverer func is nil", nil)
	}
	return f(ctx, artifact)
}
