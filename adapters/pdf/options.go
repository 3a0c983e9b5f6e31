package exportpdf

import (
	"math"
	"strconv"

	"github.com/goliatone/go-cvwizard/cv"
)

// ExternalAssetsPolicy controls how external assets are handled in PDF rendering.
type ExternalAssetsPolicy string

const (
	ExternalAssetsUnspecified ExternalAssetsPolicy = ""
	ExternalAssetsAllow       ExternalAssetsPolicy = "allow"
	ExternalAssetsBlock       ExternalAssetsPolicy = "block"
)

// Options configures PDF output for headless engines. Lengths accept in, cm,
// mm, pt and px units.
type Options struct {
	PageSize             string
	Landscape            *bool
	PrintBackground      *bool
	Scale                float64
	ImageQuality         float64
	MarginTop            string
	MarginBottom         string
	MarginLeft           string
	MarginRight          string
	PreferCSSPageSize    *bool
	BaseURL              string
	ExternalAssetsPolicy ExternalAssetsPolicy
}

// OptionsFromExport maps an export configuration onto engine options.
func OptionsFromExport(cfg cv.ExportConfig) Options {
	return Options{
		PageSize:     cfg.PageSize,
		Landscape:    boolPtr(cfg.Landscape()),
		ImageQuality: cfg.ImageQuality,
		MarginTop:    mm(cfg.Margins.Top),
		MarginRight:  mm(cfg.Margins.Right),
		MarginBottom: mm(cfg.Margins.Bottom),
		MarginLeft:   mm(cfg.Margins.Left),
	}
}

// ImageQualityPercent converts a 0..1 quality into the 1..100 scale used by
// raster encoders. Zero means "engine default".
func (o Options) ImageQualityPercent() int {
	if o.ImageQuality <= 0 {
		return 0
	}
	q := int(math.Round(o.ImageQuality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}

func mergeOptions(base, override Options) Options {
	merged := base
	if override.PageSize != "" {
		merged.PageSize = override.PageSize
	}
	if override.Landscape != nil {
		merged.Landscape = override.Landscape
	}
	if override.PrintBackground != nil {
		merged.PrintBackground = override.PrintBackground
	}
	if override.Scale != 0 {
		merged.Scale = override.Scale
	}
	if override.ImageQuality != 0 {
		merged.ImageQuality = override.ImageQuality
	}
	if override.MarginTop != "" {
		merged.MarginTop = override.MarginTop
	}
	if override.MarginBottom != "" {
		merged.MarginBottom = override.MarginBottom
	}
	if override.MarginLeft != "" {
		merged.MarginLeft = override.MarginLeft
	}
	if override.MarginRight != "" {
		merged.MarginRight = override.MarginRight
	}
	if override.PreferCSSPageSize != nil {
		merged.PreferCSSPageSize = override.PreferCSSPageSize
	}
	if override.BaseURL != "" {
		merged.BaseURL = override.BaseURL
	}
	if override.ExternalAssetsPolicy != "" {
		merged.ExternalAssetsPolicy = override.ExternalAssetsPolicy
	}
	return merged
}

func mm(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "mm"
}

func boolPtr(value bool) *bool {
	return &value
}
