package exporttemplate

import (
	"bytes"
	"context"

	"github.com/goliatone/go-cvwizard/cv"
)

// ContentType is the media type of HTML artifacts.
const ContentType = "text/html; charset=utf-8"

// Exporter exports documents as standalone HTML files.
type Exporter struct {
	Renderer Renderer
}

var _ cv.Exporter = Exporter{}

// Export renders doc with the template selected in cfg.
func (e Exporter) Export(ctx context.Context, doc cv.Document, cfg cv.ExportConfig) (cv.Artifact, error) {
	var buf bytes.Buffer
	if _, err := e.Renderer.Render(ctx, doc, &buf, OptionsFromExport(cfg)); err != nil {
		return cv.Artifact{}, cv.ExportFailed("html render failed", err)
	}
	return cv.Artifact{
		Filename:    cfg.Filename,
		ContentType: ContentType,
		Data:        buf.Bytes(),
	}, nil
}
