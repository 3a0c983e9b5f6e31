package cvapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/goliatone/go-cvwizard/cv"
)

// DefaultMaxBodyBytes bounds JSON request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Request provides minimal request access for transport adapters.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Header(name string) string
	Query(name string) string
	Body() io.ReadCloser
}

type fieldPayload struct {
	Value string `json:"value"`
}

type jumpPayload struct {
	Step int `json:"step"`
}

type templatePayload struct {
	Name string `json:"name"`
}

type connectivityPayload struct {
	Online *bool `json:"online"`
}

type exportPayload struct {
	Format       cv.Format      `json:"format"`
	Margins      *cv.Margins    `json:"margins,omitempty"`
	ImageQuality *float64       `json:"image_quality,omitempty"`
	PageSize     string         `json:"page_size,omitempty"`
	Orientation  cv.Orientation `json:"orientation,omitempty"`
	Template     string         `json:"template,omitempty"`
}

// apply overlays the payload on the session defaults.
func (p exportPayload) apply(base cv.ExportConfig) cv.ExportConfig {
	cfg := base
	if p.Margins != nil {
		cfg.Margins = *p.Margins
	}
	if p.ImageQuality != nil {
		cfg.ImageQuality = *p.ImageQuality
	}
	if p.PageSize != "" {
		cfg.PageSize = p.PageSize
	}
	if p.Orientation != "" {
		cfg.Orientation = p.Orientation
	}
	if p.Template != "" {
		cfg.Template = p.Template
	}
	return cfg
}

func readBody(req Request, maxBytes int64) ([]byte, error) {
	body := req.Body()
	if body == nil {
		return nil, nil
	}
	defer body.Close()
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, cv.NewError(cv.KindValidation, "read request body failed", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, cv.NewError(cv.KindValidation, "request body too large", nil)
	}
	return bytes.TrimSpace(data), nil
}

func decodeJSON(req Request, maxBytes int64, out any) error {
	data, err := readBody(req, maxBytes)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return cv.NewError(cv.KindValidation, "request body is required", nil)
	}
	return unmarshalStrict(data, out)
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(req Request, maxBytes int64, out any) error {
	data, err := readBody(req, maxBytes)
	if err != nil || len(data) == 0 {
		return err
	}
	return unmarshalStrict(data, out)
}

func unmarshalStrict(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return cv.NewError(cv.KindValidation, "invalid request body", err)
	}
	return nil
}

func wantsDownload(req Request) bool {
	switch strings.ToLower(strings.TrimSpace(req.Query("download"))) {
	case "1", "true", "yes":
		return true
	}
	accept := req.Header("Accept")
	return accept != "" && !strings.Contains(accept, "application/json") && !strings.Contains(accept, "*/*")
}
