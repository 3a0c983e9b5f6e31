package cvapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	errorslib "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cvwizard/cv"
)

// Response provides a minimal response interface for transport adapters.
type Response interface {
	SetHeader(name, value string)
	DelHeader(name string)
	WriteHeader(status int)
	Write(data []byte) (int, error)
	WriteJSON(status int, payload any) error
	Writer() (io.Writer, bool)
}

// ErrorResponse describes JSON error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains error details.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CountResponse reports a collection length after an append.
type CountResponse struct {
	Count int `json:"count"`
}

// ExportResponse describes a finished export.
type ExportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Location    string `json:"location,omitempty"`
}

// TemplatesResponse lists presentation templates.
type TemplatesResponse struct {
	Templates []string `json:"templates"`
	Selected  string   `json:"selected,omitempty"`
}

// ConnectivityResponse reports the last connectivity signal.
type ConnectivityResponse struct {
	Online bool `json:"online"`
}

// WriteError writes err as a JSON error payload.
func WriteError(res Response, err error) {
	if err == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(res, StatusForError(err), NewErrorResponse(err))
}

// NewErrorResponse builds the JSON error payload for err.
func NewErrorResponse(err error) ErrorResponse {
	ge := cv.AsGoError(err)
	return ErrorResponse{Error: ErrorBody{Message: ge.Message, Code: ge.TextCode}}
}

// StatusForError maps err to the HTTP status WriteError uses.
func StatusForError(err error) int {
	return statusForError(cv.AsGoError(err))
}

func writeJSON(res Response, status int, payload any) {
	_ = res.WriteJSON(status, payload)
}

func writeNoContent(res Response) {
	res.WriteHeader(http.StatusNoContent)
}

func writeNotFound(res Response) {
	res.SetHeader("Content-Type", "text/plain; charset=utf-8")
	res.SetHeader("X-Content-Type-Options", "nosniff")
	res.WriteHeader(http.StatusNotFound)
	_, _ = res.Write([]byte("404 page not found\n"))
}

func statusForError(err *errorslib.Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	switch err.TextCode {
	case "not_implemented":
		return http.StatusNotImplemented
	case "export_failed":
		return http.StatusBadGateway
	case "canceled":
		return http.StatusConflict
	case "timeout":
		return http.StatusRequestTimeout
	}
	switch err.Category {
	case errorslib.CategoryValidation:
		return http.StatusBadRequest
	case errorslib.CategoryNotFound:
		return http.StatusNotFound
	case errorslib.CategoryOperation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func setDownloadHeaders(res Response, filename, contentType string, inline bool) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	res.SetHeader("Content-Type", contentType)
	res.SetHeader("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, headerFilename(filename)))
}

func headerFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = cv.FallbackFilenameBase
	}
	return name
}
