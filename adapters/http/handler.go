package cvhttp

import (
	"net/http"

	"github.com/goliatone/go-cvwizard/adapters/cvapi"
	"github.com/goliatone/go-cvwizard/cv"
)

// Config configures the HTTP adapter.
type Config = cvapi.Config

// Handler exposes wizard endpoints over net/http.
type Handler struct {
	controller *cvapi.Controller
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: cvapi.NewController(cfg)}
}

// RegisterRoutes registers handlers on a compatible router.
func (h *Handler) RegisterRoutes(router any) {
	paths := []string{h.basePath(), h.basePath() + "/"}
	if downloads := h.downloadsPath(); !hasPrefix(downloads, h.basePath()) {
		paths = append(paths, downloads+"/")
	}
	switch r := router.(type) {
	case interface{ Handle(string, http.Handler) }:
		for _, path := range paths {
			r.Handle(path, h)
		}
	case interface {
		HandleFunc(string, func(http.ResponseWriter, *http.Request))
	}:
		for _, path := range paths {
			r.HandleFunc(path, h.ServeHTTP)
		}
	}
}

// ServeHTTP routes wizard endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	if h == nil || h.controller == nil {
		cvapi.WriteError(response{w}, cv.NewError(cv.KindInternal, "handler is nil", nil))
		return
	}
	h.controller.Serve(newRequest(r), response{w})
}

func (h *Handler) basePath() string {
	if h == nil || h.controller == nil || h.controller.BasePath() == "" {
		return cvapi.DefaultBasePath
	}
	return h.controller.BasePath()
}

func (h *Handler) downloadsPath() string {
	if h == nil || h.controller == nil {
		return cvapi.DefaultBasePath + "/downloads"
	}
	return h.controller.DownloadsPath()
}

func hasPrefix(path, prefix string) bool {
	return path == prefix || len(path) > len(prefix) && path[:len(prefix)+1] == prefix+"/"
}
