package cvrouter

import (
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-cvwizard/adapters/cvapi"
	"github.com/goliatone/go-cvwizard/cv"
)

// Config configures the go-router adapter.
type Config = cvapi.Config

// Handler exposes wizard routes for go-router.
type Handler struct {
	controller *cvapi.Controller
}

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: cvapi.NewController(cfg)}
}

// RegisterRoutes registers routes on a compatible go-router router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}
	base := h.basePath()

	r.Get(base+"/wizard", h.Handle)
	r.Post(base+"/wizard/:action", h.Handle)

	r.Get(base+"/profile", h.Handle)
	r.Delete(base+"/profile", h.Handle)
	r.Post(base+"/profile/:section", h.Handle)
	r.Put(base+"/profile/:section/:key", h.Handle)
	r.Delete(base+"/profile/:section/:index", h.Handle)

	r.Get(base+"/document", h.Handle)
	r.Get(base+"/preview", h.Handle)
	r.Get(base+"/templates", h.Handle)
	r.Put(base+"/template", h.Handle)
	r.Get(base+"/connectivity", h.Handle)
	r.Put(base+"/connectivity", h.Handle)
	r.Get(base+"/notifications", h.Handle)
	r.Get(base+"/exports", h.Handle)
	r.Post(base+"/exports", h.Handle)

	r.Get(h.downloadsPath()+"/*", h.Handle)
}

// Handle executes the shared wizard workflow.
func (h *Handler) Handle(c router.Context) error {
	if c == nil {
		return nil
	}
	if h == nil || h.controller == nil {
		cvapi.WriteError(exchange{c}, cv.NewError(cv.KindInternal, "handler is nil", nil))
		return nil
	}
	x := exchange{c}
	h.controller.Serve(x, x)
	return nil
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

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}
