package cvrouter

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goliatone/go-router"

	"github.com/goliatone/go-cvwizard/adapters/cvapi"
)

// exchange serves as both sides of a wizard call over one router.Context.
// Handle only builds it around a non-nil context.
type exchange struct {
	ctx router.Context
}

var (
	_ cvapi.Request  = exchange{}
	_ cvapi.Response = exchange{}
)

func (x exchange) Context() context.Context { return x.ctx.Context() }
func (x exchange) Method() string { return x.ctx.Method() }
func (x exchange) Path() string { return x.ctx.Path() }
func (x exchange) Header(name string) string { return x.ctx.Header(name) }
func (x exchange) Query(name string) string { return x.ctx.Query(name) }

func (x exchange) Body() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(x.ctx.Body()))
}

func (x exchange) SetHeader(name, value string) { x.ctx.SetHeader(name, value) }

func (x exchange) DelHeader(name string) {
	if w, ok := x.httpWriter(); ok {
		w.Header().Del(name)
		return
	}
	x.ctx.SetHeader(name, "")
}

func (x exchange) WriteHeader(status int) { x.ctx.Status(status) }

func (x exchange) Write(data []byte) (int, error) {
	if err := x.ctx.Send(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (x exchange) WriteJSON(status int, payload any) error {
	return x.ctx.JSON(status, payload)
}

// Writer streams only on net/http backed contexts. Fiber contexts buffer
// through Write instead.
func (x exchange) Writer() (io.Writer, bool) {
	w, ok := x.httpWriter()
	if !ok {
		return nil, false
	}
	return w, true
}

func (x exchange) httpWriter() (http.ResponseWriter, bool) {
	httpCtx, ok := router.AsHTTPContext(x.ctx)
	if !ok || httpCtx.Response() == nil {
		return nil, false
	}
	return httpCtx.Response(), true
}
