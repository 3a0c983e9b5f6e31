package cvhttp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/goliatone/go-cvwizard/adapters/cvapi"
)

// request exposes a *http.Request to the wizard controller.
type request struct {
	r     *http.Request
	query url.Values
}

func newRequest(r *http.Request) request {
	req := request{r: r}
	if r != nil && r.URL != nil {
		req.query = r.URL.Query()
	}
	return req
}

func (req request) Context() context.Context {
	if req.r == nil {
		return context.Background()
	}
	return req.r.Context()
}

func (req request) Method() string {
	if req.r == nil {
		return ""
	}
	return req.r.Method
}

func (req request) Path() string {
	if req.r == nil || req.r.URL == nil {
		return ""
	}
	return req.r.URL.Path
}

func (req request) Header(name string) string {
	if req.r == nil {
		return ""
	}
	return req.r.Header.Get(name)
}

func (req request) Query(name string) string { return req.query.Get(name) }

func (req request) Body() io.ReadCloser {
	if req.r == nil || req.r.Body == nil {
		return http.NoBody
	}
	return req.r.Body
}

// response writes controller output straight to the ResponseWriter, which
// also makes download streaming unbuffered.
type response struct {
	http.ResponseWriter
}

func (res response) SetHeader(name, value string) { res.Header().Set(name, value) }

func (res response) DelHeader(name string) { res.Header().Del(name) }

func (res response) WriteJSON(status int, payload any) error {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	return json.NewEncoder(res).Encode(payload)
}

func (res response) Writer() (io.Writer, bool) { return res.ResponseWriter, true }

var (
	_ cvapi.Request  = request{}
	_ cvapi.Response = response{}
)
