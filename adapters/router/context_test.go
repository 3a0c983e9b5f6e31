package cvrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/goliatone/go-router"
)

// routerContext lets testContext embed router.Context without the embedded
// field name colliding with the Context method.
type routerContext = router.Context

// testContext implements the router.Context surface exchange uses. Calls to
// any other method panic on the nil embedded interface.
type testContext struct {
	routerContext

	method        string
	path          string
	body          []byte
	query         url.Values
	headers       map[string]string
	ctx           context.Context
	recorder      *httptest.ResponseRecorder
	statusWritten bool
	sendCalled    bool
}

func newTestContext(method, target string, body []byte, headers map[string]string) *testContext {
	if headers == nil {
		headers = make(map[string]string)
	}
	c := &testContext{
		method:   method,
		path:     target,
		body:     body,
		headers:  headers,
		ctx:      context.Background(),
		recorder: httptest.NewRecorder(),
	}
	if u, err := url.Parse(target); err == nil {
		c.path = u.Path
		c.query = u.Query()
	}
	return c
}

func (c *testContext) Context() context.Context { return c.ctx }
func (c *testContext) Method() string { return c.method }
func (c *testContext) Path() string { return c.path }
func (c *testContext) Body() []byte { return c.body }
func (c *testContext) Header(name string) string { return c.headers[name] }

func (c *testContext) Query(name string, defaultValue ...string) string {
	if c.query.Has(name) {
		return c.query.Get(name)
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *testContext) SetHeader(key, val string) router.Context {
	c.recorder.Header().Set(key, val)
	return c
}

func (c *testContext) Status(code int) router.Context {
	c.writeHeader(code)
	return c
}

func (c *testContext) Send(body []byte) error {
	c.sendCalled = true
	c.writeHeader(http.StatusOK)
	_, err := c.recorder.Write(body)
	return err
}

func (c *testContext) JSON(code int, v any) error {
	c.recorder.Header().Set("Content-Type", "application/json")
	c.writeHeader(code)
	return json.NewEncoder(c.recorder).Encode(v)
}

func (c *testContext) writeHeader(code int) {
	if c.statusWritten {
		return
	}
	c.statusWritten = true
	c.recorder.WriteHeader(code)
}

type testHTTPContext struct {
	*testContext
	req *http.Request
}

func newTestHTTPContext(method, target string, body []byte, headers map[string]string) *testHTTPContext {
	base := newTestContext(method, target, body, headers)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for key, value := range base.headers {
		req.Header.Set(key, value)
	}
	base.ctx = req.Context()
	return &testHTTPContext{testContext: base, req: req}
}

func (c *testHTTPContext) Request() *http.Request { return c.req }

func (c *testHTTPContext) Response() http.ResponseWriter { return c.recorder }

var _ router.Context = (*testContext)(nil)
var _ router.HTTPContext = (*testHTTPContext)(nil)
