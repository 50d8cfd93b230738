package httpx

import (
	"context"
	"net/http"

	"github.com/joeydtaylor/steeze-bridge/pkg/codec"
)

const contentTypeText = "text/plain; charset=UTF-8"

// Response is the buffered result of a handler. The engine writes it to the
// connection once, after the handler chain completes.
type Response struct {
	status      int
	contentType string
	body        []byte
}

func (r *Response) Status() int         { return r.status }
func (r *Response) ContentType() string { return r.contentType }
func (r *Response) Body() []byte        { return r.body }

// ResponseAlreadySent marks a context whose response went straight to the
// connection. Once set it is never replaced and the engine writes nothing.
var ResponseAlreadySent = &Response{}

// Ctx is the per-request context threaded through the handler chain.
type Ctx struct {
	Req *Request

	w          http.ResponseWriter
	status     int
	res        *Response
	redirected bool
	vars       map[any]any
}

func newCtx(w http.ResponseWriter, r *http.Request) *Ctx {
	return &Ctx{
		Req:    newRequest(r),
		w:      w,
		status: http.StatusOK,
	}
}

func (c *Ctx) Context() context.Context { return c.Req.Context() }

// Status sets the status used by the next response produced on c.
func (c *Ctx) Status(code int) { c.status = code }

func (c *Ctx) StatusCode() int { return c.status }

// Header exposes the outbound headers. They are flushed with the response.
func (c *Ctx) Header() http.Header { return c.w.Header() }

func (c *Ctx) SetHeader(name, value string) { c.w.Header().Set(name, value) }

func (c *Ctx) AppendHeader(name, value string) { c.w.Header().Add(name, value) }

// Set stores a request-scoped value.
func (c *Ctx) Set(key, val any) {
	if c.vars == nil {
		c.vars = make(map[any]any)
	}
	c.vars[key] = val
}

// Get reads a request-scoped value stored with Set.
func (c *Ctx) Get(key any) (any, bool) {
	v, ok := c.vars[key]
	return v, ok
}

// Text responds with a plain-text body.
func (c *Ctx) Text(s string) error {
	c.respond(contentTypeText, []byte(s))
	return nil
}

// JSON responds with v encoded as JSON.
func (c *Ctx) JSON(v any) error {
	b, err := codec.JSON.Marshal(v)
	if err != nil {
		return err
	}
	c.respond(codec.JSON.ContentType(), b)
	return nil
}

// Redirect responds with a bodyless redirect. A zero code means 302.
func (c *Ctx) Redirect(location string, code int) {
	if c.Sent() {
		return
	}
	if code == 0 {
		code = http.StatusFound
	}
	c.status = code
	c.w.Header().Set("Location", location)
	c.res = &Response{status: code}
	c.redirected = true
}

// Writer hands out the raw connection writer. The context is marked
// ResponseAlreadySent; the caller owns the response from here on.
func (c *Ctx) Writer() http.ResponseWriter {
	c.res = ResponseAlreadySent
	return c.w
}

// Res returns the response produced so far, or nil.
func (c *Ctx) Res() *Response { return c.res }

func (c *Ctx) Finalized() bool { return c.res != nil }

func (c *Ctx) Redirected() bool { return c.redirected }

func (c *Ctx) Sent() bool { return c.res == ResponseAlreadySent }

func (c *Ctx) respond(contentType string, body []byte) {
	if c.Sent() {
		return
	}
	c.res = &Response{status: c.status, contentType: contentType, body: body}
	c.redirected = false
}

func (c *Ctx) flush() {
	switch {
	case c.res == ResponseAlreadySent:
		return
	case c.res == nil:
		c.w.WriteHeader(c.status)
		return
	}
	if c.res.contentType != "" && c.w.Header().Get("Content-Type") == "" {
		c.w.Header().Set("Content-Type", c.res.contentType)
	}
	c.w.WriteHeader(c.res.status)
	if len(c.res.body) > 0 {
		_, _ = c.w.Write(c.res.body)
	}
}
