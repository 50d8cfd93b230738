package httpx

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Request is the engine's view of an inbound request. Parsed values are only
// reachable through accessor functions; nothing is precomputed.
type Request struct {
	raw    *http.Request
	params map[string]string
}

func newRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (r *Request) Raw() *http.Request { return r.raw }

func (r *Request) Context() context.Context { return r.raw.Context() }

func (r *Request) Method() string { return r.raw.Method }

// Path returns the escaped request path used for matching.
func (r *Request) Path() string {
	if r.raw.URL.RawPath != "" {
		return r.raw.URL.RawPath
	}
	return r.raw.URL.Path
}

// URL returns the absolute request URL.
func (r *Request) URL() string {
	if r.raw.URL.IsAbs() {
		return r.raw.URL.String()
	}
	scheme := "http"
	if r.raw.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.raw.Host + r.raw.URL.RequestURI()
}

// Body returns the request body stream.
func (r *Request) Body() io.ReadCloser { return r.raw.Body }

// Param returns the path parameters of the route whose handler is running.
func (r *Request) Param() map[string]string {
	out := make(map[string]string, len(r.params))
	for k, v := range r.params {
		out[k] = v
	}
	return out
}

func (r *Request) ParamValue(key string) string { return r.params[key] }

// Query returns the first value of every query parameter.
func (r *Request) Query() map[string]string {
	q := r.raw.URL.Query()
	out := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

func (r *Request) QueryValue(key string) string { return r.raw.URL.Query().Get(key) }

// Queries returns every value of every query parameter.
func (r *Request) Queries() url.Values { return r.raw.URL.Query() }

// Header returns inbound headers with lower-cased names; repeated values are
// joined with ", ". The Host header is included.
func (r *Request) Header() map[string]string {
	out := make(map[string]string, len(r.raw.Header)+1)
	for k, vs := range r.raw.Header {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	if r.raw.Host != "" {
		out["host"] = r.raw.Host
	}
	return out
}

func (r *Request) HeaderValue(name string) string {
	if strings.EqualFold(name, "host") {
		return r.raw.Host
	}
	return r.raw.Header.Get(name)
}

// RemoteIP returns the client address without its port.
func (r *Request) RemoteIP() string {
	host, _, err := net.SplitHostPort(r.raw.RemoteAddr)
	if err != nil {
		return r.raw.RemoteAddr
	}
	return host
}
