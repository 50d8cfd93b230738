package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/joeydtaylor/steeze-bridge/pkg/codec"
)

// Request is the request shape handlers consume. Transports fill it once per
// request.
type Request struct {
	Method  string
	URL     string
	Path    string
	Params  map[string]string
	Query   map[string]string
	Headers map[string]string
	IP      string
	Body    io.ReadCloser

	// Native is the transport's own request value.
	Native any

	ctx context.Context
}

// Context returns the request's context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r using ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("nil context")
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Decode strictly decodes a JSON body into v. An empty body leaves v
// untouched. Malformed input is reported as a 400 HTTPException.
func (r *Request) Decode(v any) error {
	if r.Body == nil {
		return nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return NewHTTPException(http.StatusRequestEntityTooLarge, "Payload Too Large")
		}
		return fmt.Errorf("read body: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := codec.JSONStrict.Unmarshal(b, v); err != nil {
		return NewHTTPException(http.StatusBadRequest, err.Error())
	}
	return nil
}
