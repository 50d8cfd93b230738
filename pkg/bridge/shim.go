package bridge

import (
	"fmt"
	"reflect"

	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
)

type bodyKind uint8

const (
	bodyAbsent bodyKind = iota
	bodyText
	bodyStructured
)

// stagedBody is the reply a handler has set but not yet sent.
type stagedBody struct {
	kind  bodyKind
	text  string
	value any
}

// stage classifies a reply body. Strings and falsy values (nil, typed nils,
// false, zero numbers) go out as text; everything else as JSON.
func stage(v any) stagedBody {
	switch t := v.(type) {
	case nil:
		return stagedBody{}
	case string:
		return stagedBody{kind: bodyText, text: t}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return stagedBody{}
		}
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		if rv.IsZero() {
			return stagedBody{kind: bodyText, text: fmt.Sprint(v)}
		}
	}
	return stagedBody{kind: bodyStructured, value: v}
}

type stateKey struct{}

// requestState is the bridge's per-request slot in the engine context.
type requestState struct {
	req  *framework.Request
	body stagedBody
}

func stateOf(c *httpx.Ctx) *requestState {
	if v, ok := c.Get(stateKey{}); ok {
		return v.(*requestState)
	}
	st := &requestState{}
	c.Set(stateKey{}, st)
	return st
}

// request returns the framework request for c. It is built on first use;
// later calls refresh the values that depend on the running handler.
func request(c *httpx.Ctx) *framework.Request {
	st := stateOf(c)
	r := c.Req
	if st.req == nil {
		st.req = (&framework.Request{
			Method:  r.Method(),
			URL:     r.URL(),
			Path:    r.Path(),
			Query:   r.Query(),
			Headers: r.Header(),
			IP:      r.RemoteIP(),
		}).WithContext(r.Context())
	} else if ctx := r.Context(); ctx != st.req.Context() {
		st.req = st.req.WithContext(ctx)
	}
	st.req.Params = r.Param()
	st.req.Body = r.Body()
	st.req.Native = r
	return st.req
}

func (a *Adapter) shim(h handler) httpx.Handler {
	return func(c *httpx.Ctx, next httpx.Next) error {
		if err := h(request(c), c, framework.Next(next)); err != nil {
			return err
		}
		return send(c)
	}
}

// send finalizes the response from the staged body. Redirects and responses
// written straight to the connection are left alone.
func send(c *httpx.Ctx) error {
	if c.Redirected() || c.Sent() {
		return nil
	}
	b := stateOf(c).body
	switch b.kind {
	case bodyText:
		return c.Text(b.text)
	case bodyStructured:
		return c.JSON(b.value)
	default:
		return c.Text("")
	}
}
