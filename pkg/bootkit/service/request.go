package service

import (
	"context"
	"net/http"
)

// Request is the outgoing configuration handed to request interceptors.
// ID correlates the request with its response or error; it is unique per dispatch.
type Request struct {
	ID     string
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// SkipJSONCheck accepts bodies that do not decode as JSON.
	SkipJSONCheck bool

	ctx context.Context
}

// Context returns the request's context, never nil. It is safe to call on a nil Request.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}

	return r.ctx
}

// WithContext returns a shallow copy of r using ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	cp := *r
	cp.ctx = ctx

	return &cp
}

type jsonCheckKey struct{}

// WithoutJSONCheck marks every request made with the returned context as
// accepting a body that is not JSON.
func WithoutJSONCheck(ctx context.Context) context.Context {
	return context.WithValue(ctx, jsonCheckKey{}, true)
}

func jsonCheckDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(jsonCheckKey{}).(bool)

	return v
}
