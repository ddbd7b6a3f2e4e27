package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	pkgErrors "github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"bootkit.dev/pkg/bootkit/logging"
	"bootkit.dev/pkg/bootkit/query"
)

const defaultAccept = "application/json, text/plain, */*"

type HTTP interface {
	// Get performs an HTTP GET request.
	Get(ctx context.Context, path string, queryParams map[string]any) (*Response, error)
	// GetWithHeaders performs an HTTP GET request with custom headers.
	GetWithHeaders(ctx context.Context, path string, queryParams map[string]any,
		headers map[string]string) (*Response, error)

	// Post performs an HTTP POST request.
	Post(ctx context.Context, path string, queryParams map[string]any, body []byte) (*Response, error)
	// PostWithHeaders performs an HTTP POST request with custom headers.
	PostWithHeaders(ctx context.Context, path string, queryParams map[string]any, body []byte,
		headers map[string]string) (*Response, error)

	// Put performs an HTTP PUT request.
	Put(ctx context.Context, path string, queryParams map[string]any, body []byte) (*Response, error)
	// PutWithHeaders performs an HTTP PUT request with custom headers.
	PutWithHeaders(ctx context.Context, path string, queryParams map[string]any, body []byte,
		headers map[string]string) (*Response, error)

	// Patch performs an HTTP PATCH request.
	Patch(ctx context.Context, path string, queryParams map[string]any, body []byte) (*Response, error)
	// PatchWithHeaders performs an HTTP PATCH request with custom headers.
	PatchWithHeaders(ctx context.Context, path string, queryParams map[string]any, body []byte,
		headers map[string]string) (*Response, error)

	// Delete performs an HTTP DELETE request.
	Delete(ctx context.Context, path string, body []byte) (*Response, error)
	// DeleteWithHeaders performs an HTTP DELETE request with custom headers.
	DeleteWithHeaders(ctx context.Context, path string, body []byte, headers map[string]string) (*Response, error)
}

// Client is an HTTP client whose requests and responses pass through its
// interceptor chains. Every call is a single attempt: there is no retry.
type Client struct {
	*http.Client
	trace.Tracer

	url           string
	logger        logging.Logger
	headers       map[string]string
	timeout       time.Duration
	skipJSONCheck bool
	interceptors  *Interceptors
}

// NewHTTPService creates a Client for serviceAddress. Paths passed to the
// request methods are resolved against it unless they are absolute URLs.
func NewHTTPService(serviceAddress string, logger logging.Logger, options ...Options) *Client {
	h := &Client{
		Client:       &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Tracer:       otel.Tracer("bootkit-http-client"),
		url:          strings.TrimRight(serviceAddress, "/"),
		logger:       logger,
		headers:      make(map[string]string),
		interceptors: newInterceptors(),
	}

	for _, o := range options {
		if o != nil {
			o.AddOption(h)
		}
	}

	return h
}

// Interceptors returns the client's interceptor chains.
func (h *Client) Interceptors() *Interceptors {
	return h.interceptors
}

func (h *Client) Logger() logging.Logger {
	return h.logger
}

func (h *Client) Get(ctx context.Context, path string, queryParams map[string]any) (*Response, error) {
	return h.GetWithHeaders(ctx, path, queryParams, nil)
}

func (h *Client) GetWithHeaders(ctx context.Context, path string, queryParams map[string]any,
	headers map[string]string) (*Response, error) {
	return h.Request(ctx, http.MethodGet, path, queryParams, nil, headers)
}

func (h *Client) Post(ctx context.Context, path string, queryParams map[string]any, body []byte) (*Response, error) {
	return h.PostWithHeaders(ctx, path, queryParams, body, nil)
}

func (h *Client) PostWithHeaders(ctx context.Context, path string, queryParams map[string]any, body []byte,
	headers map[string]string) (*Response, error) {
	return h.Request(ctx, http.MethodPost, path, queryParams, body, headers)
}

func (h *Client) Put(ctx context.Context, path string, queryParams map[string]any, body []byte) (*Response, error) {
	return h.PutWithHeaders(ctx, path, queryParams, body, nil)
}

func (h *Client) PutWithHeaders(ctx context.Context, path string, queryParams map[string]any, body []byte,
	headers map[string]string) (*Response, error) {
	return h.Request(ctx, http.MethodPut, path, queryParams, body, headers)
}

func (h *Client) Patch(ctx context.Context, path string, queryParams map[string]any, body []byte) (*Response, error) {
	return h.PatchWithHeaders(ctx, path, queryParams, body, nil)
}

func (h *Client) PatchWithHeaders(ctx context.Context, path string, queryParams map[string]any, body []byte,
	headers map[string]string) (*Response, error) {
	return h.Request(ctx, http.MethodPatch, path, queryParams, body, headers)
}

func (h *Client) Delete(ctx context.Context, path string, body []byte) (*Response, error) {
	return h.DeleteWithHeaders(ctx, path, body, nil)
}

func (h *Client) DeleteWithHeaders(ctx context.Context, path string, body []byte,
	headers map[string]string) (*Response, error) {
	return h.Request(ctx, http.MethodDelete, path, nil, body, headers)
}

// Request runs one exchange: request interceptors, dispatch, response
// interceptors. A rejection anywhere skips the remaining fulfilled handlers
// and is seen by every later rejected handler.
func (h *Client) Request(ctx context.Context, method, path string, queryParams map[string]any, body []byte,
	headers map[string]string) (*Response, error) {
	built, err := h.newRequest(ctx, method, path, queryParams, body, headers)

	req, err := h.interceptors.Request.run(built, err)

	var resp *Response

	switch {
	case err != nil:
		err = withRequest(built, err)
	case req == nil:
		err = newError(KindRequest, "request interceptor returned no request", built, nil)
	default:
		resp, err = h.dispatch(req)
	}

	return h.interceptors.Response.run(resp, err)
}

func (h *Client) newRequest(ctx context.Context, method, path string, queryParams map[string]any, body []byte,
	headers map[string]string) (*Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req := &Request{
		ID:            uuid.NewString(),
		Method:        method,
		URL:           h.resolve(path),
		Header:        make(http.Header),
		Body:          body,
		SkipJSONCheck: h.skipJSONCheck || jsonCheckDisabled(ctx),
		ctx:           ctx,
	}

	if q := query.Stringify(queryParams); q != "" {
		sep := "?"
		if strings.Contains(req.URL, "?") {
			sep = "&"
		}

		req.URL += sep + q
	}

	req.Header.Set("Accept", defaultAccept)

	if len(body) > 0 && json.Valid(body) {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		wrapped := pkgErrors.Wrap(err, "invalid request URL")

		return req, newError(KindRequest, wrapped.Error(), req, wrapped)
	}

	return req, nil
}

func (h *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || h.url == "" {
		return path
	}

	uri := h.url + "/" + strings.TrimLeft(path, "/")

	return strings.TrimRight(uri, "/")
}

func (h *Client) dispatch(req *Request) (*Response, error) {
	ctx := req.Context()

	if h.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	spanContext, span := h.Tracer.Start(ctx, req.Method+" "+req.URL)
	defer span.End()

	spanContext = httptrace.WithClientTrace(spanContext, otelhttptrace.NewClientTrace(spanContext))

	httpReq, err := http.NewRequestWithContext(spanContext, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		wrapped := pkgErrors.Wrap(err, "building request")

		return nil, newError(KindRequest, wrapped.Error(), req, wrapped)
	}

	httpReq.Header = req.Header.Clone()

	// inject the TraceParent header manually in the request headers
	otel.GetTextMapPropagator().Inject(spanContext, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()

	resp, err := h.Do(httpReq)
	if err != nil {
		return nil, h.transportError(ctx, req, start, err, false)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, h.transportError(ctx, req, start, err, true)
	}

	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Data:       decodeBody(body),
		Body:       body,
		Request:    req,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(r)
	}

	return r, nil
}

func (h *Client) transportError(ctx context.Context, req *Request, start time.Time, err error, reading bool) *Error {
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		return newError(KindCanceled, msgCanceled, req, err)
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		return newTimeoutError(req, h.effectiveTimeout(ctx, start), err)
	case reading || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET):
		return newError(KindAborted, msgAborted, req, err)
	default:
		return newError(KindNetwork, msgNetwork, req, err)
	}
}

func (h *Client) effectiveTimeout(ctx context.Context, start time.Time) time.Duration {
	switch {
	case h.timeout > 0:
		return h.timeout
	case h.Client.Timeout > 0:
		return h.Client.Timeout
	}

	if deadline, ok := ctx.Deadline(); ok {
		return deadline.Sub(start).Round(time.Millisecond)
	}

	return 0
}

func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}

	return v
}

func withRequest(req *Request, err error) error {
	e := AsError(err)
	if e.Request == nil {
		e.Request = req
	}

	return e
}

func withResponse(resp *Response, err error) error {
	e := AsError(err)

	if resp != nil {
		if e.Response == nil {
			e.Response = resp
		}

		if e.Request == nil {
			e.Request = resp.Request
		}
	}

	return e
}
