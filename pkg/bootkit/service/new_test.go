package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootkit.dev/pkg/bootkit/logging"
)

func newTestService(t *testing.T, handler http.HandlerFunc, options ...Options) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPService(server.URL, logging.NewMockLogger(logging.INFO), options...), server
}

func TestClient_GetJSON(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "a%5Bb%5D=c&page=2", r.URL.RawQuery)
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, defaultAccept, r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Zoé","roles":["admin"]}`))
	}, &DefaultHeaders{Headers: map[string]string{"X-Requested-With": "XMLHttpRequest"}})

	resp, err := svc.Get(context.Background(), "/users", map[string]any{
		"page": 2,
		"a":    map[string]any{"b": "c"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"name": "Zoé", "roles": []any{"admin"}}, resp.Data)
	assert.NotEmpty(t, resp.Request.ID)
	assert.False(t, resp.Timed)

	var user struct {
		Name string `json:"name"`
	}

	require.NoError(t, resp.Bind(&user))
	assert.Equal(t, "Zoé", user.Name)
}

func TestClient_BodyDecoding(t *testing.T) {
	testCases := []struct {
		desc string
		body string
		exp  any
	}{
		{"object", `{"ok":true}`, map[string]any{"ok": true}},
		{"not json keeps the raw text", "<html>not json</html>", "<html>not json</html>"},
		{"empty body", "", nil},
		{"blank body", "  \n", nil},
	}

	for i, tc := range testCases {
		svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, tc.body)
		})

		resp, err := svc.Get(context.Background(), "data", nil)

		require.NoError(t, err, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, tc.exp, resp.Data, "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestClient_Methods(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		if len(b) > 0 {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}

		assert.Equal(t, "value", r.Header.Get("X-Custom"))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"method":"`+r.Method+`"}`)
	})

	ctx := context.Background()
	body := []byte(`{"id":1}`)
	headers := map[string]string{"X-Custom": "value"}

	calls := map[string]func() (*Response, error){
		http.MethodGet:    func() (*Response, error) { return svc.GetWithHeaders(ctx, "r", nil, headers) },
		http.MethodPost:   func() (*Response, error) { return svc.PostWithHeaders(ctx, "r", nil, body, headers) },
		http.MethodPut:    func() (*Response, error) { return svc.PutWithHeaders(ctx, "r", nil, body, headers) },
		http.MethodPatch:  func() (*Response, error) { return svc.PatchWithHeaders(ctx, "r", nil, body, headers) },
		http.MethodDelete: func() (*Response, error) { return svc.DeleteWithHeaders(ctx, "r", body, headers) },
	}

	for method, call := range calls {
		resp, err := call()

		require.NoError(t, err, method)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, method)
		assert.Equal(t, map[string]any{"method": method}, resp.Data, method)
	}
}

func TestClient_StatusError(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"missing"}`)
	})

	resp, err := svc.Get(context.Background(), "missing", nil)

	assert.Nil(t, resp)

	var e *Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, KindStatus, e.Kind)
	assert.Equal(t, "Request failed with status code 404", e.Message)
	assert.Equal(t, e.Message, e.Code)
	assert.Equal(t, http.StatusNotFound, e.StatusCode())
	assert.Equal(t, map[string]any{"error": "missing"}, e.Response.Data)
	assert.NotNil(t, e.Request)
}

func TestClient_Timeout(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, &WithTimeout{Timeout: 20 * time.Millisecond})

	_, err := svc.Get(context.Background(), "slow", nil)

	var e *Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, KindTimeout, e.Kind)
	assert.Equal(t, "timeout of 20ms exceeded", e.Message)
	assert.Equal(t, 20*time.Millisecond, e.Timeout)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, IsCancel(err))
}

func TestClient_Canceled(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Get(ctx, "any", nil)

	var e *Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, KindCanceled, e.Kind)
	assert.Equal(t, "canceled", e.Message)
	assert.True(t, IsCancel(err))
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	svc := NewHTTPService(server.URL, logging.NewMockLogger(logging.INFO))

	_, err := svc.Get(context.Background(), "down", nil)

	var e *Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, KindNetwork, e.Kind)
	assert.Equal(t, "Network Error", e.Message)
	assert.NotNil(t, e.Err)
}

func TestClient_Aborted(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}

		conn, buf, err := hj.Hijack()
		if err != nil {
			return
		}

		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\npartial")
		_ = buf.Flush()
		_ = conn.Close()
	})

	_, err := svc.Get(context.Background(), "cut", nil)

	var e *Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, KindAborted, e.Kind)
	assert.Equal(t, "Request aborted", e.Message)
}

func TestClient_InvalidURL(t *testing.T) {
	svc := NewHTTPService("http://localhost", logging.NewMockLogger(logging.INFO))

	_, err := svc.Get(context.Background(), "bad%zzpath", nil)

	var e *Error
	require.ErrorAs(t, err, &e)

	assert.Equal(t, KindRequest, e.Kind)
	assert.Contains(t, e.Message, "invalid request URL")
	assert.NotNil(t, e.Request)
}

func TestClient_AbsolutePath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/elsewhere", r.URL.Path)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	svc := NewHTTPService("http://unused.invalid", logging.NewMockLogger(logging.INFO))

	_, err := svc.Get(context.Background(), server.URL+"/elsewhere", nil)

	assert.NoError(t, err)
}

func TestClient_JSONCheckFlags(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}

	svc, _ := newTestService(t, handler)

	resp, err := svc.Get(context.Background(), "", nil)
	require.NoError(t, err)
	assert.False(t, resp.Request.SkipJSONCheck)

	resp, err = svc.Get(WithoutJSONCheck(context.Background()), "", nil)
	require.NoError(t, err)
	assert.True(t, resp.Request.SkipJSONCheck)

	lenient, _ := newTestService(t, handler, &AcceptNonJSON{})

	resp, err = lenient.Get(context.Background(), "", nil)
	require.NoError(t, err)
	assert.True(t, resp.Request.SkipJSONCheck)
}

func TestClient_CustomClient(t *testing.T) {
	var used bool

	custom := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used = true

		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(http.NoBody), Header: http.Header{}}, nil
	})}

	svc := NewHTTPService("http://example.test", logging.NewMockLogger(logging.INFO), &WithCustomClient{Client: custom})

	resp, err := svc.Get(context.Background(), "x", nil)

	require.NoError(t, err)
	assert.True(t, used)
	assert.Nil(t, resp.Data)
}

func TestClient_UniqueRequestIDs(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	first, err := svc.Get(context.Background(), "", nil)
	require.NoError(t, err)

	second, err := svc.Get(context.Background(), "", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Request.ID, second.Request.ID)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
