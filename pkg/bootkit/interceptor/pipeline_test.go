package interceptor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bootkit.dev/pkg/bootkit/i18n"
	"bootkit.dev/pkg/bootkit/logging"
	"bootkit.dev/pkg/bootkit/service"
	"bootkit.dev/pkg/bootkit/testutil"
)

const invalidDataFR = "Les données du serveur sont invalides. Chargement des données impossible."

var errInterceptor = errors.New("boom")

func newTestClient(t *testing.T, handler http.HandlerFunc, debug bool, options ...service.Options) (
	*service.Client, *MockLogger) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := service.NewHTTPService(server.URL, logging.NewMockLogger(logging.DEBUG), options...)
	logger := NewMockLogger(gomock.NewController(t))

	Setup(client, WithDebug(debug), WithLogger(logger), WithLocalizer(i18n.New("fr")))

	return client, logger
}

func writeJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"id":1,"name":"Zoé"}`)
}

func TestSetup_RegistersHandlers(t *testing.T) {
	client, _ := newTestClient(t, writeJSON, false)

	assert.Equal(t, 1, client.Interceptors().Request.Len())
	assert.Equal(t, 2, client.Interceptors().Response.Len())
}

func TestSetup_ClientWithoutLogger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	var err error

	out := testutil.StderrOutputForFunc(func() {
		client := service.NewHTTPService(server.URL, nil)
		Setup(client, WithDebug(false), WithLocalizer(i18n.New("fr")))

		_, err = client.Get(context.Background(), "/users/7", nil)
	})

	require.Error(t, err)
	assert.Equal(t, "La requête a échoué avec le code statut 404", err.Error())
	assert.Contains(t, out, `"responseCode":404`)
}

func TestSetup_ClientWithoutLoggerReportsSettings(t *testing.T) {
	t.Setenv("DEBUG_MODE", "maybe")

	client := service.NewHTTPService("http://localhost", nil)

	out := testutil.StdoutOutputForFunc(func() {
		Setup(client)
	})

	assert.Contains(t, out, "DEBUG_MODE")
	assert.Equal(t, 1, client.Interceptors().Request.Len(), "debug stays off")
}

func TestPipeline_StructuredBodyPassesThrough(t *testing.T) {
	client, _ := newTestClient(t, writeJSON, false)

	resp, err := client.Get(context.Background(), "/users/1", nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1), "name": "Zoé"}, resp.Data)
	assert.False(t, resp.Timed)
	assert.Zero(t, resp.Elapsed)
}

func TestPipeline_InvalidData(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		client, logger := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, "<html>not json</html>")
		}, false)

		logger.EXPECT().Error(gomock.Any()).Times(1)

		resp, err := client.Get(context.Background(), "", nil)

		assert.Nil(t, resp)
		require.Error(t, err, "status %d", status)
		assert.Equal(t, invalidDataFR, err.Error(), "status %d", status)

		e := service.AsError(err)
		assert.Equal(t, service.KindInvalidData, e.Kind)
		assert.Equal(t, "<html>not json</html>", e.Response.Data)
		assert.NotNil(t, e.Request)
	}
}

func TestPipeline_InvalidDataReachesLaterHandlers(t *testing.T) {
	client, logger := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "plain text")
	}, false)

	logger.EXPECT().Error(gomock.Any()).Times(1)

	var seen error

	client.Interceptors().Response.Use(nil, func(err error) (*service.Response, error) {
		seen = err

		return nil, err
	})

	_, err := client.Get(context.Background(), "", nil)

	require.Error(t, err)
	assert.Same(t, err, seen)
}

func TestPipeline_JSONCheckOptOut(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "plain text")
	}

	client, _ := newTestClient(t, handler, false)

	resp, err := client.Get(service.WithoutJSONCheck(context.Background()), "", nil)

	require.NoError(t, err)
	assert.Equal(t, "plain text", resp.Data)

	client, _ = newTestClient(t, handler, false, &service.AcceptNonJSON{})

	resp, err = client.Get(context.Background(), "", nil)

	require.NoError(t, err)
	assert.Equal(t, "plain text", resp.Data)
}

func TestPipeline_DebugElapsed(t *testing.T) {
	client, logger := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		writeJSON(w, r)
	}, true)

	gomock.InOrder(
		logger.EXPECT().Log(gomock.AssignableToTypeOf(&RequestLog{})),
		logger.EXPECT().Log(gomock.AssignableToTypeOf(&Log{})),
	)

	resp, err := client.Get(context.Background(), "", nil)

	require.NoError(t, err)
	assert.True(t, resp.Timed)
	assert.GreaterOrEqual(t, resp.Elapsed, 0.005)
}

func TestPipeline_DebugElapsedOnError(t *testing.T) {
	client, logger := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, true)

	logger.EXPECT().Log(gomock.Any())
	logger.EXPECT().Error(gomock.AssignableToTypeOf(&ErrorLog{}))

	_, err := client.Get(context.Background(), "", nil)

	e := service.AsError(err)
	assert.True(t, e.Timed)
	assert.GreaterOrEqual(t, e.Elapsed, 0.0)
}

func TestPipeline_StatusMessages(t *testing.T) {
	testCases := []struct {
		desc   string
		status int
		logged int
	}{
		{"bad request is not logged", http.StatusBadRequest, 0},
		{"unauthorized is not logged", http.StatusUnauthorized, 0},
		{"forbidden", http.StatusForbidden, 1},
		{"not found", http.StatusNotFound, 1},
		{"server error", http.StatusInternalServerError, 1},
		{"unavailable", http.StatusServiceUnavailable, 1},
	}

	for i, tc := range testCases {
		client, logger := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}, false)

		logger.EXPECT().Error(gomock.Any()).Times(tc.logged)

		_, err := client.Get(context.Background(), "", nil)

		require.Error(t, err, "TEST[%d], Failed.\n%s", i, tc.desc)

		e := service.AsError(err)
		assert.Equal(t, "La requête a échoué avec le code statut "+strconv.Itoa(tc.status), e.Message,
			"TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "Request failed with status code "+strconv.Itoa(tc.status), e.Code, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, tc.status, e.StatusCode(), "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestPipeline_Timeout(t *testing.T) {
	client, logger := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, false, &service.WithTimeout{Timeout: 20 * time.Millisecond})

	logger.EXPECT().Error(gomock.Any()).Times(1)

	_, err := client.Get(context.Background(), "", nil)

	require.Error(t, err)
	assert.Equal(t, "Délai de 20 ms dépassé", err.Error())
	assert.Equal(t, "timeout of 20ms exceeded", service.AsError(err).Code)
}

func TestPipeline_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(writeJSON))
	server.Close()

	client := service.NewHTTPService(server.URL, logging.NewMockLogger(logging.DEBUG))
	logger := NewMockLogger(gomock.NewController(t))

	Setup(client, WithDebug(false), WithLogger(logger), WithLocalizer(i18n.New("fr")))

	logger.EXPECT().Error(gomock.Any()).Times(1)

	_, err := client.Get(context.Background(), "", nil)

	require.Error(t, err)
	assert.Equal(t, "Service indisponible (problème de réseau)", err.Error())
}

func TestPipeline_CancelNotLogged(t *testing.T) {
	client, _ := newTestClient(t, writeJSON, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "", nil)

	require.Error(t, err)
	assert.True(t, service.IsCancel(err))
	assert.Equal(t, "canceled", err.Error())
}

func TestPipeline_RequestStageFailure(t *testing.T) {
	testCases := []struct {
		desc        string
		body        []byte
		contentType string
		logged      int
	}{
		{"no body is logged", nil, "", 1},
		{"json without password", []byte(`{"login":"zoe"}`), "", 1},
		{"json with empty password", []byte(`{"login":"zoe","password":""}`), "", 1},
		{"json with password", []byte(`{"login":"zoe","password":"s3cret"}`), "", 0},
		{"form with password", []byte(`login=zoe&password=s3cret`), "application/x-www-form-urlencoded", 0},
		{"password in text body", []byte(`password=s3cret`), "text/plain", 1},
	}

	for i, tc := range testCases {
		dispatched := false

		client, logger := newTestClient(t, func(http.ResponseWriter, *http.Request) {
			dispatched = true
		}, false)

		logger.EXPECT().Error(gomock.Any()).Times(tc.logged)

		client.Interceptors().Request.Use(func(*service.Request) (*service.Request, error) {
			return nil, errInterceptor
		}, nil)

		var headers map[string]string
		if tc.contentType != "" {
			headers = map[string]string{"Content-Type": tc.contentType}
		}

		_, err := client.PostWithHeaders(context.Background(), "/login", nil, tc.body, headers)

		require.Error(t, err, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.ErrorIs(t, err, errInterceptor, "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.Equal(t, "boom", err.Error(), "TEST[%d], Failed.\n%s", i, tc.desc)
		assert.False(t, dispatched, "TEST[%d], Failed.\n%s", i, tc.desc)
	}
}

func TestPipeline_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		writeJSON(w, r)
	}))
	t.Cleanup(server.Close)

	ctrl := gomock.NewController(t)
	metrics := NewMockMetrics(ctrl)
	logger := NewMockLogger(ctrl)

	metrics.EXPECT().NewHistogram(responseHistogram, gomock.Any(), gomock.Any())
	metrics.EXPECT().NewCounter(errorCounter, gomock.Any())

	client := service.NewHTTPService(server.URL, logging.NewMockLogger(logging.DEBUG))

	Setup(client, WithDebug(false), WithLogger(logger), WithMetrics(metrics), WithLocalizer(i18n.New("fr")))

	metrics.EXPECT().RecordHistogram(gomock.Any(), responseHistogram, gomock.Any(), "method", "GET", "status", "200")

	resp, err := client.Get(context.Background(), "/ok", nil)

	require.NoError(t, err)
	assert.False(t, resp.Timed, "timing for metrics does not leak into responses")

	metrics.EXPECT().RecordHistogram(gomock.Any(), responseHistogram, gomock.Any(), "method", "GET", "status", "404")
	metrics.EXPECT().IncrementCounter(gomock.Any(), errorCounter, "kind", "status")
	logger.EXPECT().Error(gomock.Any())

	_, err = client.Get(context.Background(), "/missing", nil)

	require.Error(t, err)
}

func TestPipeline_ForeignResponseErrorStopsTimer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(writeJSON))
	t.Cleanup(server.Close)

	client := service.NewHTTPService(server.URL, logging.NewMockLogger(logging.DEBUG))
	client.Interceptors().Response.Use(func(*service.Response) (*service.Response, error) {
		return nil, errInterceptor
	}, nil)

	logger := NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Log(gomock.AssignableToTypeOf(&RequestLog{}))
	logger.EXPECT().Error(gomock.AssignableToTypeOf(&ErrorLog{}))

	p := setup(client, WithDebug(true), WithLogger(logger), WithLocalizer(i18n.New("fr")))

	_, err := client.Get(context.Background(), "/users/1", nil)

	require.ErrorIs(t, err, errInterceptor)

	e := service.AsError(err)
	assert.Equal(t, "boom", e.Message)
	assert.True(t, e.Timed)

	pending := 0

	p.timings.starts.Range(func(any, any) bool {
		pending++

		return true
	})

	assert.Zero(t, pending)
}

func TestPipeline_ConcurrentRequests(t *testing.T) {
	client, logger := newTestClient(t, writeJSON, true)

	logger.EXPECT().Log(gomock.Any()).Times(20)

	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		go func() {
			resp, err := client.Get(context.Background(), "", nil)
			if err == nil && !resp.Timed {
				err = errors.New("response not timed")
			}

			errs <- err
		}()
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, <-errs)
	}
}
