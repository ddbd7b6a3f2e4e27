// Package interceptor attaches the error normalization, payload validation,
// timing and logging handlers to a service.Client.
package interceptor

import (
	"errors"
	"net/http"
	"sync"

	"bootkit.dev/pkg/bootkit/config"
	"bootkit.dev/pkg/bootkit/i18n"
	"bootkit.dev/pkg/bootkit/logging"
	"bootkit.dev/pkg/bootkit/service"
)

const (
	stageRequest  = "request"
	stageResponse = "response"
)

// Client is the part of service.Client the pipeline attaches to.
type Client interface {
	Interceptors() *service.Interceptors
	Logger() logging.Logger
}

type pipeline struct {
	debug     bool
	debugSet  bool
	logger    Logger
	metrics   Metrics
	localizer *i18n.Localizer
	timings   *timings

	// errors already reported by the request stage
	reported sync.Map
}

// Setup registers the pipeline on client. Every call registers a new set of
// handlers, so it is meant to be called once per client.
//
// Unless overridden by options, debug mode and locale are read from the
// DEBUG_MODE and APP_LOCALE environment variables and logs go to the client's
// logger, or to stdout when the client has none.
func Setup(client Client, opts ...Option) {
	setup(client, opts...)
}

func setup(client Client, opts ...Option) *pipeline {
	base := client.Logger()
	if base == nil {
		base = logging.NewLogger(logging.INFO)
	}

	p := &pipeline{
		logger:  base,
		timings: newTimings(),
	}

	for _, o := range opts {
		o(p)
	}

	if !p.debugSet || p.localizer == nil {
		s := config.LoadSettings(&config.EnvLoader{}, base)

		if !p.debugSet {
			p.debug = s.DebugMode
		}

		if p.localizer == nil {
			p.localizer = i18n.New(s.Locale)
		}
	}

	if p.metrics != nil {
		registerMetrics(p.metrics)
	}

	i := client.Interceptors()

	i.Response.Use(nil, p.normalize)

	if p.debug || p.metrics != nil {
		i.Request.Use(p.onRequest, p.onRequestError)
	} else {
		i.Request.Use(nil, p.onRequestError)
	}

	i.Response.Use(p.onResponse, p.onResponseError)

	return p
}

func (p *pipeline) onRequest(r *service.Request) (*service.Request, error) {
	p.timings.start(r.ID)

	if p.debug {
		p.logger.Log(newRequestLog(r))
	}

	return r, nil
}

func (p *pipeline) onRequestError(err error) (*service.Request, error) {
	e, err := envelope(err)

	// credentials never reach the logs
	if !hasCredential(e.Request) {
		p.logger.Error(newErrorLog(stageRequest, e))
	}

	p.reported.Store(e, struct{}{})

	return nil, err
}

func (p *pipeline) onResponse(r *service.Response) (*service.Response, error) {
	req := r.Request
	if req == nil {
		req = &service.Request{}
	}

	elapsed, timed := p.timings.stop(req.ID)
	if timed {
		p.observe(req.Context(), req.Method, r.StatusCode, elapsed)
	}

	if !req.SkipJSONCheck {
		if _, raw := r.Data.(string); raw {
			e := &service.Error{
				Kind:     service.KindInvalidData,
				Message:  p.localizer.Text(i18n.InvalidServerData),
				Code:     i18n.InvalidServerData,
				Request:  r.Request,
				Response: r,
			}

			p.logger.Error(newErrorLog(stageResponse, e))
			p.countError(req.Context(), e.Kind.String())

			return nil, e
		}
	}

	if p.debug && timed {
		r.Elapsed = elapsed
		r.Timed = true

		p.logger.Log(newLog(r))
	}

	return r, nil
}

func (p *pipeline) onResponseError(err error) (*service.Response, error) {
	e, err := envelope(err)

	if e.Request != nil {
		if elapsed, timed := p.timings.stop(e.Request.ID); timed {
			p.observe(e.Request.Context(), e.Request.Method, e.StatusCode(), elapsed)

			if p.debug {
				e.Elapsed = elapsed
				e.Timed = true
			}
		}
	}

	p.countError(e.Request.Context(), e.Kind.String())

	if _, done := p.reported.LoadAndDelete(e); done {
		return nil, err
	}

	if !suppressed(e) {
		p.logger.Error(newErrorLog(stageResponse, e))
	}

	return nil, err
}

// suppressed reports the expected failures that are not worth logging.
func suppressed(e *service.Error) bool {
	switch e.StatusCode() {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return true
	}

	return service.IsCancel(e)
}

// envelope returns the *service.Error carried by err. A foreign error is
// replaced by a new envelope wrapping it.
func envelope(err error) (*service.Error, error) {
	var e *service.Error
	if errors.As(err, &e) {
		return e, err
	}

	e = service.AsError(err)

	return e, e
}
