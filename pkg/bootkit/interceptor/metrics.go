package interceptor

import (
	"context"
	"strconv"
	"sync"
)

const (
	responseHistogram = "app_http_client_response"
	errorCounter      = "app_http_client_errors_total"
)

type Metrics interface {
	NewCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

type registration struct {
	metrics Metrics
	name    string
}

//nolint:gochecknoglobals // instruments registered per Metrics, shared by every pipeline using it
var registered sync.Map

// registerMetrics creates the instruments of the pipeline once per Metrics.
func registerMetrics(m Metrics) {
	if _, loaded := registered.LoadOrStore(registration{m, responseHistogram}, true); !loaded {
		m.NewHistogram(responseHistogram, "Response time of outgoing HTTP requests in seconds.",
			.001, .003, .005, .01, .02, .03, .05, .1, .2, .3, .5, .75, 1, 2, 3, 5, 10, 30)
	}

	if _, loaded := registered.LoadOrStore(registration{m, errorCounter}, true); !loaded {
		m.NewCounter(errorCounter, "Number of failed outgoing HTTP requests by kind.")
	}
}

func (p *pipeline) observe(ctx context.Context, method string, status int, elapsed float64) {
	if p.metrics == nil {
		return
	}

	p.metrics.RecordHistogram(ctx, responseHistogram, elapsed, "method", method, "status", strconv.Itoa(status))
}

func (p *pipeline) countError(ctx context.Context, kind string) {
	if p.metrics == nil {
		return
	}

	p.metrics.IncrementCounter(ctx, errorCounter, "kind", kind)
}
