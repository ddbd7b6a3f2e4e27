package interceptor

import "bootkit.dev/pkg/bootkit/i18n"

type Option func(p *pipeline)

// WithDebug turns on request timing and verbose request and response logs.
func WithDebug(debug bool) Option {
	return func(p *pipeline) {
		p.debug = debug
		p.debugSet = true
	}
}

// WithLogger replaces the client's logger as the sink of the pipeline.
func WithLogger(l Logger) Option {
	return func(p *pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records the duration and the failures of every exchange.
func WithMetrics(m Metrics) Option {
	return func(p *pipeline) {
		p.metrics = m
	}
}

func WithLocalizer(l *i18n.Localizer) Option {
	return func(p *pipeline) {
		if l != nil {
			p.localizer = l
		}
	}
}
