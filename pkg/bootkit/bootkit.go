// Package bootkit initializes the cross-cutting parts of an application:
// configuration, logging, metrics, process-wide error handlers, routing and
// the interceptor pipeline of its HTTP clients.
package bootkit

import (
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bootkit.dev/pkg/bootkit/config"
	"bootkit.dev/pkg/bootkit/handlers"
	"bootkit.dev/pkg/bootkit/i18n"
	"bootkit.dev/pkg/bootkit/interceptor"
	"bootkit.dev/pkg/bootkit/logging"
	"bootkit.dev/pkg/bootkit/metrics"
	"bootkit.dev/pkg/bootkit/route"
	"bootkit.dev/pkg/bootkit/service"
)

const (
	defaultConfigDir = "./configs"

	requestedWithHeader = "X-Requested-With"
	requestedWith       = "XMLHttpRequest"
)

// App holds what an application gets initialized with.
type App struct {
	// Config can be used by applications to fetch custom configurations from environment or file.
	Config   config.Config
	Settings config.Settings
	Logger   logging.Logger

	registry  *prometheus.Registry
	metrics   metrics.Manager
	localizer *i18n.Localizer
	router    *route.Router

	state    *handlers.State
	alerter  handlers.Alerter
	reporter *handlers.Reporter

	mu       sync.Mutex
	attached map[interceptor.Client]bool
}

type Option func(a *App)

// WithConfig replaces the configuration read from ./configs and the environment.
func WithConfig(c config.Config) Option {
	return func(a *App) {
		a.Config = c
	}
}

// WithHandlerState makes the app install its error handlers in s. Apps of the
// same process should share one State.
func WithHandlerState(s *handlers.State) Option {
	return func(a *App) {
		a.state = s
	}
}

// WithAlerter sets where debug mode alerts go. By default they are posted to
// ALERT_WEBHOOK_URL when set, and written to stderr otherwise.
func WithAlerter(al handlers.Alerter) Option {
	return func(a *App) {
		a.alerter = al
	}
}

// New reads the configuration and builds the logger, the metrics and the router.
func New(opts ...Option) *App {
	a := &App{attached: make(map[interceptor.Client]bool)}

	for _, o := range opts {
		o(a)
	}

	if a.Config == nil {
		a.Config = readConfig()
	}

	if a.state == nil {
		a.state = new(handlers.State)
	}

	bootLogger := logging.NewLogger(logging.INFO)
	a.Settings = config.LoadSettings(a.Config, bootLogger)

	a.Logger = newLogger(a.Settings, bootLogger)

	switch {
	case a.alerter != nil:
	case a.Settings.AlertWebhookURL != "":
		a.alerter = &handlers.WebhookAlerter{URL: a.Settings.AlertWebhookURL, Logger: a.Logger}
	default:
		a.alerter = &handlers.WriterAlerter{W: os.Stderr}
	}

	a.localizer = i18n.New(a.Settings.Locale)
	a.router = route.New(a.Settings.RouteMode, a.Settings.PublicPath, route.WithLegacyCompat(a.Settings.LegacyCompat))

	a.registry = prometheus.NewRegistry()

	meter, err := metrics.Prometheus(a.Settings.AppName, a.Settings.AppVersion, a.registry)
	if err != nil {
		a.Logger.Errorf("could not create metrics exporter: %v", err)
	} else {
		a.metrics = metrics.NewMetricsManager(meter, a.Logger)
	}

	return a
}

// newLogger logs to LOG_FILE when it is set and can be opened, to stdout otherwise.
func newLogger(s config.Settings, fallback logging.Logger) logging.Logger {
	level := logging.GetLevelFromString(s.LogLevel)

	if s.LogFile == "" {
		return logging.NewLogger(level)
	}

	l, err := logging.NewFileLogger(s.LogFile, level)
	if err != nil {
		fallback.Errorf("could not open LOG_FILE %q, logging to stdout: %v", s.LogFile, err)

		return logging.NewLogger(level)
	}

	return l
}

func readConfig() config.Config {
	var configLocation string
	if _, err := os.Stat(defaultConfigDir); err == nil {
		configLocation = defaultConfigDir
	}

	return config.NewEnvFile(configLocation, logging.NewLogger(logging.INFO))
}

// HTTPService returns a client for address configured from the settings. An
// empty address uses HTTP_BASE_URL. The client still has to be passed to Init.
func (a *App) HTTPService(address string, options ...service.Options) *service.Client {
	if address == "" {
		address = a.Settings.HTTPBaseURL
	}

	opts := []service.Options{&service.DefaultHeaders{Headers: map[string]string{requestedWithHeader: requestedWith}}}

	if a.Settings.HTTPTimeout > 0 {
		opts = append(opts, &service.WithTimeout{Timeout: a.Settings.HTTPTimeout})
	}

	if a.Settings.AcceptNonJSON {
		opts = append(opts, &service.AcceptNonJSON{})
	}

	return service.NewHTTPService(address, a.Logger, append(opts, options...)...)
}

// Init installs the process-wide error handlers and attaches the interceptor
// pipeline to every client. Calling it again is harmless: handlers are only
// installed once per State and a client is only attached once.
func (a *App) Init(clients ...interceptor.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()

	reporter, installed := handlers.Install(a.state, a.Logger, a.Settings.DebugMode, a.alerter)
	a.reporter = reporter

	if installed {
		a.Logger.Debugf("error handlers installed, debug mode: %v", a.Settings.DebugMode)
	}

	for _, c := range clients {
		if c == nil || a.attached[c] {
			continue
		}

		if client, ok := c.(*service.Client); ok {
			(&service.DefaultHeaders{Headers: map[string]string{requestedWithHeader: requestedWith}}).AddOption(client)
		}

		opts := []interceptor.Option{
			interceptor.WithDebug(a.Settings.DebugMode),
			interceptor.WithLocalizer(a.localizer),
		}

		if a.metrics != nil {
			opts = append(opts, interceptor.WithMetrics(a.metrics))
		}

		interceptor.Setup(c, opts...)
		a.attached[c] = true
	}
}

// Reporter returns the reporter of the installed error handlers, nil before Init.
func (a *App) Reporter() *handlers.Reporter {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.reporter
}

func (a *App) Router() *route.Router {
	return a.router
}

func (a *App) Localizer() *i18n.Localizer {
	return a.localizer
}

// MetricsHandler serves the metrics of the app in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}
