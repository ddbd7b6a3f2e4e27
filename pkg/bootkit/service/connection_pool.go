package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultMaxIdleConns    = 100
	defaultIdleConnTimeout = 90 * time.Second
)

var (
	errNegativeMaxIdleConns        = errors.New("MaxIdleConns cannot be negative")
	errNegativeMaxIdleConnsPerHost = errors.New("MaxIdleConnsPerHost cannot be negative")
	errNegativeIdleConnTimeout     = errors.New("IdleConnTimeout cannot be negative")
)

// ConnectionPoolConfig tunes connection reuse of the client's transport.
// Zero values keep the defaults: 100 idle connections, 2 per host, 90s idle timeout.
type ConnectionPoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

func (c *ConnectionPoolConfig) Validate() error {
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("%w, got: %d", errNegativeMaxIdleConns, c.MaxIdleConns)
	}

	if c.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("%w, got: %d", errNegativeMaxIdleConnsPerHost, c.MaxIdleConnsPerHost)
	}

	if c.IdleConnTimeout < 0 {
		return fmt.Errorf("%w, got: %v", errNegativeIdleConnTimeout, c.IdleConnTimeout)
	}

	return nil
}

// AddOption replaces the transport of the client. An invalid configuration is
// logged and leaves the client unchanged.
func (c *ConnectionPoolConfig) AddOption(h *Client) {
	if err := c.Validate(); err != nil {
		if h.logger != nil {
			h.logger.Errorf("invalid connection pool configuration: %v", err)
		}

		return
	}

	h.Client.Transport = otelhttp.NewTransport(c.transport())
}

func (c *ConnectionPoolConfig) transport() *http.Transport {
	// keeps proxy and TLS settings of the default transport
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = defaultMaxIdleConns
	if c.MaxIdleConns > 0 {
		transport.MaxIdleConns = c.MaxIdleConns
	}

	if c.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = c.MaxIdleConnsPerHost
	}

	transport.IdleConnTimeout = defaultIdleConnTimeout
	if c.IdleConnTimeout > 0 {
		transport.IdleConnTimeout = c.IdleConnTimeout
	}

	return transport
}
