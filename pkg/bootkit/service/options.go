package service

import (
	"net/http"
	"time"
)

type Options interface {
	AddOption(h *Client)
}

// DefaultHeaders are set on every request; per-call headers take precedence.
type DefaultHeaders struct {
	Headers map[string]string
}

func (d *DefaultHeaders) AddOption(h *Client) {
	for k, v := range d.Headers {
		h.headers[k] = v
	}
}

// WithTimeout bounds every exchange, body included.
type WithTimeout struct {
	Timeout time.Duration
}

func (w *WithTimeout) AddOption(h *Client) {
	h.timeout = w.Timeout
}

type WithCustomClient struct {
	Client *http.Client
}

func (w *WithCustomClient) AddOption(h *Client) {
	if w.Client != nil {
		h.Client = w.Client
	}
}

// AcceptNonJSON disables the structured-body check for every request of the client.
type AcceptNonJSON struct{}

func (*AcceptNonJSON) AddOption(h *Client) {
	h.skipJSONCheck = true
}
