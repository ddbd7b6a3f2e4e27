package interceptor

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"bootkit.dev/pkg/bootkit/service"
)

type Logger interface {
	Log(args ...any)
	Error(args ...any)
}

//nolint:gochecknoglobals // header names whose values never reach the logs
var maskedHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"Set-Cookie":          true,
	"X-Api-Key":           true,
}

const mask = "****"

// RequestLog describes an outgoing request.
type RequestLog struct {
	ID       string            `json:"id"`
	Method   string            `json:"method"`
	URI      string            `json:"uri"`
	Headers  map[string]string `json:"headers,omitempty"`
	BodySize int               `json:"bodySize"`
}

func (rl *RequestLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%s \u001B[38;5;%dm%-6s\u001B[0m %s %s %dB\n",
		rl.ID, colorForStatusCode(0), "REQ", rl.Method, rl.URI, rl.BodySize)
}

// Log describes a settled exchange.
type Log struct {
	ID           string  `json:"id"`
	Method       string  `json:"method"`
	URI          string  `json:"uri"`
	ResponseCode int     `json:"responseCode"`
	Elapsed      float64 `json:"elapsed,omitempty"`
}

func (l *Log) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%s \u001B[38;5;%dm%-6d\u001B[0m %8.3f\u001B[38;5;8ms\u001B[0m %s %s\n",
		l.ID, colorForStatusCode(l.ResponseCode), l.ResponseCode, l.Elapsed, l.Method, l.URI)
}

type ErrorLog struct {
	Log
	Stage        string `json:"stage"`
	Kind         string `json:"kind"`
	ErrorMessage string `json:"errorMessage"`
}

func (el *ErrorLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%s \u001B[38;5;%dm%-6d\u001B[0m %s %s %s \u001B[38;5;%dm%s\u001B[0m: %s\n",
		el.ID, colorForStatusCode(el.ResponseCode), el.ResponseCode, el.Stage, el.Method, el.URI,
		colorForStatusCode(http.StatusInternalServerError), el.Kind, el.ErrorMessage)
}

func colorForStatusCode(status int) int {
	const (
		grey   = 8
		blue   = 34
		red    = 202
		yellow = 220
	)

	switch {
	case status >= 200 && status < 300:
		return blue
	case status >= 400 && status < 500:
		return yellow
	case status >= 500 && status < 600:
		return red
	}

	return grey
}

func newRequestLog(r *service.Request) *RequestLog {
	return &RequestLog{
		ID:       r.ID,
		Method:   r.Method,
		URI:      r.URL,
		Headers:  maskHeaders(r.Header),
		BodySize: len(r.Body),
	}
}

func newLog(r *service.Response) *Log {
	l := &Log{ResponseCode: r.StatusCode, Elapsed: r.Elapsed}

	if r.Request != nil {
		l.ID, l.Method, l.URI = r.Request.ID, r.Request.Method, r.Request.URL
	}

	return l
}

func newErrorLog(stage string, e *service.Error) *ErrorLog {
	el := &ErrorLog{
		Log:          Log{ResponseCode: e.StatusCode(), Elapsed: e.Elapsed},
		Stage:        stage,
		Kind:         e.Kind.String(),
		ErrorMessage: e.Message,
	}

	if e.Request != nil {
		el.ID, el.Method, el.URI = e.Request.ID, e.Request.Method, e.Request.URL
	}

	return el
}

func maskHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}

	out := make(map[string]string, len(h))

	for k, v := range h {
		if maskedHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = mask

			continue
		}

		out[k] = strings.Join(v, ", ")
	}

	return out
}
