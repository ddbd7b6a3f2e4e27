// Package handlers reports warnings, errors and panics that no caller handled.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"bootkit.dev/pkg/bootkit/logging"
)

const (
	WarnHandler        = "warnHandler"
	ErrorHandler       = "errorHandler"
	UnhandledRejection = "onunhandledrejection"
	UncaughtError      = "onerror"
)

const scriptError = "script error"

type Logger interface {
	Error(args ...any)
}

// Alerter shows a message to whoever runs the application in debug mode.
type Alerter interface {
	Alert(message string)
}

type AlertFunc func(message string)

func (f AlertFunc) Alert(message string) { f(message) }

// WriterAlerter writes each alert on its own line.
type WriterAlerter struct {
	W  io.Writer
	mu sync.Mutex
}

func (w *WriterAlerter) Alert(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fmt.Fprintln(w.W, message)
}

// Log is the entry written for every reported problem.
type Log struct {
	Handler string `json:"handler"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

func (l *Log) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;202m%s\u001B[0m %s", l.Handler, l.Message)

	if l.Trace != "" {
		fmt.Fprintf(writer, " \u001B[38;5;8m%s\u001B[0m", l.Trace)
	}

	fmt.Fprintln(writer)
}

// Reporter logs problems under the name of the handler that caught them and,
// when an Alerter is set, raises an alert for each of them.
type Reporter struct {
	logger  Logger
	alerter Alerter
}

func NewReporter(logger Logger, alerter Alerter) *Reporter {
	return &Reporter{logger: logger, alerter: alerter}
}

func (r *Reporter) Warn(msg any, trace string) {
	r.report(WarnHandler, text(msg), trace)
}

func (r *Reporter) Error(err any, trace string) {
	r.report(ErrorHandler, text(err), trace)
}

// Unhandled reports a failure nobody waited for, such as the error or panic of
// a goroutine started with Go.
func (r *Reporter) Unhandled(reason any) {
	msg := text(reason)

	r.logger.Error(&Log{Handler: UnhandledRejection, Message: msg})
	r.alert(fmt.Sprintf("ERROR(%s): %s", UnhandledRejection, msg))
}

// Uncaught reports an error raised outside any handler along with where it was
// raised. Messages about opaque script errors get a generic alert.
func (r *Reporter) Uncaught(msg, source string, line, column int, err error) {
	var obj string

	b, jsonErr := json.Marshal(err)
	if jsonErr != nil {
		obj = "{}"
	} else {
		obj = string(b)
	}

	message := strings.Join([]string{
		"Message: " + msg,
		"URL: " + source,
		fmt.Sprintf("Line: %d", line),
		fmt.Sprintf("Column: %d", column),
		"Error object: " + obj,
	}, " - ")

	r.logger.Error(&Log{Handler: UncaughtError, Message: message})

	if strings.Contains(strings.ToLower(msg), scriptError) {
		r.alert(fmt.Sprintf("ERROR(%s): Script Error: See Console for Detail", UncaughtError))

		return
	}

	r.alert(fmt.Sprintf("ERROR(%s): %s", UncaughtError, message))
}

// Recover reports a panic as unhandled. It must be deferred directly:
//
//	defer reporter.Recover()
func (r *Reporter) Recover() {
	if entry := logging.LogPanic(recover(), UnhandledRejection, r.logger); entry != nil {
		r.alert(fmt.Sprintf("ERROR(%s): panic: %s", UnhandledRejection, entry.Error))
	}
}

// Go runs fn in a goroutine. A returned error or a panic is reported as unhandled.
func (r *Reporter) Go(fn func() error) {
	go func() {
		defer r.Recover()

		if err := fn(); err != nil {
			r.Unhandled(err)
		}
	}()
}

func (r *Reporter) report(handler, msg, trace string) {
	r.logger.Error(&Log{Handler: handler, Message: msg, Trace: trace})
	r.alert(fmt.Sprintf("ERROR(%s): %s, %s", handler, msg, trace))
}

func (r *Reporter) alert(message string) {
	if r.alerter != nil {
		r.alerter.Alert(message)
	}
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprint(t)
	}
}
