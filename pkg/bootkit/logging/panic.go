package logging

import (
	"fmt"
	"io"
	"runtime/debug"
)

// PanicLog is the entry written for a recovered panic.
type PanicLog struct {
	Handler    string `json:"handler,omitempty"`
	Error      string `json:"error"`
	StackTrace string `json:"stack_trace,omitempty"`
}

func (p *PanicLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;202m%s\u001B[0m panic: %s\n", p.Handler, p.Error)

	if p.StackTrace != "" {
		fmt.Fprintf(writer, "\u001B[38;5;8m%s\u001B[0m\n", p.StackTrace)
	}
}

type errorLogger interface {
	Error(args ...any)
}

// LogPanic logs re with the current stack under the name of the handler that
// recovered it, and returns the entry. It does nothing for a nil re.
func LogPanic(re any, handler string, logger errorLogger) *PanicLog {
	if re == nil {
		return nil
	}

	entry := &PanicLog{
		Handler:    handler,
		Error:      panicText(re),
		StackTrace: string(debug.Stack()),
	}

	logger.Error(entry)

	return entry
}

func panicText(re any) string {
	switch t := re.(type) {
	case string:
		return t
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
