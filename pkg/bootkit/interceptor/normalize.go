package interceptor

import (
	"regexp"
	"strconv"

	"bootkit.dev/pkg/bootkit/i18n"
	"bootkit.dev/pkg/bootkit/service"
)

//nolint:gochecknoglobals // compiled once, read only
var (
	statusPattern  = regexp.MustCompile(`^Request failed with status code ([0-9]+)$`)
	timeoutPattern = regexp.MustCompile(`^timeout of ([0-9]+)ms exceeded$`)
)

// Translate rewrites one of the known transport messages into localized text.
// Any other message is returned as is.
func Translate(l *i18n.Localizer, message string) string {
	switch message {
	case i18n.RequestAborted:
		return l.Text(i18n.RequestAborted)
	case i18n.NetworkError:
		return l.Text(i18n.NetworkError)
	}

	if m := statusPattern.FindStringSubmatch(message); len(m) == 2 {
		return l.Text(i18n.RequestFailed, m[1])
	}

	if m := timeoutPattern.FindStringSubmatch(message); len(m) == 2 {
		return l.Text(i18n.TimeoutExceeded, m[1])
	}

	return message
}

// normalize is a rejected handler: it localizes the message of err and passes
// the rejection on.
func (p *pipeline) normalize(err error) (*service.Response, error) {
	e, err := envelope(err)

	if e.Code == "" {
		e.Code = e.Message
	}

	e.Message = p.localize(e)

	return nil, err
}

// localize uses the kind of an error created by the transport when its message
// was not rewritten yet, and matches the message text otherwise.
func (p *pipeline) localize(e *service.Error) string {
	if !e.FromTransport() || e.Message != e.Code {
		return Translate(p.localizer, e.Message)
	}

	switch e.Kind {
	case service.KindAborted:
		return p.localizer.Text(i18n.RequestAborted)
	case service.KindNetwork:
		return p.localizer.Text(i18n.NetworkError)
	case service.KindStatus:
		if status := e.StatusCode(); status != 0 {
			return p.localizer.Text(i18n.RequestFailed, strconv.Itoa(status))
		}
	case service.KindTimeout:
		if e.Timeout > 0 {
			return p.localizer.Text(i18n.TimeoutExceeded, strconv.FormatInt(e.Timeout.Milliseconds(), 10))
		}
	}

	return Translate(p.localizer, e.Message)
}
