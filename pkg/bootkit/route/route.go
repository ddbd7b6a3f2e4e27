// Package route builds and resolves application URLs in history or hash mode.
package route

import (
	"net/url"
	"regexp"
	"strings"

	"bootkit.dev/pkg/bootkit/config"
	"bootkit.dev/pkg/bootkit/query"
)

//nolint:gochecknoglobals // compiled once, read only
var drivePrefix = regexp.MustCompile(`(?i)^/[A-Z]:(/.*)$`)

// Location is a resolved application route.
type Location struct {
	Path  string
	Query map[string]any
	// Hash includes the leading '#', empty when there is none.
	Hash string
}

// Position is a scroll offset.
type Position struct {
	Left int
	Top  int
}

// Scroll tells where to scroll after navigating. Exactly one field is set.
type Scroll struct {
	Selector string
	Position *Position
}

type Router struct {
	mode   string
	base   string
	compat bool
}

type Option func(r *Router)

// WithLegacyCompat strips Windows drive letters from local file paths, which
// some legacy browsers prepend when the application is opened from disk.
func WithLegacyCompat(enabled bool) Option {
	return func(r *Router) {
		r.compat = enabled
	}
}

// New returns a Router. Any mode other than hash is history mode.
func New(mode, publicPath string, opts ...Option) *Router {
	r := &Router{mode: config.RouteModeHistory, base: normalizeBase(publicPath)}
	if mode == config.RouteModeHash {
		r.mode = config.RouteModeHash
	}

	for _, o := range opts {
		o(r)
	}

	return r
}

func (r *Router) Mode() string { return r.mode }

func (r *Router) Base() string { return r.base }

// Href returns the URL of path with the given query and hash.
func (r *Router) Href(path string, params map[string]any, hash string) string {
	var b strings.Builder

	b.WriteString(r.base)

	if r.mode == config.RouteModeHash {
		b.WriteString("#/")
	}

	b.WriteString(strings.TrimLeft(path, "/"))

	if q := query.Stringify(params); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}

	if hash != "" {
		if !strings.HasPrefix(hash, "#") {
			b.WriteByte('#')
		}

		b.WriteString(hash)
	}

	return b.String()
}

// Resolve parses rawURL into the Location it points to.
func (r *Router) Resolve(rawURL string) (Location, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Location{}, err
	}

	if r.mode == config.RouteModeHash {
		// the route lives in the fragment, the document path is not part of it.
		// The fragment is taken raw, it may hold a '#' of its own.
		_, fragment, _ := strings.Cut(rawURL, "#")

		return parseRoute(fragment), nil
	}

	p := u.Path
	if r.compat {
		p = StripDrivePrefix(p)
	}

	loc := Location{Path: r.strip(p), Query: query.Parse(u.RawQuery)}
	if u.Fragment != "" {
		loc.Hash = "#" + u.Fragment
	}

	return loc, nil
}

// ReplaceStatePath returns the path to hand to the history when replacing the
// current entry.
func (r *Router) ReplaceStatePath(p string) string {
	if r.compat {
		return StripDrivePrefix(p)
	}

	return p
}

// ScrollTarget returns where to scroll when navigating to to. A hash wins in
// history mode, then the saved position. Nil means no scrolling.
func (r *Router) ScrollTarget(to Location, saved *Position) *Scroll {
	if to.Hash != "" && r.mode != config.RouteModeHash {
		return &Scroll{Selector: to.Hash}
	}

	if saved != nil {
		return &Scroll{Position: saved}
	}

	return nil
}

// StripDrivePrefix turns "/C:/dir/index.html" into "/dir/index.html". Other
// paths are returned unchanged.
func StripDrivePrefix(p string) string {
	if m := drivePrefix.FindStringSubmatch(p); len(m) == 2 {
		return m[1]
	}

	return p
}

func (r *Router) strip(p string) string {
	if p+"/" == r.base {
		return "/"
	}

	if strings.HasPrefix(p, r.base) {
		return "/" + strings.TrimPrefix(p, r.base)
	}

	return p
}

// parseRoute splits "/path?query#hash" as found in the fragment of a hash mode URL.
func parseRoute(s string) Location {
	loc := Location{Path: "/"}

	if i := strings.IndexByte(s, '#'); i >= 0 {
		loc.Hash = s[i:]
		s = s[:i]
	}

	if i := strings.IndexByte(s, '?'); i >= 0 {
		loc.Query = query.Parse(s[i+1:])
		s = s[:i]
	}

	if s != "" {
		loc.Path = "/" + strings.TrimLeft(s, "/")
	}

	if loc.Query == nil {
		loc.Query = map[string]any{}
	}

	return loc
}

func normalizeBase(publicPath string) string {
	base := strings.Trim(publicPath, "/")
	if base == "" {
		return "/"
	}

	return "/" + base + "/"
}
