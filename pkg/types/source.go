package types

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Version-control schemes accepted in source locators.
const (
	SchemeGit = "git"
	SchemeHg  = "hg"
	SchemeSvn = "svn"
	SchemeBzr = "bzr"
)

// validSchemes is the set of recognized version-control schemes.
var validSchemes = map[string]bool{
	SchemeGit: true,
	SchemeHg:  true,
	SchemeSvn: true,
	SchemeBzr: true,
}

// Source is a direct version-control reference used instead of a
// package-registry lookup, written as "<scheme>+<url>". The URL may carry
// an "@revision" suffix and an "#egg=<name>" fragment naming the package.
type Source struct {
	Scheme   string `json:"scheme"`
	URL      string `json:"url"`
	Revision string `json:"revision,omitempty"`
}

// IsSourceLine reports whether the line looks like a source locator,
// i.e. starts with a recognized "<scheme>+" prefix.
func IsSourceLine(line string) bool {
	scheme, _, ok := strings.Cut(line, "+")
	return ok && validSchemes[scheme]
}

// ParseSource parses a "<scheme>+<url>" locator. The derived package name
// is returned alongside the source: an "#egg=<name>" fragment wins,
// otherwise the last URL path element with any ".git" suffix removed.
func ParseSource(line string) (*Source, string, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(line), "+")
	if !ok || !validSchemes[scheme] {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidSource, line)
	}

	var eggName string
	if rest != "" {
		if raw, frag, found := strings.Cut(rest, "#"); found {
			rest = raw
			for _, kv := range strings.Split(frag, "&") {
				if name, okEgg := strings.CutPrefix(kv, "egg="); okEgg {
					eggName = name
				}
			}
		}
	}

	src := &Source{Scheme: scheme, URL: rest}

	// An @revision suffix on the path selects a branch, tag, or commit.
	if at := strings.LastIndex(rest, "@"); at > strings.LastIndex(rest, "/") && at > strings.Index(rest, "://") {
		src.URL = rest[:at]
		src.Revision = rest[at+1:]
	}

	if src.URL == "" {
		return nil, "", fmt.Errorf("%w: empty URL in %q", ErrInvalidSource, line)
	}

	name := eggName
	if name == "" {
		name = deriveName(src.URL)
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: cannot derive package name from %q", ErrInvalidSource, line)
	}
	return src, name, nil
}

// String renders the locator back to "<scheme>+<url>[@revision]" form.
func (s *Source) String() string {
	out := s.Scheme + "+" + s.URL
	if s.Revision != "" {
		out += "@" + s.Revision
	}
	return out
}

// deriveName extracts a package name from the final path element of a
// repository URL, trimming any ".git" suffix.
func deriveName(raw string) string {
	trimmed := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		trimmed = u.Path
	}
	base := path.Base(strings.TrimSuffix(trimmed, "/"))
	base = strings.TrimSuffix(base, ".git")
	if base == "." || base == "/" {
		return ""
	}
	return base
}
