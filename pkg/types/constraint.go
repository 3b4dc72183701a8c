package types

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Comparators accepted in version constraints.
const (
	OpEqual       = "=="
	OpNotEqual    = "!="
	OpGreaterEq   = ">="
	OpLessEq      = "<="
	OpGreater     = ">"
	OpLess        = "<"
	OpCompatible  = "~="
	OpArbitraryEq = "==="
)

// constraintPattern matches a single comparator-plus-version specifier.
// Longer comparators are listed first so "===" is not consumed as "==".
var constraintPattern = regexp.MustCompile(`^(===|==|!=|~=|>=|<=|>|<)\s*(\S+)$`)

// Constraint limits acceptable releases of a package to those matching a
// comparator and version pair, e.g. ">=5" or "==1.4.2".
type Constraint struct {
	Op      string `json:"op"`
	Version string `json:"version"`
}

// ParseConstraint parses a single specifier such as ">=5" or "~=1.4.2".
// Returns ErrInvalidConstraint (wrapped) if the text does not match the
// comparator-plus-version form.
func ParseConstraint(s string) (Constraint, error) {
	m := constraintPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Constraint{}, fmt.Errorf("%w: %q", ErrInvalidConstraint, s)
	}
	c := Constraint{Op: m[1], Version: m[2]}
	if c.Op == OpCompatible && len(versionSegmentsText(c.Version)) < 2 {
		return Constraint{}, fmt.Errorf("%w: %q requires at least two version segments", ErrInvalidConstraint, s)
	}
	return c, nil
}

// ParseConstraints parses a comma-separated specifier list such as
// ">=1.2,<2". An empty string yields an empty slice.
func ParseConstraints(s string) ([]Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	constraints := make([]Constraint, 0, len(parts))
	for _, part := range parts {
		c, err := ParseConstraint(part)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, c)
	}
	return constraints, nil
}

// String renders the constraint in canonical form with no interior spaces.
func (c Constraint) String() string {
	return c.Op + c.Version
}

// Check reports whether the given release version satisfies the constraint.
// Version comparison follows hashicorp/go-version semantics; "===" falls
// back to exact string equality for versions that do not parse.
func (c Constraint) Check(release string) (bool, error) {
	if c.Op == OpArbitraryEq {
		return release == c.Version, nil
	}

	rv, err := goversion.NewVersion(release)
	if err != nil {
		return false, fmt.Errorf("parsing release version %q: %w", release, err)
	}
	cv, err := goversion.NewVersion(c.Version)
	if err != nil {
		return false, fmt.Errorf("%w: unparseable version %q", ErrInvalidConstraint, c.Version)
	}

	switch c.Op {
	case OpEqual:
		return rv.Equal(cv), nil
	case OpNotEqual:
		return !rv.Equal(cv), nil
	case OpGreaterEq:
		return rv.GreaterThanOrEqual(cv), nil
	case OpLessEq:
		return rv.LessThanOrEqual(cv), nil
	case OpGreater:
		return rv.GreaterThan(cv), nil
	case OpLess:
		return rv.LessThan(cv), nil
	case OpCompatible:
		return checkCompatible(rv, cv, len(versionSegmentsText(c.Version)))
	default:
		return false, fmt.Errorf("%w: unknown comparator %q", ErrInvalidConstraint, c.Op)
	}
}

// CheckAll reports whether the release satisfies every constraint in the
// list. An empty list matches any release.
func CheckAll(constraints []Constraint, release string) (bool, error) {
	for _, c := range constraints {
		ok, err := c.Check(release)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ConstraintsString renders a constraint list as comma-separated canonical
// specifier text. An empty list renders as "".
func ConstraintsString(constraints []Constraint) string {
	parts := make([]string, len(constraints))
	for i, c := range constraints {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// checkCompatible implements the compatible-release comparator "~=":
// the release must be at least the constraint version and must not reach
// the next release of the second-to-last given segment. For example
// "~=1.4.2" accepts [1.4.2, 1.5) and "~=2.2" accepts [2.2, 3).
func checkCompatible(rv, cv *goversion.Version, precision int) (bool, error) {
	if precision < 2 {
		return false, fmt.Errorf("%w: compatible release requires at least two version segments", ErrInvalidConstraint)
	}
	if !rv.GreaterThanOrEqual(cv) {
		return false, nil
	}
	segments := cv.Segments64()
	upper := make([]int64, len(segments))
	copy(upper, segments)
	upper[precision-2]++
	for i := precision - 1; i < len(upper); i++ {
		upper[i] = 0
	}
	parts := make([]string, len(upper))
	for i, seg := range upper {
		parts[i] = fmt.Sprintf("%d", seg)
	}
	bound, err := goversion.NewVersion(strings.Join(parts, "."))
	if err != nil {
		return false, fmt.Errorf("building compatible-release bound: %w", err)
	}
	return rv.LessThan(bound), nil
}

// versionSegmentsText splits the textual version on dots, ignoring any
// pre-release or metadata suffix. "1.4.2" has three segments, "5" has one.
func versionSegmentsText(v string) []string {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	return strings.Split(v, ".")
}
