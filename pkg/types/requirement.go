package types

import (
	"regexp"
	"strings"
	"time"
)

// Requirement categories partition a manifest into tooling groups.
const (
	CategoryTest = "test"
	CategoryLint = "lint"
	CategoryDocs = "docs"
)

// validCategories is the set of recognized category values.
var validCategories = map[string]bool{
	CategoryTest: true,
	CategoryLint: true,
	CategoryDocs: true,
}

// Categories lists the recognized categories in manifest order.
var Categories = []string{CategoryTest, CategoryLint, CategoryDocs}

// IsValidCategory reports whether the given string is a recognized category.
func IsValidCategory(c string) bool {
	return validCategories[c]
}

// namePattern matches registry package names: alphanumeric with interior
// dots, hyphens, and underscores.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// normalizeRuns collapses runs of name separator characters.
var normalizeRuns = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical form of a package name used for
// duplicate detection: lowercase, with runs of ".", "-", and "_" collapsed
// to a single hyphen.
func NormalizeName(name string) string {
	return normalizeRuns.ReplaceAllString(strings.ToLower(name), "-")
}

// IsValidName reports whether name is a well-formed package name.
func IsValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Requirement is one dependency declaration: a package name with an
// optional version constraint list or version-control source locator, and
// a category tag. When both constraints and a source are present, the
// source takes precedence.
type Requirement struct {
	RequirementID string       `json:"requirement_id,omitempty"` // UUID v7, assigned by the catalog.
	ManifestID    string       `json:"manifest_id,omitempty"`    // Owning manifest snapshot, if cataloged.
	Name          string       `json:"name"`
	Extras        []string     `json:"extras,omitempty"`
	Constraints   []Constraint `json:"constraints,omitempty"`
	Source        *Source      `json:"source,omitempty"`
	Category      string       `json:"category"`
	Comment       string       `json:"comment,omitempty"` // Trailing inline comment text, if any.
	CreatedAt     time.Time    `json:"created_at,omitzero"`
	UpdatedAt     time.Time    `json:"updated_at,omitzero"`
}

// Validate checks the declaration invariants: non-empty well-formed name
// and a recognized category. Returns a sentinel error on failure.
func (r *Requirement) Validate() error {
	if r.Name == "" || !IsValidName(r.Name) {
		return ErrInvalidName
	}
	if !IsValidCategory(r.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// Specifier renders the declaration as a single manifest line, without any
// trailing comment. A source locator takes precedence over constraints.
func (r *Requirement) Specifier() string {
	if r.Source != nil {
		return r.Source.String()
	}
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteString("]")
	}
	b.WriteString(ConstraintsString(r.Constraints))
	return b.String()
}

// Pinned reports whether the declaration pins an exact release, either
// through an "==" or "===" constraint or a source revision.
func (r *Requirement) Pinned() bool {
	if r.Source != nil {
		return r.Source.Revision != ""
	}
	for _, c := range r.Constraints {
		if c.Op == OpEqual || c.Op == OpArbitraryEq {
			return true
		}
	}
	return false
}

// Matches reports whether a release version satisfies all constraints on
// the declaration. Source-locator declarations match only their pinned
// revision, or anything when unpinned.
func (r *Requirement) Matches(release string) (bool, error) {
	if r.Source != nil {
		if r.Source.Revision == "" {
			return true, nil
		}
		return release == r.Source.Revision, nil
	}
	return CheckAll(r.Constraints, release)
}
