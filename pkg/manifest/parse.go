package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// LineError reports a single malformed manifest line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// specPattern splits a registry requirement line into name, optional
// extras, and the remaining specifier text.
var specPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\[\]]*\])?\s*(.*)$`)

// Parse reads a manifest from r. Well-formed lines are always retained;
// each malformed line is kept verbatim in the file and reported as a
// LineError, joined into the returned error. A manifest with no
// requirement lines parses to an empty sequence, not an error.
//
// Lines before any section header belong to the "test" category. A comment
// whose text is a category name, optionally with a trailing colon, switches
// the category for subsequent lines.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	var errs []error
	category := types.CategoryTest

	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			f.lines = append(f.lines, Line{Kind: KindBlank, Raw: raw, Number: number, Category: category})

		case strings.HasPrefix(trimmed, "#"):
			if c, ok := headerCategory(trimmed); ok {
				category = c
			}
			f.lines = append(f.lines, Line{Kind: KindComment, Raw: raw, Number: number, Category: category})

		default:
			req, err := parseRequirement(trimmed, category)
			if err != nil {
				errs = append(errs, &LineError{Line: number, Text: trimmed, Err: err})
				f.lines = append(f.lines, Line{Kind: KindInvalid, Raw: raw, Number: number, Category: category})
				continue
			}
			f.lines = append(f.lines, Line{Kind: KindRequirement, Raw: raw, Number: number, Category: category, Req: req})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return f, errors.Join(errs...)
}

// ParseString parses a manifest from a string.
func ParseString(s string) (*File, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the manifest at path.
func ParseFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer r.Close()
	return Parse(r)
}

// Validate checks that package names are unique within each category.
// Each duplicate pair is reported with the line numbers involved.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]int) // category + normalized name -> first line
	for _, ln := range f.lines {
		if ln.Kind != KindRequirement {
			continue
		}
		key := ln.Req.Category + "\x00" + types.NormalizeName(ln.Req.Name)
		if first, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("%w: %s in %s (lines %d and %d)",
				types.ErrDuplicateRequirement, ln.Req.Name, ln.Req.Category, first, ln.Number))
			continue
		}
		seen[key] = ln.Number
	}
	return errors.Join(errs...)
}

// headerCategory reports whether a comment line is a category section
// header, e.g. "# lint" or "# Docs:".
func headerCategory(comment string) (string, bool) {
	text := strings.TrimSpace(strings.TrimLeft(comment, "#"))
	text = strings.ToLower(strings.TrimSuffix(text, ":"))
	if types.IsValidCategory(text) {
		return text, true
	}
	return "", false
}

// parseRequirement parses one non-comment, non-blank line. The three
// permitted forms are a bare name, a name with a specifier list, and a
// version-control locator. A trailing " #" begins an inline comment.
func parseRequirement(text, category string) (*types.Requirement, error) {
	spec, comment := splitInlineComment(text)

	if types.IsSourceLine(spec) {
		src, name, err := types.ParseSource(spec)
		if err != nil {
			return nil, err
		}
		req := &types.Requirement{
			Name:     name,
			Source:   src,
			Category: category,
			Comment:  comment,
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return req, nil
	}

	m := specPattern.FindStringSubmatch(spec)
	if m == nil || !types.IsValidName(m[1]) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidName, spec)
	}

	req := &types.Requirement{
		Name:     m[1],
		Category: category,
		Comment:  comment,
	}

	if m[2] != "" {
		for _, extra := range strings.Split(strings.Trim(m[2], "[]"), ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}

	if rest := strings.TrimSpace(m[3]); rest != "" {
		if strings.HasPrefix(rest, "+") {
			// Looks like "<scheme>+<url>" with an unrecognized scheme.
			return nil, fmt.Errorf("%w: unknown scheme %q", types.ErrInvalidSource, m[1])
		}
		constraints, err := types.ParseConstraints(rest)
		if err != nil {
			return nil, err
		}
		req.Constraints = constraints
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// splitInlineComment separates a trailing inline comment from the
// specifier. A "#" preceded by whitespace begins the comment; a "#" inside
// a source locator fragment does not.
func splitInlineComment(text string) (spec, comment string) {
	for i := 1; i < len(text); i++ {
		if text[i] == '#' && (text[i-1] == ' ' || text[i-1] == '\t') {
			return strings.TrimSpace(text[:i]), strings.TrimSpace(strings.TrimPrefix(text[i:], "#"))
		}
	}
	return text, ""
}
