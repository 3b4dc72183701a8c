package manifest

import (
	"io"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Line kinds.
const (
	KindBlank       = "blank"
	KindComment     = "comment"
	KindRequirement = "requirement"
	KindInvalid     = "invalid"
)

// Line is one physical manifest line. Raw preserves the original text so
// that unmodified files round-trip byte for byte.
type Line struct {
	Kind     string
	Raw      string
	Number   int                // 1-based line number at parse time; 0 for inserted lines.
	Category string             // Section category in effect for this line.
	Req      *types.Requirement // Parsed declaration for requirement lines.
}

// File is an ordered sequence of manifest lines.
type File struct {
	lines []Line
}

// Lines returns the file's lines in order.
func (f *File) Lines() []Line {
	return f.lines
}

// Requirements returns the parsed declarations in file order. Blank,
// comment, and invalid lines are skipped.
func (f *File) Requirements() []*types.Requirement {
	var reqs []*types.Requirement
	for _, ln := range f.lines {
		if ln.Kind == KindRequirement {
			reqs = append(reqs, ln.Req)
		}
	}
	return reqs
}

// Find returns the first declaration whose normalized name matches name,
// or nil. A non-empty category restricts the search to that category.
func (f *File) Find(name, category string) *types.Requirement {
	want := types.NormalizeName(name)
	for _, ln := range f.lines {
		if ln.Kind != KindRequirement {
			continue
		}
		if category != "" && ln.Req.Category != category {
			continue
		}
		if types.NormalizeName(ln.Req.Name) == want {
			return ln.Req
		}
	}
	return nil
}

// String renders the file back to manifest text. Unmodified lines are
// emitted verbatim, each terminated with a single newline: CRLF input and
// a missing final newline are normalized, everything else round-trips
// byte for byte.
func (f *File) String() string {
	var b strings.Builder
	for _, ln := range f.lines {
		b.WriteString(ln.Raw)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes the rendered manifest to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, f.String())
	return int64(n), err
}
