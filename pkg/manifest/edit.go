package manifest

import (
	"fmt"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Add appends a declaration at the end of its category section, creating
// the section header when the category does not appear yet. Layout of all
// other lines is preserved. Returns ErrDuplicateRequirement if the
// category already declares the package.
func (f *File) Add(req *types.Requirement) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if existing := f.Find(req.Name, req.Category); existing != nil {
		return fmt.Errorf("%w: %s in %s", types.ErrDuplicateRequirement, req.Name, req.Category)
	}

	line := Line{
		Kind:     KindRequirement,
		Raw:      renderLine(req),
		Category: req.Category,
		Req:      req,
	}

	at, found := f.sectionEnd(req.Category)
	if !found {
		// No section for this category yet; open one at the end of the file.
		if len(f.lines) > 0 && f.lines[len(f.lines)-1].Kind != KindBlank {
			f.lines = append(f.lines, Line{Kind: KindBlank, Category: req.Category})
		}
		f.lines = append(f.lines,
			Line{Kind: KindComment, Raw: "# " + req.Category, Category: req.Category},
			line)
		return nil
	}

	f.lines = append(f.lines[:at], append([]Line{line}, f.lines[at:]...)...)
	return nil
}

// Remove deletes every declaration whose normalized name matches name.
// A non-empty category restricts removal to that category. Returns
// ErrNotFound when nothing matches.
func (f *File) Remove(name, category string) error {
	want := types.NormalizeName(name)
	kept := f.lines[:0]
	removed := 0
	for _, ln := range f.lines {
		if ln.Kind == KindRequirement &&
			types.NormalizeName(ln.Req.Name) == want &&
			(category == "" || ln.Req.Category == category) {
			removed++
			continue
		}
		kept = append(kept, ln)
	}
	f.lines = kept
	if removed == 0 {
		return fmt.Errorf("%w: %s", types.ErrNotFound, name)
	}
	return nil
}

// sectionEnd returns the insertion index just past the last meaningful
// line of the category's section: after its last requirement, or after the
// section header when the section is empty. Trailing blank lines stay
// below the insertion point.
func (f *File) sectionEnd(category string) (int, bool) {
	end := -1
	for i, ln := range f.lines {
		if ln.Category != category {
			continue
		}
		switch ln.Kind {
		case KindRequirement, KindInvalid, KindComment:
			end = i + 1
		}
	}
	if end < 0 {
		// The leading section is "test" even without a header, so an
		// all-blank or empty file still accepts test requirements.
		if category == types.CategoryTest {
			return len(f.lines), true
		}
		return 0, false
	}
	return end, true
}

// renderLine renders a declaration as one canonical manifest line,
// including any inline comment.
func renderLine(req *types.Requirement) string {
	out := req.Specifier()
	if req.Comment != "" {
		out += "  # " + req.Comment
	}
	return out
}
