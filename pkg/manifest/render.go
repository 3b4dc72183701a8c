package manifest

import (
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Render produces canonical manifest text from a list of declarations,
// grouped by category with section-header comments. Categories appear in
// standard order; within a category, insertion order is preserved.
// Parsing the rendered text yields the same declarations.
func Render(reqs []*types.Requirement) string {
	var b strings.Builder
	first := true
	for _, category := range types.Categories {
		var group []*types.Requirement
		for _, req := range reqs {
			if req.Category == category {
				group = append(group, req)
			}
		}
		if len(group) == 0 {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		first = false
		b.WriteString("# " + category + "\n")
		for _, req := range group {
			b.WriteString(renderLine(req))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
