package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const sampleManifest = `# dev requirements
pytest>=5
pytest-cov
git+https://github.com/rapidsai/asvdb.git

# lint
flake8==3.9.2
black[jupyter]>=22.3,<23

# docs
sphinx~=3.5
sphinx-rtd-theme  # html theme
`

func TestParseSample(t *testing.T) {
	f, err := ParseString(sampleManifest)
	require.NoError(t, err)

	reqs := f.Requirements()
	require.Len(t, reqs, 7)

	assert.Equal(t, "pytest", reqs[0].Name)
	assert.Equal(t, types.CategoryTest, reqs[0].Category)
	assert.Equal(t, []types.Constraint{{Op: types.OpGreaterEq, Version: "5"}}, reqs[0].Constraints)

	assert.Equal(t, "pytest-cov", reqs[1].Name)
	assert.Empty(t, reqs[1].Constraints)
	assert.Nil(t, reqs[1].Source)

	assert.Equal(t, "asvdb", reqs[2].Name, "name derived from locator URL")
	require.NotNil(t, reqs[2].Source)
	assert.Equal(t, "https://github.com/rapidsai/asvdb.git", reqs[2].Source.URL)
	assert.Empty(t, reqs[2].Constraints)

	assert.Equal(t, "flake8", reqs[3].Name)
	assert.Equal(t, types.CategoryLint, reqs[3].Category)

	assert.Equal(t, "black", reqs[4].Name)
	assert.Equal(t, []string{"jupyter"}, reqs[4].Extras)
	assert.Len(t, reqs[4].Constraints, 2)

	assert.Equal(t, "sphinx", reqs[5].Name)
	assert.Equal(t, types.CategoryDocs, reqs[5].Category)

	assert.Equal(t, "sphinx-rtd-theme", reqs[6].Name)
	assert.Equal(t, "html theme", reqs[6].Comment)
}

func TestParseCommentOnlyManifest(t *testing.T) {
	f, err := ParseString("# nothing to install\n\n# just comments\n")
	require.NoError(t, err, "a manifest with zero dependency lines is not an error")
	assert.Empty(t, f.Requirements())
}

func TestParseEmptyManifest(t *testing.T) {
	f, err := ParseString("")
	require.NoError(t, err)
	assert.Empty(t, f.Requirements())
}

func TestParseDefaultCategoryIsTest(t *testing.T) {
	f, err := ParseString("pytest>=5\n")
	require.NoError(t, err)
	reqs := f.Requirements()
	require.Len(t, reqs, 1)
	assert.Equal(t, types.CategoryTest, reqs[0].Category)
}

func TestParseSectionHeaderForms(t *testing.T) {
	f, err := ParseString("# Lint:\nflake8\n#docs\nsphinx\n")
	require.NoError(t, err)
	reqs := f.Requirements()
	require.Len(t, reqs, 2)
	assert.Equal(t, types.CategoryLint, reqs[0].Category, "case and trailing colon are ignored")
	assert.Equal(t, types.CategoryDocs, reqs[1].Category, "no space after hash")
}

func TestParseMalformedLines(t *testing.T) {
	input := "pytest>=5\n>=3\nflake8\ncvs+https://example.org/repo\n"
	f, err := ParseString(input)
	require.Error(t, err)

	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
	assert.ErrorIs(t, err, types.ErrInvalidName)
	assert.ErrorIs(t, err, types.ErrInvalidSource)

	// Well-formed lines are still parsed.
	reqs := f.Requirements()
	require.Len(t, reqs, 2)
	assert.Equal(t, "pytest", reqs[0].Name)
	assert.Equal(t, "flake8", reqs[1].Name)

	// Malformed lines are preserved verbatim.
	assert.Equal(t, input, f.String())
}

func TestParseInlineComment(t *testing.T) {
	f, err := ParseString("pytest>=5  # pinned for CI\n")
	require.NoError(t, err)
	reqs := f.Requirements()
	require.Len(t, reqs, 1)
	assert.Equal(t, "pytest", reqs[0].Name)
	assert.Equal(t, "pinned for CI", reqs[0].Comment)
	assert.Equal(t, []types.Constraint{{Op: types.OpGreaterEq, Version: "5"}}, reqs[0].Constraints)
}

func TestParseSourceFragmentNotComment(t *testing.T) {
	f, err := ParseString("git+https://github.com/org/monorepo.git#egg=subpkg\n")
	require.NoError(t, err)
	reqs := f.Requirements()
	require.Len(t, reqs, 1)
	assert.Equal(t, "subpkg", reqs[0].Name)
	assert.Empty(t, reqs[0].Comment)
}

func TestValidateDuplicates(t *testing.T) {
	f, err := ParseString("pytest>=5\nPytest==6\n\n# lint\npytest\n")
	require.NoError(t, err)

	err = f.Validate()
	require.Error(t, err, "duplicate within category, case-insensitive")
	assert.ErrorIs(t, err, types.ErrDuplicateRequirement)

	// The same name in a different category is not a duplicate.
	f2, err := ParseString("pytest>=5\n\n# lint\npytest\n")
	require.NoError(t, err)
	assert.NoError(t, f2.Validate())
}

func TestFind(t *testing.T) {
	f, err := ParseString(sampleManifest)
	require.NoError(t, err)

	req := f.Find("Flake8", "")
	require.NotNil(t, req, "lookup is name-normalized")
	assert.Equal(t, types.CategoryLint, req.Category)

	assert.Nil(t, f.Find("flake8", types.CategoryDocs))
	assert.Nil(t, f.Find("missing", ""))
}

func TestRoundTrip(t *testing.T) {
	f, err := ParseString(sampleManifest)
	require.NoError(t, err)
	assert.Equal(t, sampleManifest, f.String(), "unmodified files round-trip byte for byte")

	// Re-parsing the output yields the same declarations.
	f2, err := ParseString(f.String())
	require.NoError(t, err)
	assert.Equal(t, f.Requirements(), f2.Requirements())
}

func TestRoundTripNormalizesLineEndings(t *testing.T) {
	// CRLF input and a missing final newline normalize to LF-terminated
	// lines; the declarations are unaffected.
	f, err := ParseString("pytest>=5\r\nflake8")
	require.NoError(t, err)
	assert.Equal(t, "pytest>=5\nflake8\n", f.String())

	reqs := f.Requirements()
	require.Len(t, reqs, 2)
	assert.Equal(t, "pytest", reqs[0].Name)
	assert.Equal(t, "flake8", reqs[1].Name)
}
