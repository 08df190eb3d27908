package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern_Valid(t *testing.T) {
	p, err := CompilePattern("/users/:userId/posts/:postId")
	require.NoError(t, err)
	assert.Equal(t, "/users/:userId/posts/:postId", p.String())
}

func TestCompilePattern_Rejections(t *testing.T) {
	cases := []string{
		"users", // no leading slash
		"/users//posts",
		"/users/:",
		"/users/:a/:a/b",
	}
	for _, c := range cases {
		_, err := CompilePattern(c)
		assert.Errorf(t, err, "expected compile error for %q", c)
	}
}

func TestCompilePattern_RejectsEmptyParamName(t *testing.T) {
	// ":name" form can't itself contain '/', guaranteed by split, but a
	// pathological ":" with nothing after it must fail.
	_, err := CompilePattern("/a/:")
	require.Error(t, err)
}

func TestPattern_MatchLiteral(t *testing.T) {
	p, err := CompilePattern("/api/events")
	require.NoError(t, err)

	params, ok := p.Match(SplitPath("/api/events"))
	require.True(t, ok)
	assert.Empty(t, params)

	_, ok = p.Match(SplitPath("/api/other"))
	assert.False(t, ok)
}

func TestPattern_MatchParams(t *testing.T) {
	p, err := CompilePattern("/users/:userId/posts/:postId")
	require.NoError(t, err)

	params, ok := p.Match(SplitPath("/users/42/posts/7"))
	require.True(t, ok)
	assert.Equal(t, map[string]string{"userId": "42", "postId": "7"}, params)
}

func TestPattern_MatchRejectsSegmentCountMismatch(t *testing.T) {
	p, err := CompilePattern("/users/:userId")
	require.NoError(t, err)

	_, ok := p.Match(SplitPath("/users/42/posts/7"))
	assert.False(t, ok)
	_, ok = p.Match(SplitPath("/users"))
	assert.False(t, ok)
}

func TestPattern_ConflictsWith(t *testing.T) {
	a, _ := CompilePattern("/users/:id")
	b, _ := CompilePattern("/users/:other")
	c, _ := CompilePattern("/users/:id/posts")

	assert.True(t, a.ConflictsWith(b), "differently named params in the same position still conflict")
	assert.False(t, a.ConflictsWith(c))
}

func TestSortBySpecificity(t *testing.T) {
	pWild, _ := CompilePattern("/users/:id")
	pLiteral, _ := CompilePattern("/users/me")
	pDeepWild, _ := CompilePattern("/users/:id/posts/:postId")

	patterns := []Pattern{pWild, pLiteral, pDeepWild}
	SortBySpecificity(patterns)

	// pLiteral has 2 literal segments, pDeepWild has 2 literal segments too
	// ("users", "posts"), pWild has 1 ("users"). Ties between pLiteral and
	// pDeepWild break lexicographically by source string.
	assert.Equal(t, "/users/:id/posts/:postId", patterns[0].String())
	assert.Equal(t, "/users/me", patterns[1].String())
	assert.Equal(t, "/users/:id", patterns[2].String())
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, SplitPath("/"))
	assert.Nil(t, SplitPath(""))
	assert.Equal(t, []string{"users", "42"}, SplitPath("/users/42"))
}
