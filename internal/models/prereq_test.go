package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrereqLeaf(t *testing.T) {
	assert.Equal(t, "CS1331", RenderPrereq(PrereqCourse{ID: "CS1331"}, false, false))
	assert.Equal(t, "(CS1331", RenderPrereq(PrereqCourse{ID: "CS1331"}, true, false))
	assert.Equal(t, "CS1331)", RenderPrereq(PrereqCourse{ID: "CS1331"}, false, true))
	assert.Equal(t, "(CS1331)", RenderPrereq(PrereqCourse{ID: "CS1331"}, true, true))
}

func TestRenderPrereqGroups(t *testing.T) {
	and := PrereqGroup{Op: PrereqAnd, Clauses: []PrereqClause{
		PrereqCourse{ID: "CS1331"},
		PrereqCourse{ID: "CS1332"},
	}}
	assert.Equal(t, "CS1331 and CS1332", RenderPrereq(and, false, false))

	or := PrereqGroup{Op: PrereqOr, Clauses: []PrereqClause{
		PrereqCourse{ID: "CS1331"},
		PrereqCourse{ID: "CS1332"},
	}}
	assert.Equal(t, "CS1331 or CS1332", RenderPrereq(or, false, false))
}

func TestRenderPrereqAndGroupPropagatesParens(t *testing.T) {
	and := PrereqGroup{Op: PrereqAnd, Clauses: []PrereqClause{
		PrereqCourse{ID: "CS1331"},
		PrereqCourse{ID: "CS1332"},
		PrereqCourse{ID: "MATH1554"},
	}}
	// Only the outermost elements receive the enclosing flags.
	assert.Equal(t, "(CS1331 and CS1332 and MATH1554)", RenderPrereq(and, true, true))
}

func TestRenderPrereqMixedNesting(t *testing.T) {
	tree := PrereqGroup{Op: PrereqOr, Clauses: []PrereqClause{
		PrereqCourse{ID: "MATH1552"},
		PrereqGroup{Op: PrereqAnd, Clauses: []PrereqClause{
			PrereqCourse{ID: "MATH1551"},
			PrereqCourse{ID: "MATH1553"},
		}},
	}}
	assert.Equal(t, "MATH1552 or MATH1551 and MATH1553", RenderPrereq(tree, false, false))
}

func TestRenderPrereqIdempotent(t *testing.T) {
	tree := PrereqGroup{Op: PrereqAnd, Clauses: []PrereqClause{
		PrereqCourse{ID: "CS1331"},
		PrereqGroup{Op: PrereqOr, Clauses: []PrereqClause{
			PrereqCourse{ID: "MATH1551"},
			PrereqCourse{ID: "MATH1501"},
		}},
	}}
	first := RenderPrereq(tree, false, false)
	assert.Equal(t, first, RenderPrereq(tree, false, false))
}

func TestDecodePrereqs(t *testing.T) {
	raw := []byte(`["and", {"id": "CS1331"}, ["or", {"id": "MATH1551"}, {"id": "MATH1501", "grade": "C"}]]`)
	clause, err := DecodePrereqs(raw)
	require.NoError(t, err)

	group, ok := clause.(PrereqGroup)
	require.True(t, ok)
	assert.Equal(t, PrereqAnd, group.Op)
	require.Len(t, group.Clauses, 2)

	leaf, ok := group.Clauses[0].(PrereqCourse)
	require.True(t, ok)
	assert.Equal(t, "CS1331", leaf.ID)

	inner, ok := group.Clauses[1].(PrereqGroup)
	require.True(t, ok)
	assert.Equal(t, PrereqOr, inner.Op)
	require.Len(t, inner.Clauses, 2)
	assert.Equal(t, "C", inner.Clauses[1].(PrereqCourse).Grade)
}

func TestDecodePrereqsEmpty(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null"), []byte("[]")} {
		clause, err := DecodePrereqs(raw)
		require.NoError(t, err)
		assert.Nil(t, clause)
	}
}

func TestDecodePrereqsRejectsUnknownOperator(t *testing.T) {
	_, err := DecodePrereqs([]byte(`["xor", {"id": "CS1331"}, {"id": "CS1332"}]`))
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tree := PrereqGroup{Op: PrereqAnd, Clauses: []PrereqClause{
		PrereqCourse{ID: "CS1331", Grade: "C"},
		PrereqGroup{Op: PrereqOr, Clauses: []PrereqClause{
			PrereqCourse{ID: "MATH1551"},
			PrereqCourse{ID: "MATH1501"},
		}},
	}}

	encoded, err := EncodePrereqs(tree)
	require.NoError(t, err)
	decoded, err := DecodePrereqs(encoded)
	require.NoError(t, err)
	assert.Equal(t, RenderPrereq(tree, false, false), RenderPrereq(decoded, false, false))
}
