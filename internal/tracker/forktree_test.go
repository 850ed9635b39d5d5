package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkTree_PathFrom(t *testing.T) {
	t.Parallel()

	tree := newForkTree()
	tree.add("B1", "P")
	tree.add("B2", "B1")
	tree.add("B3", "B2")

	path, ok := tree.pathFrom("B3", "P")
	require.True(t, ok)
	assert.Equal(t, []string{"B1", "B2", "B3"}, path)

	path, ok = tree.pathFrom("B3", "B1")
	require.True(t, ok)
	assert.Equal(t, []string{"B2", "B3"}, path)

	// Walking to the stop block itself yields an empty path.
	path, ok = tree.pathFrom("P", "P")
	require.True(t, ok)
	assert.Empty(t, path)
}

func TestForkTree_PathFromMissingLink(t *testing.T) {
	t.Parallel()

	tree := newForkTree()
	tree.add("B2", "B1") // B1 itself was never added

	path, ok := tree.pathFrom("B2", "P")
	assert.False(t, ok)
	assert.Equal(t, []string{"B1", "B2"}, path)
}

func TestForkTree_SubtreeAndSiblings(t *testing.T) {
	t.Parallel()

	tree := newForkTree()
	tree.add("B1", "P")
	tree.add("B2", "P")
	tree.add("B3", "B2")
	tree.add("B4", "B2")

	assert.ElementsMatch(t, []string{"B2", "B3", "B4"}, tree.subtree("B2"))
	assert.Equal(t, []string{"B1"}, tree.siblingsOf("B2"))
	assert.Equal(t, []string{"B4"}, tree.siblingsOf("B3"))
	assert.Nil(t, tree.siblingsOf("unknown"))
}

func TestForkTree_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	tree := newForkTree()
	tree.add("B1", "P")
	tree.add("B1", "P")
	tree.add("B1", "other")

	assert.Equal(t, 1, tree.len())
	assert.Equal(t, []string{"B1"}, tree.children["P"])
	assert.Empty(t, tree.children["other"])
}

func TestForkTree_Remove(t *testing.T) {
	t.Parallel()

	tree := newForkTree()
	tree.add("B1", "P")
	tree.add("B2", "P")
	require.Equal(t, 2, tree.len())

	tree.remove("B1")
	assert.Equal(t, 1, tree.len())
	assert.Equal(t, []string{"B2"}, tree.children["P"])

	tree.remove("B2")
	assert.Zero(t, tree.len())
	assert.Empty(t, tree.children)
}
