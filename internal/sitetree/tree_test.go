package sitetree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestNewFoldsSiteIDShorthand(t *testing.T) {
	tree, err := New([]Node{
		{ID: "1", Title: "Root"},
		{ID: "2", Title: "Site", SiteIDField: "s1", Parents: []string{"1"}},
		{ID: "3", Title: "Explicit", SiteIDField: "ignored", Metadata: map[string]string{MetaSiteID: "s2"}, Parents: []string{"1"}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, tree.Len())

	n, ok := tree.Node("2")
	require.True(t, ok)
	require.Equal(t, "s1", n.SiteID())
	require.Equal(t, "s2", tree.Metadata("3", MetaSiteID))
	require.Empty(t, tree.Metadata("1", MetaSiteID))
	require.Empty(t, tree.Metadata("missing", MetaSiteID))
}

func TestNewRejectsInvalidNodes(t *testing.T) {
	_, err := New([]Node{{ID: "1"}, {ID: "1"}})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = New([]Node{{ID: "1", Parents: []string{"9"}}})
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	_, err = New([]Node{{Title: "anonymous"}})
	require.Error(t, err)
}

func TestParentsKeepDeclarationOrder(t *testing.T) {
	tree, err := New([]Node{
		{ID: "a"}, {ID: "b"}, {ID: "c", Parents: []string{"b", "a"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, ids(tree.Parents("c")))
	require.Empty(t, tree.Parents("a"))
	require.Nil(t, tree.Parents("zzz"))
}

func TestRepeatedParentsCollapse(t *testing.T) {
	tree, err := New([]Node{
		{ID: "a"}, {ID: "b"}, {ID: "c", Parents: []string{"b", "a", "b"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, ids(tree.Parents("c")))
	require.Equal(t, []string{"c"}, ids(tree.Using("b")))
}

func TestUsingIsBreadthFirstInSnapshotOrder(t *testing.T) {
	tree, err := New([]Node{
		{ID: "root"},
		{ID: "x", Parents: []string{"root"}},
		{ID: "y", Parents: []string{"root"}},
		{ID: "x1", Parents: []string{"x"}},
		{ID: "y1", Parents: []string{"y"}},
		{ID: "xy", Parents: []string{"x", "y"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "x1", "xy", "y1"}, ids(tree.Using("root")))
	require.Equal(t, []string{"x1", "xy"}, ids(tree.Using("x")))
	require.Empty(t, tree.Using("x1"))
}

func TestUsingTerminatesOnCycles(t *testing.T) {
	tree, err := New([]Node{
		{ID: "a", Parents: []string{"b"}},
		{ID: "b", Parents: []string{"a"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids(tree.Using("a")))
}

func TestIsMasterCandidate(t *testing.T) {
	tree, err := New([]Node{{ID: "1", MasterWeb: true}, {ID: "2"}})
	require.NoError(t, err)
	require.True(t, tree.IsMasterCandidate("1"))
	require.False(t, tree.IsMasterCandidate("2"))
	require.False(t, tree.IsMasterCandidate("3"))
}
