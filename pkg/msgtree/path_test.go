package msgtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkpathCreatesNestedObjectsAndArrays(t *testing.T) {
	root := NewObject()
	leaf, err := Mkpath(root, "a.b.[3].c")
	require.NoError(t, err)
	assert.Equal(t, TagNull, leaf.Tag())

	b := root.GetProp("a").GetProp("b")
	require.NotNil(t, b)
	assert.Equal(t, TagArray, b.Tag())
	assert.Equal(t, 4, b.Len())
}

func TestMkpathArrayGrowthFillsNulls(t *testing.T) {
	root := NewObject()
	_, err := Mkpath(root, "list.[2]")
	require.NoError(t, err)

	list := root.GetProp("list")
	require.NotNil(t, list)
	assert.Equal(t, 3, list.Len())
	assert.Equal(t, TagNull, list.GetItem(0).Tag())
	assert.Equal(t, TagNull, list.GetItem(1).Tag())
	assert.Equal(t, TagNull, list.GetItem(2).Tag())
}

func TestLookupWalksExistingPath(t *testing.T) {
	root := NewObject()
	require.NoError(t, root.SetPropI32("a", 0))
	sub, err := Mkpath(root, "a")
	require.NoError(t, err)
	Assign(sub, NewObject())
	require.NoError(t, sub.SetPropI32("b", 99))

	found, err := Lookup(root, "a.b")
	require.NoError(t, err)
	v, ok := found.GetI32()
	require.True(t, ok)
	assert.Equal(t, int32(99), v)
}

func TestLookupMissingPropertyErrors(t *testing.T) {
	root := NewObject()
	_, err := Lookup(root, "missing")
	require.Error(t, err)
}

func TestLookupArrayIndexOutOfRange(t *testing.T) {
	root := NewObject()
	arr := NewArray()
	require.NoError(t, arr.AddItemI32(1))
	require.NoError(t, root.SetProp("xs", arr))

	_, err := Lookup(root, "xs.[5]")
	require.Error(t, err)
}
