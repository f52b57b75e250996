package msgtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusRoundTrip(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetPropString("name", "eth0"))
	require.NoError(t, obj.SetPropI64("bytes", 1<<40))
	require.NoError(t, obj.SetPropBytes("raw", []byte{0x00, 0x01, 0xff}))
	arr := NewArray()
	require.NoError(t, arr.AddItemBool(true))
	require.NoError(t, arr.AddItemF64(3.25))
	require.NoError(t, obj.SetProp("flags", arr))

	raw, err := EncodeBus(obj)
	require.NoError(t, err)

	out, err := DecodeBus(raw)
	require.NoError(t, err)
	assert.True(t, Equal(obj, out))
}

func TestBusRoundTripNull(t *testing.T) {
	m := NewNull()
	raw, err := EncodeBus(m)
	require.NoError(t, err)
	out, err := DecodeBus(raw)
	require.NoError(t, err)
	assert.Equal(t, TagNull, out.Tag())
}

func TestBusPreservesBinaryNatively(t *testing.T) {
	m := NewBytes([]byte{0x00, 0x00, 0x01})
	raw, err := EncodeBus(m)
	require.NoError(t, err)
	out, err := DecodeBus(raw)
	require.NoError(t, err)
	b, ok := out.GetBytes()
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x00, 0x01}, b)
}
