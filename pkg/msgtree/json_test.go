package msgtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripJSON(t *testing.T, m *Msg) *Msg {
	t.Helper()
	raw, err := EncodeJSON(m)
	require.NoError(t, err)
	out, err := DecodeJSON(raw)
	require.NoError(t, err)
	return out
}

func TestJSONRoundTripScalarsAndContainers(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetPropString("name", "eth0"))
	require.NoError(t, obj.SetPropI32("vlan", 10))
	require.NoError(t, obj.SetPropI64("big", 1<<40))
	require.NoError(t, obj.SetPropF64("ratio", 0.5))
	require.NoError(t, obj.SetPropBool("up", true))
	arr := NewArray()
	require.NoError(t, arr.AddItemI32(1))
	require.NoError(t, arr.AddItemI32(2))
	require.NoError(t, obj.SetProp("tags", arr))

	out := roundTripJSON(t, obj)
	assert.True(t, Equal(obj, out), "P_msg_roundtrip violated")
}

func TestJSONBinarySentinel(t *testing.T) {
	m := NewBytes([]byte("sample\n"))
	raw, err := EncodeJSON(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"#_type":"bin","#_enc":"base64","#_data":"c2FtcGxlCg=="}`, string(raw))

	out, err := DecodeJSON(raw)
	require.NoError(t, err)
	assert.True(t, Equal(m, out))
}

func TestJSONIntegerWidthPromotion(t *testing.T) {
	small, err := DecodeJSON([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, TagI32, small.Tag())

	big, err := DecodeJSON([]byte(`9999999999`))
	require.NoError(t, err)
	assert.Equal(t, TagI64, big.Tag())

	flt, err := DecodeJSON([]byte(`1.5`))
	require.NoError(t, err)
	assert.Equal(t, TagF64, flt.Tag())
}

func TestJSONNull(t *testing.T) {
	n, err := DecodeJSON([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, TagNull, n.Tag())
}

func TestJSONObjectOrderPreserved(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetPropI32("z", 1))
	require.NoError(t, obj.SetPropI32("a", 2))
	require.NoError(t, obj.SetPropI32("m", 3))

	out := roundTripJSON(t, obj)
	var names []string
	for _, k := range out.Children() {
		names = append(names, k.Name())
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
}

func TestJSONDecodeMalformed(t *testing.T) {
	_, err := DecodeJSON([]byte(`{not valid`))
	require.Error(t, err)
}
