package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCoerce_StringNumberRoundTrip(t *testing.T) {
	t.Parallel()

	// "42" -> number -> "42" must be lossless.
	n, err := Coerce(cty.StringVal("42"), Number)
	require.NoError(t, err)
	assert.Equal(t, cty.NumberIntVal(42), n)

	s, err := Coerce(n, String)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("42"), s)
}

func TestCoerce_BoolNumberRoundTrip(t *testing.T) {
	t.Parallel()

	// true -> number(1) -> boolean(true).
	n, err := Coerce(cty.True, Number)
	require.NoError(t, err)
	assert.Equal(t, cty.NumberIntVal(1), n)

	b, err := Coerce(n, Boolean)
	require.NoError(t, err)
	assert.Equal(t, cty.True, b)

	zero, err := Coerce(cty.Zero, Boolean)
	require.NoError(t, err)
	assert.Equal(t, cty.False, zero)
}

func TestCoerce_ObjectStringRoundTrip(t *testing.T) {
	t.Parallel()

	// '{"a":1}' -> object -> string keeps the content.
	obj, err := Coerce(cty.StringVal(`{"a":1}`), Object)
	require.NoError(t, err)
	require.True(t, obj.Type().IsObjectType())
	assert.Equal(t, cty.NumberIntVal(1), obj.GetAttr("a"))

	text, err := Coerce(obj, String)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, text.AsString())
}

func TestCoerce_NullAndUnknownPassThrough(t *testing.T) {
	t.Parallel()

	null := cty.NullVal(cty.String)
	got, err := Coerce(null, Number)
	require.NoError(t, err)
	assert.Equal(t, null, got)
}

func TestCoerce_ImpossibleConversionKeepsValue(t *testing.T) {
	t.Parallel()

	v := cty.StringVal("not a number")
	got, err := Coerce(v, Number)
	require.Error(t, err)
	assert.Equal(t, v, got, "the original value comes back so rendering can continue")
}

func TestFromGoToGo(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"name":   "Jane",
		"age":    float64(30),
		"tags":   []any{"a", "b"},
		"active": true,
	}

	v := FromGo(in)
	require.True(t, v.Type().IsObjectType())
	out, ok := ToGo(v).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, in, out)
}
