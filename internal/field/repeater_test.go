package field

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func strTuple(vals ...string) cty.Value {
	elems := make([]cty.Value, len(vals))
	for i, v := range vals {
		elems[i] = cty.StringVal(v)
	}
	return cty.TupleVal(elems)
}

func TestRepeaterField_LengthChangeFiresCallback(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	f := NewRepeater(h.env, SimpleConfig{
		ComponentKey: "items",
		DataKey:      "items",
		SchemaType:   schema.Array,
		Initial:      strTuple("a", "b", "c"),
	})
	var lengths []int
	f.OnLengthChanged = func(_ context.Context, n int) { lengths = append(lengths, n) }

	h.queue.Do(func() {
		f.Init(context.Background())
		f.SetValue(context.Background(), strTuple("a", "b"))
	})

	require.Equal(t, []int{3, 2}, lengths, "init generates the first set, the shrink regenerates")
	assert.Equal(t, 2, f.Length())
}

func TestRepeaterField_SameLengthWriteDoesNotRegenerate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	f := NewRepeater(h.env, SimpleConfig{
		ComponentKey: "items",
		DataKey:      "items",
		SchemaType:   schema.Array,
		Initial:      strTuple("a", "b"),
	})
	fired := 0
	f.OnLengthChanged = func(_ context.Context, _ int) { fired++ }

	h.queue.Do(func() {
		f.Init(context.Background())
		f.SetValue(context.Background(), strTuple("x", "y"))
	})

	assert.Equal(t, 1, fired, "after the initial generation, same-length writes keep the subtrees")
	assert.Equal(t, cty.StringVal("x"), f.Item(0))
}

func TestRepeaterField_ItemOutOfRangeIsNull(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	f := NewRepeater(h.env, SimpleConfig{
		ComponentKey: "items",
		DataKey:      "items",
		SchemaType:   schema.Array,
		Initial:      strTuple("a"),
	})

	h.queue.Do(func() { f.Init(context.Background()) })

	assert.True(t, f.Item(5).IsNull())
	assert.True(t, f.Item(-1).IsNull())
}

func TestProxyField_DelegatesToTarget(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	target := NewSimple(h.env, SimpleConfig{
		ComponentKey: "name",
		DataKey:      "name",
		SchemaType:   schema.String,
		Initial:      cty.StringVal("Jane"),
	})
	proxy := NewProxy("nameMirror", target)

	h.queue.Do(func() {
		target.Init(context.Background())
		proxy.SetValue(context.Background(), cty.StringVal("June"))
	})

	assert.Equal(t, "nameMirror", proxy.ComponentKey())
	assert.Equal(t, "name", proxy.DataKey())
	assert.Equal(t, cty.StringVal("June"), proxy.Value(), "proxy reads the target's value")
	assert.Equal(t, cty.StringVal("June"), target.Value(), "proxy writes land on the target")
	assert.True(t, proxy.Touched())
}
