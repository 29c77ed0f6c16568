package expr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestEngine_CompileCachesBySource(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	ctx := context.Background()

	first, err := e.Compile(ctx, "form.data.price * 2")
	require.NoError(t, err)
	second, err := e.Compile(ctx, "form.data.price * 2")
	require.NoError(t, err)

	assert.Same(t, first, second, "identical source must not be re-parsed")
	assert.Equal(t, 1, e.CacheSize())
}

func TestEngine_CompileSyntaxError(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	_, err := e.Compile(context.Background(), "form.data.price +")
	require.Error(t, err)
}

func TestExtractRefs(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	c, err := e.Compile(context.Background(),
		"form.data.price * form.data.qty + form.rootData.discount")
	require.NoError(t, err)

	assert.ElementsMatch(t, []Ref{
		{Scope: RefData, Key: "price"},
		{Scope: RefData, Key: "qty"},
		{Scope: RefRoot, Key: "discount"},
	}, c.Refs)
}

func TestEvaluate_ComputedProperty(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	ctx := context.Background()
	c, err := e.Compile(ctx, "form.data.price * form.data.qty")
	require.NoError(t, err)

	set := ScopeSet{Data: NewMapScope(map[string]cty.Value{
		"price": cty.NumberIntVal(4),
		"qty":   cty.NumberIntVal(3),
	})}

	val, err := Evaluate(ctx, c, set)
	require.NoError(t, err)
	assert.Equal(t, cty.NumberIntVal(12), val)
}

func TestEvaluate_FailureIsReportedNotFatal(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	ctx := context.Background()
	// References a key the scope does not carry.
	c, err := e.Compile(ctx, "form.data.missing + 1")
	require.NoError(t, err)

	_, err = Evaluate(ctx, c, ScopeSet{Data: NewMapScope(nil)})
	require.Error(t, err)
}

func TestEvaluateBool_SlotCondition(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	ctx := context.Background()
	c, err := e.Compile(ctx, `form.data.mode == "advanced"`)
	require.NoError(t, err)

	set := ScopeSet{Data: NewMapScope(map[string]cty.Value{"mode": cty.StringVal("advanced")})}
	ok, err := EvaluateBool(ctx, c, set)
	require.NoError(t, err)
	assert.True(t, ok)

	set.Data = NewMapScope(map[string]cty.Value{"mode": cty.StringVal("basic")})
	ok, err = EvaluateBool(ctx, c, set)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecuteAction_WritesThroughScope(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	ctx := context.Background()
	c, err := e.Compile(ctx, `set("total", form.data.price * args.factor)`)
	require.NoError(t, err)

	data := NewMapScope(map[string]cty.Value{"price": cty.NumberIntVal(10)})
	set := ScopeSet{
		Data:  data,
		Extra: map[string]cty.Value{"args": cty.ObjectVal(map[string]cty.Value{"factor": cty.NumberIntVal(3)})},
	}

	require.NoError(t, ExecuteAction(ctx, c, set))

	total, ok := data.Get("total")
	require.True(t, ok)
	assert.Equal(t, cty.NumberIntVal(30), total)
}

func TestEvaluate_StdlibFunctions(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	ctx := context.Background()
	c, err := e.Compile(ctx, `upper(form.data.name)`)
	require.NoError(t, err)

	set := ScopeSet{Data: NewMapScope(map[string]cty.Value{"name": cty.StringVal("jane")})}
	val, err := Evaluate(ctx, c, set)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("JANE"), val)
}
