package field

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// RepeaterField manages a field bound to an array. It behaves like a
// SimpleField over the array value, and additionally notifies the owning
// node whenever the array length changes so the item subtrees can be
// regenerated. Regeneration is wholesale: the previous generation is
// disposed and a fresh one built, trading transient per-item state for a
// much simpler lifecycle than identity diffing.
type RepeaterField struct {
	SimpleField
	lastLength int
	// OnLengthChanged is installed by the owning ComponentData; it runs on
	// the queue with the new length after the value settles.
	OnLengthChanged func(ctx context.Context, length int)
}

// NewRepeater creates an uninitialized RepeaterField. lastLength starts
// below any real length so Init always generates the first item set.
func NewRepeater(env *Env, cfg SimpleConfig) *RepeaterField {
	f := &RepeaterField{SimpleField: *NewSimple(env, cfg)}
	f.lastLength = -1
	return f
}

// Init wires the repeater like a simple field, then generates the initial
// item set.
func (f *RepeaterField) Init(ctx context.Context) {
	f.SimpleField.Init(ctx)
	f.checkLength(ctx)
}

// SetValue installs the new array and regenerates items on length change.
func (f *RepeaterField) SetValue(ctx context.Context, v cty.Value) {
	f.SimpleField.SetValue(ctx, v)
	f.checkLength(ctx)
}

// Adopt mirrors a sibling's array without propagation.
func (f *RepeaterField) Adopt(ctx context.Context, v cty.Value) {
	f.SimpleField.Adopt(ctx, v)
	f.checkLength(ctx)
}

// Length returns the bound array's current length.
func (f *RepeaterField) Length() int {
	return lengthOfArray(f.value)
}

// Item returns the idx-th element of the bound array, or a null value when
// out of range.
func (f *RepeaterField) Item(idx int) cty.Value {
	v := f.value
	if lengthOfArray(v) <= idx || idx < 0 {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	i := 0
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if i == idx {
			return ev
		}
		i++
	}
	return cty.NullVal(cty.DynamicPseudoType)
}

func (f *RepeaterField) checkLength(ctx context.Context) {
	length := lengthOfArray(f.value)
	if length == f.lastLength {
		return
	}
	f.lastLength = length
	if f.OnLengthChanged != nil {
		f.OnLengthChanged(ctx, length)
	}
}

func lengthOfArray(v cty.Value) int {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return 0
	}
	ty := v.Type()
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		return v.LengthInt()
	}
	return 0
}

// ProxyField forwards every operation to a target field while carrying its
// own component identity. Components bound one-way to another component's
// data key render through a proxy.
type ProxyField struct {
	componentKey string
	target       Field
}

// NewProxy creates a proxy over the target field.
func NewProxy(componentKey string, target Field) *ProxyField {
	return &ProxyField{componentKey: componentKey, target: target}
}

func (f *ProxyField) ComponentKey() string { return f.componentKey }
func (f *ProxyField) DataKey() string      { return f.target.DataKey() }
func (f *ProxyField) Value() cty.Value     { return f.target.Value() }
func (f *ProxyField) Error() string        { return f.target.Error() }
func (f *ProxyField) Touched() bool        { return f.target.Touched() }
func (f *ProxyField) IsComputed() bool     { return f.target.IsComputed() }

func (f *ProxyField) Init(ctx context.Context)                  {}
func (f *ProxyField) SetValue(ctx context.Context, v cty.Value) { f.target.SetValue(ctx, v) }
func (f *ProxyField) Adopt(ctx context.Context, v cty.Value)    {}
func (f *ProxyField) Reset(ctx context.Context)                 {}
func (f *ProxyField) Clear(ctx context.Context)                 {}
func (f *ProxyField) Validate(ctx context.Context) (string, error) {
	return f.target.Validate(ctx)
}
func (f *ProxyField) Dispose(ctx context.Context) {}
