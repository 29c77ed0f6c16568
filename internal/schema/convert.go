// This file contains the value coercion logic applied whenever a value
// crosses a field boundary: user edits, computed results and persisted
// statics are all funnelled through Coerce before they reach a field.

package schema

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Coerce converts v to the representation required by the target schema type.
// The conversion table is intentionally forgiving: strings parse into numbers
// and booleans, numbers and booleans render into strings, and object/array
// values round-trip through their JSON text form. Null and unknown inputs
// pass through untouched. An impossible conversion returns the original
// value alongside an error so the caller can keep rendering.
func Coerce(v cty.Value, to Type) (cty.Value, error) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return v, nil
	}

	switch to {
	case String, Enum, Date, Time:
		return toStringValue(v)
	case Number:
		return toNumberValue(v)
	case Boolean:
		return toBoolValue(v)
	case Object, Array:
		return toStructuralValue(v, to)
	default:
		return v, nil
	}
}

func toStringValue(v cty.Value) (cty.Value, error) {
	if v.Type() == cty.String {
		return v, nil
	}
	// Numbers and booleans have a canonical string form via cty.
	if converted, err := convert.Convert(v, cty.String); err == nil {
		return converted, nil
	}
	// Structural values serialize to their JSON text.
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v, fmt.Errorf("cannot render %s as string: %w", v.Type().FriendlyName(), err)
	}
	return cty.StringVal(string(raw)), nil
}

func toNumberValue(v cty.Value) (cty.Value, error) {
	switch v.Type() {
	case cty.Number:
		return v, nil
	case cty.Bool:
		if v.True() {
			return cty.NumberIntVal(1), nil
		}
		return cty.Zero, nil
	}
	converted, err := convert.Convert(v, cty.Number)
	if err != nil {
		return v, fmt.Errorf("cannot convert %s to number: %w", v.Type().FriendlyName(), err)
	}
	return converted, nil
}

func toBoolValue(v cty.Value) (cty.Value, error) {
	switch v.Type() {
	case cty.Bool:
		return v, nil
	case cty.Number:
		return cty.BoolVal(v.AsBigFloat().Sign() != 0), nil
	}
	converted, err := convert.Convert(v, cty.Bool)
	if err != nil {
		return v, fmt.Errorf("cannot convert %s to boolean: %w", v.Type().FriendlyName(), err)
	}
	return converted, nil
}

func toStructuralValue(v cty.Value, to Type) (cty.Value, error) {
	if v.Type() == cty.String {
		parsed, err := FromJSONText(v.AsString())
		if err != nil {
			return v, fmt.Errorf("cannot parse string as %s: %w", to, err)
		}
		return parsed, nil
	}
	ty := v.Type()
	switch to {
	case Array:
		if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
			return v, nil
		}
	case Object:
		if ty.IsObjectType() || ty.IsMapType() {
			return v, nil
		}
	}
	return v, fmt.Errorf("cannot convert %s to %s", ty.FriendlyName(), to)
}

// FromGo converts a JSON-decoded Go value (nil, bool, float64, string,
// []any, map[string]any) into a cty.Value. It is the bridge between the
// persisted envelope, which is plain JSON, and the runtime value model.
func FromGo(v any) cty.Value {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case bool:
		return cty.BoolVal(val)
	case float64:
		return cty.NumberFloatVal(val)
	case int:
		return cty.NumberIntVal(int64(val))
	case int64:
		return cty.NumberIntVal(val)
	case string:
		return cty.StringVal(val)
	case json.Number:
		return cty.NumberFloatVal(mustFloat(val))
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal
		}
		elems := make([]cty.Value, len(val))
		for i, item := range val {
			elems[i] = FromGo(item)
		}
		return cty.TupleVal(elems)
	case map[string]any:
		if len(val) == 0 {
			return cty.EmptyObjectVal
		}
		attrs := make(map[string]cty.Value, len(val))
		for k, item := range val {
			attrs[k] = FromGo(item)
		}
		return cty.ObjectVal(attrs)
	default:
		// Last resort: round-trip through JSON.
		raw, err := json.Marshal(v)
		if err != nil {
			return cty.NullVal(cty.DynamicPseudoType)
		}
		parsed, err := FromJSONText(string(raw))
		if err != nil {
			return cty.NullVal(cty.DynamicPseudoType)
		}
		return parsed
	}
}

// ToGo converts a cty.Value back into a plain Go value suitable for JSON
// encoding. Unknown values become nil.
func ToGo(v cty.Value) any {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ToGo(ev))
		}
		return out
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			out[kv.AsString()] = ToGo(ev)
		}
		return out
	default:
		return nil
	}
}

// FromJSONText parses a JSON document into a cty.Value with an implied type.
func FromJSONText(text string) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType([]byte(text))
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal([]byte(text), ty)
}

func mustFloat(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}
