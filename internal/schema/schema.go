// Package schema defines the value-type system shared by annotations, fields
// and the validation engine. Every form value is carried as a cty.Value; the
// Type enumeration names the schema types a component property may declare,
// and maps each one onto its cty representation.
package schema

import (
	"github.com/zclconf/go-cty/cty"
)

// Type identifies the schema type of a component property or field value.
type Type string

const (
	String  Type = "string"
	Number  Type = "number"
	Boolean Type = "boolean"
	Object  Type = "object"
	Array   Type = "array"
	Enum    Type = "enum"
	Date    Type = "date"
	Time    Type = "time"
)

// AllTypes lists every schema type, in a stable order.
var AllTypes = []Type{String, Number, Boolean, Object, Array, Enum, Date, Time}

// Valid reports whether t is one of the known schema types.
func (t Type) Valid() bool {
	switch t {
	case String, Number, Boolean, Object, Array, Enum, Date, Time:
		return true
	}
	return false
}

// CtyType returns the cty.Type used to carry values of this schema type.
// Object and array values are structurally open, so they map onto the
// dynamic pseudo-type and are validated by shape at the point of use.
func (t Type) CtyType() cty.Type {
	switch t {
	case String, Enum, Date, Time:
		return cty.String
	case Number:
		return cty.Number
	case Boolean:
		return cty.Bool
	default:
		return cty.DynamicPseudoType
	}
}

// Zero returns the natural empty value for the schema type. It is used when a
// field is cleared and no model default exists.
func (t Type) Zero() cty.Value {
	switch t {
	case String, Enum, Date, Time:
		return cty.StringVal("")
	case Number:
		return cty.Zero
	case Boolean:
		return cty.False
	case Array:
		return cty.EmptyTupleVal
	case Object:
		return cty.EmptyObjectVal
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}
