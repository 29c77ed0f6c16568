// Package annotation implements the typed, immutable property descriptors
// that drive both the design surface and the runtime renderer. A descriptor
// is declared through a chainable builder; every configuring call returns a
// fresh copy, so partially configured builders can be shared and reused as
// templates. The terminal Build call freezes the accumulated options into an
// Annotation value.
package annotation

import (
	"strings"
	"unicode"

	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// BindingType describes how a component property relates to form data.
type BindingType int

const (
	BindingNone BindingType = iota
	BindingOneWay
	BindingTwoWay
)

// String implements fmt.Stringer for BindingType.
func (b BindingType) String() string {
	switch b {
	case BindingOneWay:
		return "oneWay"
	case BindingTwoWay:
		return "twoWay"
	default:
		return "none"
	}
}

// EditorType names the design-surface editor used to configure a property.
type EditorType string

const (
	EditorInput    EditorType = "input"
	EditorNumber   EditorType = "number"
	EditorCheckbox EditorType = "checkbox"
	EditorOneOf    EditorType = "oneOf"
	EditorSomeOf   EditorType = "someOf"
	EditorArray    EditorType = "array"
	EditorNode     EditorType = "node"
	EditorCode     EditorType = "code"
	EditorColor    EditorType = "color"
	EditorDate     EditorType = "date"
	EditorTime     EditorType = "time"
)

// Kind distinguishes the annotation variants.
type Kind string

const (
	KindProperty  Kind = "property"
	KindContainer Kind = "container"
	KindEvent     Kind = "event"
	KindModule    Kind = "module"
	KindStyle     Kind = "style"
)

// Choice is one labeled entry of an enumerated value set.
type Choice struct {
	Value cty.Value
	Label string
}

// Annotation is the frozen descriptor of one component property. Instances
// are produced exclusively by a builder's Build call and must be treated as
// read-only afterwards.
type Annotation struct {
	Key         string
	Name        string
	Kind        Kind
	Editor      EditorType
	Type        schema.Type
	Required    bool
	Default     cty.Value
	Validator   string
	ErrorMap    map[string]string
	Calculable  bool
	Localizable bool
	Valued      bool
	Binding     BindingType
	ReadOnly    bool
	Disabled    bool
	EditorProps map[string]any
}

// ContainerAnnotation describes a child-content property. The insert
// predicate decides which component types may be dropped into the slot.
type ContainerAnnotation struct {
	Annotation
	InsertPredicate     func(childType string) bool
	DefaultEditor       string
	SlotConditionSource func(slot string) string
}

// StyleAnnotation describes one CSS style slot.
type StyleAnnotation struct {
	Annotation
}

// EventAnnotation describes one bindable component event.
type EventAnnotation struct {
	Annotation
}

// deriveName turns a camelCase or snake_case key into a human readable
// title, e.g. "firstName" -> "First Name".
func deriveName(key string) string {
	if key == "" {
		return ""
	}
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			flush()
			current.WriteRune(unicode.ToLower(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
