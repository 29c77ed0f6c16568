// Specialized builders: enumerated value sets, arrays, child-content slots,
// style slots and events. Each one wraps the plain Builder and keeps its own
// extra state; the copy-on-write contract is the same throughout.

package annotation

import (
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// OneOfBuilder declares a property whose value is one of a labeled set.
type OneOfBuilder struct {
	b            Builder
	choices      []Choice
	radioButtons bool
	nonCreatable bool
}

// OneOf starts a builder for a single-choice enumerated property.
func OneOf(choices ...Choice) OneOfBuilder {
	b := Property(schema.Enum).WithEditor(EditorOneOf)
	return OneOfBuilder{b: b, choices: choices}
}

func (o OneOfBuilder) clone() OneOfBuilder {
	out := o
	out.choices = append([]Choice(nil), o.choices...)
	return out
}

// Named overrides the derived display name.
func (o OneOfBuilder) Named(name string) OneOfBuilder {
	out := o.clone()
	out.b = out.b.Named(name)
	return out
}

// Default sets the pre-selected choice value.
func (o OneOfBuilder) Default(v cty.Value) OneOfBuilder {
	out := o.clone()
	out.b = out.b.Default(v)
	return out
}

// Required marks the choice as mandatory.
func (o OneOfBuilder) Required() OneOfBuilder {
	out := o.clone()
	out.b = out.b.Required()
	return out
}

// Valued marks the choice property as the component's value binding.
func (o OneOfBuilder) Valued() OneOfBuilder {
	out := o.clone()
	out.b = out.b.Valued()
	return out
}

// Localizable allows per-language choice labels.
func (o OneOfBuilder) Localizable() OneOfBuilder {
	out := o.clone()
	out.b = out.b.Localizable()
	return out
}

// RadioButtons renders the editor as a radio group instead of a dropdown.
func (o OneOfBuilder) RadioButtons() OneOfBuilder {
	out := o.clone()
	out.radioButtons = true
	return out
}

// NonCreatable forbids free-typed values outside the declared set.
func (o OneOfBuilder) NonCreatable() OneOfBuilder {
	out := o.clone()
	out.nonCreatable = true
	return out
}

// Build freezes the builder into an Annotation carrying the choice set.
func (o OneOfBuilder) Build(key string) *Annotation {
	a := o.b.Build(key)
	a.EditorProps = mergedEditorProps(a.EditorProps, map[string]any{
		"choices":      choiceList(o.choices),
		"radioButtons": o.radioButtons,
		"nonCreatable": o.nonCreatable,
	})
	return a
}

// SomeOfBuilder declares a property holding several values of a labeled set.
type SomeOfBuilder struct {
	b            Builder
	choices      []Choice
	nonCreatable bool
}

// SomeOf starts a builder for a multi-choice enumerated property.
func SomeOf(choices ...Choice) SomeOfBuilder {
	b := Property(schema.Array).WithEditor(EditorSomeOf)
	return SomeOfBuilder{b: b, choices: choices}
}

func (s SomeOfBuilder) clone() SomeOfBuilder {
	out := s
	out.choices = append([]Choice(nil), s.choices...)
	return out
}

// Named overrides the derived display name.
func (s SomeOfBuilder) Named(name string) SomeOfBuilder {
	out := s.clone()
	out.b = out.b.Named(name)
	return out
}

// Default sets the pre-selected choice values.
func (s SomeOfBuilder) Default(v cty.Value) SomeOfBuilder {
	out := s.clone()
	out.b = out.b.Default(v)
	return out
}

// Valued marks the property as the component's value binding.
func (s SomeOfBuilder) Valued() SomeOfBuilder {
	out := s.clone()
	out.b = out.b.Valued()
	return out
}

// NonCreatable forbids values outside the declared set.
func (s SomeOfBuilder) NonCreatable() SomeOfBuilder {
	out := s.clone()
	out.nonCreatable = true
	return out
}

// Build freezes the builder into an Annotation carrying the choice set.
func (s SomeOfBuilder) Build(key string) *Annotation {
	a := s.b.Build(key)
	a.EditorProps = mergedEditorProps(a.EditorProps, map[string]any{
		"choices":      choiceList(s.choices),
		"nonCreatable": s.nonCreatable,
	})
	return a
}

// ArrayBuilder declares an array-typed property with a fixed element type.
type ArrayBuilder struct {
	b    Builder
	elem schema.Type
}

// Array starts a builder for an array property of the given element type.
func Array(elem schema.Type) ArrayBuilder {
	return ArrayBuilder{b: Property(schema.Array).WithEditor(EditorArray), elem: elem}
}

// Named overrides the derived display name.
func (a ArrayBuilder) Named(name string) ArrayBuilder {
	out := a
	out.b = out.b.Named(name)
	return out
}

// Valued marks the array as the component's value binding; repeaters bind
// their item source this way.
func (a ArrayBuilder) Valued() ArrayBuilder {
	out := a
	out.b = out.b.Valued()
	return out
}

// Required marks the array as mandatory.
func (a ArrayBuilder) Required() ArrayBuilder {
	out := a
	out.b = out.b.Required()
	return out
}

// Calculable allows the array to be produced by a computed expression.
func (a ArrayBuilder) Calculable() ArrayBuilder {
	out := a
	out.b = out.b.Calculable()
	return out
}

// Build freezes the builder into an Annotation carrying the element type.
func (a ArrayBuilder) Build(key string) *Annotation {
	ann := a.b.Build(key)
	ann.EditorProps = mergedEditorProps(ann.EditorProps, map[string]any{
		"elementType": string(a.elem),
	})
	return ann
}

// NodeBuilder declares a child-content property of a container component.
type NodeBuilder struct {
	b             Builder
	insert        func(childType string) bool
	defaultEditor string
	slotCondition func(slot string) string
}

// Node starts a builder for a child-content slot.
func Node() NodeBuilder {
	b := Property(schema.Object).WithEditor(EditorNode)
	b.kind = KindContainer
	return NodeBuilder{b: b}
}

// Named overrides the derived display name.
func (n NodeBuilder) Named(name string) NodeBuilder {
	out := n
	out.b = out.b.Named(name)
	return out
}

// InsertWhen installs the predicate deciding which child component types may
// be inserted into this slot.
func (n NodeBuilder) InsertWhen(pred func(childType string) bool) NodeBuilder {
	out := n
	out.insert = pred
	return out
}

// DefaultEditor names the editor opened when a child is added.
func (n NodeBuilder) DefaultEditor(editor string) NodeBuilder {
	out := n
	out.defaultEditor = editor
	return out
}

// SlotConditionSource installs a generator producing the guard expression
// source for a named slot.
func (n NodeBuilder) SlotConditionSource(gen func(slot string) string) NodeBuilder {
	out := n
	out.slotCondition = gen
	return out
}

// Build freezes the builder into a ContainerAnnotation.
func (n NodeBuilder) Build(key string) *ContainerAnnotation {
	return &ContainerAnnotation{
		Annotation:          *n.b.Build(key),
		InsertPredicate:     n.insert,
		DefaultEditor:       n.defaultEditor,
		SlotConditionSource: n.slotCondition,
	}
}

// StyleBuilder declares one CSS style slot.
type StyleBuilder struct {
	b Builder
}

// Style starts a builder for a style slot.
func Style() StyleBuilder {
	b := Property(schema.String).WithEditor(EditorColor)
	b.kind = KindStyle
	return StyleBuilder{b: b}
}

// Named overrides the derived display name.
func (s StyleBuilder) Named(name string) StyleBuilder {
	out := s
	out.b = out.b.Named(name)
	return out
}

// WithEditor selects the style editor.
func (s StyleBuilder) WithEditor(e EditorType) StyleBuilder {
	out := s
	out.b = out.b.WithEditor(e)
	return out
}

// Default sets the default style value.
func (s StyleBuilder) Default(v cty.Value) StyleBuilder {
	out := s
	out.b = out.b.Default(v)
	return out
}

// Build freezes the builder into a StyleAnnotation.
func (s StyleBuilder) Build(key string) *StyleAnnotation {
	return &StyleAnnotation{Annotation: *s.b.Build(key)}
}

// EventBuilder declares one bindable component event.
type EventBuilder struct {
	b Builder
}

// Event starts a builder for an event declaration.
func Event() EventBuilder {
	b := Property(schema.Object).WithEditor(EditorCode)
	b.kind = KindEvent
	return EventBuilder{b: b}
}

// Named overrides the derived display name.
func (e EventBuilder) Named(name string) EventBuilder {
	out := e
	out.b = out.b.Named(name)
	return out
}

// Build freezes the builder into an EventAnnotation.
func (e EventBuilder) Build(key string) *EventAnnotation {
	return &EventAnnotation{Annotation: *e.b.Build(key)}
}

func choiceList(choices []Choice) []map[string]any {
	out := make([]map[string]any, len(choices))
	for i, c := range choices {
		out[i] = map[string]any{"value": schema.ToGo(c.Value), "label": c.Label}
	}
	return out
}

func mergedEditorProps(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
