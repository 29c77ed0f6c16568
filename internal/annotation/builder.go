package annotation

import (
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Options is the bag of settings a builder accumulates. Setup merges a whole
// Options value at once; the named builder methods cover the flags Setup
// cannot distinguish from their zero values.
type Options struct {
	Name        string
	Editor      EditorType
	Type        schema.Type
	Default     cty.Value
	Validator   string
	ErrorMap    map[string]string
	EditorProps map[string]any
}

// Builder accumulates options for a plain property annotation. Builders are
// value objects: every method returns a modified copy and never mutates the
// receiver, so a builder held in a package-level variable stays pristine no
// matter how often it is extended.
type Builder struct {
	kind Kind
	opts Options

	required    bool
	calculable  bool
	localizable bool
	valued      bool
	binding     BindingType
	readOnly    bool
	disabled    bool
}

// Property starts a builder for a regular component property.
func Property(t schema.Type) Builder {
	return Builder{kind: KindProperty, opts: Options{Type: t}, binding: BindingNone}
}

// Module starts a builder for a module-level property.
func Module(t schema.Type) Builder {
	return Builder{kind: KindModule, opts: Options{Type: t}}
}

// clone returns a deep-enough copy of the builder: the maps are the only
// shared mutable state, so only they are duplicated.
func (b Builder) clone() Builder {
	out := b
	if b.opts.ErrorMap != nil {
		out.opts.ErrorMap = make(map[string]string, len(b.opts.ErrorMap))
		for k, v := range b.opts.ErrorMap {
			out.opts.ErrorMap[k] = v
		}
	}
	if b.opts.EditorProps != nil {
		out.opts.EditorProps = make(map[string]any, len(b.opts.EditorProps))
		for k, v := range b.opts.EditorProps {
			out.opts.EditorProps[k] = v
		}
	}
	return out
}

// Setup merges the given options into a copy of the builder. Zero-valued
// fields of o are left untouched; map fields are merged key by key.
func (b Builder) Setup(o Options) Builder {
	out := b.clone()
	if o.Name != "" {
		out.opts.Name = o.Name
	}
	if o.Editor != "" {
		out.opts.Editor = o.Editor
	}
	if o.Type != "" {
		out.opts.Type = o.Type
	}
	if o.Default != cty.NilVal {
		out.opts.Default = o.Default
	}
	if o.Validator != "" {
		out.opts.Validator = o.Validator
	}
	for k, v := range o.ErrorMap {
		if out.opts.ErrorMap == nil {
			out.opts.ErrorMap = map[string]string{}
		}
		out.opts.ErrorMap[k] = v
	}
	for k, v := range o.EditorProps {
		if out.opts.EditorProps == nil {
			out.opts.EditorProps = map[string]any{}
		}
		out.opts.EditorProps[k] = v
	}
	return out
}

// Named overrides the human-readable name derived from the key.
func (b Builder) Named(name string) Builder {
	out := b.clone()
	out.opts.Name = name
	return out
}

// Typed changes the schema type of the property.
func (b Builder) Typed(t schema.Type) Builder {
	out := b.clone()
	out.opts.Type = t
	return out
}

// WithEditor selects the design-surface editor.
func (b Builder) WithEditor(e EditorType) Builder {
	out := b.clone()
	out.opts.Editor = e
	return out
}

// Required marks the property as mandatory.
func (b Builder) Required() Builder {
	out := b.clone()
	out.required = true
	return out
}

// Default sets the property's default value.
func (b Builder) Default(v cty.Value) Builder {
	out := b.clone()
	out.opts.Default = v
	return out
}

// Calculable allows the property value to be produced by a computed
// expression instead of a static value.
func (b Builder) Calculable() Builder {
	out := b.clone()
	out.calculable = true
	return out
}

// Localizable allows the property value to be sourced per language from the
// localization table.
func (b Builder) Localizable() Builder {
	out := b.clone()
	out.localizable = true
	return out
}

// Valued marks this property as the component's value binding. At most one
// property per component may be valued; the definer enforces that.
func (b Builder) Valued() Builder {
	out := b.clone()
	out.valued = true
	out.binding = BindingTwoWay
	return out
}

// Bound sets the data binding type explicitly.
func (b Builder) Bound(t BindingType) Builder {
	out := b.clone()
	out.binding = t
	return out
}

// ReadOnly marks the property as the component's read-only switch.
func (b Builder) ReadOnly() Builder {
	out := b.clone()
	out.readOnly = true
	return out
}

// Disabled marks the property as the component's disabled switch.
func (b Builder) Disabled() Builder {
	out := b.clone()
	out.disabled = true
	return out
}

// WithValidator attaches a named validator and its error message map.
func (b Builder) WithValidator(key string, errorMap map[string]string) Builder {
	out := b.clone()
	out.opts.Validator = key
	for k, v := range errorMap {
		if out.opts.ErrorMap == nil {
			out.opts.ErrorMap = map[string]string{}
		}
		out.opts.ErrorMap[k] = v
	}
	return out
}

// WithEditorProps merges extra editor configuration.
func (b Builder) WithEditorProps(props map[string]any) Builder {
	return b.Setup(Options{EditorProps: props})
}

// Build freezes the accumulated options into an Annotation. Build never
// fails: a builder cannot reach an invalid state through its public surface.
func (b Builder) Build(key string) *Annotation {
	a := &Annotation{
		Key:         key,
		Name:        b.opts.Name,
		Kind:        b.kind,
		Editor:      b.opts.Editor,
		Type:        b.opts.Type,
		Required:    b.required,
		Default:     b.opts.Default,
		Validator:   b.opts.Validator,
		Calculable:  b.calculable,
		Localizable: b.localizable,
		Valued:      b.valued,
		Binding:     b.binding,
		ReadOnly:    b.readOnly,
		Disabled:    b.disabled,
	}
	if a.Name == "" {
		a.Name = deriveName(key)
	}
	if b.opts.ErrorMap != nil {
		a.ErrorMap = make(map[string]string, len(b.opts.ErrorMap))
		for k, v := range b.opts.ErrorMap {
			a.ErrorMap[k] = v
		}
	}
	if b.opts.EditorProps != nil {
		a.EditorProps = make(map[string]any, len(b.opts.EditorProps))
		for k, v := range b.opts.EditorProps {
			a.EditorProps[k] = v
		}
	}
	if a.Editor == "" {
		a.Editor = defaultEditorFor(a.Type)
	}
	return a
}

// defaultEditorFor picks the editor implied by a schema type when the
// builder did not choose one explicitly.
func defaultEditorFor(t schema.Type) EditorType {
	switch t {
	case schema.Number:
		return EditorNumber
	case schema.Boolean:
		return EditorCheckbox
	case schema.Enum:
		return EditorOneOf
	case schema.Array:
		return EditorArray
	case schema.Date:
		return EditorDate
	case schema.Time:
		return EditorTime
	default:
		return EditorInput
	}
}
