package runtime

import (
	"context"
	"strings"

	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/field"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// templateField embeds another saved form as a single object-valued field.
// The embedded form runs in its own nested Store with its own queue; the
// outer field's value is the nested form's data object. The form to embed
// comes from the component type ("template:<name>") or an explicit static
// "form" prop, resolved through the store's Loader.
type templateField struct {
	store        *Store
	env          *field.Env
	componentKey string
	dataKey      string
	formName     string

	initial cty.Value
	inner   *Store
	unsub   func()

	errMsg   string
	touched  bool
	disposed bool
}

func newTemplateField(s *Store, cd *ComponentData, env *field.Env, cfg field.SimpleConfig) *templateField {
	name := strings.TrimPrefix(cd.Node.Type, "template:")
	if prop, ok := cd.Node.Props["form"]; ok {
		if explicit, ok := prop.Value.(string); ok && explicit != "" {
			name = explicit
		}
	}
	return &templateField{
		store:        s,
		env:          env,
		componentKey: cfg.ComponentKey,
		dataKey:      cfg.DataKey,
		formName:     name,
		initial:      cfg.Initial,
	}
}

func (f *templateField) ComponentKey() string { return f.componentKey }
func (f *templateField) DataKey() string      { return f.dataKey }
func (f *templateField) Error() string        { return f.errMsg }
func (f *templateField) Touched() bool        { return f.touched }
func (f *templateField) IsComputed() bool     { return false }

// Inner exposes the nested store, nil until Init loaded the form.
func (f *templateField) Inner() *Store { return f.inner }

// Value collects the nested form's data as one object.
func (f *templateField) Value() cty.Value {
	if f.inner == nil {
		return f.initial
	}
	data := f.inner.Data(f.store.ctx)
	if len(data) == 0 {
		return cty.EmptyObjectVal
	}
	return schema.FromGo(data)
}

// maxTemplateDepth bounds template nesting so a form embedding itself
// cannot recurse forever.
const maxTemplateDepth = 8

// Init resolves the embedded form through the loader and builds the nested
// store, seeding it with the field's initial object. A load failure becomes
// the field's error; the outer form keeps rendering.
func (f *templateField) Init(ctx context.Context) {
	if f.store.depth >= maxTemplateDepth {
		f.errMsg = "template nesting too deep"
		ctxlog.FromContext(ctx).Warn("Template nesting limit reached.",
			"component", f.componentKey, "form", f.formName)
		return
	}
	if f.store.loader == nil {
		f.errMsg = "no form loader configured"
		ctxlog.FromContext(ctx).Warn("Template component has no loader.", "component", f.componentKey)
		return
	}
	env, err := f.store.loader(ctx, f.formName)
	if err != nil {
		f.errMsg = "failed to load form " + f.formName
		ctxlog.FromContext(ctx).Warn("Template form failed to load.",
			"component", f.componentKey, "form", f.formName, "error", err)
		return
	}

	f.inner = NewStore(ctx, Options{
		Registry: f.store.reg,
		Loader:   f.store.loader,
		Language: f.store.lang,
		Debounce: f.env.Debounce,
	})
	f.inner.depth = f.store.depth + 1
	var seed map[string]any
	if f.initial != cty.NilVal && !f.initial.IsNull() && f.initial.Type().IsObjectType() {
		if m, ok := schema.ToGo(f.initial).(map[string]any); ok {
			seed = m
		}
	}
	if err := f.inner.ApplyPersistedForm(ctx, env, seed); err != nil {
		f.errMsg = "failed to build form " + f.formName
		return
	}
	f.unsub = f.inner.Subscribe(func() {
		f.store.graph.Invalidate(f.store.ctx, field.SourceKey(f.dataKey))
		f.store.notify()
	})
	f.announce(ctx)
}

// SetValue distributes an object value over the nested form's data keys.
func (f *templateField) SetValue(ctx context.Context, v cty.Value) {
	if f.disposed || f.inner == nil {
		return
	}
	coerced, err := schema.Coerce(v, schema.Object)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Rejecting non-object template value.",
			"field", f.componentKey, "error", err)
		return
	}
	f.touched = true
	if m, ok := schema.ToGo(coerced).(map[string]any); ok {
		for key, value := range m {
			f.inner.SetData(ctx, key, value)
		}
	}
	f.announce(ctx)
}

// Adopt mirrors a sibling's object without re-announcing.
func (f *templateField) Adopt(ctx context.Context, v cty.Value) {
	if f.disposed || f.inner == nil {
		return
	}
	if m, ok := schema.ToGo(v).(map[string]any); ok {
		for key, value := range m {
			f.inner.SetData(ctx, key, value)
		}
	}
}

func (f *templateField) Reset(ctx context.Context) {
	if f.inner != nil {
		f.inner.Reset(ctx)
	}
	f.touched = false
	f.errMsg = ""
}

func (f *templateField) Clear(ctx context.Context) {
	if f.inner != nil {
		f.inner.Clear(ctx)
	}
	f.touched = false
	f.errMsg = ""
}

// Validate fans out into the nested form and reports its failure count as
// this field's error.
func (f *templateField) Validate(ctx context.Context) (string, error) {
	if f.inner == nil {
		return f.errMsg, nil
	}
	failures := f.inner.Validate(ctx)
	if len(failures) == 0 {
		f.errMsg = ""
		return "", nil
	}
	for _, msg := range failures {
		f.errMsg = msg
		break
	}
	return f.errMsg, nil
}

func (f *templateField) Dispose(ctx context.Context) {
	if f.disposed {
		return
	}
	f.disposed = true
	if f.unsub != nil {
		f.unsub()
	}
	if f.inner != nil {
		f.inner.Close(ctx)
		f.inner = nil
	}
}

func (f *templateField) announce(ctx context.Context) {
	if f.env.OnValueChanged != nil {
		f.env.OnValueChanged(ctx, f, f.Value())
	}
}
