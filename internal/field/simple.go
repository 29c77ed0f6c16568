package field

import (
	"context"
	"time"

	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/reactive"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// SimpleField manages a scalar (or structural) value bound two-way to a
// data key. When the bound property is computed, the field registers itself
// with the reactive graph and re-evaluates whenever one of the expression's
// reads changes; the first evaluation is deferred one queue turn past tree
// construction so sibling fields exist before it runs.
type SimpleField struct {
	env          *Env
	componentKey string
	dataKey      string
	schemaType   schema.Type

	initial cty.Value
	def     cty.Value
	value   cty.Value
	errMsg  string
	touched bool

	computed *expr.Compiled
	vschema  *formstore.ValidationSchema

	timer    *time.Timer
	disposed bool
}

// SimpleConfig collects the construction inputs of a SimpleField.
type SimpleConfig struct {
	ComponentKey string
	DataKey      string
	SchemaType   schema.Type
	Initial      cty.Value
	Default      cty.Value
	Computed     *expr.Compiled
	Schema       *formstore.ValidationSchema
}

// NewSimple creates an uninitialized SimpleField. Until Init runs the value
// mirrors the initial data verbatim.
func NewSimple(env *Env, cfg SimpleConfig) *SimpleField {
	return &SimpleField{
		env:          env,
		componentKey: cfg.ComponentKey,
		dataKey:      cfg.DataKey,
		schemaType:   cfg.SchemaType,
		initial:      cfg.Initial,
		def:          cfg.Default,
		value:        cfg.Initial,
		computed:     cfg.Computed,
		vschema:      cfg.Schema,
	}
}

func (f *SimpleField) ComponentKey() string { return f.componentKey }
func (f *SimpleField) DataKey() string      { return f.dataKey }
func (f *SimpleField) Value() cty.Value     { return f.value }
func (f *SimpleField) Error() string        { return f.errMsg }
func (f *SimpleField) Touched() bool        { return f.touched }
func (f *SimpleField) IsComputed() bool     { return f.computed != nil }

// SchemaType exposes the field's value type.
func (f *SimpleField) SchemaType() schema.Type { return f.schemaType }

// Init wires the field into the live form. It must be called exactly once,
// after the full Form aggregate exists.
func (f *SimpleField) Init(ctx context.Context) {
	if f.computed != nil {
		f.env.Graph.Register(reactive.Computation{
			ID:    graphID(f.componentKey),
			Reads: refsToReads(f.computed.Refs),
			Run:   f.recompute,
		})
		// Deferred one queue turn: siblings referenced by the expression
		// may not be wired yet while the tree is still being built.
		f.env.Graph.Schedule(ctx, graphID(f.componentKey))
		return
	}
	if f.value == cty.NilVal {
		f.value = f.def
	}
	if f.value != cty.NilVal {
		f.announce(ctx, f.value)
	}
}

// recompute re-evaluates the computed expression and installs the result.
// An evaluation failure leaves the previous value in place.
func (f *SimpleField) recompute(ctx context.Context) {
	if f.disposed {
		return
	}
	val, err := expr.Evaluate(ctx, f.computed, f.env.scopes())
	if err != nil {
		return
	}
	coerced, err := schema.Coerce(val, f.schemaType)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Computed value has incompatible type; keeping previous value.",
			"field", f.componentKey, "error", err)
		return
	}
	if f.value != cty.NilVal && coerced.RawEquals(f.value) {
		return
	}
	f.value = coerced
	f.announce(ctx, coerced)
}

// SetValue installs a user-driven value: coercion, sibling propagation and
// a debounced validation pass.
func (f *SimpleField) SetValue(ctx context.Context, v cty.Value) {
	if f.disposed {
		return
	}
	coerced, err := schema.Coerce(v, f.schemaType)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Rejecting value with incompatible type.",
			"field", f.componentKey, "error", err)
		return
	}
	f.value = coerced
	f.touched = true
	f.announce(ctx, coerced)
	f.scheduleValidation(ctx)
}

// Adopt installs a value coming from a sibling bound to the same data key.
// No propagation: the originating field already announced the change.
func (f *SimpleField) Adopt(ctx context.Context, v cty.Value) {
	if f.disposed {
		return
	}
	coerced, err := schema.Coerce(v, f.schemaType)
	if err != nil {
		return
	}
	f.value = coerced
}

func (f *SimpleField) announce(ctx context.Context, v cty.Value) {
	if f.env.OnValueChanged != nil {
		f.env.OnValueChanged(ctx, f, v)
	}
}

// scheduleValidation arms the debounce timer. Bursts within the interval
// collapse; the pass validates whatever value is current when it fires.
func (f *SimpleField) scheduleValidation(ctx context.Context) {
	if f.env.NeedsValidation != nil && !f.env.NeedsValidation(f) {
		return
	}
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.env.debounce(), func() {
		f.env.Graph.Queue().Enqueue(func() {
			if f.disposed {
				return
			}
			if _, err := f.Validate(ctx); err != nil {
				ctxlog.FromContext(ctx).Warn("Debounced validation failed.",
					"field", f.componentKey, "error", err)
			}
		})
	})
}

// Validate runs validation immediately against the current value.
func (f *SimpleField) Validate(ctx context.Context) (string, error) {
	if f.vschema == nil {
		f.errMsg = ""
		return "", nil
	}
	results, err := f.env.Validator.Validate(ctx, f.schemaType, f.value, f.vschema, f.env.scopes())
	if err != nil {
		return f.errMsg, err
	}
	if len(results) == 0 {
		f.errMsg = ""
		return "", nil
	}
	var messages []string
	limit := 1
	if f.vschema.ShowAllErrors {
		limit = len(results)
	}
	for _, res := range results[:limit] {
		msg := res.Message
		if f.env.LocalizeError != nil {
			msg = f.env.LocalizeError(ctx, f.componentKey, res)
		}
		messages = append(messages, msg)
	}
	f.errMsg = joinMessages(messages)
	return f.errMsg, nil
}

// Reset restores the initial value and clears error state.
func (f *SimpleField) Reset(ctx context.Context) {
	f.cancelTimer()
	if f.initial != cty.NilVal {
		f.value = f.initial
	} else {
		f.value = f.def
	}
	f.errMsg = ""
	f.touched = false
	f.announce(ctx, f.value)
}

// Clear restores the model default and drops the initial data.
func (f *SimpleField) Clear(ctx context.Context) {
	f.cancelTimer()
	f.initial = cty.NilVal
	f.value = f.def
	f.errMsg = ""
	f.touched = false
	f.announce(ctx, f.value)
}

// Dispose releases the field's reactions. Further calls are no-ops.
func (f *SimpleField) Dispose(ctx context.Context) {
	if f.disposed {
		return
	}
	f.disposed = true
	f.cancelTimer()
	if f.computed != nil {
		f.env.Graph.Unregister(graphID(f.componentKey))
	}
}

// Disposed reports whether Dispose has run, used by repeater tests.
func (f *SimpleField) Disposed() bool { return f.disposed }

func (f *SimpleField) cancelTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func joinMessages(messages []string) string {
	out := ""
	for i, m := range messages {
		if i > 0 {
			out += "; "
		}
		out += m
	}
	return out
}
