// Package field implements the per-node value controllers of the live form
// tree. A field owns its current value, its validation error and its
// touched flag, and wires itself into the reactive graph when the value is
// computed. All field methods are queue-confined: the owning store calls
// them on its reactive queue only, so fields need no locking of their own.
// The one place concurrency enters is the debounce timer, which re-enters
// through the queue.
package field

import (
	"context"
	"time"

	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/reactive"
	"github.com/vk/formweave/internal/validation"
	"github.com/zclconf/go-cty/cty"
)

// DebounceInterval is the default delay between the last edit and the
// validation pass it triggers. Bursts of edits inside the window collapse
// into one pass against the most recent value.
const DebounceInterval = 200 * time.Millisecond

// Field is the common contract of all field variants.
type Field interface {
	// ComponentKey identifies the owning component node.
	ComponentKey() string
	// DataKey is the form-data key the field is bound to.
	DataKey() string
	Value() cty.Value
	Error() string
	Touched() bool
	IsComputed() bool

	Init(ctx context.Context)
	SetValue(ctx context.Context, v cty.Value)
	// Adopt installs a value without triggering sibling sync, used when
	// another field bound to the same data key changed.
	Adopt(ctx context.Context, v cty.Value)
	Reset(ctx context.Context)
	Clear(ctx context.Context)
	// Validate runs validation immediately and returns the error message,
	// empty when the value is valid.
	Validate(ctx context.Context) (string, error)
	Dispose(ctx context.Context)
}

// Env carries the store-provided collaborators a field needs. The store
// builds one Env per form instance and shares it across fields.
type Env struct {
	Graph     *reactive.Graph
	Engine    *expr.Engine
	Validator *validation.Runner
	// Scopes resolves the field's data views at call time; repeater item
	// fields see their item scope, everything else the form root.
	Scopes func() expr.ScopeSet
	// LocalizeError maps a failed rule to its display message.
	LocalizeError func(ctx context.Context, componentKey string, res validation.Result) string
	// OnValueChanged propagates a user- or computation-driven value change:
	// sibling sync and data-key invalidation live behind this hook.
	OnValueChanged func(ctx context.Context, f Field, v cty.Value)
	// NeedsValidation gates validation on render conditions; a hidden field
	// is not validated even if it carries rules.
	NeedsValidation func(f Field) bool
	// Debounce overrides DebounceInterval, used by tests.
	Debounce time.Duration
}

func (e *Env) debounce() time.Duration {
	if e.Debounce > 0 {
		return e.Debounce
	}
	return DebounceInterval
}

func (e *Env) scopes() expr.ScopeSet {
	if e.Scopes == nil {
		return expr.ScopeSet{}
	}
	return e.Scopes()
}

// graphID builds the reactive-graph computation id for a field.
func graphID(componentKey string) string {
	return "field:" + componentKey
}

// SourceKey renders a data key as a reactive-graph source key. The empty
// key yields the scope-wide wildcard "data:".
func SourceKey(dataKey string) string {
	return "data:" + dataKey
}

// refsToReads maps an expression's references onto graph source keys. A
// reference without a key subscribes to the whole data scope.
func refsToReads(refs []expr.Ref) []string {
	reads := make([]string, 0, len(refs))
	for _, ref := range refs {
		reads = append(reads, SourceKey(ref.Key))
	}
	return reads
}
