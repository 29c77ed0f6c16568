package runtime

import (
	"context"

	"github.com/vk/formweave/internal/definer"
	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/field"
	"github.com/vk/formweave/internal/formstore"
	"github.com/zclconf/go-cty/cty"
)

// ComponentData is the live mirror of one persisted component node. The
// parent owns its children: disposing a node disposes its whole subtree,
// including a modal and any repeater-generated item instances. All access
// is queue-confined.
type ComponentData struct {
	Node  *formstore.Component
	Model *definer.Model

	// Field is nil for nodes without a value binding.
	Field field.Field

	Parent   *ComponentData
	Children []*ComponentData
	Modal    *ComponentData

	// Index is the repeater item position, -1 outside repeaters.
	Index int

	// UserProps are runtime prop overrides set by the host, merged last
	// into the render state.
	UserProps map[string]cty.Value

	// computedProps maps prop names to their compiled expressions;
	// localizedProps lists the props sourced from the catalog.
	computedProps  map[string]*expr.Compiled
	localizedProps []string
	slotCondition  *expr.Compiled

	// generated holds the live repeater item subtrees, one slice entry per
	// array element, each entry mirroring the node's template children.
	generated [][]*ComponentData

	scopes func() expr.ScopeSet
	store  *Store
}

// Scopes returns the data views this node's expressions evaluate against.
// Repeater items see their element scope, everything else the form root.
func (cd *ComponentData) Scopes() expr.ScopeSet {
	if cd.scopes != nil {
		return cd.scopes()
	}
	return expr.ScopeSet{}
}

// SetUserProp installs a runtime prop override.
func (cd *ComponentData) SetUserProp(key string, v cty.Value) {
	if cd.UserProps == nil {
		cd.UserProps = map[string]cty.Value{}
	}
	cd.UserProps[key] = v
}

// Visible evaluates the node's slot condition. A node without one, or one
// whose condition fails to evaluate, is visible: rendering fails open.
func (cd *ComponentData) Visible(ctx context.Context) bool {
	if cd.slotCondition == nil {
		return true
	}
	visible, err := expr.EvaluateBool(ctx, cd.slotCondition, cd.Scopes())
	if err != nil {
		return true
	}
	return visible
}

// Walk visits the node and every live descendant depth-first: children,
// generated repeater items, then the modal subtree.
func (cd *ComponentData) Walk(fn func(*ComponentData)) {
	fn(cd)
	for _, child := range cd.Children {
		child.Walk(fn)
	}
	for _, item := range cd.generated {
		for _, child := range item {
			child.Walk(fn)
		}
	}
	if cd.Modal != nil {
		cd.Modal.Walk(fn)
	}
}

// Dispose tears the subtree down depth-first, releasing every field's
// reactions before the node's own.
func (cd *ComponentData) Dispose(ctx context.Context) {
	for _, child := range cd.Children {
		child.Dispose(ctx)
	}
	cd.Children = nil
	cd.disposeGenerated(ctx)
	if cd.Modal != nil {
		cd.Modal.Dispose(ctx)
		cd.Modal = nil
	}
	if cd.Field != nil {
		cd.Field.Dispose(ctx)
	}
	if cd.store != nil {
		cd.store.forget(cd)
	}
}

func (cd *ComponentData) disposeGenerated(ctx context.Context) {
	for _, item := range cd.generated {
		for _, child := range item {
			child.Dispose(ctx)
		}
	}
	cd.generated = nil
}
