// Package registry holds the component view registry for a single engine
// instance: the mapping from component type keys to their Model and Meta
// contracts, plus the feature declarations. A Registry is always an explicit
// instance handed to the runtime, never a package-level singleton, so
// several independent engines can coexist in one process.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/formweave/internal/definer"
)

// Library is implemented by component libraries that register themselves
// into a Registry.
type Library interface {
	Register(r *Registry)
}

// Feature declares one feature flag components may carry and whether a
// component may hold multiple values for it.
type Feature struct {
	Name     string
	Multiple bool
}

// Registry maps component type keys to their registration artifacts.
type Registry struct {
	models     map[string]*definer.Model
	metas      map[string]*definer.Meta
	categories map[string]string
	order      []string
	features   map[string]Feature
}

// New creates an empty registry with the engine's built-in features declared.
func New() *Registry {
	r := &Registry{
		models:     map[string]*definer.Model{},
		metas:      map[string]*definer.Meta{},
		categories: map[string]string{},
		features:   map[string]Feature{},
	}
	r.DeclareFeature(Feature{Name: definer.FeatureRole, Multiple: true})
	r.DeclareFeature(Feature{Name: definer.FeatureHideFromPalette})
	r.DeclareFeature(Feature{Name: definer.FeatureDisableRemove})
	r.DeclareFeature(Feature{Name: definer.FeatureWithoutStyles})
	return r
}

// DeclareFeature registers a feature flag. Re-declaring an existing feature
// is a programmer error.
func (r *Registry) DeclareFeature(f Feature) {
	if _, exists := r.features[f.Name]; exists {
		panic(fmt.Sprintf("feature %q already declared", f.Name))
	}
	r.features[f.Name] = f
}

// Feature looks up a declared feature.
func (r *Registry) Feature(name string) (Feature, bool) {
	f, ok := r.features[name]
	return f, ok
}

// Register adds a built definition to the registry. Registering the same
// type key twice is a programmer error. Feature values exceeding a
// single-valued feature's arity are trimmed with a warning.
func (r *Registry) Register(def definer.Definition) {
	model := def.Model
	if _, exists := r.models[model.Type]; exists {
		panic(fmt.Sprintf("component type %q already registered", model.Type))
	}
	for name, values := range model.Features {
		f, declared := r.features[name]
		if !declared {
			slog.Debug("Component uses undeclared feature.", "component", model.Type, "feature", name)
			continue
		}
		if !f.Multiple && len(values) > 1 {
			slog.Warn("Feature allows a single value; keeping the first.",
				"component", model.Type, "feature", name, "kept", values[0])
			model.Features[name] = values[:1]
		}
	}
	r.models[model.Type] = model
	r.metas[model.Type] = def.Meta
	r.categories[model.Type] = def.Category
	r.order = append(r.order, model.Type)
}

// Model resolves a component type to its runtime model.
func (r *Registry) Model(componentType string) (*definer.Model, bool) {
	m, ok := r.models[componentType]
	return m, ok
}

// Meta resolves a component type to its design-time metadata.
func (r *Registry) Meta(componentType string) (*definer.Meta, bool) {
	m, ok := r.metas[componentType]
	return m, ok
}

// Types returns all registered type keys in registration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}

// FirstTypeWithRole scans registered models in registration order and
// returns the first one declaring the given feature role. This lets form
// authors swap in custom modal/tooltip/error renderers without hardcoding a
// type name. An empty string means no registered component fills the role.
func (r *Registry) FirstTypeWithRole(role string) string {
	for _, typ := range r.order {
		if r.models[typ].HasRole(role) {
			return typ
		}
	}
	return ""
}
