package expr

import (
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Scope is the accessor interface behind `form.data` and its siblings.
// Reads resolve against live field values; writes route into a bound field
// or the root initial-data store, at the implementation's discretion.
type Scope interface {
	Get(key string) (cty.Value, bool)
	Set(key string, v cty.Value) error
	Has(key string) bool
	Keys() []string
}

// MapScope is a plain mutable Scope over an in-memory map. The runtime uses
// it for repeater item scopes and tests use it directly.
type MapScope struct {
	mu     sync.RWMutex
	values map[string]cty.Value
	onSet  func(key string, v cty.Value)
}

// NewMapScope creates a MapScope seeded with the given values.
func NewMapScope(values map[string]cty.Value) *MapScope {
	if values == nil {
		values = map[string]cty.Value{}
	}
	return &MapScope{values: values}
}

// OnSet installs a hook invoked after every successful Set.
func (s *MapScope) OnSet(fn func(key string, v cty.Value)) {
	s.onSet = fn
}

func (s *MapScope) Get(key string) (cty.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MapScope) Set(key string, v cty.Value) error {
	s.mu.Lock()
	s.values[key] = v
	hook := s.onSet
	s.mu.Unlock()
	if hook != nil {
		hook(key, v)
	}
	return nil
}

func (s *MapScope) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

func (s *MapScope) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ScopeSet bundles the three data views an expression may reference plus
// extra top-level bindings supplied by the call site.
type ScopeSet struct {
	Data   Scope
	Parent Scope
	Root   Scope
	Extra  map[string]cty.Value
}

// snapshot materializes a scope into an object value for evaluation.
func snapshot(s Scope) cty.Value {
	if s == nil {
		return cty.EmptyObjectVal
	}
	keys := s.Keys()
	if len(keys) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(keys))
	for _, k := range keys {
		v, ok := s.Get(k)
		if !ok || v == cty.NilVal {
			v = cty.NullVal(cty.DynamicPseudoType)
		}
		attrs[k] = v
	}
	return cty.ObjectVal(attrs)
}
