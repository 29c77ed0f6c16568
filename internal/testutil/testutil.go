// Package testutil carries small shared helpers for the engine's tests:
// a pre-populated component registry and envelope builders. Production code
// must not import it.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/vk/formweave/internal/componentlib"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/registry"
)

// Registry returns a fresh registry with the reference component library
// registered.
func Registry() *registry.Registry {
	reg := registry.New()
	componentlib.New().Register(reg)
	return reg
}

// Envelope wraps a component tree in a current-version envelope.
func Envelope(root *formstore.Component) *formstore.Envelope {
	return &formstore.Envelope{Version: formstore.EnvelopeVersion, Form: root}
}

// Input builds an input component node.
func Input(key string, props map[string]formstore.Property) *formstore.Component {
	return &formstore.Component{Key: key, Type: "input", Props: props}
}

// Group builds a group container node over the given children.
func Group(key string, children ...*formstore.Component) *formstore.Component {
	return &formstore.Component{Key: key, Type: "group", Children: children}
}

// MustJSON marshals v, failing the test on error.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %T: %v", v, err)
	}
	return raw
}
