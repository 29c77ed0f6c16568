// Package formstore defines the persisted, JSON-serializable form tree and
// the versioned envelope it travels in. Nothing in here is reactive: the
// live runtime mirror of this tree lives in the runtime package.
package formstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/formweave/internal/ctxlog"
)

// EnvelopeVersion is the wire format version this build reads and writes.
const EnvelopeVersion = "1"

// ComputeType marks how a property value is sourced.
type ComputeType string

const (
	// ComputeStatic is the zero value: the property carries a literal value.
	ComputeStatic ComputeType = ""
	// ComputeFunction sources the value from a compiled expression.
	ComputeFunction ComputeType = "function"
	// ComputeLocalization sources the value from the localization table.
	ComputeLocalization ComputeType = "localization"
)

// Property is one serialized component property. Exactly one sourcing is
// meaningful at a time: a static Value, a FnSource with ComputeFunction, or
// ComputeLocalization with no payload at all.
type Property struct {
	Value       any         `json:"value,omitempty"`
	FnSource    string      `json:"fnSource,omitempty"`
	ComputeType ComputeType `json:"computeType,omitempty"`
}

// Static wraps a literal value into a Property.
func Static(v any) Property { return Property{Value: v} }

// Computed wraps an expression source into a Property.
func Computed(source string) Property {
	return Property{FnSource: source, ComputeType: ComputeFunction}
}

// Localized marks a property as sourced from the localization table.
func Localized() Property { return Property{ComputeType: ComputeLocalization} }

// ActionData is one entry of a component event's action list.
type ActionData struct {
	Key  string         `json:"key"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// RuleSettings configures one validation rule on a component.
type RuleSettings struct {
	Key          string         `json:"key"`
	Args         map[string]any `json:"args,omitempty"`
	ValidateWhen string         `json:"validateWhen,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Custom       bool           `json:"custom,omitempty"`
}

// ValidationSchema is the per-component validation configuration.
type ValidationSchema struct {
	Rules         []RuleSettings `json:"rules,omitempty"`
	ShowAllErrors bool           `json:"showAllErrors,omitempty"`
}

// Component is one persisted node of a form tree. Key is the node's identity
// for the design surface and the localization table and must be unique
// across the active tree; UnifyTree is the runtime safety net for saved
// forms that violate that.
type Component struct {
	Key           string                  `json:"key"`
	Type          string                  `json:"type"`
	Props         map[string]Property     `json:"props,omitempty"`
	Schema        *ValidationSchema       `json:"schema,omitempty"`
	Events        map[string][]ActionData `json:"events,omitempty"`
	CSS           map[string]string       `json:"css,omitempty"`
	Style         map[string]string       `json:"style,omitempty"`
	Children      []*Component            `json:"children,omitempty"`
	Slot          string                  `json:"slot,omitempty"`
	SlotCondition string                  `json:"slotCondition,omitempty"`
	Modal         *Component              `json:"modal,omitempty"`
}

// Language is one configured form language.
type Language struct {
	Code    string `json:"code"`
	Dialect string `json:"dialect,omitempty"`
}

// Tag renders the language as a BCP 47-ish tag for matching.
func (l Language) Tag() string {
	if l.Dialect != "" {
		return l.Code + "-" + l.Dialect
	}
	return l.Code
}

// ActionDefinition is a named, reusable action body.
type ActionDefinition struct {
	Body   string   `json:"body"`
	Params []string `json:"params,omitempty"`
}

// LocalizationTable maps language -> component key -> entry type -> property
// name -> message.
type LocalizationTable map[string]map[string]map[string]map[string]string

// Envelope is the persisted form wire format.
type Envelope struct {
	Version         string                      `json:"version"`
	Form            *Component                  `json:"form"`
	Localization    LocalizationTable           `json:"localization,omitempty"`
	Languages       []Language                  `json:"languages,omitempty"`
	DefaultLanguage string                      `json:"defaultLanguage,omitempty"`
	Actions         map[string]ActionDefinition `json:"actions,omitempty"`
	ErrorProps      map[string]any              `json:"errorProps,omitempty"`
	ModalType       string                      `json:"modalType,omitempty"`
	TooltipType     string                      `json:"tooltipType,omitempty"`
	ErrorType       string                      `json:"errorType,omitempty"`
	FormValidator   string                      `json:"formValidator,omitempty"`
}

// ParseEnvelope decodes a persisted form envelope. An unsupported version is
// tolerated with a warning so that forms saved by newer builds still open.
func ParseEnvelope(ctx context.Context, data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse form envelope: %w", err)
	}
	if env.Form == nil {
		return nil, fmt.Errorf("form envelope has no form tree")
	}
	if env.Version != EnvelopeVersion {
		ctxlog.FromContext(ctx).Warn("Unsupported form envelope version, proceeding anyway.",
			"version", env.Version, "supported", EnvelopeVersion)
	}
	env.Form.AssignActionKeys()
	return &env, nil
}

// Encode renders the envelope back to its wire form.
func (e *Envelope) Encode() ([]byte, error) {
	if e.Version == "" {
		e.Version = EnvelopeVersion
	}
	return json.Marshal(e)
}

// CreateFromObject reconstructs a component tree from an already-parsed JSON
// object, assigning keys to event actions that lack one.
func CreateFromObject(raw map[string]any) (*Component, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode component object: %w", err)
	}
	var c Component
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode component object: %w", err)
	}
	c.AssignActionKeys()
	return &c, nil
}

// AssignActionKeys walks the tree and gives every event action without a key
// a fresh one. Action keys identify actions inside editors and must survive
// round-trips once assigned.
func (c *Component) AssignActionKeys() {
	c.Walk(func(node *Component) bool {
		for _, actions := range node.Events {
			for i := range actions {
				if actions[i].Key == "" {
					actions[i].Key = uuid.NewString()
				}
			}
		}
		return true
	})
}

// Walk visits the node, its children, and its modal subtree depth-first.
// Returning false from fn stops the descent below that node.
func (c *Component) Walk(fn func(*Component) bool) {
	if c == nil {
		return
	}
	if !fn(c) {
		return
	}
	for _, child := range c.Children {
		child.Walk(fn)
	}
	if c.Modal != nil {
		c.Modal.Walk(fn)
	}
}

// Find returns the first node in the tree with the given key.
func (c *Component) Find(key string) *Component {
	var found *Component
	c.Walk(func(node *Component) bool {
		if found != nil {
			return false
		}
		if node.Key == key {
			found = node
			return false
		}
		return true
	})
	return found
}

// Clone returns a deep copy of the subtree via its JSON representation.
func (c *Component) Clone() *Component {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	var out Component
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}

// UnifyTree renames duplicate keys so that all keys across the tree are
// pairwise distinct. The first occurrence keeps its key; later duplicates
// get a uuid-derived suffix. It returns the number of renames performed.
func UnifyTree(ctx context.Context, root *Component) int {
	seen := make(map[string]struct{})
	renamed := 0
	root.Walk(func(node *Component) bool {
		key := node.Key
		if key == "" {
			key = "component"
		}
		if _, dup := seen[key]; dup {
			fresh := key + "_" + uuid.NewString()[:8]
			for {
				if _, taken := seen[fresh]; !taken {
					break
				}
				fresh = key + "_" + uuid.NewString()[:8]
			}
			ctxlog.FromContext(ctx).Warn("Renamed duplicate component key.",
				"key", node.Key, "renamed", fresh)
			node.Key = fresh
			key = fresh
			renamed++
		} else if key != node.Key {
			node.Key = key
		}
		seen[key] = struct{}{}
		return true
	})
	return renamed
}
