package runtime

import (
	"context"
	"strings"

	"github.com/vk/formweave/internal/expr"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/localization"
	"github.com/vk/formweave/internal/schema"
)

// ComponentState is the fully merged render snapshot of one live node: the
// props a renderer needs, with every sourcing layer already applied. The
// merge order is fixed: model defaults, static props, computed props,
// localized props, the field value, then user overrides.
type ComponentState struct {
	Key      string            `json:"key"`
	Type     string            `json:"type"`
	Index    int               `json:"index,omitempty"`
	Props    map[string]any    `json:"props,omitempty"`
	CSS      map[string]string `json:"css,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Error    string            `json:"error,omitempty"`
	Touched  bool              `json:"touched,omitempty"`
	Visible  bool              `json:"visible"`
	ReadOnly bool              `json:"readOnly,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
	Children []*ComponentState `json:"children,omitempty"`
	Modal    *ComponentState   `json:"modal,omitempty"`
}

// RenderState renders the whole live tree. External entrypoint; runs
// queue-confined. Nil before a form is applied.
func (s *Store) RenderState(ctx context.Context) *ComponentState {
	var out *ComponentState
	s.queue.Do(func() {
		if s.root != nil {
			out = s.renderNode(ctx, s.root)
		}
	})
	return out
}

// RenderComponent renders one node's state by component key.
func (s *Store) RenderComponent(ctx context.Context, componentKey string) *ComponentState {
	var out *ComponentState
	s.queue.Do(func() {
		if cd, ok := s.byKey[componentKey]; ok {
			out = s.renderNode(ctx, cd)
		}
	})
	return out
}

func (s *Store) renderNode(ctx context.Context, cd *ComponentData) *ComponentState {
	st := &ComponentState{
		Key:     cd.Node.Key,
		Type:    cd.Node.Type,
		Index:   cd.Index,
		Visible: cd.Visible(ctx),
		Props:   map[string]any{},
	}

	for name, v := range cd.Model.DefaultProps {
		st.Props[name] = schema.ToGo(v)
	}
	for name, prop := range cd.Node.Props {
		if prop.ComputeType == formstore.ComputeStatic && prop.Value != nil {
			st.Props[name] = prop.Value
		}
	}
	for name, compiled := range cd.computedProps {
		if name == cd.Model.Valued {
			continue
		}
		if v, err := expr.Evaluate(ctx, compiled, cd.Scopes()); err == nil {
			st.Props[name] = schema.ToGo(v)
		}
	}
	if s.form != nil && s.form.Catalog != nil {
		for _, name := range cd.localizedProps {
			st.Props[name] = s.form.Catalog.Resolve(ctx, s.lang,
				baseKey(cd.Node.Key), localization.EntryComponent, name, nil)
		}
	}
	if cd.Field != nil {
		valueProp := cd.Model.Valued
		if valueProp == "" {
			valueProp = "value"
		}
		st.Props[valueProp] = schema.ToGo(cd.Field.Value())
		st.Error = cd.Field.Error()
		st.Touched = cd.Field.Touched()
	}
	for name, v := range cd.UserProps {
		st.Props[name] = schema.ToGo(v)
	}

	if cd.Model.ReadOnlyProp != "" {
		if flag, ok := st.Props[cd.Model.ReadOnlyProp].(bool); ok {
			st.ReadOnly = flag
		}
	}
	if cd.Model.DisabledProp != "" {
		if flag, ok := st.Props[cd.Model.DisabledProp].(bool); ok {
			st.Disabled = flag
		}
	}

	st.CSS = mergeStrings(cd.Model.CSS, cd.Node.CSS)
	st.Style = mergeStrings(nil, cd.Node.Style)

	for _, child := range cd.Children {
		st.Children = append(st.Children, s.renderNode(ctx, child))
	}
	for _, item := range cd.generated {
		for _, child := range item {
			st.Children = append(st.Children, s.renderNode(ctx, child))
		}
	}
	if cd.Modal != nil {
		st.Modal = s.renderNode(ctx, cd.Modal)
	}
	return st
}

// baseKey strips the repeater item suffix so cloned nodes share their
// template's localization entries.
func baseKey(key string) string {
	if i := strings.IndexByte(key, '#'); i >= 0 {
		return key[:i]
	}
	return key
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
