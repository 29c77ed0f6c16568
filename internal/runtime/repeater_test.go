package runtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/formstore"
)

func repeaterForm() *formstore.Envelope {
	return envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		{
			Key:  "items",
			Type: "repeater",
			Children: []*formstore.Component{
				{Key: "itemName", Type: "input", Props: map[string]formstore.Property{
					"dataKey": formstore.Static("name"),
				}},
			},
		},
	}})
}

func itemsData(names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"name": n}
	}
	return out
}

func TestRepeater_GeneratesOneSubtreePerElement(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyPersistedForm(ctx, repeaterForm(),
		map[string]any{"items": itemsData("a", "b", "c")}))
	settle(s)

	state := s.RenderState(ctx)
	items := state.Children[0]
	require.Len(t, items.Children, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, fmt.Sprintf("itemName#%d", i), items.Children[i].Key)
		assert.Equal(t, i, items.Children[i].Index)
		assert.Equal(t, want, items.Children[i].Props["value"])
	}
}

func TestRepeater_ShrinkDisposesTheDroppedSubtree(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyPersistedForm(ctx, repeaterForm(),
		map[string]any{"items": itemsData("a", "b", "c")}))
	settle(s)
	_, ok := s.Component("itemName#2")
	require.True(t, ok)

	require.NoError(t, s.SetValue(ctx, "items", itemsData("a", "b")))
	settle(s)

	state := s.RenderState(ctx)
	require.Len(t, state.Children[0].Children, 2)
	_, ok = s.Component("itemName#2")
	assert.False(t, ok, "the third item subtree is gone from the live index")
	_, ok = s.Component("itemName#0")
	assert.True(t, ok)
}

func TestRepeater_ItemEditWritesBackIntoTheArray(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyPersistedForm(ctx, repeaterForm(),
		map[string]any{"items": itemsData("a", "b")}))
	settle(s)

	require.NoError(t, s.SetValue(ctx, "itemName#1", "edited"))
	settle(s)

	data := s.Data(ctx)
	items, ok := data["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	second, ok := items[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "edited", second["name"])
	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", first["name"], "other items are untouched")
}

func TestTemplate_EmbedsAnotherFormThroughTheLoader(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := envelope(&formstore.Component{Key: "profileRoot", Type: "group", Children: []*formstore.Component{
		input("email", nil),
	}})
	loader := func(_ context.Context, name string) (*formstore.Envelope, error) {
		if name != "profile" {
			return nil, fmt.Errorf("unknown form %q", name)
		}
		return profile, nil
	}
	s := newTestStoreWith(t, loader)

	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		{Key: "profile", Type: "template:profile"},
	}})
	require.NoError(t, s.ApplyPersistedForm(ctx, form,
		map[string]any{"profile": map[string]any{"email": "x@y.z"}}))
	settle(s)

	cd, ok := s.Component("profile")
	require.True(t, ok)
	tf, ok := cd.Field.(*templateField)
	require.True(t, ok)
	require.NotNil(t, tf.Inner(), "the embedded form loaded")
	assert.Equal(t, "x@y.z", tf.Inner().Data(ctx)["email"])

	// The outer data scope sees the embedded form as one object.
	value, ok := s.Data(ctx)["profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x@y.z", value["email"])
}

func TestTemplate_LoaderFailureBecomesFieldError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loader := func(_ context.Context, name string) (*formstore.Envelope, error) {
		return nil, fmt.Errorf("not found")
	}
	s := newTestStoreWith(t, loader)

	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		{Key: "profile", Type: "template:missing"},
	}})
	require.NoError(t, s.ApplyPersistedForm(ctx, form, nil))
	settle(s)

	cd, ok := s.Component("profile")
	require.True(t, ok)
	assert.Contains(t, cd.Field.Error(), "failed to load form")
	assert.NoError(t, s.LoadError(), "a broken embed does not fail the outer form")
}
