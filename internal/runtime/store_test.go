package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/componentlib"
	"github.com/vk/formweave/internal/definer"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/registry"
)

func newTestStore(t *testing.T) *Store {
	return newTestStoreWith(t, nil)
}

func newTestStoreWith(t *testing.T, loader Loader) *Store {
	t.Helper()
	reg := registry.New()
	componentlib.New().Register(reg)
	s := NewStore(context.Background(), Options{
		Registry: reg,
		Loader:   loader,
		Debounce: 20 * time.Millisecond,
	})
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

// settle waits for queued tasks and a pending reactive flush.
func settle(s *Store) {
	s.Queue().Do(func() {})
	s.Queue().Do(func() {})
}

func input(key string, props map[string]formstore.Property) *formstore.Component {
	return &formstore.Component{Key: key, Type: "input", Props: props}
}

func envelope(root *formstore.Component) *formstore.Envelope {
	return &formstore.Envelope{Version: formstore.EnvelopeVersion, Form: root}
}

func TestApplyPersistedForm_RequiredFieldLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	name := input("name", nil)
	name.Schema = &formstore.ValidationSchema{Rules: []formstore.RuleSettings{{Key: "required"}}}
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{name}})

	require.NoError(t, s.ApplyPersistedForm(ctx, form, nil))
	settle(s)

	// The empty default fails required validation.
	failures := s.Validate(ctx)
	require.Contains(t, failures, "name")
	assert.Equal(t, "Required", failures["name"])

	state := s.RenderState(ctx)
	require.NotNil(t, state)
	assert.Equal(t, "Required", state.Children[0].Error)

	// A value clears the failure.
	require.NoError(t, s.SetValue(ctx, "name", "Jane"))
	failures = s.Validate(ctx)
	assert.Empty(t, failures)

	state = s.RenderState(ctx)
	assert.Equal(t, "Jane", state.Children[0].Props["value"])
	assert.True(t, state.Children[0].Touched)
	assert.Empty(t, state.Children[0].Error)
}

func TestApply_ComputedFieldFollowsItsInputs(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		{Key: "price", Type: "number"},
		{Key: "qty", Type: "number"},
		{Key: "total", Type: "number", Props: map[string]formstore.Property{
			"value": formstore.Computed("form.data.price * form.data.qty"),
		}},
	}})

	require.NoError(t, s.ApplyPersistedForm(ctx, form, map[string]any{"price": 2.0, "qty": 3.0}))
	settle(s)
	assert.Equal(t, 6.0, s.Data(ctx)["total"])

	require.NoError(t, s.SetValue(ctx, "price", 5.0))
	settle(s)
	assert.Equal(t, 15.0, s.Data(ctx)["total"])
}

func TestApplyStringForm_ParseFailureRendersErrorBanner(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	err := s.ApplyStringForm(ctx, []byte("{not json"), nil)

	var loadErr *FormLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, s.LoadError(), loadErr)

	state := s.RenderState(ctx)
	require.NotNil(t, state, "the store still renders after a failed load")
	assert.Equal(t, "error-message", state.Type)
	assert.NotEmpty(t, state.Props["text"])

	// A later successful apply clears the failure.
	require.NoError(t, s.ApplyPersistedForm(ctx, envelope(input("name", nil)), nil))
	assert.NoError(t, s.LoadError())
}

func TestApply_DuplicateKeysAreUnified(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		input("name", nil),
		input("name", nil),
	}})

	require.NoError(t, s.ApplyPersistedForm(ctx, form, nil))

	assert.Equal(t, 1, s.Form().RenamedKeys)
	state := s.RenderState(ctx)
	require.Len(t, state.Children, 2)
	assert.NotEqual(t, state.Children[0].Key, state.Children[1].Key)
}

func TestSetValue_SyncsSiblingsBoundToTheSameDataKey(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	shared := map[string]formstore.Property{"dataKey": formstore.Static("email")}
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		input("emailA", shared),
		input("emailB", shared),
	}})

	require.NoError(t, s.ApplyPersistedForm(ctx, form, nil))
	require.NoError(t, s.SetValue(ctx, "emailA", "a@b.c"))
	settle(s)

	b, ok := s.Component("emailB")
	require.True(t, ok)
	assert.Equal(t, "a@b.c", b.Field.Value().AsString())
	assert.False(t, b.Field.Touched(), "adopted values do not mark the sibling touched")
	assert.Equal(t, "a@b.c", s.Data(ctx)["email"])
}

func TestFireEvent_RunsBoundActions(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	name := input("name", nil)
	name.Events = map[string][]formstore.ActionData{
		"change": {{Key: "a1", Name: "greet"}},
	}
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{name}})
	form.Actions = map[string]formstore.ActionDefinition{
		"greet": {Body: `set("greeting", "hello " + form.data.name)`},
	}

	require.NoError(t, s.ApplyPersistedForm(ctx, form, nil))
	require.NoError(t, s.SetValue(ctx, "name", "Bob"))
	s.FireEvent(ctx, "name", "change", nil)
	settle(s)

	assert.Equal(t, "hello Bob", s.Data(ctx)["greeting"])
}

func TestValidate_SkipsHiddenFieldsAndMergesFormValidator(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	hidden := input("secret", nil)
	hidden.Schema = &formstore.ValidationSchema{Rules: []formstore.RuleSettings{{Key: "required"}}}
	hidden.SlotCondition = "form.data.show"
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		hidden,
		{Key: "age", Type: "number"},
	}})
	form.FormValidator = "form.data.age >= 18"

	require.NoError(t, s.ApplyPersistedForm(ctx, form, map[string]any{"show": false, "age": 10.0}))
	settle(s)

	failures := s.Validate(ctx)
	assert.NotContains(t, failures, "secret", "hidden fields are not validated")
	assert.Equal(t, "Form is invalid", failures[FormErrorKey])

	require.NoError(t, s.SetValue(ctx, "age", 30.0))
	failures = s.Validate(ctx)
	assert.Empty(t, failures)
}

func TestRenderState_LocalizedPropsFollowTheLanguage(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	form := envelope(&formstore.Component{Key: "root", Type: "group", Children: []*formstore.Component{
		{Key: "greeting", Type: "label", Props: map[string]formstore.Property{
			"text": formstore.Localized(),
		}},
	}})
	form.DefaultLanguage = "en"
	form.Languages = []formstore.Language{{Code: "en"}, {Code: "de"}}
	form.Localization = formstore.LocalizationTable{
		"en": {"greeting": {"component": {"text": "Hello"}}},
		"de": {"greeting": {"component": {"text": "Hallo"}}},
	}

	require.NoError(t, s.ApplyPersistedForm(ctx, form, nil))
	assert.Equal(t, "Hello", s.RenderState(ctx).Children[0].Props["text"])

	s.SetLanguage("de")
	assert.Equal(t, "Hallo", s.RenderState(ctx).Children[0].Props["text"])

	s.SetLanguage("fr")
	assert.Equal(t, "Hello", s.RenderState(ctx).Children[0].Props["text"],
		"unconfigured languages fall back to the default")
}

func TestResolveModel_NeverFails(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	known := s.ResolveModel("input")
	assert.Equal(t, "value", known.Valued)

	dynamic := s.ResolveModel("template:profile")
	assert.Equal(t, definer.KindTemplate, dynamic.Kind)

	unknown := s.ResolveModel("no-such-type")
	require.NotNil(t, unknown)
	assert.Equal(t, "no-such-type", unknown.Type)
	assert.Empty(t, unknown.Valued)
}

func TestSubscribe_FiresOnDataChanges(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ApplyPersistedForm(ctx, envelope(input("name", nil)), nil))

	fired := 0
	unsub := s.Subscribe(func() { fired++ })
	require.NoError(t, s.SetValue(ctx, "name", "x"))
	settle(s)
	assert.Positive(t, fired)

	unsub()
	before := fired
	require.NoError(t, s.SetValue(ctx, "name", "y"))
	settle(s)
	assert.Equal(t, before, fired)
}
