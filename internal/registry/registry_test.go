package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/definer"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := New()
	r.Register(definer.Define("input", definer.KindComponent).Build(context.Background()))

	model, ok := r.Model("input")
	require.True(t, ok)
	assert.Equal(t, "input", model.Type)

	_, ok = r.Model("missing")
	assert.False(t, ok)
}

func TestRegistry_DuplicateTypePanics(t *testing.T) {
	t.Parallel()

	r := New()
	r.Register(definer.Define("input", definer.KindComponent).Build(context.Background()))

	assert.Panics(t, func() {
		r.Register(definer.Define("input", definer.KindComponent).Build(context.Background()))
	})
}

func TestRegistry_FirstTypeWithRole(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New()
	r.Register(definer.Define("plain", definer.KindComponent).Build(ctx))
	r.Register(definer.Define("dialogA", definer.KindContainer).WithRole("modal").Build(ctx))
	r.Register(definer.Define("dialogB", definer.KindContainer).WithRole("modal").Build(ctx))

	assert.Equal(t, "dialogA", r.FirstTypeWithRole("modal"))
	assert.Equal(t, "", r.FirstTypeWithRole("tooltip"))
}

func TestRegistry_SingleValuedFeatureTrimmed(t *testing.T) {
	t.Parallel()

	r := New()
	r.DeclareFeature(Feature{Name: "theme"})
	def := definer.Define("card", definer.KindComponent).
		WithFeature("theme", "light", "dark").
		Build(context.Background())

	r.Register(def)

	model, _ := r.Model("card")
	assert.Equal(t, []string{"light"}, model.Features["theme"])
}
