package formrepo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/formstore"
)

func openRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "forms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleEnvelope(rootKey string) *formstore.Envelope {
	return &formstore.Envelope{
		Version: formstore.EnvelopeVersion,
		Form:    &formstore.Component{Key: rootKey, Type: "group"},
	}
}

func TestRepo_SaveGetRoundTrip(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "profile", sampleEnvelope("profileRoot")))

	got, err := repo.Get(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, "profileRoot", got.Form.Key)

	// Saving again overwrites.
	require.NoError(t, repo.Save(ctx, "profile", sampleEnvelope("v2")))
	got, err = repo.Get(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Form.Key)
}

func TestRepo_GetMissingReturnsErrNotFound(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepo_ListAndDelete(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "b", sampleEnvelope("b")))
	require.NoError(t, repo.Save(ctx, "a", sampleEnvelope("a")))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), ErrNotFound)

	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestRepo_LoaderAdaptsGet(t *testing.T) {
	t.Parallel()

	repo := openRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, "profile", sampleEnvelope("profileRoot")))

	env, err := repo.Loader()(ctx, "profile")
	require.NoError(t, err)
	assert.Equal(t, "profileRoot", env.Form.Key)
}
