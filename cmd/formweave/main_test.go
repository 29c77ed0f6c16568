package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/testutil"
)

// writeForm persists an envelope with one required input to a temp file.
func writeForm(t *testing.T) string {
	t.Helper()
	name := testutil.Input("name", nil)
	name.Schema = &formstore.ValidationSchema{Rules: []formstore.RuleSettings{{Key: "required"}}}
	env := testutil.Envelope(testutil.Group("root", name))
	raw, err := env.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "form.json")
	require.NoError(t, os.WriteFile(path, raw, 0600))
	return path
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ValidateFailsOnEmptyRequiredField(t *testing.T) {
	t.Parallel()

	path := writeForm(t)
	out := &bytes.Buffer{}

	err := run(out, []string{"-log-level", "error", "validate", path})

	require.Error(t, err)
	require.Contains(t, err.Error(), "form is invalid")
	require.Contains(t, out.String(), "name:", "the failing component is listed")
}

func TestRun_ValidatePassesWithDataDocument(t *testing.T) {
	t.Parallel()

	formPath := writeForm(t)
	dataPath := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"name":"Jane"}`), 0600))
	out := &bytes.Buffer{}

	err := run(out, []string{"-log-level", "error", "validate", formPath, dataPath})

	require.NoError(t, err)
	require.Contains(t, out.String(), "valid")
}

func TestRun_InspectPrintsTheTree(t *testing.T) {
	t.Parallel()

	path := writeForm(t)
	out := &bytes.Buffer{}

	err := run(out, []string{"-log-level", "error", "inspect", path})

	require.NoError(t, err)
	require.Contains(t, out.String(), "root (group)")
	require.Contains(t, out.String(), "  name (input)")
}

func TestRun_UnknownCommandIsAnExitError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"frobnicate"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")
}
