package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"processmate/processmate/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	set, err := Load("")
	require.NoError(t, err)

	strict := set.ForMode(types.ModeStrict)
	assert.Contains(t, strict, "JSON")
	assert.Contains(t, strict, `"confidence"`)
	assert.NotEmpty(t, set.ForMode(types.ModeLenient))
	assert.NotEqual(t, strict, set.ForMode(types.ModeLenient))
}

func TestLoadOverridesPartially(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lenient: Talk like a pirate.\n"), 0o600))

	embedded, err := Load("")
	require.NoError(t, err)
	set, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Talk like a pirate.", set.Lenient)
	assert.Equal(t, embedded.Strict, set.Strict)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
