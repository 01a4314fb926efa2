package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("test_key", "test_value"))

	val, ok := store.Get("test_key")
	assert.True(t, ok)
	assert.Equal(t, "test_value", val)

	_, ok = store.Get("missing_key")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("str", "hello"))
	require.NoError(t, store.Set("num", 42))
	require.NoError(t, store.Set("frac", 0.3))
	require.NoError(t, store.Set("flag", true))

	assert.Equal(t, "hello", store.GetString("str"))
	assert.Equal(t, 42, store.GetInt("num"))
	assert.Equal(t, 0.3, store.GetFloat("frac"))
	assert.True(t, store.GetBool("flag"))

	// Whole-number floats survive a TOML roundtrip as int64.
	require.NoError(t, store.Set("whole", int64(2)))
	assert.Equal(t, 2.0, store.GetFloat("whole"))

	// Wrong types return zero values.
	assert.Equal(t, "", store.GetString("num"))
	assert.Equal(t, 0, store.GetInt("str"))
	assert.False(t, store.GetBool("str"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("retrieval.top_k", 8))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 8, reopened.GetInt("retrieval.top_k"))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	content := `
[openai]
model = "text-embedding-3-small"

[retrieval]
top_k = 8
min_score = 0.3
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", store.GetString("openai.model"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.Equal(t, 0.3, store.GetFloat("retrieval.min_score"))
}

func TestConfigStore_EnvOverride(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("openai.api_key", "file-key"))
	require.NoError(t, store.Set("retrieval.top_k", 8))

	t.Setenv("COURSETTA_OPENAI_API_KEY", "env-key")
	t.Setenv("COURSETTA_RETRIEVAL_TOP_K", "12")
	t.Setenv("COURSETTA_SERVER_VERBOSE", "true")
	t.Setenv("COURSETTA_RETRIEVAL_MIN_SCORE", "0.5")

	assert.Equal(t, "env-key", store.GetString("openai.api_key"))
	assert.Equal(t, 12, store.GetInt("retrieval.top_k"))
	assert.True(t, store.GetBool("server.verbose"))
	assert.Equal(t, 0.5, store.GetFloat("retrieval.min_score"))
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}
