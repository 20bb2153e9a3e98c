package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(write(t, "studio.json", `{"texture_size": 1024, "viewer_url": "ws://localhost:9000/ws"}`))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.TextureSize)
	assert.Equal(t, "ws://localhost:9000/ws", cfg.ViewerURL)
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(write(t, "studio.yaml", "export_format: webp\ndebounce_ms: 250\nasset_dir: /srv/assets\n"))
	require.NoError(t, err)
	assert.Equal(t, "webp", cfg.ExportFormat)
	assert.Equal(t, 250, cfg.DebounceMS)
	assert.Equal(t, "/srv/assets", cfg.AssetDir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(write(t, "bad.yml", "texture_size: [1, 2"))
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolveDefaults(t *testing.T) {
	cfg := Config{AssetDir: "/srv/assets"}
	cfg.Resolve(Flags{})

	assert.Equal(t, filepath.Join("/srv", "exports"), cfg.OutputDir)
	assert.Equal(t, 2048, cfg.TextureSize)
	assert.Equal(t, 1, cfg.Supersample)
	assert.Equal(t, "png", cfg.ExportFormat)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 8, cfg.FontSizeUnit)
	assert.Equal(t, 5, cfg.ViewerAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.ViewerBackoff())
	assert.Equal(t, 1024, cfg.ViewerTextureSize)
	assert.Equal(t, 360, cfg.EditorWidth)
	assert.Equal(t, 720, cfg.EditorHeight)
	assert.Empty(t, cfg.ViewerURL)
}

func TestResolveFlagsOverride(t *testing.T) {
	cfg := Config{TextureSize: 1024, ExportFormat: "png", OutputDir: "out"}
	cfg.Resolve(Flags{TextureSize: 512, ExportFormat: "webp", ViewerURL: "ws://v/ws", Supersample: 2})

	assert.Equal(t, 512, cfg.TextureSize)
	assert.Equal(t, "webp", cfg.ExportFormat)
	assert.Equal(t, "ws://v/ws", cfg.ViewerURL)
	assert.Equal(t, 2, cfg.Supersample)
	assert.Equal(t, "out", cfg.OutputDir)
}
