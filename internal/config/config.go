package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds asset paths, texture settings and the viewer endpoint.
type Config struct {
	// Paths
	AssetDir  string `json:"asset_dir" yaml:"asset_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Texture settings
	TextureSize  int    `json:"texture_size" yaml:"texture_size"`
	Supersample  int    `json:"supersample" yaml:"supersample"`
	ExportFormat string `json:"export_format" yaml:"export_format"`
	DebounceMS   int    `json:"debounce_ms" yaml:"debounce_ms"`
	FontSizeUnit int    `json:"font_size_unit" yaml:"font_size_unit"`

	// Viewer
	ViewerURL         string `json:"viewer_url" yaml:"viewer_url"`
	ViewerAttempts    int    `json:"viewer_attempts" yaml:"viewer_attempts"`
	ViewerBackoffMS   int    `json:"viewer_backoff_ms" yaml:"viewer_backoff_ms"`
	ViewerTextureSize int    `json:"viewer_texture_size" yaml:"viewer_texture_size"`

	// Editor window
	EditorWidth  int `json:"editor_width" yaml:"editor_width"`
	EditorHeight int `json:"editor_height" yaml:"editor_height"`
}

// Load reads a JSON or YAML config file (chosen by extension) and returns
// Config. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	AssetDir     string
	OutputDir    string
	ViewerURL    string
	ExportFormat string
	TextureSize  int
	Supersample  int
}

// Resolve fills in any empty fields with auto-detected defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.AssetDir != "" {
		c.AssetDir = flags.AssetDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.ViewerURL != "" {
		c.ViewerURL = flags.ViewerURL
	}
	if flags.ExportFormat != "" {
		c.ExportFormat = flags.ExportFormat
	}
	if flags.TextureSize > 0 {
		c.TextureSize = flags.TextureSize
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}

	if c.AssetDir == "" {
		c.AssetDir = detectAssetDir()
	}
	if c.OutputDir == "" {
		if c.AssetDir != "" {
			c.OutputDir = filepath.Join(filepath.Dir(c.AssetDir), "exports")
		} else {
			c.OutputDir = "exports"
		}
	}

	if c.TextureSize <= 0 {
		c.TextureSize = 2048
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.ExportFormat == "" {
		c.ExportFormat = "png"
	}
	if c.DebounceMS <= 0 {
		c.DebounceMS = 500
	}
	if c.FontSizeUnit <= 0 {
		c.FontSizeUnit = 8
	}
	if c.ViewerAttempts <= 0 {
		c.ViewerAttempts = 5
	}
	if c.ViewerBackoffMS <= 0 {
		c.ViewerBackoffMS = 250
	}
	if c.ViewerTextureSize <= 0 {
		c.ViewerTextureSize = 1024
	}
	if c.EditorWidth <= 0 {
		c.EditorWidth = 360
	}
	if c.EditorHeight <= 0 {
		c.EditorHeight = 720
	}
}

// Debounce returns the compositing quiet period.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// ViewerBackoff returns the first retry delay for the viewer connection.
func (c Config) ViewerBackoff() time.Duration {
	return time.Duration(c.ViewerBackoffMS) * time.Millisecond
}

func detectAssetDir() string {
	// Try relative to executable
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir)} {
			if isDir(filepath.Join(base, "assets")) {
				return filepath.Join(base, "assets")
			}
		}
	}

	// Try current working directory
	cwd, _ := os.Getwd()
	if isDir(filepath.Join(cwd, "assets")) {
		return filepath.Join(cwd, "assets")
	}
	return ""
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
