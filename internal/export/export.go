// Package export writes finished textures to disk with a JSON sidecar that
// records who produced them and which layers were missing.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"garment-studio/internal/postprocess"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ErrUnknownFormat is returned for formats other than PNG and WebP.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat accepts "png" or "webp" in any case. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", PNG:
		return PNG, nil
	case WebP:
		return WebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Encode writes img to w. WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		if rgba, ok := img.(*image.RGBA); ok {
			img = postprocess.Unpremultiply(rgba)
		}
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// Record is the sidecar written next to every export.
type Record struct {
	File     string    `json:"file"`
	Format   Format    `json:"format"`
	Size     int       `json:"size"`
	Created  time.Time `json:"created"`
	User     string    `json:"user,omitempty"`
	Email    string    `json:"email,omitempty"`
	Revision uint64    `json:"revision"`
	Warnings []string  `json:"warnings"`
}

// Write encodes img into dir/name+ext and the record into dir/name.json,
// creating dir as needed. It returns the image path.
func Write(dir, name string, img image.Image, f Format, rec Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+f.Ext())

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("export: encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}

	rec.File = filepath.Base(path)
	rec.Format = f
	rec.Size = img.Bounds().Dx()
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	if rec.Warnings == nil {
		rec.Warnings = []string{}
	}
	if err := WriteRecord(filepath.Join(dir, name+".json"), rec); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRecord writes rec as indented JSON.
func WriteRecord(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal record: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// ReadRecord loads a sidecar written by Write.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("export: read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("export: parse %s: %w", path, err)
	}
	return rec, nil
}

// Name builds a file stem from the revision and creation time.
func Name(rev uint64, t time.Time) string {
	return fmt.Sprintf("texture-%s-r%d", t.UTC().Format("20060102-150405"), rev)
}
