package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// extPriority ranks formats when two assets share a stem. Lower wins.
var extPriority = map[string]int{
	".png":  0,
	".webp": 1,
	".jpg":  2,
	".jpeg": 2,
	".gif":  3,
	".bmp":  4,
	".tga":  5,
}

// Index maps lowercase asset stems to filesystem paths.
type Index struct {
	dir     string
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for image assets.
// A missing dir yields an empty index.
func BuildIndex(dir string) *Index {
	idx := &Index{dir: dir, entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		prio, ok := extPriority[ext]
		if !ok {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists || prio < extPriority[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for an image reference, or ("", false).
// A reference is a path (absolute, or relative to the asset dir) or a bare stem.
func (idx *Index) ResolvePath(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	ref = strings.ReplaceAll(ref, "\\", "/")

	candidates := []string{ref}
	if !filepath.IsAbs(ref) && idx.dir != "" {
		candidates = append(candidates, filepath.Join(idx.dir, ref))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}

	base := filepath.Base(ref)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed assets.
func (idx *Index) Len() int {
	return len(idx.entries)
}
