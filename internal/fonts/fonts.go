// Package fonts holds the allow-listed font families used for text layers.
// Every family is a bold face; text layers are always drawn bold.
package fonts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"
)

// ErrUnknownFamily is returned for a family outside the allow-list.
var ErrUnknownFamily = errors.New("fonts: unknown family")

// Families is the allow-list, in the order the editor cycles through it.
var Families = []string{"Go", "Go Mono", "Latin Modern Sans", "Latin Modern Roman"}

var sources = map[string][]byte{
	"Go":                 gobold.TTF,
	"Go Mono":            gomonobold.TTF,
	"Latin Modern Sans":  lmsans10bold.TTF,
	"Latin Modern Roman": lmroman10bold.TTF,
}

type parsed struct {
	once sync.Once
	fnt  *opentype.Font
	err  error
}

var (
	mu    sync.Mutex
	cache = map[string]*parsed{}
)

func load(family string) (*opentype.Font, error) {
	data, ok := sources[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}

	mu.Lock()
	p, ok := cache[family]
	if !ok {
		p = &parsed{}
		cache[family] = p
	}
	mu.Unlock()

	p.once.Do(func() {
		p.fnt, p.err = opentype.Parse(data)
		if p.err != nil {
			p.err = fmt.Errorf("fonts: parse %s: %w", family, p.err)
		}
	})
	return p.fnt, p.err
}

// Known reports whether family is on the allow-list.
func Known(family string) bool {
	_, ok := sources[family]
	return ok
}

// Next returns the family after family in Families, wrapping around.
func Next(family string) string {
	for i, f := range Families {
		if f == family {
			return Families[(i+1)%len(Families)]
		}
	}
	return Families[0]
}

// Face returns a new face of family at size pixels. Faces are not safe for
// concurrent use; callers create one per drawing pass and close it.
func Face(family string, size float64) (font.Face, error) {
	fnt, err := load(family)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("fonts: face %s@%.2f: %w", family, size, err)
	}
	return face, nil
}
