// Package garment holds the garment customization model: per-side overlay
// elements, their transforms, and the intents that change them.
package garment

import (
	"fmt"
	"image/color"
)

// Side identifies one printable garment surface.
type Side int

const (
	Front Side = iota
	Back
)

// Sides lists both sides in texture order (left half first).
var Sides = [2]Side{Front, Back}

func (s Side) String() string {
	switch s {
	case Front:
		return "front"
	case Back:
		return "back"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Front {
		return Back
	}
	return Front
}

// ElementKind identifies an overlay element on a side.
type ElementKind int

const (
	NoElement ElementKind = iota
	ImageElementKind
	TextElementKind
)

func (k ElementKind) String() string {
	switch k {
	case ImageElementKind:
		return "image"
	case TextElementKind:
		return "text"
	}
	return "none"
}

// TextElement is a free-text overlay. Empty Content means no layer.
type TextElement struct {
	Content      string
	Color        color.NRGBA
	FontFamily   string
	FontSizeUnit float64
	Transform    Transform
}

// Present reports whether the text layer should be drawn.
func (t TextElement) Present() bool {
	return t.Content != ""
}

// ImageElement is an uploaded image overlay. Empty Source means no layer.
// Source is a reference resolved by a texture.Resolver (path or asset stem).
type ImageElement struct {
	Source    string
	Transform Transform
}

// Present reports whether the image layer should be drawn.
func (i ImageElement) Present() bool {
	return i.Source != ""
}

// SideConfig holds the overlays of one side.
type SideConfig struct {
	Text  TextElement
	Image ImageElement
}

// TransformOf returns the transform of the given element.
func (s SideConfig) TransformOf(kind ElementKind) (Transform, bool) {
	switch kind {
	case ImageElementKind:
		return s.Image.Transform, true
	case TextElementKind:
		return s.Text.Transform, true
	}
	return Transform{}, false
}

// Has reports whether the given element is present on the side.
func (s SideConfig) Has(kind ElementKind) bool {
	switch kind {
	case ImageElementKind:
		return s.Image.Present()
	case TextElementKind:
		return s.Text.Present()
	}
	return false
}

// Config is the root state of one editing session.
type Config struct {
	BaseColor color.NRGBA
	Front     SideConfig
	Back      SideConfig
}

// Side returns the configuration of side s.
func (c Config) Side(s Side) SideConfig {
	if s == Back {
		return c.Back
	}
	return c.Front
}

// WithSide returns a copy of c with side s replaced.
func (c Config) WithSide(s Side, sc SideConfig) Config {
	if s == Back {
		c.Back = sc
	} else {
		c.Front = sc
	}
	return c
}

// Default values for a new session.
const (
	DefaultText         = "ZHEIDE"
	DefaultFontFamily   = "Go"
	DefaultFontSizeUnit = 8.0
)

// DefaultTransform centers an element at 50%,50% with no scale or rotation.
func DefaultTransform() Transform {
	return Transform{X: 50, Y: 50, Scale: 1}
}

// Default returns the configuration a session starts with: white base,
// the default text on the front at 50%,30%, nothing on the back.
func Default() Config {
	black := color.NRGBA{A: 0xff}
	return Config{
		BaseColor: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Front: SideConfig{
			Text: TextElement{
				Content:      DefaultText,
				Color:        black,
				FontFamily:   DefaultFontFamily,
				FontSizeUnit: DefaultFontSizeUnit,
				Transform:    Transform{X: 50, Y: 30, Scale: 1},
			},
			Image: ImageElement{Transform: DefaultTransform()},
		},
		Back: SideConfig{
			Text: TextElement{
				Color:        black,
				FontFamily:   DefaultFontFamily,
				FontSizeUnit: DefaultFontSizeUnit,
				Transform:    Transform{X: 50, Y: 30, Scale: 1},
			},
			Image: ImageElement{Transform: DefaultTransform()},
		},
	}
}
