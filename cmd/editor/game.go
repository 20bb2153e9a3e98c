package main

import (
	"context"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"sync/atomic"

	"garment-studio/internal/config"
	"garment-studio/internal/editor"
	"garment-studio/internal/garment"
	"garment-studio/internal/session"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gonum.org/v1/gonum/spatial/r2"
)

var backdrop = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}

// game adapts the editor to ebiten's Update/Draw/Layout loop.
type game struct {
	ed   *editor.Editor
	sess *session.Session
	ctx  context.Context
	cfg  config.Config
	log  *slog.Logger

	window     [2]int
	connecting atomic.Bool

	touch    ebiten.TouchID
	touching bool
	mouse    bool
	runes    []rune

	canvas *ebiten.Image
}

func (g *game) size() image.Point {
	return image.Pt(g.window[0], g.window[1])
}

func (g *game) Update() error {
	g.pointer()
	g.files()
	g.keys()
	return nil
}

// pointer feeds mouse and the first touch to the editor. Releases end the
// gesture wherever they happen, including outside the container.
func (g *game) pointer() {
	win := g.size()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.mouse = true
		g.ed.PointerDown(r2.Vec{X: float64(x), Y: float64(y)}, win)
	}
	if g.mouse {
		if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			g.ed.PointerMove(r2.Vec{X: float64(x), Y: float64(y)}, win)
		} else {
			g.mouse = false
			g.ed.PointerUp()
		}
	}

	if !g.touching {
		for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
			x, y := ebiten.TouchPosition(id)
			g.touch, g.touching = id, true
			g.ed.PointerDown(r2.Vec{X: float64(x), Y: float64(y)}, win)
			break
		}
	} else if inpututil.IsTouchJustReleased(g.touch) {
		g.touching = false
		g.ed.PointerUp()
	} else {
		x, y := ebiten.TouchPosition(g.touch)
		g.ed.PointerMove(r2.Vec{X: float64(x), Y: float64(y)}, win)
	}
}

// files uploads images dropped onto the window.
func (g *game) files() {
	dropped := ebiten.DroppedFiles()
	if dropped == nil {
		return
	}
	entries, err := fs.ReadDir(dropped, ".")
	if err != nil {
		g.log.Warn("cannot read dropped files", "err", err)
		return
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		data, err := fs.ReadFile(dropped, ent.Name())
		if err != nil {
			g.log.Warn("cannot read dropped file", "name", ent.Name(), "err", err)
			continue
		}
		// the last readable image wins
		_ = g.ed.Drop(ent.Name(), data)
	}
}

var swatchKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5, ebiten.Key6}

// keys handles the keyboard. While the text element is selected, printable
// keys edit the text; otherwise they are commands.
func (g *game) keys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.ed.SwitchSide(g.ctx)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) {
		g.ed.DeleteSelected()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.sess.Gesture.DeselectAll()
	}

	g.runes = ebiten.AppendInputChars(g.runes[:0])
	if g.sess.Gesture.Selected() == garment.TextElementKind {
		g.ed.TypeRunes(g.runes)
		if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
			g.ed.Backspace()
		}
		return
	}

	for i, k := range swatchKeys {
		if inpututil.IsKeyJustPressed(k) {
			g.ed.SetSwatch(i)
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.ed.CycleFont()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		g.ed.ResizeText(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		g.ed.ResizeText(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.ed.Export(g.ctx)
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.connect()
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		g.sess.Gesture.Select(garment.TextElementKind)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(backdrop)

	img, origin := g.ed.Render(g.size())
	b := img.Bounds()
	if !b.Empty() {
		if g.canvas == nil || g.canvas.Bounds().Size() != b.Size() {
			if g.canvas != nil {
				g.canvas.Deallocate()
			}
			g.canvas = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.canvas.WritePixels(img.Pix)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(origin.X), float64(origin.Y))
		screen.DrawImage(g.canvas, op)
	}

	status := g.ed.Status() + "\nTab side  1-6 color  T text  F font  +/- size  E export  R viewer"
	ebitenutil.DebugPrintAt(screen, status, 4, g.window[1]-editor.StatusHeight+2)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.window = [2]int{outsideWidth, outsideHeight}
	return outsideWidth, outsideHeight
}
