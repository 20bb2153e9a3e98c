// Package editor maps window input onto an editing session and renders the
// live preview. It has no windowing dependency; cmd/editor feeds it events.
package editor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"unicode/utf8"

	"garment-studio/internal/export"
	"garment-studio/internal/fonts"
	"garment-studio/internal/garment"
	"garment-studio/internal/preview"
	"garment-studio/internal/session"
	"garment-studio/internal/texture"

	"gonum.org/v1/gonum/spatial/r2"
)

// StatusHeight is the height of the status bar below the container.
const StatusHeight = 52

// Text size limits for the +/- keys, in font size units.
const (
	MinFontUnit = 2
	MaxFontUnit = 30
)

// Options configures an Editor.
type Options struct {
	ExportDir string
	Format    export.Format
	Logger    *slog.Logger
}

// Editor is the input and presentation layer of one session. Its methods
// are called from the window's update goroutine.
type Editor struct {
	sess     *session.Session
	renderer *preview.Renderer
	uploads  *texture.Cache
	opts     Options
	log      *slog.Logger

	frame  preview.Frame
	origin image.Point

	mu      sync.Mutex
	message string
}

// New creates an editor for sess. uploads receives dropped files.
func New(sess *session.Session, uploads *texture.Cache, opts Options) *Editor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Editor{
		sess:     sess,
		renderer: preview.NewRenderer(uploads, log),
		uploads:  uploads,
		opts:     opts,
		log:      log,
	}
}

// Container returns the editing container for a window size: the largest
// 1:2 rectangle that fits above the status bar, centered horizontally.
func Container(window image.Point) image.Rectangle {
	h := window.Y - StatusHeight
	if window.X <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	w := window.X
	if 2*w > h {
		w = h / 2
	} else {
		h = 2 * w
	}
	x := (window.X - w) / 2
	return image.Rect(x, 0, x+w, h)
}

func box(r image.Rectangle) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		Max: r2.Vec{X: float64(r.Max.X), Y: float64(r.Max.Y)},
	}
}

// Render draws the current side into its container for the given window
// size and remembers the frame for hit testing. The returned point is the
// container origin in window coordinates.
func (e *Editor) Render(window image.Point) (*image.RGBA, image.Point) {
	c := Container(window)
	cfg := e.sess.Store.Snapshot()
	img, frame := e.renderer.Render(cfg.BaseColor, cfg.Side(e.sess.Gesture.Side()), c.Size(), e.sess.Gesture.Selected())
	e.frame, e.origin = frame, c.Min
	return img, c.Min
}

// PointerDown starts a gesture, deletes an element or clears the selection,
// depending on what lies under p (window coordinates).
func (e *Editor) PointerDown(p r2.Vec, window image.Point) {
	c := Container(window)
	local := r2.Sub(p, r2.Vec{X: float64(e.origin.X), Y: float64(e.origin.Y)})
	hit := e.frame.HitTest(local)

	switch {
	case hit.Handle == preview.DeleteHandle:
		e.sess.Gesture.Delete(hit.Element)
	case hit.Element != garment.NoElement:
		e.sess.Gesture.Select(hit.Element)
		e.sess.Gesture.Begin(hit.Element, hit.Handle.Interaction(), p, box(c))
	default:
		e.sess.Gesture.DeselectAll()
	}
}

// PointerMove continues the active gesture. The container is re-measured on
// every call so a window resize mid-drag is honored.
func (e *Editor) PointerMove(p r2.Vec, window image.Point) {
	if !e.sess.Gesture.Dragging() {
		return
	}
	e.sess.Gesture.Update(p, box(Container(window)))
}

// PointerUp ends the active gesture wherever the pointer is.
func (e *Editor) PointerUp() {
	e.sess.Gesture.End()
}

// SwitchSide toggles between front and back.
func (e *Editor) SwitchSide(ctx context.Context) {
	e.sess.SwitchSide(ctx, e.sess.Gesture.Side().Other())
	e.setMessage("editing " + e.sess.Gesture.Side().String())
}

// DeleteSelected deletes the selected element.
func (e *Editor) DeleteSelected() {
	if sel := e.sess.Gesture.Selected(); sel != garment.NoElement {
		e.sess.Gesture.Delete(sel)
	}
}

// SetSwatch sets the base color to swatch i (zero based).
func (e *Editor) SetSwatch(i int) {
	if i < 0 || i >= len(garment.Swatches) {
		return
	}
	e.sess.Store.Dispatch(garment.SetBaseColor{Color: garment.Swatches[i]})
}

// SetBaseColor sets an arbitrary base color.
func (e *Editor) SetBaseColor(c color.NRGBA) {
	e.sess.Store.Dispatch(garment.SetBaseColor{Color: c})
}

// TypeRunes appends typed characters to the text of the current side.
func (e *Editor) TypeRunes(rs []rune) {
	if len(rs) == 0 {
		return
	}
	side := e.sess.Gesture.Side()
	content := e.sess.Store.Snapshot().Side(side).Text.Content + string(rs)
	e.sess.Store.Dispatch(garment.SetText{Side: side, Content: content})
	e.sess.Gesture.Select(garment.TextElementKind)
}

// Backspace removes the last character of the current side's text.
func (e *Editor) Backspace() {
	side := e.sess.Gesture.Side()
	content := e.sess.Store.Snapshot().Side(side).Text.Content
	if content == "" {
		return
	}
	_, n := utf8.DecodeLastRuneInString(content)
	e.sess.Store.Dispatch(garment.SetText{Side: side, Content: content[:len(content)-n]})
}

// CycleFont switches the current side's text to the next font family.
func (e *Editor) CycleFont() {
	side := e.sess.Gesture.Side()
	next := fonts.Next(e.sess.Store.Snapshot().Side(side).Text.FontFamily)
	e.sess.Store.Dispatch(garment.SetTextStyle{Side: side, FontFamily: next})
	e.setMessage("font " + next)
}

// ResizeText changes the current side's font size unit by delta, within
// [MinFontUnit, MaxFontUnit].
func (e *Editor) ResizeText(delta float64) {
	side := e.sess.Gesture.Side()
	unit := e.sess.Store.Snapshot().Side(side).Text.FontSizeUnit + delta
	unit = min(max(unit, MinFontUnit), MaxFontUnit)
	e.sess.Store.Dispatch(garment.SetTextStyle{Side: side, FontSizeUnit: unit})
}

// SetTextColor sets the current side's text color.
func (e *Editor) SetTextColor(c color.NRGBA) {
	e.sess.Store.Dispatch(garment.SetTextStyle{Side: e.sess.Gesture.Side(), Color: &c})
}

// Drop places an uploaded image on the current side and selects it.
// Unreadable files are reported and leave the configuration unchanged.
func (e *Editor) Drop(name string, data []byte) error {
	ref, err := e.uploads.Upload(name, data)
	if err != nil {
		e.log.Warn("editor: upload rejected", "name", name, "err", err)
		e.setMessage("cannot use " + name)
		return err
	}
	e.PlaceImage(ref)
	return nil
}

// PlaceImage sets an image reference on the current side and selects it.
func (e *Editor) PlaceImage(ref string) {
	side := e.sess.Gesture.Side()
	e.sess.Store.Dispatch(garment.SetImage{Side: side, Source: ref})
	e.sess.Gesture.Select(garment.ImageElementKind)
}

// Export writes the texture in the background. The result is shown in the
// status line.
func (e *Editor) Export(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	e.setMessage("exporting...")
	go func() {
		path, err := e.sess.Export(ctx, e.opts.ExportDir, e.opts.Format)
		if err != nil {
			e.log.Error("editor: export failed", "err", err)
			e.setMessage("export failed: " + err.Error())
		} else {
			e.setMessage("exported " + path)
		}
		done <- err
	}()
	return done
}

// Status returns the status line.
func (e *Editor) Status() string {
	st := e.sess.Status()
	line := fmt.Sprintf("%s  rev %d", e.sess.Gesture.Side(), st.Revision)
	if st.Delivered != st.Revision {
		line += " (composing)"
	}
	switch {
	case st.Err != nil:
		line += "  texture: " + st.Err.Error()
	case len(st.Warnings) > 0:
		line += fmt.Sprintf("  %d layer(s) skipped", len(st.Warnings))
	}
	if st.ViewerErr != nil {
		line += "  viewer offline"
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.message != "" {
		line += "\n" + e.message
	}
	return line
}

func (e *Editor) setMessage(m string) {
	e.mu.Lock()
	e.message = m
	e.mu.Unlock()
}
