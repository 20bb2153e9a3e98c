// Package viewer talks to the external 3D garment viewer over a websocket.
//
// The viewer receives the composited texture and camera commands. It is an
// optional collaborator: every failure here is reported to the caller, and
// callers keep editing and exporting without it.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"garment-studio/internal/garment"
	"garment-studio/internal/postprocess"

	"github.com/gorilla/websocket"
)

var (
	// ErrUnavailable is returned when the viewer cannot be reached within
	// the configured number of attempts.
	ErrUnavailable = errors.New("viewer: unavailable")
	// ErrRejected is returned when the viewer refuses a texture.
	ErrRejected = errors.New("viewer: texture rejected")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("viewer: connection closed")
)

// View is a camera direction.
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
	ViewLeft  View = "left"
	ViewRight View = "right"
)

// ViewFor returns the camera view facing side.
func ViewFor(side garment.Side) View {
	if side == garment.Back {
		return ViewBack
	}
	return ViewFront
}

// Client is the viewer surface used by the editing session.
type Client interface {
	// UpdateTexture replaces the garment texture and waits for the viewer
	// to acknowledge it.
	UpdateTexture(ctx context.Context, img *image.RGBA) error
	// SetCameraView turns the camera. It does not wait for a reply.
	SetCameraView(ctx context.Context, v View) error
	Close() error
}

// Nop is a Client for running without a viewer.
type Nop struct{}

func (Nop) UpdateTexture(context.Context, *image.RGBA) error { return nil }
func (Nop) SetCameraView(context.Context, View) error        { return nil }
func (Nop) Close() error                                     { return nil }

// Options controls Dial.
type Options struct {
	// Attempts is the number of connection attempts; values below 1 mean 1.
	Attempts int
	// Backoff is the wait after the first failed attempt. It doubles after
	// each further failure.
	Backoff time.Duration
	// TextureSize caps the longer side of textures sent to the viewer.
	// Zero sends textures at full size.
	TextureSize int
	Dialer      *websocket.Dialer
	Logger      *slog.Logger
}

// cameraTimeout bounds a camera write when the caller's context has no
// earlier deadline.
const cameraTimeout = 2 * time.Second

// Conn is a live viewer connection. Writes and texture round trips are
// locked separately, so a camera command never waits for a texture ack.
type Conn struct {
	wmu    sync.Mutex // guards writes and closed
	rmu    sync.Mutex // one texture round trip at a time
	ws     *websocket.Conn
	size   int
	log    *slog.Logger
	closed bool
}

// Dial connects to the viewer at url, retrying with exponential backoff.
// After the last failed attempt it returns an error wrapping ErrUnavailable.
func Dial(ctx context.Context, url string, opts Options) (*Conn, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	attempts := max(opts.Attempts, 1)
	wait := opts.Backoff

	var lastErr error
	for i := 1; i <= attempts; i++ {
		ws, _, err := dialer.DialContext(ctx, url, nil)
		if err == nil {
			log.Info("viewer: connected", "url", url, "attempt", i)
			return &Conn{ws: ws, size: opts.TextureSize, log: log}, nil
		}
		lastErr = err
		log.Debug("viewer: dial failed", "url", url, "attempt", i, "err", err)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, url, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrUnavailable, url, attempts, lastErr)
}

type textureMessage struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"png"`
}

type cameraMessage struct {
	Type string `json:"type"`
	View View   `json:"view"`
}

type reply struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// UpdateTexture implements Client.
func (c *Conn) UpdateTexture(ctx context.Context, img *image.RGBA) error {
	if c.size > 0 {
		img = postprocess.Fit(img, c.size)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("viewer: encode texture: %w", err)
	}
	b := img.Bounds()
	msg := textureMessage{Type: "texture", Width: b.Dx(), Height: b.Dy(), PNG: buf.Bytes()}

	c.rmu.Lock()
	defer c.rmu.Unlock()
	dl, _ := ctx.Deadline()
	if err := c.send(dl, msg); err != nil {
		return err
	}
	for {
		var r reply
		if err := c.receive(ctx, &r); err != nil {
			return err
		}
		if r.Type != "ack" {
			continue
		}
		if !r.OK {
			return fmt.Errorf("%w: %s", ErrRejected, r.Error)
		}
		return nil
	}
}

// SetCameraView implements Client.
func (c *Conn) SetCameraView(ctx context.Context, v View) error {
	dl := time.Now().Add(cameraTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(dl) {
		dl = d
	}
	return c.send(dl, cameraMessage{Type: "camera", View: v})
}

// Close sends a close frame and releases the connection.
func (c *Conn) Close() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}

// send writes one message. A zero deadline means no write timeout.
func (c *Conn) send(dl time.Time, v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.ws.SetWriteDeadline(dl); err != nil {
		return fmt.Errorf("viewer: write: %w", err)
	}
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("viewer: write: %w", err)
	}
	return nil
}

func (c *Conn) receive(ctx context.Context, v any) error {
	dl, _ := ctx.Deadline()
	if err := c.ws.SetReadDeadline(dl); err != nil {
		return fmt.Errorf("viewer: read: %w", err)
	}
	if err := c.ws.ReadJSON(v); err != nil {
		return fmt.Errorf("viewer: read: %w", err)
	}
	return nil
}
