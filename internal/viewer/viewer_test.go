package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"garment-studio/internal/garment"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Type   string `json:"type"`
	View   View   `json:"view"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    []byte `json:"png"`
}

// fakeViewer acknowledges textures with ok and records every message.
func fakeViewer(t *testing.T, ok bool) (*httptest.Server, chan received) {
	t.Helper()
	msgs := make(chan received, 16)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var m received
			if json.Unmarshal(data, &m) != nil {
				continue
			}
			msgs <- m
			if m.Type == "texture" {
				ack := reply{Type: "ack", OK: ok}
				if !ok {
					ack.Error = "bad texture"
				}
				if conn.WriteJSON(ack) != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, msgs
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestUpdateTextureDownscales(t *testing.T) {
	srv, msgs := fakeViewer(t, true)
	c, err := Dial(ctxT(t), wsURL(srv), Options{TextureSize: 16})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.UpdateTexture(ctxT(t), image.NewRGBA(image.Rect(0, 0, 64, 64))))

	m := <-msgs
	assert.Equal(t, "texture", m.Type)
	assert.Equal(t, 16, m.Width)
	img, err := png.Decode(bytes.NewReader(m.PNG))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())
}

func TestUpdateTextureRejected(t *testing.T) {
	srv, _ := fakeViewer(t, false)
	c, err := Dial(ctxT(t), wsURL(srv), Options{})
	require.NoError(t, err)
	defer c.Close()

	err = c.UpdateTexture(ctxT(t), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "bad texture")
}

func TestSetCameraView(t *testing.T) {
	srv, msgs := fakeViewer(t, true)
	c, err := Dial(ctxT(t), wsURL(srv), Options{})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetCameraView(ctxT(t), ViewFor(garment.Back)))
	select {
	case m := <-msgs:
		assert.Equal(t, received{Type: "camera", View: ViewBack}, m)
	case <-time.After(5 * time.Second):
		t.Fatal("camera message not received")
	}
}

// silentViewer records every message and never replies.
func silentViewer(t *testing.T) (*httptest.Server, chan received) {
	t.Helper()
	msgs := make(chan received, 16)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var m received
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			msgs <- m
		}
	}))
	t.Cleanup(srv.Close)
	return srv, msgs
}

func TestSetCameraViewDuringPendingTexture(t *testing.T) {
	srv, msgs := silentViewer(t)
	c, err := Dial(ctxT(t), wsURL(srv), Options{})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.UpdateTexture(ctx, image.NewRGBA(image.Rect(0, 0, 8, 8))) }()

	select {
	case m := <-msgs:
		require.Equal(t, "texture", m.Type)
	case <-time.After(time.Second):
		t.Fatal("texture never arrived")
	}

	start := time.Now()
	require.NoError(t, c.SetCameraView(context.Background(), ViewBack))
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	select {
	case m := <-msgs:
		assert.Equal(t, received{Type: "camera", View: ViewBack}, m)
	case <-time.After(time.Second):
		t.Fatal("camera command never arrived")
	}

	// the texture still waits for its ack until its own deadline
	assert.Error(t, <-done)
}

func TestClosedConn(t *testing.T) {
	srv, _ := fakeViewer(t, true)
	c, err := Dial(ctxT(t), wsURL(srv), Options{})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.SetCameraView(ctxT(t), ViewFront), ErrClosed)
}

func TestDialGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "starting", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Dial(ctxT(t), wsURL(srv), Options{Attempts: 3, Backoff: time.Millisecond})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), hits.Load())
}

func TestDialRetriesUntilReady(t *testing.T) {
	var hits atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c, err := Dial(ctxT(t), wsURL(srv), Options{Attempts: 5, Backoff: time.Millisecond})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, int32(3), hits.Load())
}

func TestDialHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "starting", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := Dial(ctx, wsURL(srv), Options{Attempts: 10, Backoff: time.Second})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNop(t *testing.T) {
	var c Client = Nop{}
	assert.NoError(t, c.UpdateTexture(context.Background(), nil))
	assert.NoError(t, c.SetCameraView(context.Background(), ViewLeft))
	assert.NoError(t, c.Close())
}
