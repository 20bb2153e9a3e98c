package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"garment-studio/internal/compositor"
	"garment-studio/internal/export"
	"garment-studio/internal/garment"
	"garment-studio/internal/viewer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeComposer counts calls. If gate is set, call n waits for gate[n].
type fakeComposer struct {
	calls atomic.Int32
	gate  map[int32]chan struct{}
}

func (f *fakeComposer) Compose(ctx context.Context, cfg garment.Config) (compositor.Result, error) {
	n := f.calls.Add(1)
	if ch, ok := f.gate[n]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return compositor.Result{}, ctx.Err()
		}
	}
	return compositor.Result{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}, nil
}

type fakeViewer struct {
	mu       sync.Mutex
	textures int
	views    []viewer.View
	err      error
	closed   bool
}

func (v *fakeViewer) UpdateTexture(context.Context, *image.RGBA) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.textures++
	return v.err
}

func (v *fakeViewer) SetCameraView(_ context.Context, view viewer.View) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.views = append(v.views, view)
	return nil
}

func (v *fakeViewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *fakeViewer) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.textures
}

func run(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDebounceCoalescesChanges(t *testing.T) {
	comp := &fakeComposer{}
	s := New(garment.Default(), comp, Options{Debounce: 40 * time.Millisecond})
	run(t, s)

	require.Eventually(t, func() bool { return comp.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	for i := range 5 {
		s.Store.Dispatch(garment.SetBaseColor{Color: garment.Swatches[i+1]})
	}
	require.Eventually(t, func() bool { return comp.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), comp.calls.Load())

	require.Eventually(t, func() bool {
		tex, ok := s.Latest()
		return ok && tex.Revision == 5
	}, time.Second, 5*time.Millisecond)
}

func TestNoChangeNoComposite(t *testing.T) {
	comp := &fakeComposer{}
	s := New(garment.Default(), comp, Options{Debounce: 20 * time.Millisecond})
	run(t, s)
	require.Eventually(t, func() bool { return comp.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.Store.Dispatch(garment.SetBaseColor{Color: garment.Default().BaseColor})
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), comp.calls.Load())
}

func TestStaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	comp := &fakeComposer{gate: map[int32]chan struct{}{1: release}}
	var delivered []uint64
	var mu sync.Mutex
	s := New(garment.Default(), comp, Options{
		Debounce: 10 * time.Millisecond,
		OnTexture: func(tex Texture) {
			mu.Lock()
			delivered = append(delivered, tex.Revision)
			mu.Unlock()
		},
	})
	run(t, s)

	// the initial composite (revision 0) is stuck; a newer one overtakes it
	require.Eventually(t, func() bool { return comp.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Store.Dispatch(garment.SetBaseColor{Color: garment.Swatches[2]})
	require.Eventually(t, func() bool {
		tex, ok := s.Latest()
		return ok && tex.Revision == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	time.Sleep(50 * time.Millisecond)

	tex, _ := s.Latest()
	assert.Equal(t, uint64(1), tex.Revision)
	assert.Equal(t, uint64(2), tex.Seq)
	mu.Lock()
	assert.Equal(t, []uint64{1}, delivered)
	mu.Unlock()
}

func TestDeliverOrdering(t *testing.T) {
	s := New(garment.Default(), &fakeComposer{}, Options{})
	res := compositor.Result{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}
	ctx := context.Background()

	assert.True(t, s.deliver(ctx, 3, 7, res, nil))
	assert.False(t, s.deliver(ctx, 2, 6, res, nil))
	assert.False(t, s.deliver(ctx, 3, 7, res, nil))
	assert.True(t, s.deliver(ctx, 4, 8, res, nil))

	tex, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(8), tex.Revision)
}

func TestCompositeFailureIsReported(t *testing.T) {
	s := New(garment.Default(), &fakeComposer{}, Options{})
	s.deliver(context.Background(), 1, 0, compositor.Result{}, compositor.ErrSurfaceUnavailable)
	assert.ErrorIs(t, s.Status().Err, compositor.ErrSurfaceUnavailable)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestViewerFailureDoesNotStopEditing(t *testing.T) {
	v := &fakeViewer{err: viewer.ErrUnavailable}
	comp := &fakeComposer{}
	s := New(garment.Default(), comp, Options{Debounce: 10 * time.Millisecond, Viewer: v})
	run(t, s)

	require.Eventually(t, func() bool { return v.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return s.Status().ViewerErr != nil }, time.Second, 5*time.Millisecond)

	s.Store.Dispatch(garment.SetText{Side: garment.Front, Content: "HELLO"})
	require.Eventually(t, func() bool { return v.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "HELLO", s.Store.Snapshot().Front.Text.Content)
}

func TestSetViewerPushesLatest(t *testing.T) {
	s := New(garment.Default(), &fakeComposer{}, Options{})
	old := &fakeViewer{}
	s.SetViewer(context.Background(), old)
	s.deliver(context.Background(), 1, 0, compositor.Result{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}, nil)
	assert.Equal(t, 1, old.count())

	next := &fakeViewer{}
	s.SetViewer(context.Background(), next)
	assert.True(t, old.closed)
	assert.Equal(t, 1, next.count())
	assert.Equal(t, []viewer.View{viewer.ViewFront}, next.views)
}

func TestSwitchSideTurnsCamera(t *testing.T) {
	v := &fakeViewer{}
	s := New(garment.Default(), &fakeComposer{}, Options{Viewer: v})
	s.SwitchSide(context.Background(), garment.Back)
	assert.Equal(t, garment.Back, s.Gesture.Side())
	s.SwitchSide(context.Background(), garment.Front)
	assert.Equal(t, []viewer.View{viewer.ViewBack, viewer.ViewFront}, v.views)
}

type brokenImages struct{}

func (brokenImages) Resolve(string) (*image.NRGBA, error) { return nil, errors.New("decode failed") }

func TestExportWritesTextureAndRecord(t *testing.T) {
	dir := t.TempDir()
	cfg := garment.Reduce(garment.Default(), garment.SetImage{Side: garment.Back, Source: "logo"})
	comp := compositor.New(64, brokenImages{}, nil)
	s := New(cfg, comp, Options{
		Identity: Identity{UserID: "u-1", Email: "u1@example.com", Authenticated: true},
		Viewer:   &fakeViewer{err: viewer.ErrUnavailable},
	})
	s.Store.Dispatch(garment.SetBaseColor{Color: color.NRGBA{R: 10, G: 10, B: 10, A: 255}})

	path, err := s.Export(context.Background(), dir, export.PNG)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	stem := filepath.Base(path)
	stem = stem[:len(stem)-len(".png")]
	rec, err := export.ReadRecord(filepath.Join(dir, stem+".json"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", rec.User)
	assert.Equal(t, uint64(1), rec.Revision)
	assert.Equal(t, 64, rec.Size)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0], "logo")
}

func TestExportAnonymous(t *testing.T) {
	dir := t.TempDir()
	s := New(garment.Default(), compositor.New(16, nil, nil), Options{Identity: Identity{UserID: "u-2"}})
	path, err := s.Export(context.Background(), dir, export.WebP)
	require.NoError(t, err)
	assert.Equal(t, ".webp", filepath.Ext(path))

	rec, err := export.ReadRecord(path[:len(path)-len(".webp")] + ".json")
	require.NoError(t, err)
	assert.Empty(t, rec.User)
}

func TestExportSurfaceUnavailable(t *testing.T) {
	s := New(garment.Default(), compositor.New(3, nil, nil), Options{})
	_, err := s.Export(context.Background(), t.TempDir(), export.PNG)
	assert.ErrorIs(t, err, compositor.ErrSurfaceUnavailable)
}
