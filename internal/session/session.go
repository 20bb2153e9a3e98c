// Package session ties one editing session together: the configuration
// store, the gesture controller, debounced texture compositing, the 3D
// viewer and on-demand export.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"garment-studio/internal/compositor"
	"garment-studio/internal/export"
	"garment-studio/internal/garment"
	"garment-studio/internal/gesture"
	"garment-studio/internal/store"
	"garment-studio/internal/viewer"
)

// DefaultDebounce is the quiet period before a changed configuration is
// composited.
const DefaultDebounce = 500 * time.Millisecond

// viewerTimeout bounds a single texture push.
const viewerTimeout = 10 * time.Second

// Identity is the signed-in user, supplied by the host application. It is
// only used for attribution.
type Identity struct {
	UserID        string
	Email         string
	Authenticated bool
}

// Composer renders a configuration into a texture.
type Composer interface {
	Compose(ctx context.Context, cfg garment.Config) (compositor.Result, error)
}

// Texture is a delivered composite.
type Texture struct {
	Seq      uint64
	Revision uint64
	compositor.Result
}

// Status summarizes the session for display.
type Status struct {
	Revision  uint64
	Delivered uint64 // revision of the latest delivered texture
	Warnings  []string
	Err       error // last compositing failure
	ViewerErr error // last viewer failure
}

// Options configures a Session.
type Options struct {
	Debounce time.Duration
	Identity Identity
	Viewer   viewer.Client
	// OnTexture runs after each delivered composite, on a compositing
	// goroutine.
	OnTexture func(Texture)
	Logger    *slog.Logger
}

// Session is one editing session.
type Session struct {
	Store   *store.Store
	Gesture *gesture.Controller

	comp      Composer
	debounce  time.Duration
	identity  Identity
	onTexture func(Texture)
	log       *slog.Logger

	kick chan struct{}
	seq  atomic.Uint64

	mu        sync.Mutex
	viewer    viewer.Client
	view      viewer.View
	delivered uint64
	latest    Texture
	hasLatest bool
	err       error
	viewerErr error

	pushMu sync.Mutex
	pushed uint64
}

// New creates a session editing cfg, starting on the front side.
func New(cfg garment.Config, comp Composer, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Identity.Authenticated {
		log = log.With("user", opts.Identity.UserID, "email", opts.Identity.Email)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	v := opts.Viewer
	if v == nil {
		v = viewer.Nop{}
	}

	st := store.New(cfg)
	s := &Session{
		Store:     st,
		Gesture:   gesture.NewController(st, garment.Front, log),
		comp:      comp,
		debounce:  debounce,
		identity:  opts.Identity,
		onTexture: opts.OnTexture,
		log:       log,
		kick:      make(chan struct{}, 1),
		viewer:    v,
		view:      viewer.ViewFront,
	}
	st.On(func(garment.Config, uint64) { s.Schedule() })
	return s
}

// Schedule requests a composite after the debounce period. Requests made
// while one is pending are coalesced.
func (s *Session) Schedule() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run composites scheduled changes until ctx is done. A first composite is
// made immediately.
func (s *Session) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.kick:
			timer.Reset(s.debounce)
		case <-timer.C:
			seq := s.seq.Add(1)
			cfg, rev := s.Store.SnapshotRev()
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := s.comp.Compose(ctx, cfg)
				s.deliver(ctx, seq, rev, res, err)
			}()
		}
	}
}

// deliver publishes a finished composite unless a newer one was already
// delivered. It reports whether the result was used.
func (s *Session) deliver(ctx context.Context, seq, rev uint64, res compositor.Result, err error) bool {
	s.mu.Lock()
	if seq <= s.delivered {
		s.mu.Unlock()
		s.log.Debug("session: stale composite discarded", "seq", seq, "revision", rev)
		return false
	}
	s.delivered = seq
	if err != nil {
		s.err = err
		s.mu.Unlock()
		if ctx.Err() == nil {
			s.log.Error("session: composite failed", "revision", rev, "err", err)
		}
		return false
	}
	tex := Texture{Seq: seq, Revision: rev, Result: res}
	s.latest, s.hasLatest, s.err = tex, true, nil
	v := s.viewer
	s.mu.Unlock()

	if s.onTexture != nil {
		s.onTexture(tex)
	}
	s.push(ctx, v, tex)
	return true
}

func (s *Session) push(ctx context.Context, v viewer.Client, tex Texture) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	if tex.Seq < s.pushed {
		return
	}
	s.pushed = tex.Seq

	ctx, cancel := context.WithTimeout(ctx, viewerTimeout)
	defer cancel()
	err := v.UpdateTexture(ctx, tex.Image)

	s.mu.Lock()
	s.viewerErr = err
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("session: viewer update failed", "revision", tex.Revision, "err", err)
	}
}

// SetViewer replaces the viewer client, e.g. after a reconnect, turns its
// camera to the edited side and pushes the latest texture to it.
func (s *Session) SetViewer(ctx context.Context, v viewer.Client) {
	if v == nil {
		v = viewer.Nop{}
	}
	s.mu.Lock()
	old := s.viewer
	s.viewer = v
	s.viewerErr = nil
	view := s.view
	tex, ok := s.latest, s.hasLatest
	s.mu.Unlock()

	if old != v {
		old.Close()
	}
	if err := v.SetCameraView(ctx, view); err != nil {
		s.log.Debug("session: camera view failed", "view", view, "err", err)
	}
	if ok {
		s.pushMu.Lock()
		s.pushed = 0
		s.pushMu.Unlock()
		s.push(ctx, v, tex)
	}
}

// SetViewerError records a viewer failure that happened outside the
// session, such as a failed dial.
func (s *Session) SetViewerError(err error) {
	s.mu.Lock()
	s.viewerErr = err
	s.mu.Unlock()
}

// SwitchSide edits side and turns the viewer camera toward it. The camera
// command is fire-and-forget.
func (s *Session) SwitchSide(ctx context.Context, side garment.Side) {
	s.Gesture.SetSide(side)
	view := viewer.ViewFor(side)
	s.mu.Lock()
	v := s.viewer
	s.view = view
	s.mu.Unlock()
	if err := v.SetCameraView(ctx, view); err != nil {
		s.log.Debug("session: camera view failed", "side", side, "err", err)
	}
}

// Latest returns the most recently delivered texture.
func (s *Session) Latest() (Texture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

// Status returns a summary for display.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Revision:  s.Store.Revision(),
		Err:       s.err,
		ViewerErr: s.viewerErr,
	}
	if s.hasLatest {
		st.Delivered = s.latest.Revision
		st.Warnings = warnings(s.latest.Warnings)
	}
	return st
}

// Export composites the current configuration once, bypassing the
// debounce, and writes it to dir. It works without a viewer.
func (s *Session) Export(ctx context.Context, dir string, f export.Format) (string, error) {
	cfg, rev := s.Store.SnapshotRev()
	res, err := s.comp.Compose(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("session: export: %w", err)
	}

	now := time.Now().UTC()
	rec := export.Record{
		Created:  now,
		Revision: rev,
		Warnings: warnings(res.Warnings),
	}
	if s.identity.Authenticated {
		rec.User, rec.Email = s.identity.UserID, s.identity.Email
	}
	path, err := export.Write(dir, export.Name(rev, now), res.Image, f, rec)
	if err != nil {
		return "", fmt.Errorf("session: export: %w", err)
	}
	s.log.Info("session: exported", "path", path, "revision", rev, "warnings", len(rec.Warnings))
	return path, nil
}

// Close releases the viewer.
func (s *Session) Close() error {
	s.mu.Lock()
	v := s.viewer
	s.viewer = viewer.Nop{}
	s.mu.Unlock()
	return v.Close()
}

func warnings(ws []compositor.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}
