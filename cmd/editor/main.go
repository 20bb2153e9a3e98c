package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"garment-studio/internal/compositor"
	"garment-studio/internal/config"
	"garment-studio/internal/editor"
	"garment-studio/internal/export"
	"garment-studio/internal/garment"
	"garment-studio/internal/session"
	"garment-studio/internal/texture"
	"garment-studio/internal/viewer"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json or .yaml)")
	assetDir := flag.String("assets", "", "Asset directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Export directory")
	format := flag.String("format", "", "Export format: png or webp")
	viewerURL := flag.String("viewer", "", "3D viewer websocket URL (default: none)")
	front := flag.String("image", "", "Image path or asset name to place on the front")
	user := flag.String("user", "", "Signed-in user id")
	email := flag.String("email", "", "Signed-in user email")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		AssetDir:     *assetDir,
		OutputDir:    *outputDir,
		ViewerURL:    *viewerURL,
		ExportFormat: *format,
	})
	outFormat, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	index := texture.BuildIndex(cfg.AssetDir)
	cache := texture.NewCache(index)
	log.Info("assets indexed", "dir", cfg.AssetDir, "count", index.Len())

	start := garment.Default()
	for _, side := range garment.Sides {
		start = garment.Reduce(start, garment.SetTextStyle{Side: side, FontSizeUnit: float64(cfg.FontSizeUnit)})
	}
	if *front != "" {
		start = garment.Reduce(start, garment.SetImage{Side: garment.Front, Source: *front})
	}

	comp := compositor.New(cfg.TextureSize, cache, log)
	comp.Supersample = cfg.Supersample
	sess := session.New(start, comp, session.Options{
		Debounce: cfg.Debounce(),
		Identity: session.Identity{UserID: *user, Email: *email, Authenticated: *user != ""},
		Logger:   log,
	})
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	// Reload image assets edited on disk
	watcher, err := texture.NewWatcher(cache, func(string) { sess.Schedule() }, log)
	if err != nil {
		log.Warn("asset watcher disabled", "err", err)
	} else {
		defer watcher.Close()
		track := func(c garment.Config) {
			for _, side := range garment.Sides {
				if src := c.Side(side).Image.Source; src != "" {
					if err := watcher.Track(src); err != nil {
						log.Debug("asset not watched", "ref", src, "err", err)
					}
				}
			}
		}
		track(start)
		sess.Store.On(func(c garment.Config, _ uint64) { track(c) })
		go watcher.Run(ctx)
	}

	g := &game{
		ed:     editor.New(sess, cache, editor.Options{ExportDir: cfg.OutputDir, Format: outFormat, Logger: log}),
		sess:   sess,
		ctx:    ctx,
		cfg:    cfg,
		log:    log,
		window: [2]int{cfg.EditorWidth, cfg.EditorHeight + editor.StatusHeight},
	}
	g.connect()

	ebiten.SetWindowTitle("Garment Studio")
	ebiten.SetWindowSize(g.window[0], g.window[1])
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect dials the viewer in the background, if one is configured.
func (g *game) connect() {
	if g.cfg.ViewerURL == "" || g.connecting.Swap(true) {
		return
	}
	go func() {
		defer g.connecting.Store(false)
		conn, err := viewer.Dial(g.ctx, g.cfg.ViewerURL, viewer.Options{
			Attempts:    g.cfg.ViewerAttempts,
			Backoff:     g.cfg.ViewerBackoff(),
			TextureSize: g.cfg.ViewerTextureSize,
			Logger:      g.log,
		})
		if err != nil {
			g.log.Warn("viewer unavailable, press R to retry", "err", err)
			g.sess.SetViewerError(err)
			return
		}
		g.sess.SetViewer(g.ctx, conn)
	}()
}
