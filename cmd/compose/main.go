package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"garment-studio/internal/compositor"
	"garment-studio/internal/config"
	"garment-studio/internal/export"
	"garment-studio/internal/fonts"
	"garment-studio/internal/garment"
	"garment-studio/internal/texture"
)

// sideFlags are the per-side overlay flags.
type sideFlags struct {
	text    *string
	textAt  *string
	image   *string
	imageAt *string
}

func registerSide(name string) sideFlags {
	return sideFlags{
		text:    flag.String(name+"-text", "", "Text on the "+name+" (use \"-\" for none)"),
		textAt:  flag.String(name+"-text-at", "", "Text transform x,y[,scale[,rotation]] in percent/degrees"),
		image:   flag.String(name+"-image", "", "Image path or asset name on the "+name),
		imageAt: flag.String(name+"-image-at", "", "Image transform x,y[,scale[,rotation]]"),
	}
}

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config file (.json or .yaml)")
	assetDir := flag.String("assets", "", "Asset directory (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: exports next to assets)")
	format := flag.String("format", "", "Export format: png or webp (default: png)")
	size := flag.Int("size", 0, "Texture size in pixels (default: 2048)")
	supersample := flag.Int("supersample", 0, "Supersampling factor (default: 1)")
	base := flag.String("base", "#ffffff", "Base garment color")
	textColor := flag.String("text-color", "#000000", "Text color")
	family := flag.String("font", garment.DefaultFontFamily, "Font family: "+strings.Join(fonts.Families, ", "))
	unit := flag.Float64("font-size", 0, "Font size unit (default: 8)")
	user := flag.String("user", "", "User id recorded in the export manifest")
	email := flag.String("email", "", "User email recorded in the export manifest")
	verbose := flag.Bool("v", false, "Debug logging")
	front := registerSide("front")
	back := registerSide("back")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Load config
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
		ExportFormat: *format,
		TextureSize:  *size,
		Supersample:  *supersample,
	})

	outFormat, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *unit <= 0 {
		*unit = float64(cfg.FontSizeUnit)
	}

	garmentCfg, err := buildConfig(*base, *textColor, *family, *unit, map[garment.Side]sideFlags{
		garment.Front: front,
		garment.Back:  back,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Build texture index
	index := texture.BuildIndex(cfg.AssetDir)
	cache := texture.NewCache(index)
	fmt.Printf("Assets: %d indexed (%s)\n", index.Len(), cfg.AssetDir)
	fmt.Printf("Texture: %dx%d, supersample %d, %s\n", cfg.TextureSize, cfg.TextureSize, cfg.Supersample, outFormat)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()
	comp := compositor.New(cfg.TextureSize, cache, nil)
	comp.Supersample = cfg.Supersample
	res, err := comp.Compose(context.Background(), garmentCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rec := export.Record{User: *user, Email: *email}
	for _, w := range res.Warnings {
		rec.Warnings = append(rec.Warnings, w.String())
	}
	now := time.Now().UTC()
	path, err := export.Write(cfg.OutputDir, export.Name(0, now), res.Image, outFormat, rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
	fmt.Printf("Texture: %s\n", path)
	if len(rec.Warnings) > 0 {
		fmt.Printf("\nSkipped layers (%d):\n", len(rec.Warnings))
		for _, w := range rec.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}
}

// buildConfig starts from the default garment and applies the flags.
func buildConfig(base, textColor, family string, unit float64, sides map[garment.Side]sideFlags) (garment.Config, error) {
	cfg := garment.Default()

	bc, err := garment.ParseHex(base)
	if err != nil {
		return cfg, err
	}
	tc, err := garment.ParseHex(textColor)
	if err != nil {
		return cfg, err
	}
	if !fonts.Known(family) {
		return cfg, fmt.Errorf("%w: %q", fonts.ErrUnknownFamily, family)
	}
	intents := []garment.Intent{garment.SetBaseColor{Color: bc}}

	for _, side := range garment.Sides {
		f := sides[side]
		intents = append(intents, garment.SetTextStyle{Side: side, Color: &tc, FontFamily: family, FontSizeUnit: unit})
		switch *f.text {
		case "":
		case "-":
			intents = append(intents, garment.DeleteElement{Side: side, Element: garment.TextElementKind})
		default:
			intents = append(intents, garment.SetText{Side: side, Content: *f.text})
		}
		if *f.image != "" {
			intents = append(intents, garment.SetImage{Side: side, Source: *f.image})
		}
		for kind, at := range map[garment.ElementKind]string{
			garment.TextElementKind:  *f.textAt,
			garment.ImageElementKind: *f.imageAt,
		} {
			if at == "" {
				continue
			}
			p, err := parsePatch(at)
			if err != nil {
				return cfg, fmt.Errorf("%s %s: %w", side, kind, err)
			}
			intents = append(intents, garment.SetTransform{Side: side, Element: kind, Patch: p})
		}
	}

	for _, in := range intents {
		cfg = garment.Reduce(cfg, in)
	}
	return cfg, nil
}

// parsePatch parses "x,y[,scale[,rotation]]".
func parsePatch(s string) (garment.Patch, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 4 {
		return garment.Patch{}, fmt.Errorf("transform %q: want x,y[,scale[,rotation]]", s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return garment.Patch{}, fmt.Errorf("transform %q: %w", s, err)
		}
		vals[i] = v
	}
	p := garment.Position(vals[0], vals[1])
	if len(vals) > 2 {
		p.Scale = &vals[2]
	}
	if len(vals) > 3 {
		p.Rotation = &vals[3]
	}
	return p, nil
}
