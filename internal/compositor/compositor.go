// Package compositor produces the square garment texture consumed by the 3D
// viewer: the front side fills the left half and the back side the right
// half, each clipped to its own region.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"garment-studio/internal/garment"
	"garment-studio/internal/postprocess"
	"garment-studio/internal/raster"
	"garment-studio/internal/texture"
)

// DefaultSize is the texture edge length in pixels.
const DefaultSize = 2048

// ErrSurfaceUnavailable is returned when no drawing surface of the requested
// size can be made.
var ErrSurfaceUnavailable = errors.New("compositor: drawing surface unavailable")

// Compositor renders configs into textures. The zero value is not usable;
// fill Size (or use New).
type Compositor struct {
	Size        int
	Supersample int
	Images      texture.Resolver
	Logger      *slog.Logger
}

// New returns a compositor for size×size textures.
func New(size int, images texture.Resolver, logger *slog.Logger) *Compositor {
	return &Compositor{Size: size, Supersample: 1, Images: images, Logger: logger}
}

// Result is one finished texture.
type Result struct {
	Image *image.RGBA
	// Warnings lists layers that were present but could not be drawn.
	Warnings []Warning
}

// Warning is a skipped layer on one side.
type Warning struct {
	Side garment.Side
	raster.Skipped
}

func (w Warning) String() string {
	return w.Side.String() + " " + w.Skipped.String()
}

// Regions returns the front and back regions of a size×size canvas.
func Regions(size int) map[garment.Side]image.Rectangle {
	half := size / 2
	return map[garment.Side]image.Rectangle{
		garment.Front: image.Rect(0, 0, half, size),
		garment.Back:  image.Rect(half, 0, size, size),
	}
}

// Compose renders cfg. The output depends only on cfg and the resolved
// images; identical inputs give identical pixels.
func (c *Compositor) Compose(ctx context.Context, cfg garment.Config) (Result, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	ss := max(c.Supersample, 1)
	if c.Size < 2 || c.Size%2 != 0 {
		return Result{}, fmt.Errorf("%w: size %d", ErrSurfaceUnavailable, c.Size)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	size := c.Size * ss
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	raster.Fill(canvas, canvas.Bounds(), cfg.BaseColor)

	regions := Regions(size)
	reports := make([]raster.Report, len(garment.Sides))
	var wg sync.WaitGroup
	for i, side := range garment.Sides {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = raster.DrawSide(canvas, regions[side], cfg.Side(side), c.Images, raster.DefaultOrder)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Image: canvas}
	for i, side := range garment.Sides {
		for _, s := range reports[i].Skipped {
			w := Warning{Side: side, Skipped: s}
			log.Warn("compositor: layer skipped", "layer", w.String())
			res.Warnings = append(res.Warnings, w)
		}
	}

	if ss > 1 {
		// each half is resampled on its own so the kernel cannot pull
		// pixels across the seam
		out := image.NewRGBA(image.Rect(0, 0, c.Size, c.Size))
		for side, dr := range Regions(c.Size) {
			postprocess.ScaleRect(out, dr, canvas, regions[side])
		}
		res.Image = out
	}
	return res, nil
}
