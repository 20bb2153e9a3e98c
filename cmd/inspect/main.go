package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"garment-studio/internal/export"
	"garment-studio/internal/garment"
	"garment-studio/internal/texture"
)

func main() {
	tolerance := flag.Int("tol", 16, "Per-channel difference from the base color counted as ink")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-tol N] texture.png|texture.webp ...")
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := inspect(path, *tolerance); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(path string, tol int) error {
	img, err := texture.LoadImage(path)
	if err != nil {
		return err
	}
	b := img.Bounds()
	base := img.NRGBAAt(b.Min.X, b.Min.Y)
	fmt.Printf("%s: %dx%d, base %s\n", path, b.Dx(), b.Dy(), garment.Hex(base))
	if b.Dx() != b.Dy() || b.Dx()%2 != 0 {
		fmt.Println("  warning: not an even square texture")
	}

	half := b.Min.X + b.Dx()/2
	regions := map[garment.Side]image.Rectangle{
		garment.Front: image.Rect(b.Min.X, b.Min.Y, half, b.Max.Y),
		garment.Back:  image.Rect(half, b.Min.Y, b.Max.X, b.Max.Y),
	}
	for _, side := range garment.Sides {
		r := regions[side]
		ink := inkBounds(img, r, base, tol)
		if ink.Empty() {
			fmt.Printf("  %-5s empty\n", side)
			continue
		}
		cx := float64(ink.Min.X+ink.Max.X)/2 - float64(r.Min.X)
		cy := float64(ink.Min.Y+ink.Max.Y)/2 - float64(r.Min.Y)
		fmt.Printf("  %-5s ink %v, center (%.0f, %.0f) = (%.1f%%, %.1f%%)\n",
			side, ink, cx, cy, 100*cx/float64(r.Dx()), 100*cy/float64(r.Dy()))
	}

	sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if rec, err := export.ReadRecord(sidecar); err == nil {
		fmt.Printf("  revision %d, created %s", rec.Revision, rec.Created.Format("2006-01-02 15:04:05"))
		if rec.User != "" {
			fmt.Printf(", by %s <%s>", rec.User, rec.Email)
		}
		fmt.Println()
		for _, w := range rec.Warnings {
			fmt.Printf("  skipped: %s\n", w)
		}
	}
	return nil
}

// inkBounds returns the bounds of pixels in r that differ from base by more
// than tol in any channel.
func inkBounds(img *image.NRGBA, r image.Rectangle, base color.NRGBA, tol int) image.Rectangle {
	var out image.Rectangle
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if diff(c.R, base.R) > tol || diff(c.G, base.G) > tol || diff(c.B, base.B) > tol {
				out = out.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return out
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
