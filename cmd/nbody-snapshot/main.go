// Command nbody-snapshot renders one .gal frame as a top-down PNG scatter
// plot, for visually sanity-checking a run without a full movie player.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/gekko3d/nbody"
	"github.com/gekko3d/nbody/galfile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "nbody-snapshot:", err)
		os.Exit(1)
	}
}

func run() error {
	in := flag.String("in", "", ".gal snapshot to render (required)")
	out := flag.String("out", "snapshot.png", "output PNG path")
	size := flag.Int("size", 1024, "output image is size x size pixels")
	flag.Parse()

	if *in == "" {
		return fmt.Errorf("usage: nbody-snapshot -in frame.gal [-out snapshot.png] [-size 1024]")
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", *in, err)
	}
	state, err := galfile.Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}

	box, err := nbody.ComputeBoundingBox(state, 0.05)
	if err != nil {
		return fmt.Errorf("computing bounds: %w", err)
	}

	// Render at twice the requested size (capped at 4096 pixels), then
	// scale to the requested output size with x/image/draw's bilinear
	// filter — the one place in this repo that exercises golang.org/x/image.
	renderSize := *size * 2
	if renderSize > 4096 {
		renderSize = 4096
	}
	hi := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
	fillBackground(hi, color.Black)
	plotParticles(hi, state, box, renderSize)

	dst := image.NewRGBA(image.Rect(0, 0, *size, *size))
	draw.BiLinear.Scale(dst, dst.Bounds(), hi, hi.Bounds(), draw.Over, nil)

	outF, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	defer outF.Close()
	if err := png.Encode(outF, dst); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

func fillBackground(img *image.RGBA, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// plotParticles draws one pixel (brightened by Brightness) per particle,
// mapping the bounding box onto the image with Y flipped so larger world
// Y renders toward the top. Positions are projected relative to the
// box's center rather than its corner, so a particle sitting exactly on
// the center lands on the image's center pixel regardless of how the
// bounding box's margin was computed.
func plotParticles(img *image.RGBA, s *nbody.State, box nbody.BoundingBox, px int) {
	side := box.Side()
	if side <= 0 {
		return
	}
	center := box.Center()
	half := side / 2
	scale := float64(px) / side
	for i := 0; i < s.N(); i++ {
		x := int((s.PosX[i] - (center.X() - half)) * scale)
		y := int(((center.Y() + half) - s.PosY[i]) * scale)
		if x < 0 || x >= px || y < 0 || y >= px {
			continue
		}
		shade := uint8(128)
		if s.Brightness[i] > 0 {
			b := s.Brightness[i]
			if b > 1 {
				b = 1
			}
			shade = uint8(128 + 127*b)
		}
		img.Set(x, y, color.RGBA{R: shade, G: shade, B: 255, A: 255})
	}
}
