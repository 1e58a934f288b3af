// Package kernel implements neighborhood transforms: sharpening, denoising,
// variance-weighted skin smoothing and the style presets.
//
// # Border Policy
//
// A pixel whose window would read outside the buffer is skipped and keeps
// its input value. Sample indices are never clamped to the edge, so after
// Sharpen the first and last row and column are unchanged.
//
// # Determinism
//
// Every window reads from a snapshot of the input taken before the pass, so
// results do not depend on iteration order. Identical inputs always produce
// identical outputs.
package kernel

import (
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// sharpenKernel is the 3x3 Laplacian sharpening kernel.
var sharpenKernel = [3][3]float64{
	{0, -1, 0},
	{-1, 5, -1},
	{0, -1, 0},
}

// Sharpen convolves every interior pixel's RGB channels with sharpenKernel.
// The 1-pixel border is left unmodified.
func Sharpen(buf *imaging.Buffer) *imaging.Buffer {
	return sharpenBlend(buf, 1)
}

// Enhance sharpens and blends the result with the original by level/100.
// Level is clamped to 0..100; 0 is a no-op.
func Enhance(buf *imaging.Buffer, level int) *imaging.Buffer {
	return sharpenBlend(buf, normLevel(level))
}

func sharpenBlend(buf *imaging.Buffer, t float64) *imaging.Buffer {
	if t <= 0 || buf.Width < 3 || buf.Height < 3 {
		return buf
	}
	src := buf.Clone()
	w, h := buf.Width, buf.Height

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := buf.Offset(x, y)
			for c := 0; c < 3; c++ {
				var sum float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						k := sharpenKernel[ky+1][kx+1]
						if k == 0 {
							continue
						}
						sum += float64(src.Pix[src.Offset(x+kx, y+ky)+c]) * k
					}
				}
				buf.Pix[i+c] = imaging.Mix(src.Pix[i+c], sum, t)
			}
		}
	}
	return buf
}

// normLevel maps a 0..100 level onto 0..1, clamping out-of-range input.
func normLevel(level int) float64 {
	if level <= 0 {
		return 0
	}
	if level >= 100 {
		return 1
	}
	return float64(level) / 100
}
