package kernel

import (
	"math"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// Retouch smooths flat regions (skin) while preserving edges.
//
// With l = level/100 the window radius is max(1, floor(4l)). For each
// channel of every pixel at least radius away from all edges, the window
// mean and variance are computed and the pixel moves toward the mean by
// l*max(0, 1-stddev/128): low-variance areas are smoothed, textured areas
// barely change. Above l = 0.3 a contrast boost of (l-0.3)*1.4 around 128 is
// added to the same pixels.
func Retouch(buf *imaging.Buffer, level int) *imaging.Buffer {
	l := normLevel(level)
	if l <= 0 {
		return buf
	}
	radius := int(math.Floor(l * 4))
	if radius < 1 {
		radius = 1
	}
	w, h := buf.Width, buf.Height
	if w <= 2*radius || h <= 2*radius {
		return buf
	}

	boost := 0.0
	if l > 0.3 {
		boost = (l - 0.3) * 1.4
	}
	src := buf.Clone()
	n := float64((2*radius + 1) * (2*radius + 1))

	for y := radius; y < h-radius; y++ {
		for x := radius; x < w-radius; x++ {
			i := buf.Offset(x, y)
			for c := 0; c < 3; c++ {
				var sum, sumSq float64
				for ky := -radius; ky <= radius; ky++ {
					row := src.Offset(x-radius, y+ky) + c
					for kx := 0; kx <= 2*radius; kx++ {
						v := float64(src.Pix[row+kx*4])
						sum += v
						sumSq += v * v
					}
				}
				mean := sum / n
				variance := sumSq/n - mean*mean
				if variance < 0 {
					variance = 0
				}

				blend := l * math.Max(0, 1-math.Sqrt(variance)/128)
				orig := float64(src.Pix[i+c])
				v := orig + (mean-orig)*blend
				if boost > 0 {
					v = (v-128)*(1+boost) + 128
				}
				buf.Pix[i+c] = imaging.ClampByte(v)
			}
		}
	}
	return buf
}
