package detection

import (
	"math"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// DefaultEdgeThreshold is the Sobel magnitude above which a pixel counts as
// an edge during background replacement.
const DefaultEdgeThreshold = 30.0

// EdgeMap holds one edge/no-edge flag per pixel of the buffer it was
// computed from. Edges[y*Width+x] is true for an edge at (x, y).
type EdgeMap struct {
	Width  int
	Height int
	Edges  []bool
}

// At reports whether (x, y) is an edge. Coordinates outside the map are not.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Edges[y*m.Width+x]
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, e := range m.Edges {
		if e {
			n++
		}
	}
	return n
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// SobelEdges computes the Sobel gradient magnitude of the buffer's luma and
// marks pixels whose magnitude exceeds threshold.
//
// Luma uses ITU-R BT.601 weights on the 0..255 scale, so a hard black/white
// step yields a magnitude of about 1020. Border pixels have no full 3x3
// neighborhood and are never marked.
func SobelEdges(buf *imaging.Buffer, threshold float64) *EdgeMap {
	w, h := buf.Width, buf.Height
	m := &EdgeMap{Width: w, Height: h, Edges: make([]bool, w*h)}
	if w < 3 || h < 3 {
		return m
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := buf.Offset(x, y)
			gray[y*w+x] = imaging.Luma(float64(buf.Pix[i]), float64(buf.Pix[i+1]), float64(buf.Pix[i+2]), imaging.LumaRec601)
		}
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := gray[(y+ky)*w+x+kx]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				m.Edges[y*w+x] = true
			}
		}
	}
	return m
}

// RenderEdgeMap draws the map as an opaque image: white edges on black.
func RenderEdgeMap(m *EdgeMap) *imaging.Buffer {
	out := imaging.NewBuffer(m.Width, m.Height)
	for i, e := range m.Edges {
		var v uint8
		if e {
			v = 255
		}
		o := i * 4
		out.Pix[o] = v
		out.Pix[o+1] = v
		out.Pix[o+2] = v
		out.Pix[o+3] = 255
	}
	return out
}
