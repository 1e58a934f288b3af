package detection

import (
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// BackgroundLevel is the per-channel value a non-edge pixel must exceed on
// R, G and B to be classified as background.
const BackgroundLevel = 240

// BackgroundStats summarizes one background replacement.
type BackgroundStats struct {
	// Replaced is the number of pixels recolored. Zero means the image had
	// no near-white background and was left unchanged.
	Replaced int `json:"replaced"`

	// Softened is the number of edge pixels that received the box blur.
	Softened int `json:"softened"`

	// EdgePixels is the number of pixels the Sobel pass marked as edges.
	EdgePixels int `json:"edge_pixels"`
}

// ReplaceBackground recolors the near-white background of buf with target.
//
// The pass runs in four steps:
//  1. Sobel edge map at DefaultEdgeThreshold.
//  2. Every non-edge pixel with R, G and B all above BackgroundLevel is
//     classified as background. Only light backgrounds are detected; a dark
//     or textured backdrop is left alone.
//  3. Background pixels take target's RGB. Alpha is untouched.
//  4. Edge pixels are replaced by the 3x3 box mean of the snapshot taken
//     before step 3, softening the boundary.
//
// When nothing is classified as background the buffer is returned unchanged
// and Replaced is zero. This is a normal outcome, not an error.
func ReplaceBackground(buf *imaging.Buffer, target imaging.RGBColor) (*imaging.Buffer, BackgroundStats) {
	edges := SobelEdges(buf, DefaultEdgeThreshold)
	stats := BackgroundStats{EdgePixels: edges.Count()}

	background := make([]bool, buf.Width*buf.Height)
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			if edges.At(x, y) {
				continue
			}
			i := buf.Offset(x, y)
			if buf.Pix[i] > BackgroundLevel && buf.Pix[i+1] > BackgroundLevel && buf.Pix[i+2] > BackgroundLevel {
				background[y*buf.Width+x] = true
				stats.Replaced++
			}
		}
	}
	if stats.Replaced == 0 {
		return buf, stats
	}

	snapshot := buf.Clone()
	for p, bg := range background {
		if !bg {
			continue
		}
		i := p * 4
		buf.Pix[i] = target.R
		buf.Pix[i+1] = target.G
		buf.Pix[i+2] = target.B
	}

	for y := 1; y < buf.Height-1; y++ {
		for x := 1; x < buf.Width-1; x++ {
			if !edges.At(x, y) {
				continue
			}
			i := buf.Offset(x, y)
			for c := 0; c < 3; c++ {
				sum := 0
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						sum += int(snapshot.Pix[snapshot.Offset(x+kx, y+ky)+c])
					}
				}
				buf.Pix[i+c] = imaging.ClampByte(float64(sum) / 9)
			}
			stats.Softened++
		}
	}
	return buf, stats
}
