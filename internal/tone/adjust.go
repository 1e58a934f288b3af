// Package tone implements per-pixel color transforms: brightness, contrast
// and saturation adjustments, and the grayscale, sepia, warm, cool,
// posterize and blur filters.
//
// Every transform reads and writes only the R, G and B samples of each
// pixel; alpha is never modified. Transforms mutate the buffer in place and
// are deterministic.
package tone

import (
	"fmt"
	"strings"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// ContrastModel selects the contrast formula.
type ContrastModel int

const (
	// ContrastLinear scales the distance from mid-gray by (k+100)/100,
	// where k is the contrast value and 0 is identity.
	ContrastLinear ContrastModel = iota

	// ContrastCurve uses the 259-based correction factor
	// 259(k'+255) / (255(259-k')) with k' = 1 + k/100.
	ContrastCurve
)

func (m ContrastModel) String() string {
	switch m {
	case ContrastLinear:
		return "linear"
	case ContrastCurve:
		return "curve"
	}
	return fmt.Sprintf("ContrastModel(%d)", int(m))
}

// ParseContrastModel maps "linear" or "curve" to a ContrastModel; the empty
// string selects ContrastLinear.
func ParseContrastModel(s string) (ContrastModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return ContrastLinear, nil
	case "curve":
		return ContrastCurve, nil
	}
	return 0, fmt.Errorf("unknown contrast model %q", s)
}

// Adjustment ranges. Values outside them are clamped, not rejected.
const (
	MinBrightness = 0
	MaxBrightness = 200
	MinContrast   = -100
	MaxContrast   = 100
	MinSaturation = 0
	MaxSaturation = 200
)

// Adjustment holds brightness, contrast and saturation settings.
//
// Brightness and Saturation are percentages with 100 as identity.
// Contrast is centered at 0 (identity); use ContrastFromCentered to convert
// a 0..200 slider whose identity is 100.
type Adjustment struct {
	Brightness    int
	Contrast      int
	Saturation    int
	ContrastModel ContrastModel
	LumaModel     imaging.LumaModel
}

// Identity returns the adjustment that leaves every pixel unchanged.
func Identity() Adjustment {
	return Adjustment{Brightness: 100, Contrast: 0, Saturation: 100}
}

// ContrastFromCentered converts a contrast value centered at 100 (the
// 0..200 slider convention) to the 0-centered value used by Adjustment.
func ContrastFromCentered(v int) int { return v - 100 }

// Clamped returns a copy with every field forced into its range.
func (a Adjustment) Clamped() Adjustment {
	a.Brightness = clampInt(a.Brightness, MinBrightness, MaxBrightness)
	a.Contrast = clampInt(a.Contrast, MinContrast, MaxContrast)
	a.Saturation = clampInt(a.Saturation, MinSaturation, MaxSaturation)
	return a
}

// IsIdentity reports whether the (clamped) adjustment is a no-op.
func (a Adjustment) IsIdentity() bool {
	c := a.Clamped()
	return c.Brightness == 100 && c.Contrast == 0 && c.Saturation == 100
}

func (a Adjustment) contrastFactor() float64 {
	k := float64(a.Contrast)
	if a.ContrastModel == ContrastCurve {
		kp := 1 + k/100
		return 259 * (kp + 255) / (255 * (259 - kp))
	}
	return (k + 100) / 100
}

// Adjust applies brightness, then contrast around mid-gray 128, then
// saturation around the pixel's luma. Intermediate values stay in floating
// point; the result is rounded and clamped once per channel.
func Adjust(buf *imaging.Buffer, adj Adjustment) *imaging.Buffer {
	adj = adj.Clamped()
	if adj.IsIdentity() && adj.ContrastModel == ContrastLinear {
		return buf
	}

	bright := float64(adj.Brightness) / 100
	contrast := adj.contrastFactor()
	sat := float64(adj.Saturation) / 100

	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r := float64(pix[i]) * bright
		g := float64(pix[i+1]) * bright
		b := float64(pix[i+2]) * bright

		r = (r-128)*contrast + 128
		g = (g-128)*contrast + 128
		b = (b-128)*contrast + 128

		gray := imaging.Luma(r, g, b, adj.LumaModel)
		r = gray + (r-gray)*sat
		g = gray + (g-gray)*sat
		b = gray + (b-gray)*sat

		pix[i] = imaging.ClampByte(r)
		pix[i+1] = imaging.ClampByte(g)
		pix[i+2] = imaging.ClampByte(b)
	}
	return buf
}

// Brightness scales every channel by pct/100.
func Brightness(buf *imaging.Buffer, pct int) *imaging.Buffer {
	a := Identity()
	a.Brightness = pct
	return Adjust(buf, a)
}

// Contrast stretches channels away from (or toward) mid-gray.
func Contrast(buf *imaging.Buffer, k int, model ContrastModel) *imaging.Buffer {
	a := Identity()
	a.Contrast = k
	a.ContrastModel = model
	return Adjust(buf, a)
}

// Saturation scales each channel's distance from the pixel's luma by pct/100.
func Saturation(buf *imaging.Buffer, pct int, model imaging.LumaModel) *imaging.Buffer {
	a := Identity()
	a.Saturation = pct
	a.LumaModel = model
	return Adjust(buf, a)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
