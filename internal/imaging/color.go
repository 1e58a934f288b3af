package imaging

import (
	"fmt"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Hex formats the color as "#RRGGBB".
func (c RGBColor) Hex() string {
	return strings.ToUpper(colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex())
}

// ParseHexColor parses "#RGB" or "#RRGGBB" (the leading '#' is optional).
//
// Alpha suffixes are rejected: background replacement only ever changes the
// color channels.
func ParseHexColor(s string) (RGBColor, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return RGBColor{}, fmt.Errorf("empty color string")
	}
	if v[0] != '#' {
		v = "#" + v
	}
	if len(v) != 4 && len(v) != 7 {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: want #RGB or #RRGGBB", s)
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGBColor{R: r, G: g, B: b}, nil
}

// LumaModel selects how a single brightness value is derived from RGB.
type LumaModel int

const (
	// LumaPerceptual weights channels 0.2989/0.5870/0.1140.
	LumaPerceptual LumaModel = iota
	// LumaAverage is the plain channel mean (R+G+B)/3.
	LumaAverage
	// LumaRec601 uses the ITU-R BT.601 weights 0.299/0.587/0.114.
	LumaRec601
)

func (m LumaModel) String() string {
	switch m {
	case LumaPerceptual:
		return "perceptual"
	case LumaAverage:
		return "average"
	case LumaRec601:
		return "rec601"
	}
	return fmt.Sprintf("LumaModel(%d)", int(m))
}

// ParseLumaModel maps "perceptual", "average" or "rec601" to a LumaModel.
// The empty string selects LumaPerceptual.
func ParseLumaModel(s string) (LumaModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "perceptual":
		return LumaPerceptual, nil
	case "average", "mean":
		return LumaAverage, nil
	case "rec601", "bt601":
		return LumaRec601, nil
	}
	return 0, fmt.Errorf("unknown luma model %q", s)
}

// Luma returns the brightness of (r,g,b) on the 0..255 scale.
func Luma(r, g, b float64, model LumaModel) float64 {
	switch model {
	case LumaAverage:
		return (r + g + b) / 3
	case LumaRec601:
		return 0.299*r + 0.587*g + 0.114*b
	default:
		return 0.2989*r + 0.5870*g + 0.1140*b
	}
}

// ClampByte rounds v to the nearest integer and clamps it to [0,255].
func ClampByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// Mix blends orig toward target by t in [0,1] and returns a clamped byte.
// t == 0 returns orig unchanged.
func Mix(orig uint8, target float64, t float64) uint8 {
	if t <= 0 {
		return orig
	}
	if t >= 1 {
		return ClampByte(target)
	}
	o := float64(orig)
	return ClampByte(o + (target-o)*t)
}
