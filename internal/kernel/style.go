package kernel

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
	"github.com/ironsheep/pixelkit-mcp/internal/tone"
)

// StylePreset names an artistic look.
type StylePreset string

const (
	StyleAnime   StylePreset = "anime"
	StyleVintage StylePreset = "vintage"
	StyleNoir    StylePreset = "noir"
	StyleSketch  StylePreset = "sketch"
	StyleEmboss  StylePreset = "emboss"
	StyleOil     StylePreset = "oil"
)

// StylePresets lists every preset.
var StylePresets = []StylePreset{StyleAnime, StyleVintage, StyleNoir, StyleSketch, StyleEmboss, StyleOil}

// ParseStylePreset maps a preset name to its StylePreset.
func ParseStylePreset(s string) (StylePreset, error) {
	v := StylePreset(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range StylePresets {
		if v == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown style preset %q", s)
}

func (p StylePreset) known() bool {
	for _, v := range StylePresets {
		if p == v {
			return true
		}
	}
	return false
}

// noirContrast is the linear contrast added by the noir preset.
const noirContrast = 40

// renderPreset is swapped out by tests that count renders.
var renderPreset = render

// Stylize renders preset and blends it with the original by level/100.
// Alpha is always taken from the input. An unknown preset is rejected even
// when level is zero; a zero level returns buf without rendering.
func Stylize(buf *imaging.Buffer, preset StylePreset, level int) (*imaging.Buffer, error) {
	if !preset.known() {
		return nil, imaging.NewConfigError("style", "unknown style preset %q", preset)
	}
	t := normLevel(level)
	if t <= 0 {
		return buf, nil
	}
	styled, err := renderPreset(buf.Clone(), preset)
	if err != nil {
		return nil, err
	}
	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = imaging.Mix(pix[i], float64(styled.Pix[i]), t)
		pix[i+1] = imaging.Mix(pix[i+1], float64(styled.Pix[i+1]), t)
		pix[i+2] = imaging.Mix(pix[i+2], float64(styled.Pix[i+2]), t)
	}
	return buf, nil
}

// render produces the full-strength look. The bild effects premultiply by
// alpha, so they run on an opaque copy and only the color samples are
// taken back.
func render(work *imaging.Buffer, preset StylePreset) (*imaging.Buffer, error) {
	switch preset {
	case StyleAnime:
		return tone.Posterize(work, 1), nil
	case StyleVintage:
		return tone.Warm(tone.Sepia(work, 1)), nil
	case StyleNoir:
		a := tone.Identity()
		a.Saturation = 0
		a.Contrast = noirContrast
		return tone.Adjust(work, a), nil
	case StyleSketch:
		edges := effect.EdgeDetection(work.OpaqueCopy(), 1)
		return withRGB(work, effect.Grayscale(effect.Invert(edges)))
	case StyleEmboss:
		return withRGB(work, effect.Emboss(work.OpaqueCopy()))
	case StyleOil:
		return withRGB(work, effect.Median(work.OpaqueCopy(), 2))
	}
	return nil, imaging.NewConfigError("style", "unknown style preset %q", preset)
}

func withRGB(work *imaging.Buffer, img image.Image) (*imaging.Buffer, error) {
	if err := work.CopyRGB(imaging.FromImage(img)); err != nil {
		return nil, err
	}
	return work, nil
}
