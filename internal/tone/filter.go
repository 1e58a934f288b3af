package tone

import (
	"fmt"
	"math"
	"strings"

	dimaging "github.com/disintegration/imaging"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// FilterKind names a color filter.
type FilterKind string

const (
	FilterNone      FilterKind = "none"
	FilterGrayscale FilterKind = "grayscale"
	FilterSepia     FilterKind = "sepia"
	FilterWarm      FilterKind = "warm"
	FilterCool      FilterKind = "cool"
	FilterPosterize FilterKind = "posterize"
	FilterBlur      FilterKind = "blur"
)

// FilterKinds lists every supported filter in display order.
var FilterKinds = []FilterKind{
	FilterNone, FilterGrayscale, FilterSepia, FilterWarm, FilterCool, FilterPosterize, FilterBlur,
}

// ParseFilterKind maps a filter name to its kind. The empty string is FilterNone.
func ParseFilterKind(s string) (FilterKind, error) {
	v := FilterKind(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return FilterNone, nil
	}
	for _, k := range FilterKinds {
		if v == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Filter selects a filter and its strength.
//
// Intensity runs 0..100 and is clamped: 0 leaves the buffer bit-identical,
// 100 applies the filter unblended. Warm and cool ignore Intensity.
type Filter struct {
	Kind      FilterKind
	Intensity int
}

// PosterizeStep is the quantization step used by posterize.
const PosterizeStep = 32

// ApplyFilter runs f on buf in place.
func ApplyFilter(buf *imaging.Buffer, f Filter) (*imaging.Buffer, error) {
	intensity := clampInt(f.Intensity, 0, 100)
	t := float64(intensity) / 100

	switch f.Kind {
	case FilterNone, "":
		return buf, nil
	case FilterGrayscale:
		return Grayscale(buf, t), nil
	case FilterSepia:
		return Sepia(buf, t), nil
	case FilterWarm:
		return Warm(buf), nil
	case FilterCool:
		return Cool(buf), nil
	case FilterPosterize:
		return Posterize(buf, t), nil
	case FilterBlur:
		return Blur(buf, float64(intensity)/10), nil
	}
	return nil, imaging.NewConfigError("filter", "unknown filter %q", f.Kind)
}

// Grayscale sets each channel to the channel average, blended with the
// original by t in [0,1].
func Grayscale(buf *imaging.Buffer, t float64) *imaging.Buffer {
	if t <= 0 {
		return buf
	}
	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		gray := imaging.Luma(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]), imaging.LumaAverage)
		pix[i] = imaging.Mix(pix[i], gray, t)
		pix[i+1] = imaging.Mix(pix[i+1], gray, t)
		pix[i+2] = imaging.Mix(pix[i+2], gray, t)
	}
	return buf
}

// Sepia applies the classic sepia matrix, blended with the original by t.
func Sepia(buf *imaging.Buffer, t float64) *imaging.Buffer {
	if t <= 0 {
		return buf
	}
	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r, g, b := float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
		tr := math.Min(255, 0.393*r+0.769*g+0.189*b)
		tg := math.Min(255, 0.349*r+0.686*g+0.168*b)
		tb := math.Min(255, 0.272*r+0.534*g+0.131*b)
		pix[i] = imaging.Mix(pix[i], tr, t)
		pix[i+1] = imaging.Mix(pix[i+1], tg, t)
		pix[i+2] = imaging.Mix(pix[i+2], tb, t)
	}
	return buf
}

// Warm boosts red by 10% and cuts blue by 10%.
func Warm(buf *imaging.Buffer) *imaging.Buffer {
	return channelBias(buf, 1.1, 0.9)
}

// Cool cuts red by 10% and boosts blue by 10%.
func Cool(buf *imaging.Buffer) *imaging.Buffer {
	return channelBias(buf, 0.9, 1.1)
}

func channelBias(buf *imaging.Buffer, rMul, bMul float64) *imaging.Buffer {
	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = imaging.ClampByte(float64(pix[i]) * rMul)
		pix[i+2] = imaging.ClampByte(float64(pix[i+2]) * bMul)
	}
	return buf
}

// Posterize quantizes each channel to multiples of PosterizeStep, blended
// with the original by t.
func Posterize(buf *imaging.Buffer, t float64) *imaging.Buffer {
	if t <= 0 {
		return buf
	}
	pix := buf.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			pix[i+c] = imaging.Mix(pix[i+c], quantize(pix[i+c]), t)
		}
	}
	return buf
}

func quantize(v uint8) float64 {
	return math.Min(255, math.Round(float64(v)/PosterizeStep)*PosterizeStep)
}

// Blur applies a Gaussian blur with a standard deviation of radius pixels.
// Color channels are blurred as if the image were opaque and alpha is kept
// from the input, so a uniform region stays exactly uniform whatever its
// transparency.
func Blur(buf *imaging.Buffer, radius float64) *imaging.Buffer {
	if radius <= 0 {
		return buf
	}
	blurred := imaging.FromImage(dimaging.Blur(buf.OpaqueCopy(), radius))
	_ = buf.CopyRGB(blurred)
	return buf
}
