// Package geometry rotates and scales a buffer about its center.
//
// The canvas never changes size: content rotated or scaled past the frame is
// cropped, and uncovered areas become transparent black.
package geometry

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// Accepted parameter ranges, inclusive.
const (
	MinRotation = -180.0
	MaxRotation = 180.0
	MinScale    = 10.0
	MaxScale    = 200.0
)

// Validate checks rotation (degrees) and scale (percent) against their
// ranges. It never touches pixel data.
func Validate(rotationDeg, scalePct float64) error {
	if math.IsNaN(rotationDeg) || math.IsInf(rotationDeg, 0) {
		return imaging.NewConfigError("rotation", "must be a finite number")
	}
	if rotationDeg < MinRotation || rotationDeg > MaxRotation {
		return imaging.NewConfigError("rotation", "%g is outside %g..%g degrees", rotationDeg, MinRotation, MaxRotation)
	}
	if math.IsNaN(scalePct) || math.IsInf(scalePct, 0) {
		return imaging.NewConfigError("scale", "must be a finite number")
	}
	if scalePct < MinScale || scalePct > MaxScale {
		return imaging.NewConfigError("scale", "%g is outside %g..%g percent", scalePct, MinScale, MaxScale)
	}
	return nil
}

// IsIdentity reports whether the parameters leave the image unchanged.
func IsIdentity(rotationDeg, scalePct float64) bool {
	return rotationDeg == 0 && scalePct == 100
}

// Matrix returns the source-to-destination affine transform for a w x h
// canvas: translate the center to the origin, scale, rotate, translate back.
func Matrix(w, h int, rotationDeg, scalePct float64) f64.Aff3 {
	theta := rotationDeg * math.Pi / 180
	s := scalePct / 100
	sin, cos := math.Sincos(theta)
	cx, cy := float64(w)/2, float64(h)/2

	a, b := s*cos, -s*sin
	d, e := s*sin, s*cos
	return f64.Aff3{
		a, b, cx - a*cx - b*cy,
		d, e, cy - d*cx - e*cy,
	}
}

// Apply redraws buf through the rotation and scale, in place.
// Parameters are validated first; on a ConfigError buf is not modified.
func Apply(buf *imaging.Buffer, rotationDeg, scalePct float64) (*imaging.Buffer, error) {
	if err := Validate(rotationDeg, scalePct); err != nil {
		return nil, err
	}
	if IsIdentity(rotationDeg, scalePct) {
		return buf, nil
	}

	src := buf.Clone().NRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	m := Matrix(buf.Width, buf.Height, rotationDeg, scalePct)
	draw.BiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, nil)

	copy(buf.Pix, dst.Pix)
	return buf, nil
}
