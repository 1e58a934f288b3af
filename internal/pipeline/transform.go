package pipeline

import (
	"fmt"
	"strings"

	"github.com/ironsheep/pixelkit-mcp/internal/geometry"
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
	"github.com/ironsheep/pixelkit-mcp/internal/kernel"
	"github.com/ironsheep/pixelkit-mcp/internal/tone"
)

// Family groups transforms that share a pipeline stage. A request may carry
// at most one transform per family.
type Family int

// Families in dispatch order.
const (
	FamilyGeometry Family = iota
	FamilyFilter
	FamilyAdjustment
	FamilyAI
)

func (f Family) String() string {
	switch f {
	case FamilyGeometry:
		return "geometry"
	case FamilyFilter:
		return "filter"
	case FamilyAdjustment:
		return "adjustment"
	case FamilyAI:
		return "ai feature"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// Transform is one requested pixel operation. The set of implementations is
// closed: AdjustmentConfig, FilterConfig, GeometryConfig and AIFeatureConfig.
type Transform interface {
	// Family reports the stage the transform runs in.
	Family() Family
	// Validate checks the configuration without touching any buffer.
	Validate() error

	sealed()
}

// AdjustmentConfig requests a brightness/contrast/saturation adjustment.
// Brightness and Saturation are percentages (100 = identity), Contrast is
// centered at 0. Out-of-range values are clamped.
type AdjustmentConfig struct {
	Brightness    int                `json:"brightness"`
	Contrast      int                `json:"contrast"`
	Saturation    int                `json:"saturation"`
	ContrastModel tone.ContrastModel `json:"-"`
	LumaModel     imaging.LumaModel  `json:"-"`
}

// DefaultAdjustment returns the identity adjustment.
func DefaultAdjustment() AdjustmentConfig {
	return AdjustmentConfig{Brightness: 100, Contrast: 0, Saturation: 100}
}

func (AdjustmentConfig) Family() Family { return FamilyAdjustment }
func (AdjustmentConfig) sealed()        {}

// Validate rejects unknown model selectors; numeric fields are clamped later.
func (c AdjustmentConfig) Validate() error {
	if c.ContrastModel != tone.ContrastLinear && c.ContrastModel != tone.ContrastCurve {
		return imaging.NewConfigError("contrast_model", "unknown model %d", int(c.ContrastModel))
	}
	switch c.LumaModel {
	case imaging.LumaPerceptual, imaging.LumaAverage, imaging.LumaRec601:
	default:
		return imaging.NewConfigError("luma_model", "unknown model %d", int(c.LumaModel))
	}
	return nil
}

func (c AdjustmentConfig) adjustment() tone.Adjustment {
	return tone.Adjustment{
		Brightness:    c.Brightness,
		Contrast:      c.Contrast,
		Saturation:    c.Saturation,
		ContrastModel: c.ContrastModel,
		LumaModel:     c.LumaModel,
	}
}

// FilterConfig requests one color filter at an intensity of 0..100.
type FilterConfig struct {
	Kind      tone.FilterKind `json:"kind"`
	Intensity int             `json:"intensity"`
}

func (FilterConfig) Family() Family { return FamilyFilter }
func (FilterConfig) sealed()        {}

// Validate rejects unknown filter kinds.
func (c FilterConfig) Validate() error {
	if _, err := tone.ParseFilterKind(string(c.Kind)); err != nil {
		return imaging.NewConfigError("filter", "%v", err)
	}
	return nil
}

// GeometryConfig requests a rotation (degrees, -180..180) and scale
// (percent, 10..200) about the image center.
type GeometryConfig struct {
	RotationDeg float64 `json:"rotation_deg"`
	ScalePct    float64 `json:"scale_pct"`
}

// DefaultGeometry returns the identity geometry.
func DefaultGeometry() GeometryConfig {
	return GeometryConfig{RotationDeg: 0, ScalePct: 100}
}

func (GeometryConfig) Family() Family { return FamilyGeometry }
func (GeometryConfig) sealed()        {}

// Validate enforces the rotation and scale ranges.
func (c GeometryConfig) Validate() error {
	return geometry.Validate(c.RotationDeg, c.ScalePct)
}

// AIFeatureKind names a kernel or edge-aware feature.
type AIFeatureKind string

const (
	AIEnhance    AIFeatureKind = "enhance"
	AIRestore    AIFeatureKind = "restore"
	AIRetouch    AIFeatureKind = "retouch"
	AIBackground AIFeatureKind = "background"
	AIStyle      AIFeatureKind = "style"
)

// AIFeatureKinds lists every feature kind.
var AIFeatureKinds = []AIFeatureKind{AIEnhance, AIRestore, AIRetouch, AIBackground, AIStyle}

// ParseAIFeatureKind maps a feature name to its kind.
func ParseAIFeatureKind(s string) (AIFeatureKind, error) {
	v := AIFeatureKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range AIFeatureKinds {
		if v == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ai feature %q", s)
}

// AIFeatureConfig requests one feature. Level runs 0..100 and is clamped.
// Color is required for AIBackground, Style for AIStyle.
type AIFeatureConfig struct {
	Kind  AIFeatureKind      `json:"kind"`
	Level int                `json:"level"`
	Color string             `json:"color,omitempty"`
	Style kernel.StylePreset `json:"style,omitempty"`
}

func (AIFeatureConfig) Family() Family { return FamilyAI }
func (AIFeatureConfig) sealed()        {}

// Validate checks the kind and the parameters it requires.
func (c AIFeatureConfig) Validate() error {
	switch c.Kind {
	case AIEnhance, AIRestore, AIRetouch:
		return nil
	case AIBackground:
		if strings.TrimSpace(c.Color) == "" {
			return imaging.NewConfigError("color", "background replacement requires a color")
		}
		if _, err := imaging.ParseHexColor(c.Color); err != nil {
			return imaging.NewConfigError("color", "%v", err)
		}
		return nil
	case AIStyle:
		if c.Style == "" {
			return imaging.NewConfigError("style", "style feature requires a preset")
		}
		if _, err := kernel.ParseStylePreset(string(c.Style)); err != nil {
			return imaging.NewConfigError("style", "%v", err)
		}
		return nil
	}
	return imaging.NewConfigError("ai_feature", "unknown feature %q", c.Kind)
}

// Plan is a validated request, one slot per family.
type Plan struct {
	Geometry   *GeometryConfig
	Filter     *FilterConfig
	Adjustment *AdjustmentConfig
	AI         *AIFeatureConfig
}

// NewPlan validates transforms and orders them for dispatch.
//
// A nil entry, a second transform of the same family, or any invalid
// configuration yields *imaging.ConfigError.
func NewPlan(transforms []Transform) (*Plan, error) {
	p := &Plan{}
	for i, t := range transforms {
		t = deref(t)
		if t == nil {
			return nil, imaging.NewConfigError("transforms", "entry %d is nil", i)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		dup := false
		switch c := t.(type) {
		case GeometryConfig:
			dup = p.Geometry != nil
			p.Geometry = &c
		case FilterConfig:
			dup = p.Filter != nil
			p.Filter = &c
		case AdjustmentConfig:
			dup = p.Adjustment != nil
			p.Adjustment = &c
		case AIFeatureConfig:
			dup = p.AI != nil
			p.AI = &c
		}
		if dup {
			return nil, imaging.NewConfigError("transforms", "more than one %s transform", t.Family())
		}
	}
	return p, nil
}

// deref turns pointer configs into values so the dispatch switch only needs
// the value cases. Nil pointers come back as a nil Transform.
func deref(t Transform) Transform {
	switch c := t.(type) {
	case *GeometryConfig:
		if c != nil {
			return *c
		}
		return nil
	case *FilterConfig:
		if c != nil {
			return *c
		}
		return nil
	case *AdjustmentConfig:
		if c != nil {
			return *c
		}
		return nil
	case *AIFeatureConfig:
		if c != nil {
			return *c
		}
		return nil
	}
	return t
}

// Len returns the number of transforms in the plan.
func (p *Plan) Len() int {
	n := 0
	if p.Geometry != nil {
		n++
	}
	if p.Filter != nil {
		n++
	}
	if p.Adjustment != nil {
		n++
	}
	if p.AI != nil {
		n++
	}
	return n
}
