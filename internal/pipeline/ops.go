package pipeline

import (
	"github.com/ironsheep/pixelkit-mcp/internal/detection"
	"github.com/ironsheep/pixelkit-mcp/internal/geometry"
	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
	"github.com/ironsheep/pixelkit-mcp/internal/kernel"
	"github.com/ironsheep/pixelkit-mcp/internal/tone"
)

// The functions below are the single-step operations a caller can compose
// without a Pipeline. Each Apply function mutates buf in place and returns
// it.

// Decode decodes src into a new buffer with the default codec.
func Decode(src imaging.Source) (*imaging.Buffer, error) {
	return imaging.Decode(src)
}

// Encode encodes buf with the default codec.
func Encode(buf *imaging.Buffer, format imaging.Format, quality float64) (*imaging.Artifact, error) {
	return imaging.Encode(buf, format, quality)
}

// ApplyAdjustment applies brightness, contrast and saturation.
func ApplyAdjustment(buf *imaging.Buffer, cfg AdjustmentConfig) *imaging.Buffer {
	return tone.Adjust(buf, cfg.adjustment())
}

// ApplyFilter applies one color filter.
func ApplyFilter(buf *imaging.Buffer, cfg FilterConfig) (*imaging.Buffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return tone.ApplyFilter(buf, tone.Filter{Kind: cfg.Kind, Intensity: cfg.Intensity})
}

// ApplyGeometry rotates and scales about the center. An out-of-range
// parameter yields *imaging.ConfigError and leaves buf untouched.
func ApplyGeometry(buf *imaging.Buffer, cfg GeometryConfig) (*imaging.Buffer, error) {
	return geometry.Apply(buf, cfg.RotationDeg, cfg.ScalePct)
}

// ApplyAIFeature runs one kernel or edge-aware feature.
func ApplyAIFeature(buf *imaging.Buffer, cfg AIFeatureConfig) (*imaging.Buffer, error) {
	out, _, err := applyAI(buf, cfg)
	return out, err
}

func applyAI(buf *imaging.Buffer, cfg AIFeatureConfig) (*imaging.Buffer, *detection.BackgroundStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	switch cfg.Kind {
	case AIEnhance:
		return kernel.Enhance(buf, cfg.Level), nil, nil
	case AIRestore:
		return kernel.Denoise(buf, cfg.Level), nil, nil
	case AIRetouch:
		return kernel.Retouch(buf, cfg.Level), nil, nil
	case AIBackground:
		target, err := imaging.ParseHexColor(cfg.Color)
		if err != nil {
			return nil, nil, imaging.NewConfigError("color", "%v", err)
		}
		out, stats := detection.ReplaceBackground(buf, target)
		return out, &stats, nil
	case AIStyle:
		preset, err := kernel.ParseStylePreset(string(cfg.Style))
		if err != nil {
			return nil, nil, imaging.NewConfigError("style", "%v", err)
		}
		out, err := kernel.Stylize(buf, preset, cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		return out, nil, nil
	}
	return nil, nil, imaging.NewConfigError("ai_feature", "unknown feature %q", cfg.Kind)
}
