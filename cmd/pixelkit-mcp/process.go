package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
	"github.com/ironsheep/pixelkit-mcp/internal/kernel"
	"github.com/ironsheep/pixelkit-mcp/internal/pipeline"
	"github.com/ironsheep/pixelkit-mcp/internal/tone"
)

// process command flags
var (
	inFlag         string
	outFlag        string
	formatFlag     string
	qualityFlag    float64
	brightnessFlag int
	contrastFlag   int
	saturationFlag int
	filterFlag     string
	intensityFlag  int
	rotationFlag   float64
	scaleFlag      float64
	featureFlag    string
	levelFlag      int
	colorFlag      string
	styleFlag      string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the transform pipeline once on a file",
	Long: `Process decodes one image, applies the requested transforms and writes the result.

Only the stages whose flags are given run, always in the order geometry,
filter, adjustment, ai feature.

Examples:
  pixelkit-mcp process -i photo.jpg -o out.png --brightness 120 --contrast 15
  pixelkit-mcp process -i portrait.png -o clean.png --feature background --color "#00FF00"
  pixelkit-mcp process -i scan.png -o tilted.jpg --rotation 12 --scale 90 --quality 0.85`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&inFlag, "in", "i", "", "Source image file")
	f.StringVarP(&outFlag, "out", "o", "", "Destination file")
	f.StringVarP(&formatFlag, "format", "f", "", "Output format (default: from the --out extension)")
	f.Float64VarP(&qualityFlag, "quality", "q", pipeline.DefaultQuality, "JPEG quality 0..1")
	f.IntVar(&brightnessFlag, "brightness", 100, "Brightness percent 0..200")
	f.IntVar(&contrastFlag, "contrast", 0, "Contrast -100..100")
	f.IntVar(&saturationFlag, "saturation", 100, "Saturation percent 0..200")
	f.StringVar(&filterFlag, "filter", "", "Filter: grayscale, sepia, warm, cool, posterize, blur")
	f.IntVar(&intensityFlag, "intensity", 100, "Filter intensity 0..100")
	f.Float64Var(&rotationFlag, "rotation", 0, "Rotation in degrees -180..180")
	f.Float64Var(&scaleFlag, "scale", 100, "Scale percent 10..200")
	f.StringVar(&featureFlag, "feature", "", "AI feature: enhance, restore, retouch, background, style")
	f.IntVar(&levelFlag, "level", 50, "AI feature level 0..100")
	f.StringVar(&colorFlag, "color", "", "Background replacement color (#RRGGBB)")
	f.StringVar(&styleFlag, "style", "", "Style preset: anime, vintage, noir, sketch, emboss, oil")
	_ = processCmd.MarkFlagRequired("in")
	_ = processCmd.MarkFlagRequired("out")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	transforms, err := transformsFromFlags(cmd)
	if err != nil {
		return err
	}

	format := cfg.DefaultFormat
	switch {
	case formatFlag != "":
		if format, err = imaging.ParseFormat(formatFlag); err != nil {
			return err
		}
	case filepath.Ext(outFlag) != "":
		if f, err := imaging.ParseFormat(filepath.Ext(outFlag)); err == nil {
			format = f
		}
	}

	src, err := imaging.LoadFile(inFlag)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Options{
		MaxPixels:      cfg.MaxPixels,
		DefaultFormat:  cfg.DefaultFormat,
		DefaultQuality: cfg.DefaultQuality,
	})
	req := p.NewRequest(src, transforms...)
	req.Format = format
	if cmd.Flags().Changed("quality") {
		req.Quality = qualityFlag
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ToolTimeout)
	defer cancel()

	res, err := p.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("processing %s failed (%s): %w", inFlag, res.Failure, err)
	}
	if err := res.Artifact.WriteFile(outFlag); err != nil {
		return err
	}

	ev := log.Info().
		Str("run_id", res.RunID).
		Str("out", outFlag).
		Int("width", res.Artifact.Width).
		Int("height", res.Artifact.Height).
		Int("bytes", res.Artifact.Size())
	if res.Background != nil {
		ev = ev.Int("background_replaced", res.Background.Replaced)
	}
	ev.Msg("Wrote image")
	return nil
}

// transformsFromFlags builds one transform per stage whose flags were set.
func transformsFromFlags(cmd *cobra.Command) ([]pipeline.Transform, error) {
	changed := func(names ...string) bool {
		for _, n := range names {
			if cmd.Flags().Changed(n) {
				return true
			}
		}
		return false
	}

	var ts []pipeline.Transform
	if changed("rotation", "scale") {
		ts = append(ts, pipeline.GeometryConfig{RotationDeg: rotationFlag, ScalePct: scaleFlag})
	}
	if filterFlag != "" {
		kind, err := tone.ParseFilterKind(filterFlag)
		if err != nil {
			return nil, err
		}
		ts = append(ts, pipeline.FilterConfig{Kind: kind, Intensity: intensityFlag})
	}
	if changed("brightness", "contrast", "saturation") {
		ts = append(ts, pipeline.AdjustmentConfig{
			Brightness: brightnessFlag,
			Contrast:   contrastFlag,
			Saturation: saturationFlag,
		})
	}
	if featureFlag != "" {
		kind, err := pipeline.ParseAIFeatureKind(featureFlag)
		if err != nil {
			return nil, err
		}
		ts = append(ts, pipeline.AIFeatureConfig{
			Kind:  kind,
			Level: levelFlag,
			Color: colorFlag,
			Style: kernel.StylePreset(styleFlag),
		})
	}
	return ts, nil
}
