package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
	"github.com/ironsheep/pixelkit-mcp/internal/kernel"
	"github.com/ironsheep/pixelkit-mcp/internal/tone"
)

// pngSource encodes a solid w x h image as PNG.
func pngSource(t *testing.T, w, h int, c color.NRGBA) imaging.Source {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return imaging.FromBytes(out.Bytes())
}

// patternBuffer returns a deterministic opaque buffer with varied colors.
func patternBuffer(w, h int) *imaging.Buffer {
	buf := imaging.NewBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := buf.Offset(x, y)
			buf.Pix[i] = uint8(x * 37 % 256)
			buf.Pix[i+1] = uint8(y * 53 % 256)
			buf.Pix[i+2] = uint8((x*y*11 + 40) % 256)
			buf.Pix[i+3] = 255
		}
	}
	return buf
}

func TestRun_BackgroundReplacement(t *testing.T) {
	p := New(Options{})
	req := p.NewRequest(pngSource(t, 4, 4, color.NRGBA{255, 255, 255, 255}),
		AIFeatureConfig{Kind: AIBackground, Level: 50, Color: "#FF0000"})

	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.State != StateDone || res.Failure != FailureNone {
		t.Errorf("state = %s, failure = %q", res.State, res.Failure)
	}
	if res.RunID == "" {
		t.Error("missing run ID")
	}

	art := res.Artifact
	if art == nil || len(art.Data) == 0 || art.Base64 == "" {
		t.Fatal("artifact missing a representation")
	}
	if art.Base64 != base64.StdEncoding.EncodeToString(art.Data) {
		t.Error("Base64 does not encode Data")
	}
	if art.Format != imaging.FormatPNG || art.Width != 4 || art.Height != 4 {
		t.Errorf("artifact = %s %dx%d", art.Format, art.Width, art.Height)
	}

	if res.Background == nil || res.Background.Replaced != 16 {
		t.Errorf("background stats = %+v, want 16 replaced", res.Background)
	}

	buf, err := imaging.Decode(imaging.FromBytes(art.Data))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 255 || buf.Pix[i+1] != 0 || buf.Pix[i+2] != 0 || buf.Pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want (255,0,0,255)", i/4, buf.Pix[i:i+4])
		}
	}
}

func TestRun_ConfigErrorBeforeDecode(t *testing.T) {
	p := New(Options{})
	req := p.NewRequest(imaging.FromBytes([]byte("definitely not an image")),
		AIFeatureConfig{Kind: AIBackground, Level: 50})

	res, err := p.Run(context.Background(), req)

	var cfgErr *imaging.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if res == nil || res.State != StateFailed || res.Failure != FailureConfig {
		t.Errorf("result = %+v, want failed(config)", res)
	}
	if res.Artifact != nil {
		t.Error("failed run produced an artifact")
	}
}

func TestRun_DecodeFailure(t *testing.T) {
	p := New(Options{})
	res, err := p.Run(context.Background(), p.NewRequest(imaging.FromBytes([]byte("garbage"))))

	var decErr *imaging.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if res.State != StateFailed || res.Failure != FailureDecode {
		t.Errorf("state = %s, failure = %q", res.State, res.Failure)
	}
}

func TestRun_PixelCap(t *testing.T) {
	p := New(Options{MaxPixels: 10})
	_, err := p.Run(context.Background(), p.NewRequest(pngSource(t, 4, 4, color.NRGBA{1, 2, 3, 255})))
	if Classify(err) != FailureDecode {
		t.Errorf("expected decode failure for 16 pixels over a cap of 10, got %v", err)
	}
}

func TestRun_WebPEncodeFails(t *testing.T) {
	p := New(Options{})
	req := p.NewRequest(pngSource(t, 2, 2, color.NRGBA{10, 20, 30, 255}))
	req.Format = imaging.FormatWebP

	res, err := p.Run(context.Background(), req)
	var encErr *imaging.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if res.Failure != FailureEncode {
		t.Errorf("failure = %q, want encode", res.Failure)
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(Options{})
	res, err := p.Run(ctx, p.NewRequest(pngSource(t, 2, 2, color.NRGBA{10, 20, 30, 255})))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.State != StateFailed || res.Failure != FailureCanceled {
		t.Errorf("state = %s, failure = %q", res.State, res.Failure)
	}
}

func TestRun_Defaults(t *testing.T) {
	p := New(Options{DefaultFormat: imaging.FormatJPEG, DefaultQuality: 0.5})
	req := p.NewRequest(imaging.Source{})
	if req.Format != imaging.FormatJPEG || req.Quality != 0.5 {
		t.Errorf("request defaults = %s %g", req.Format, req.Quality)
	}

	d := New(Options{})
	if d.Codec().MaxPixels != imaging.DefaultMaxPixels {
		t.Errorf("MaxPixels = %d", d.Codec().MaxPixels)
	}
	req = d.NewRequest(imaging.Source{})
	if req.Format != imaging.FormatPNG || req.Quality != DefaultQuality {
		t.Errorf("request defaults = %s %g", req.Format, req.Quality)
	}
}

func TestRun_JPEGIdentityKeepsSize(t *testing.T) {
	p := New(Options{})
	req := p.NewRequest(pngSource(t, 5, 3, color.NRGBA{200, 100, 50, 255}),
		DefaultAdjustment(), DefaultGeometry())
	req.Format = imaging.FormatJPEG

	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact.MimeType != "image/jpeg" || res.Artifact.Width != 5 || res.Artifact.Height != 3 {
		t.Errorf("artifact = %s %dx%d", res.Artifact.MimeType, res.Artifact.Width, res.Artifact.Height)
	}
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name       string
		transforms []Transform
		wantErr    bool
		wantLen    int
	}{
		{"empty", nil, false, 0},
		{"all families", []Transform{
			AIFeatureConfig{Kind: AIEnhance, Level: 10},
			DefaultAdjustment(),
			FilterConfig{Kind: tone.FilterSepia, Intensity: 50},
			DefaultGeometry(),
		}, false, 4},
		{"pointer configs", []Transform{&GeometryConfig{ScalePct: 100}, &FilterConfig{Kind: tone.FilterBlur}}, false, 2},
		{"duplicate family", []Transform{DefaultAdjustment(), DefaultAdjustment()}, true, 0},
		{"nil entry", []Transform{nil}, true, 0},
		{"nil pointer", []Transform{(*GeometryConfig)(nil)}, true, 0},
		{"bad rotation", []Transform{GeometryConfig{RotationDeg: 181, ScalePct: 100}}, true, 0},
		{"bad filter", []Transform{FilterConfig{Kind: "vignette"}}, true, 0},
		{"style without preset", []Transform{AIFeatureConfig{Kind: AIStyle, Level: 50}}, true, 0},
		{"unknown style", []Transform{AIFeatureConfig{Kind: AIStyle, Style: "cubist"}}, true, 0},
		{"bad color", []Transform{AIFeatureConfig{Kind: AIBackground, Color: "red"}}, true, 0},
		{"unknown feature", []Transform{AIFeatureConfig{Kind: "upscale"}}, true, 0},
		{"unknown luma model", []Transform{AdjustmentConfig{Brightness: 100, Saturation: 100, LumaModel: 9}}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlan(tt.transforms)
			if tt.wantErr {
				var cfgErr *imaging.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", plan.Len(), tt.wantLen)
			}
		})
	}
}

func TestExecute_FixedOrder(t *testing.T) {
	filter := FilterConfig{Kind: tone.FilterPosterize, Intensity: 100}
	adjust := AdjustmentConfig{Brightness: 130, Contrast: 20, Saturation: 60}
	ai := AIFeatureConfig{Kind: AIEnhance, Level: 80}
	geo := GeometryConfig{RotationDeg: 0, ScalePct: 100}

	// Listed backwards; dispatch must still be geometry, filter, adjustment, ai.
	plan, err := NewPlan([]Transform{ai, adjust, filter, geo})
	if err != nil {
		t.Fatal(err)
	}
	got, stats, err := Execute(patternBuffer(9, 9), plan)
	if err != nil {
		t.Fatal(err)
	}
	if stats != nil {
		t.Error("stats set without background replacement")
	}

	want := patternBuffer(9, 9)
	want, _ = ApplyGeometry(want, geo)
	want, _ = ApplyFilter(want, filter)
	want = ApplyAdjustment(want, adjust)
	want, _ = ApplyAIFeature(want, ai)

	if !got.Equal(want) {
		t.Error("execution order differs from geometry, filter, adjustment, ai")
	}
}

func TestApplyAIFeature_Dispatch(t *testing.T) {
	tests := []struct {
		cfg  AIFeatureConfig
		want func(*imaging.Buffer) *imaging.Buffer
	}{
		{AIFeatureConfig{Kind: AIEnhance, Level: 70}, func(b *imaging.Buffer) *imaging.Buffer { return kernel.Enhance(b, 70) }},
		{AIFeatureConfig{Kind: AIRestore, Level: 70}, func(b *imaging.Buffer) *imaging.Buffer { return kernel.Denoise(b, 70) }},
		{AIFeatureConfig{Kind: AIRetouch, Level: 70}, func(b *imaging.Buffer) *imaging.Buffer { return kernel.Retouch(b, 70) }},
		{AIFeatureConfig{Kind: AIStyle, Level: 70, Style: kernel.StyleNoir}, func(b *imaging.Buffer) *imaging.Buffer {
			out, _ := kernel.Stylize(b, kernel.StyleNoir, 70)
			return out
		}},
	}

	for _, tt := range tests {
		got, err := ApplyAIFeature(patternBuffer(10, 10), tt.cfg)
		if err != nil {
			t.Fatalf("%s: %v", tt.cfg.Kind, err)
		}
		if !got.Equal(tt.want(patternBuffer(10, 10))) {
			t.Errorf("%s: dispatched to the wrong kernel", tt.cfg.Kind)
		}
	}
}

func TestApplyGeometry_InvalidLeavesBuffer(t *testing.T) {
	buf := patternBuffer(4, 4)
	orig := buf.Clone()
	if _, err := ApplyGeometry(buf, GeometryConfig{RotationDeg: 181, ScalePct: 100}); err == nil {
		t.Fatal("expected error")
	}
	if !buf.Equal(orig) {
		t.Error("buffer modified")
	}
}

func TestParseAIFeatureKind(t *testing.T) {
	for _, k := range AIFeatureKinds {
		if got, err := ParseAIFeatureKind(string(k)); err != nil || got != k {
			t.Errorf("ParseAIFeatureKind(%q) = %q, %v", k, got, err)
		}
	}
	if got, _ := ParseAIFeatureKind(" Restore "); got != AIRestore {
		t.Errorf("got %q, want restore", got)
	}
	if _, err := ParseAIFeatureKind("upscale"); err == nil {
		t.Error("expected error")
	}
}
