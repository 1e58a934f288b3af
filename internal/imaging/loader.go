package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/evanoberholster/imagemeta"
)

// LoadFile reads an image file into a Source.
//
// Only the raw bytes are read; decoding is deferred to Decode so that each
// pipeline run gets its own freshly allocated Buffer.
func LoadFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open image: %w", err)
	}
	return FromBytes(data), nil
}

// SourceInfo contains metadata about an encoded image.
type SourceInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the container detected from the file contents: "png",
	// "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the color model carries transparency.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the length of the encoded data.
	SizeBytes int `json:"size_bytes"`

	// Camera fields come from EXIF when present.
	CameraMake  string `json:"camera_make,omitempty"`
	CameraModel string `json:"camera_model,omitempty"`
	DateTaken   string `json:"date_taken,omitempty"`
}

// Inspect reads dimensions, format and EXIF metadata without decoding pixels.
//
// Failures to parse the header are reported as *DecodeError. Missing or
// unreadable EXIF data is not an error; the camera fields stay empty.
func Inspect(src Source) (*SourceInfo, error) {
	data, err := src.Bytes()
	if err != nil {
		return nil, &DecodeError{Reason: "unreadable source", Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Reason: "empty source"}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("zero dimensions %dx%d", cfg.Width, cfg.Height)}
	}

	info := &SourceInfo{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     format,
		ColorDepth: "8-bit",
		SizeBytes:  len(data),
	}

	if p, ok := cfg.ColorModel.(color.Palette); ok {
		info.HasAlpha = paletteHasAlpha(p)
	} else {
		switch cfg.ColorModel {
		case color.RGBAModel, color.NRGBAModel:
			info.HasAlpha = true
		case color.RGBA64Model, color.NRGBA64Model:
			info.HasAlpha = true
			info.ColorDepth = "16-bit"
		case color.Gray16Model:
			info.ColorDepth = "16-bit"
		}
	}

	if format == "jpeg" || format == "tiff" {
		readExif(data, info)
	}
	return info, nil
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return true
		}
	}
	return false
}

func readExif(data []byte, info *SourceInfo) {
	e, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	info.CameraMake = strings.TrimSpace(e.Make)
	info.CameraModel = strings.TrimSpace(e.Model)
	if t := e.DateTimeOriginal(); !t.IsZero() {
		info.DateTaken = t.Format("2006-01-02T15:04:05")
	}
}
