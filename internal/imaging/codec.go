package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Format identifies an output (or detected input) container format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
)

// MimeType returns the IANA media type for the format.
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// Lossless reports whether encoding in this format preserves every sample.
func (f Format) Lossless() bool {
	switch f {
	case FormatPNG, FormatBMP, FormatTIFF:
		return true
	}
	return false
}

// ParseFormat accepts a format name ("png"), a file extension (".jpg") or a
// MIME type ("image/jpeg").
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "image/")
	v = strings.TrimPrefix(v, ".")
	switch v {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// Source is a not-yet-decoded image: raw bytes, Base64 text, or a reader.
type Source struct {
	data   []byte
	text   string
	reader io.Reader
	kind   sourceKind
}

type sourceKind int

const (
	sourceNone sourceKind = iota
	sourceBytes
	sourceBase64
	sourceReader
)

// FromBytes wraps encoded image bytes (for example a file's contents).
func FromBytes(data []byte) Source { return Source{data: data, kind: sourceBytes} }

// FromBase64 wraps Base64 image text. A leading data URL header
// ("data:image/png;base64,") is accepted and stripped.
func FromBase64(text string) Source { return Source{text: text, kind: sourceBase64} }

// FromReader wraps a stream of encoded image bytes.
func FromReader(r io.Reader) Source { return Source{reader: r, kind: sourceReader} }

// IsZero reports whether the source was never set.
func (s Source) IsZero() bool { return s.kind == sourceNone }

// Bytes returns the encoded bytes behind the source.
func (s Source) Bytes() ([]byte, error) {
	switch s.kind {
	case sourceBytes:
		return s.data, nil
	case sourceBase64:
		return DecodeBase64Text(s.text)
	case sourceReader:
		return io.ReadAll(s.reader)
	}
	return nil, errors.New("no image source provided")
}

// DecodeBase64Text decodes Base64 image text, tolerating a data URL header,
// surrounding whitespace and missing padding.
func DecodeBase64Text(text string) ([]byte, error) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "data:") {
		comma := strings.IndexByte(t, ',')
		if comma < 0 || !strings.Contains(t[:comma], ";base64") {
			return nil, errors.New("data URL is not base64 encoded")
		}
		t = t[comma+1:]
	}
	t = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, t)
	if data, err := base64.StdEncoding.DecodeString(t); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(t, "="))
}

// Codec decodes and encodes Buffers within configured limits.
type Codec struct {
	// MaxPixels caps Width*Height for both decode and encode. Zero disables the cap.
	MaxPixels int
}

// DefaultMaxPixels is the pixel cap used by DefaultCodec (100 megapixels).
const DefaultMaxPixels = 100_000_000

// DefaultCodec is used by the package-level Decode and Encode functions.
var DefaultCodec = Codec{MaxPixels: DefaultMaxPixels}

// jpegMaxSide is the largest width or height a baseline JPEG can describe.
const jpegMaxSide = 65535

// Decode decodes src with DefaultCodec.
func Decode(src Source) (*Buffer, error) { return DefaultCodec.Decode(src) }

// Encode encodes buf with DefaultCodec.
func Encode(buf *Buffer, format Format, quality float64) (*Artifact, error) {
	return DefaultCodec.Encode(buf, format, quality)
}

// Decode turns src into a freshly allocated Buffer.
//
// EXIF orientation is applied so the buffer matches what a browser would
// display. Any failure is returned as *DecodeError.
func (c Codec) Decode(src Source) (*Buffer, error) {
	data, err := src.Bytes()
	if err != nil {
		return nil, &DecodeError{Reason: "unreadable source", Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Reason: "empty source"}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Reason: fmt.Sprintf("zero dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	if c.MaxPixels > 0 && cfg.Width*cfg.Height > c.MaxPixels {
		return nil, &DecodeError{Reason: fmt.Sprintf("image %dx%d exceeds %d pixel limit", cfg.Width, cfg.Height, c.MaxPixels)}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}
	buf := FromImage(img)
	if buf.Width == 0 || buf.Height == 0 {
		return nil, &DecodeError{Reason: "zero dimensions"}
	}
	return buf, nil
}

// Encode writes buf in the given format and returns both the binary and the
// Base64 representation.
//
// quality is clamped to [0,1] and only affects JPEG; lossless formats ignore
// it. WebP is decode-only in this codec stack and yields *EncodeError.
func (c Codec) Encode(buf *Buffer, format Format, quality float64) (*Artifact, error) {
	if err := buf.Validate(); err != nil {
		return nil, &EncodeError{Format: format, Reason: "malformed buffer", Err: err}
	}
	if c.MaxPixels > 0 && buf.Width*buf.Height > c.MaxPixels {
		return nil, &EncodeError{Format: format, Reason: fmt.Sprintf("buffer %dx%d exceeds %d pixel limit", buf.Width, buf.Height, c.MaxPixels)}
	}

	var (
		target imaging.Format
		opts   []imaging.EncodeOption
	)
	switch format {
	case FormatPNG:
		target = imaging.PNG
	case FormatJPEG:
		if buf.Width > jpegMaxSide || buf.Height > jpegMaxSide {
			return nil, &EncodeError{Format: format, Reason: fmt.Sprintf("dimensions %dx%d exceed JPEG limit of %d", buf.Width, buf.Height, jpegMaxSide)}
		}
		target = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(jpegQuality(quality)))
	case FormatGIF:
		target = imaging.GIF
	case FormatBMP:
		target = imaging.BMP
	case FormatTIFF:
		target = imaging.TIFF
	case FormatWebP:
		return nil, &EncodeError{Format: format, Reason: "no WebP encoder available"}
	default:
		return nil, &EncodeError{Format: format, Reason: "unsupported format"}
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, buf.NRGBA(), target, opts...); err != nil {
		return nil, &EncodeError{Format: format, Reason: "codec failure", Err: err}
	}
	return newArtifact(out.Bytes(), format, buf.Width, buf.Height), nil
}

// jpegQuality maps a 0..1 canvas-style quality onto the 1..100 JPEG scale.
func jpegQuality(q float64) int {
	if math.IsNaN(q) || q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	v := int(math.Round(q * 100))
	if v < 1 {
		v = 1
	}
	return v
}
