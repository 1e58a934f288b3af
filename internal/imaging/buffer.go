package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Buffer is an in-memory raster of interleaved 8-bit RGBA samples.
//
// Pixels are stored row-major with no padding, so the sample for channel c
// of pixel (x, y) lives at Pix[(y*Width+x)*4+c]. The invariant
// len(Pix) == Width*Height*4 holds for every Buffer produced by this package.
//
// A Buffer is owned by the pipeline invocation that decoded it. Transforms
// mutate it in place; it is not safe to share between concurrent callers.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage copies any image.Image into a new Buffer.
//
// The result is non-premultiplied RGBA anchored at (0,0), regardless of the
// source's color model or bounds origin.
func FromImage(img image.Image) *Buffer {
	n := imaging.Clone(img)
	b := n.Bounds()
	buf := NewBuffer(b.Dx(), b.Dy())
	rowLen := buf.Width * 4
	for y := 0; y < buf.Height; y++ {
		copy(buf.Pix[y*rowLen:(y+1)*rowLen], n.Pix[y*n.Stride:y*n.Stride+rowLen])
	}
	return buf
}

// Validate reports whether the buffer satisfies the length invariant.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil buffer")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("buffer length %d does not match %dx%dx4", len(b.Pix), b.Width, b.Height)
	}
	return nil
}

// Offset returns the index of the red sample of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]uint8, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// Equal reports whether both buffers have the same dimensions and samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Width == o.Width && b.Height == o.Height && bytes.Equal(b.Pix, o.Pix)
}

// NRGBA returns an *image.NRGBA view sharing the buffer's samples.
// Writes through the view are visible in the buffer.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// OpaqueCopy returns a copy of the buffer as an *image.NRGBA with every
// alpha sample set to 255. Filters that premultiply by alpha then see the
// color samples exactly as stored.
func (b *Buffer) OpaqueCopy() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// CopyRGB overwrites the color samples of b with those of src and keeps b's
// alpha. Both buffers must have the same dimensions.
func (b *Buffer) CopyRGB(src *Buffer) error {
	if b.Width != src.Width || b.Height != src.Height {
		return fmt.Errorf("dimension mismatch: %dx%d vs %dx%d", b.Width, b.Height, src.Width, src.Height)
	}
	for i := 0; i+3 < len(b.Pix); i += 4 {
		b.Pix[i] = src.Pix[i]
		b.Pix[i+1] = src.Pix[i+1]
		b.Pix[i+2] = src.Pix[i+2]
	}
	return nil
}

// CopyFrom overwrites the buffer's samples with those of src.
// Both buffers must have the same dimensions.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if b.Width != src.Width || b.Height != src.Height {
		return fmt.Errorf("dimension mismatch: %dx%d vs %dx%d", b.Width, b.Height, src.Width, src.Height)
	}
	copy(b.Pix, src.Pix)
	return nil
}

// Opaque reports whether every alpha sample is 255.
func (b *Buffer) Opaque() bool {
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] != 255 {
			return false
		}
	}
	return true
}
