package kernel

import (
	"testing"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// uniformBuffer returns an opaque w x h buffer with every channel set to v.
func uniformBuffer(w, h int, v uint8) *imaging.Buffer {
	buf := imaging.NewBuffer(w, h)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = v, v, v, 255
	}
	return buf
}

// noiseBuffer fills a buffer with deterministic pseudo-random samples.
func noiseBuffer(w, h int) *imaging.Buffer {
	buf := imaging.NewBuffer(w, h)
	seed := uint32(42)
	for i := range buf.Pix {
		seed = seed*1664525 + 1013904223
		buf.Pix[i] = uint8(seed >> 24)
	}
	return buf
}

func setGray(buf *imaging.Buffer, x, y int, v uint8) {
	i := buf.Offset(x, y)
	buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = v, v, v
}

func grayAt(buf *imaging.Buffer, x, y int) uint8 {
	return buf.Pix[buf.Offset(x, y)]
}

// bordersEqual reports whether every pixel within depth of an edge matches.
func bordersEqual(a, b *imaging.Buffer, depth int) bool {
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			if x >= depth && y >= depth && x < a.Width-depth && y < a.Height-depth {
				continue
			}
			i := a.Offset(x, y)
			for c := 0; c < 4; c++ {
				if a.Pix[i+c] != b.Pix[i+c] {
					return false
				}
			}
		}
	}
	return true
}

func TestSharpen_BorderPreserved(t *testing.T) {
	for _, size := range [][2]int{{3, 3}, {8, 5}, {17, 13}} {
		buf := noiseBuffer(size[0], size[1])
		orig := buf.Clone()
		Sharpen(buf)

		if !bordersEqual(buf, orig, 1) {
			t.Errorf("%dx%d: border changed by sharpen", size[0], size[1])
		}
		if buf.Equal(orig) {
			t.Errorf("%dx%d: interior was not sharpened", size[0], size[1])
		}
	}
}

func TestSharpen_UniformUnchanged(t *testing.T) {
	buf := uniformBuffer(6, 6, 77)
	want := buf.Clone()
	Sharpen(buf)
	if !buf.Equal(want) {
		t.Error("sharpen changed a uniform image")
	}
}

func TestSharpen_Values(t *testing.T) {
	tests := []struct {
		center, around uint8
		want           uint8
	}{
		{60, 50, 100},  // 5*60 - 4*50
		{100, 50, 255}, // 300 clamps
		{10, 50, 0},    // -150 clamps
	}

	for _, tt := range tests {
		buf := uniformBuffer(3, 3, tt.around)
		setGray(buf, 1, 1, tt.center)
		Sharpen(buf)
		if got := grayAt(buf, 1, 1); got != tt.want {
			t.Errorf("center %d around %d: got %d, want %d", tt.center, tt.around, got, tt.want)
		}
	}
}

func TestSharpen_SmallBuffersUntouched(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {2, 5}, {5, 2}} {
		buf := noiseBuffer(size[0], size[1])
		want := buf.Clone()
		Sharpen(buf)
		if !buf.Equal(want) {
			t.Errorf("%dx%d: buffer without interior changed", size[0], size[1])
		}
	}
}

func TestEnhance_Levels(t *testing.T) {
	zero := noiseBuffer(9, 9)
	want := zero.Clone()
	Enhance(zero, 0)
	if !zero.Equal(want) {
		t.Error("level 0 changed the buffer")
	}

	full := noiseBuffer(9, 9)
	sharp := full.Clone()
	Enhance(full, 100)
	Sharpen(sharp)
	if !full.Equal(sharp) {
		t.Error("level 100 differs from Sharpen")
	}

	over := noiseBuffer(9, 9)
	Enhance(over, 250)
	if !over.Equal(sharp) {
		t.Error("level above 100 should clamp to 100")
	}

	half := uniformBuffer(3, 3, 50)
	setGray(half, 1, 1, 60)
	Enhance(half, 50)
	// 60 + (100-60)*0.5
	if got := grayAt(half, 1, 1); got != 80 {
		t.Errorf("level 50: got %d, want 80", got)
	}
}

func TestDenoise(t *testing.T) {
	tests := []struct {
		name           string
		center, around uint8
		level          int
		want           uint8
	}{
		// weighted mean (4*255)/12 = 85; 255 + (85-255)*0.5
		{"bright center half", 255, 0, 50, 170},
		// smoothing alone gives 85; the edge term adds 255*(1-0.5)*2
		{"bright center full", 255, 0, 100, 255},
		// mean (8*200)/12 = 133.3; 0 + 133.3*0.5
		{"dark center half", 0, 200, 50, 67},
		// 133.3 - 200 clamps
		{"dark center full", 0, 200, 100, 0},
		// g = 10 is below the edge threshold: pure smoothing to (4*60+8*50)/12
		{"weak gradient full", 60, 50, 100, 53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := uniformBuffer(3, 3, tt.around)
			setGray(buf, 1, 1, tt.center)
			Denoise(buf, tt.level)
			if got := grayAt(buf, 1, 1); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDenoise_NoOpCases(t *testing.T) {
	zero := noiseBuffer(8, 8)
	want := zero.Clone()
	Denoise(zero, 0)
	if !zero.Equal(want) {
		t.Error("level 0 changed the buffer")
	}

	uniform := uniformBuffer(8, 8, 123)
	want = uniform.Clone()
	Denoise(uniform, 100)
	if !uniform.Equal(want) {
		t.Error("denoise changed a uniform image")
	}

	noisy := noiseBuffer(10, 7)
	orig := noisy.Clone()
	Denoise(noisy, 80)
	if !bordersEqual(noisy, orig, 1) {
		t.Error("denoise changed the border")
	}
}

func TestRetouch_NoOpCases(t *testing.T) {
	zero := noiseBuffer(8, 8)
	want := zero.Clone()
	Retouch(zero, 0)
	if !zero.Equal(want) {
		t.Error("level 0 changed the buffer")
	}

	// Uniform mid-gray has zero variance and sits on the contrast pivot.
	mid := uniformBuffer(12, 12, 128)
	want = mid.Clone()
	Retouch(mid, 100)
	if !mid.Equal(want) {
		t.Error("retouch changed uniform mid-gray")
	}

	// Below the boost threshold a uniform image is a fixed point.
	flat := uniformBuffer(12, 12, 90)
	want = flat.Clone()
	Retouch(flat, 30)
	if !flat.Equal(want) {
		t.Error("retouch changed a uniform image at level 30")
	}
}

func TestRetouch_BorderDependsOnRadius(t *testing.T) {
	// level 100 -> radius 4
	buf := noiseBuffer(14, 12)
	orig := buf.Clone()
	Retouch(buf, 100)
	if !bordersEqual(buf, orig, 4) {
		t.Error("pixels closer than the radius to an edge changed")
	}
	if buf.Equal(orig) {
		t.Error("interior was not retouched")
	}
}

func TestRetouch_SmoothsTowardMean(t *testing.T) {
	buf := uniformBuffer(5, 5, 100)
	setGray(buf, 2, 2, 110)
	Retouch(buf, 25)

	got := grayAt(buf, 2, 2)
	if got >= 110 || got <= 101 {
		t.Errorf("center: got %d, want strictly between the window mean and 110", got)
	}
}

func TestRetouch_ContrastBoost(t *testing.T) {
	// level 50: radius 2, only (2,2) is interior; blend leaves 200 as is,
	// boost (0.5-0.3)*1.4 = 0.28 gives (200-128)*1.28+128 = 220.16.
	buf := uniformBuffer(5, 5, 200)
	Retouch(buf, 50)
	if got := grayAt(buf, 2, 2); got != 220 {
		t.Errorf("center: got %d, want 220", got)
	}
	if got := grayAt(buf, 1, 1); got != 200 {
		t.Errorf("(1,1) is inside the radius margin and should be unchanged, got %d", got)
	}
}

func TestKernels_Deterministic(t *testing.T) {
	ops := map[string]func(*imaging.Buffer) *imaging.Buffer{
		"sharpen": Sharpen,
		"denoise": func(b *imaging.Buffer) *imaging.Buffer { return Denoise(b, 70) },
		"retouch": func(b *imaging.Buffer) *imaging.Buffer { return Retouch(b, 60) },
	}
	for name, op := range ops {
		a := op(noiseBuffer(11, 9))
		b := op(noiseBuffer(11, 9))
		if !a.Equal(b) {
			t.Errorf("%s is not deterministic", name)
		}
	}
}

func TestKernels_AlphaUntouched(t *testing.T) {
	ops := map[string]func(*imaging.Buffer) *imaging.Buffer{
		"sharpen": Sharpen,
		"denoise": func(b *imaging.Buffer) *imaging.Buffer { return Denoise(b, 100) },
		"retouch": func(b *imaging.Buffer) *imaging.Buffer { return Retouch(b, 100) },
	}
	for name, op := range ops {
		orig := noiseBuffer(12, 12)
		got := op(orig.Clone())
		for i := 3; i < len(orig.Pix); i += 4 {
			if got.Pix[i] != orig.Pix[i] {
				t.Errorf("%s changed alpha at sample %d", name, i)
				break
			}
		}
	}
}
