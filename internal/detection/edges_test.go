package detection

import (
	"testing"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// fillBuffer returns an opaque w x h buffer of one color.
func fillBuffer(w, h int, r, g, b uint8) *imaging.Buffer {
	buf := imaging.NewBuffer(w, h)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, 255
	}
	return buf
}

func paint(buf *imaging.Buffer, x0, y0, x1, y1 int, r, g, b uint8) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := buf.Offset(x, y)
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = r, g, b
		}
	}
}

func TestSobelEdges_VerticalStep(t *testing.T) {
	buf := fillBuffer(5, 5, 255, 255, 255)
	paint(buf, 0, 0, 2, 5, 0, 0, 0)

	m := SobelEdges(buf, DefaultEdgeThreshold)

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := (x == 1 || x == 2) && y >= 1 && y <= 3
			if got := m.At(x, y); got != want {
				t.Errorf("At(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
	if m.Count() != 6 {
		t.Errorf("Count() = %d, want 6", m.Count())
	}
}

func TestSobelEdges_Uniform(t *testing.T) {
	m := SobelEdges(fillBuffer(6, 4, 90, 120, 30), DefaultEdgeThreshold)
	if m.Count() != 0 {
		t.Errorf("uniform image has %d edges", m.Count())
	}
}

func TestSobelEdges_Threshold(t *testing.T) {
	buf := fillBuffer(5, 5, 255, 255, 255)
	paint(buf, 0, 0, 2, 5, 0, 0, 0)

	// A hard black/white step has magnitude about 1020.
	if n := SobelEdges(buf, 2000).Count(); n != 0 {
		t.Errorf("threshold 2000: %d edges, want 0", n)
	}
	if n := SobelEdges(buf, 1000).Count(); n != 6 {
		t.Errorf("threshold 1000: %d edges, want 6", n)
	}
}

func TestSobelEdges_TinyBuffers(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {2, 2}, {2, 9}} {
		buf := imaging.NewBuffer(size[0], size[1])
		m := SobelEdges(buf, 0)
		if m.Width != size[0] || m.Height != size[1] || len(m.Edges) != size[0]*size[1] {
			t.Errorf("%v: map has wrong shape", size)
		}
		if m.Count() != 0 {
			t.Errorf("%v: buffer without interior has edges", size)
		}
	}
}

func TestEdgeMap_AtOutside(t *testing.T) {
	m := &EdgeMap{Width: 2, Height: 2, Edges: []bool{true, true, true, true}}
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if m.At(p[0], p[1]) {
			t.Errorf("At(%d,%d) outside the map reported an edge", p[0], p[1])
		}
	}
}

func TestRenderEdgeMap(t *testing.T) {
	m := &EdgeMap{Width: 2, Height: 1, Edges: []bool{true, false}}
	out := RenderEdgeMap(m)

	want := []uint8{255, 255, 255, 255, 0, 0, 0, 255}
	for i, v := range want {
		if out.Pix[i] != v {
			t.Fatalf("Pix = %v, want %v", out.Pix, want)
		}
	}
}
