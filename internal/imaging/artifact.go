package imaging

import (
	"encoding/base64"
	"fmt"
	"os"
)

// Artifact is the encoded output of one pipeline run: the same image as a
// binary blob (for download) and as Base64 text (for inline preview).
//
// Callers must treat an Artifact as immutable.
type Artifact struct {
	Data     []byte `json:"-"`
	Base64   string `json:"image_base64"`
	Format   Format `json:"format"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func newArtifact(data []byte, format Format, width, height int) *Artifact {
	return &Artifact{
		Data:     data,
		Base64:   base64.StdEncoding.EncodeToString(data),
		Format:   format,
		MimeType: format.MimeType(),
		Width:    width,
		Height:   height,
	}
}

// DataURL returns the Base64 text with a "data:<mime>;base64," header, the
// form browsers accept as an <img> src.
func (a *Artifact) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MimeType, a.Base64)
}

// Size is the length of the binary encoding in bytes.
func (a *Artifact) Size() int { return len(a.Data) }

// WriteFile stores the binary encoding at path.
func (a *Artifact) WriteFile(path string) error {
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}
