package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type stubRenderer struct {
	data   []byte
	err    error
	format diagram.Format
	key    string
}

func (s *stubRenderer) Render(_ context.Context, key, _, _ string, format diagram.Format) ([]byte, error) {
	s.key = key
	s.format = format
	return s.data, s.err
}

func TestFromPNGPageMatchesScaledRaster(t *testing.T) {
	for _, tc := range []struct {
		name  string
		w, h  int
		scale float64
	}{
		{"wide", 120, 40, 2},
		{"tall", 30, 90, 2},
		{"unit scale", 50, 50, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := New(nil, tc.scale).FromPNG(testPNG(t, tc.w, tc.h))
			require.NoError(t, err)

			assert.Equal(t, float64(tc.w)*tc.scale, doc.Width)
			assert.Equal(t, float64(tc.h)*tc.scale, doc.Height)
			assert.Equal(t, "diagram.pdf", doc.Filename)
			assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")), "missing PDF header")
		})
	}
}

func TestFromPNGRejectsGarbage(t *testing.T) {
	_, err := New(nil, 0).FromPNG([]byte("not a png"))
	assert.Error(t, err)
}

func TestExportRequestsPNG(t *testing.T) {
	stub := &stubRenderer{data: testPNG(t, 10, 8)}
	exp := New(stub, 0)
	assert.Equal(t, DefaultScale, exp.Scale())

	doc, err := exp.Export(context.Background(), "turn-9", "mermaid", "A-->B\n")
	require.NoError(t, err)

	assert.Equal(t, diagram.FormatPNG, stub.format)
	assert.Equal(t, "turn-9", stub.key)
	assert.Equal(t, 20.0, doc.Width)
	assert.Equal(t, 16.0, doc.Height)
}

func TestExportPassesRendererErrors(t *testing.T) {
	stub := &stubRenderer{err: diagram.ErrInvalidSyntax}
	_, err := New(stub, 2).Export(context.Background(), "k", "mermaid", "bad")
	assert.ErrorIs(t, err, diagram.ErrInvalidSyntax)
}
