// Package export turns rendered diagrams into downloadable PDF documents.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
)

// Filename is the name offered to the browser for every export.
const Filename = "diagram.pdf"

// DefaultScale is the raster upscaling factor applied before embedding.
const DefaultScale = 2.0

var ErrEmptyRaster = errors.New("diagram raster is empty")

// Document is a generated PDF and the page size it was laid out on, in points.
type Document struct {
	Filename string
	Data     []byte
	Width    float64
	Height   float64
}

// Exporter rasterises a diagram through the renderer and wraps the raster
// in a single landscape page sized to the upscaled image.
type Exporter struct {
	renderer diagram.Renderer
	scale    float64
}

// New creates an Exporter. A non-positive scale selects DefaultScale.
func New(renderer diagram.Renderer, scale float64) *Exporter {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Exporter{renderer: renderer, scale: scale}
}

// Scale reports the upscaling factor.
func (e *Exporter) Scale() float64 {
	return e.scale
}

// Export renders the diagram identified by key as PNG and converts it.
func (e *Exporter) Export(ctx context.Context, key, language, source string) (*Document, error) {
	raw, err := e.renderer.Render(ctx, key, language, source, diagram.FormatPNG)
	if err != nil {
		return nil, err
	}
	return e.FromPNG(raw)
}

// FromPNG builds the document from an already rendered PNG raster. A raster
// of W x H pixels yields a page of W*scale x H*scale points.
func (e *Exporter) FromPNG(raw []byte) (*Document, error) {
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, ErrEmptyRaster
	}

	width := int(math.Round(float64(bounds.Dx()) * e.scale))
	height := int(math.Round(float64(bounds.Dy()) * e.scale))
	if width == 0 || height == 0 {
		return nil, ErrEmptyRaster
	}

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)

	var raster bytes.Buffer
	if err := png.Encode(&raster, scaled); err != nil {
		return nil, fmt.Errorf("encode raster: %w", err)
	}

	w, h := float64(width), float64(height)

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("my-chatbot", true)
	pdf.SetTitle("diagram", true)
	// Landscape pages take the size as (height, width).
	pdf.AddPageFormat("L", fpdf.SizeType{Wd: h, Ht: w})

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("diagram", opts, &raster)
	pdf.ImageOptions("diagram", 0, 0, w, h, false, opts, 0, "")

	pageW, pageH := pdf.GetPageSize()

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return &Document{
		Filename: Filename,
		Data:     out.Bytes(),
		Width:    pageW,
		Height:   pageH,
	}, nil
}
