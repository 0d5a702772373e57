// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

const nameFitz = "fitz"

// Fitz renders pages with MuPDF through go-fitz.
type Fitz struct{}

// NewFitz creates a MuPDF-backed rasterizer.
func NewFitz() *Fitz { return &Fitz{} }

func (f *Fitz) Name() string { return nameFitz }

// Verify always succeeds: MuPDF is linked into the binary.
func (f *Fitz) Verify() error { return nil }

func (f *Fitz) Rasterize(ctx context.Context, pdfPath string, dpi float64) ([]image.Image, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	pages := make([]image.Image, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		pages = append(pages, img)
	}

	return pages, nil
}
