// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster renders PDF pages to in-memory images. Two backends are
// available: MuPDF linked in through go-fitz, and poppler's pdftoppm run as a
// subprocess.
package raster

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/pdiddy/pdfpng/pkg/types"
)

// Rasterizer renders every page of a PDF, in page order.
type Rasterizer interface {
	// Name returns the backend name ("fitz" or "pdftoppm").
	Name() string

	// Verify reports whether the backend is usable. It is called once when
	// the conversion engine is built.
	Verify() error

	// Rasterize renders all pages of the PDF at pdfPath at the given
	// resolution and returns one image per page.
	Rasterize(ctx context.Context, pdfPath string, dpi float64) ([]image.Image, error)
}

// New returns the rasterizer for backend. BackendAuto and "" select fitz.
// popplerPath is only consulted for the pdftoppm backend.
func New(backend types.RasterBackend, popplerPath string) (Rasterizer, error) {
	switch types.RasterBackend(strings.ToLower(string(backend))) {
	case types.BackendAuto, types.BackendFitz, "":
		return NewFitz(), nil
	case types.BackendPdftoppm:
		return NewPdftoppm(popplerPath), nil
	}
	return nil, fmt.Errorf("unknown raster backend %q", backend)
}
