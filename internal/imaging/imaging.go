// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imaging wraps the image codec side of pdfpng: PNG decode/encode,
// assembling PNG images into a PDF with pdfcpu, page counting, and content
// type sniffing.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	api.DisableConfigDir()
}

// PNG is a decoded PNG file together with its original bytes.
type PNG struct {
	Path   string
	Data   []byte
	Width  int
	Height int
}

// LoadPNG reads and fully decodes the PNG at path.
func LoadPNG(path string) (*PNG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding PNG %s: %w", path, err)
	}

	b := img.Bounds()
	return &PNG{Path: path, Data: data, Width: b.Dx(), Height: b.Dy()}, nil
}

// WritePNG encodes img as PNG to path.
func WritePNG(path string, img image.Image) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

// AssemblePDF writes a PDF to w with one page per image, in order. Each page
// measures the image's pixel size at dpi, so a 200x100 image at 100 dpi gives
// a 144x72 pt page.
func AssemblePDF(w io.Writer, images []*PNG, dpi int) error {
	if len(images) == 0 {
		return fmt.Errorf("no images to assemble")
	}
	if dpi <= 0 {
		return fmt.Errorf("invalid resolution %d dpi", dpi)
	}

	// pdfcpu takes one page size per import, so pages are appended one at a
	// time onto the document built so far.
	var doc []byte
	for i, img := range images {
		if img.Width <= 0 || img.Height <= 0 {
			return fmt.Errorf("image %d has no dimensions", i+1)
		}

		var rs io.ReadSeeker
		if doc != nil {
			rs = bytes.NewReader(doc)
		}
		var buf bytes.Buffer
		if err := api.ImportImages(rs, &buf, []io.Reader{bytes.NewReader(img.Data)}, pageImport(img, dpi), nil); err != nil {
			return fmt.Errorf("assembling PDF page %d: %w", i+1, err)
		}
		doc = buf.Bytes()
	}

	_, err := w.Write(doc)
	return err
}

// pageImport places img on a page of exactly its size at dpi.
func pageImport(img *PNG, dpi int) *pdfcpu.Import {
	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{
		Width:  PointsAt(img.Width, dpi),
		Height: PointsAt(img.Height, dpi),
	}
	imp.UserDim = true
	imp.Pos = types.Center
	imp.Scale = 1
	imp.ScaleAbs = false
	imp.DPI = dpi
	return imp
}

// PointsAt converts a pixel length at dpi to PDF points.
func PointsAt(px, dpi int) float64 {
	return float64(px) * 72 / float64(dpi)
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return n, nil
}

// DetectContentType sniffs the MIME type of the file at path.
func DetectContentType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// IsPDF reports whether the file at path starts with a PDF signature.
func IsPDF(path string) bool {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return mt.Is("application/pdf")
}

// WriteFileAtomic writes to a temporary file next to path and renames it into
// place once write succeeds, so a failure never leaves a truncated target.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
