// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the conversion engine: PDF pages to PNG files,
// and PNG files to a single PDF. Rasterizing is delegated to a
// raster.Rasterizer and PDF assembly to the imaging package; the engine owns
// input validation, output naming, and the output directory.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pdfpng/internal/imaging"
	"github.com/pdiddy/pdfpng/internal/raster"
	"github.com/pdiddy/pdfpng/pkg/types"
)

const (
	pageSuffix = "_page_"
	pngExt     = ".png"
	pdfExt     = ".pdf"

	// probeSize is how much of a source PDF is read up front to confirm the
	// file is readable before handing it to the rasterizer.
	probeSize = 1024
)

// Engine converts between PDF and PNG. It is safe for concurrent use; callers
// that need isolated output locations should use Scoped.
type Engine struct {
	cfg    types.EngineConfig
	raster raster.Rasterizer
	log    *zap.Logger
}

// NewEngine applies defaults to cfg, creates the input and output
// directories, and verifies the rasterizer. A rasterizer that fails
// verification yields a KindConfiguration error.
func NewEngine(cfg types.EngineConfig, r raster.Rasterizer, logger *zap.Logger) (*Engine, error) {
	if r == nil {
		return nil, newError(KindConfiguration, "init", "", errors.New("no rasterizer configured"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.InputDir == "" {
		cfg.InputDir = types.DefaultInputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = types.DefaultOutputDir
	}
	if cfg.RasterDPI <= 0 {
		cfg.RasterDPI = types.DefaultRasterDPI
	}
	if cfg.PDFResolution <= 0 {
		cfg.PDFResolution = types.DefaultPDFResolution
	}

	for _, dir := range []string{cfg.InputDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newError(KindConfiguration, "init", dir, fmt.Errorf("creating directory: %w", err))
		}
	}

	if err := r.Verify(); err != nil {
		return nil, newError(KindConfiguration, "init", "", fmt.Errorf("%s rasterizer unavailable: %w", r.Name(), err))
	}

	logger.Debug("conversion engine ready",
		zap.String("backend", r.Name()),
		zap.String("input_dir", cfg.InputDir),
		zap.String("output_dir", cfg.OutputDir),
		zap.Int("raster_dpi", cfg.RasterDPI))

	return &Engine{cfg: cfg, raster: r, log: logger}, nil
}

// Scoped returns an engine that shares e's settings but writes into
// OutputDir/name, which is created if absent.
func (e *Engine) Scoped(name string) (*Engine, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, newError(KindInvalidInput, "scope", name, errors.New("scope must be a single path element"))
	}

	cfg := e.cfg
	cfg.OutputDir = filepath.Join(e.cfg.OutputDir, name)
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, newError(KindConversion, "scope", cfg.OutputDir, fmt.Errorf("creating directory: %w", err))
	}

	return &Engine{cfg: cfg, raster: e.raster, log: e.log.With(zap.String("scope", name))}, nil
}

// InputDir returns the directory for staged source files.
func (e *Engine) InputDir() string { return e.cfg.InputDir }

// OutputDir returns the directory generated files are written to.
func (e *Engine) OutputDir() string { return e.cfg.OutputDir }

// Backend returns the rasterizer name.
func (e *Engine) Backend() string { return e.raster.Name() }

// Run dispatches req to PDFToPNG or PNGToPDF.
func (e *Engine) Run(ctx context.Context, req types.ConversionRequest) (types.ConversionResult, error) {
	result := types.ConversionResult{Mode: req.Mode}

	switch req.Mode {
	case types.ModePDFToPNG:
		if len(req.Inputs) == 0 {
			return result, newError(KindInvalidInput, string(req.Mode), "", errors.New("no input PDF provided"))
		}
		paths, err := e.PDFToPNG(ctx, req.Inputs[0], req.Output)
		if err != nil {
			return result, err
		}
		result.Outputs = paths

	case types.ModePNGToPDF:
		path, err := e.PNGToPDF(ctx, req.Inputs, req.Output)
		if err != nil {
			return result, err
		}
		result.Outputs = []string{path}

	default:
		return result, newError(KindInvalidInput, "run", "", fmt.Errorf("unknown mode %q", req.Mode))
	}

	return result, nil
}

// PDFToPNG renders every page of the PDF at pdfPath and writes each as
// <prefix>_page_<n>.png in the output directory, n starting at 1. An empty
// prefix defaults to the PDF's base name without extension. The returned
// paths are in page order.
func (e *Engine) PDFToPNG(ctx context.Context, pdfPath, prefix string) ([]string, error) {
	const op = "pdf2png"

	if err := checkReadable(pdfPath); err != nil {
		return nil, classifyOpenError(op, pdfPath, err)
	}
	if prefix == "" {
		prefix = stem(pdfPath)
	}
	prefix = filepath.Base(prefix)

	e.log.Info("converting PDF to PNG",
		zap.String("pdf", pdfPath),
		zap.String("prefix", prefix),
		zap.String("backend", e.raster.Name()))

	pages, err := e.raster.Rasterize(ctx, pdfPath, float64(e.cfg.RasterDPI))
	if err != nil {
		return nil, newError(KindConversion, op, pdfPath, err)
	}
	if len(pages) == 0 {
		return nil, newError(KindConversion, op, pdfPath, errors.New("document has no pages"))
	}

	e.log.Info("rasterized PDF", zap.String("pdf", pdfPath), zap.Int("pages", len(pages)))

	paths := make([]string, 0, len(pages))
	for i, img := range pages {
		if err := ctx.Err(); err != nil {
			return nil, newError(KindConversion, op, pdfPath, err)
		}

		out := filepath.Join(e.cfg.OutputDir, PageFileName(prefix, i+1))
		if err := imaging.WritePNG(out, img); err != nil {
			return nil, newError(KindConversion, op, out, fmt.Errorf("saving page %d: %w", i+1, err))
		}
		e.log.Info("saved PNG", zap.String("path", out))
		paths = append(paths, out)
	}

	return paths, nil
}

// PNGToPDF packages the PNG files at pngPaths, in order, as the pages of one
// PDF named outputFilename in the output directory. ".pdf" is appended when
// outputFilename has no extension.
func (e *Engine) PNGToPDF(ctx context.Context, pngPaths []string, outputFilename string) (string, error) {
	const op = "png2pdf"

	if len(pngPaths) == 0 {
		return "", newError(KindInvalidInput, op, "", errors.New("no PNG files provided"))
	}
	if strings.TrimSpace(outputFilename) == "" {
		return "", newError(KindInvalidInput, op, "", errors.New("output filename is required"))
	}

	out := filepath.Join(e.cfg.OutputDir, PDFFileName(outputFilename))

	images := make([]*imaging.PNG, 0, len(pngPaths))
	for _, p := range pngPaths {
		if err := ctx.Err(); err != nil {
			return "", newError(KindConversion, op, p, err)
		}
		if err := checkReadable(p); err != nil {
			return "", classifyOpenError(op, p, err)
		}

		img, err := imaging.LoadPNG(p)
		if err != nil {
			return "", newError(KindConversion, op, p, err)
		}
		images = append(images, img)
	}

	err := imaging.WriteFileAtomic(out, func(w io.Writer) error {
		return imaging.AssemblePDF(w, images, e.cfg.PDFResolution)
	})
	if err != nil {
		return "", newError(KindConversion, op, out, err)
	}

	e.log.Info("created PDF", zap.String("path", out), zap.Int("pages", len(images)))
	return out, nil
}

// PageFileName returns the file name for page n (1-indexed) of prefix.
func PageFileName(prefix string, n int) string {
	return fmt.Sprintf("%s%s%d%s", prefix, pageSuffix, n, pngExt)
}

// PDFFileName returns the base of name with ".pdf" appended when it has no
// extension.
func PDFFileName(name string) string {
	name = filepath.Base(name)
	if filepath.Ext(name) == "" {
		name += pdfExt
	}
	return name
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// checkReadable confirms path is a regular file and reads its first bytes.
func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, probeSize)
	if _, err := f.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func classifyOpenError(op, path string, err error) *Error {
	if errors.Is(err, fs.ErrNotExist) {
		return newError(KindNotFound, op, path, errors.New("file not found"))
	}
	return newError(KindConversion, op, path, err)
}
