// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

const (
	namePdftoppm = "pdftoppm"
	pagePrefix   = "page"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args []string, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr
	return cmd.Run()
}

var defaultExec = &osExecutor{}

// Pdftoppm renders pages by running poppler's pdftoppm into a temporary
// directory and decoding the PNG files it leaves behind.
type Pdftoppm struct {
	bin  string
	exec executor
}

// NewPdftoppm creates a pdftoppm rasterizer. popplerPath may name the
// directory holding the poppler binaries, the pdftoppm binary itself, or be
// empty to search PATH.
func NewPdftoppm(popplerPath string) *Pdftoppm {
	return newPdftoppm(popplerPath, defaultExec)
}

func newPdftoppm(popplerPath string, exec executor) *Pdftoppm {
	return &Pdftoppm{bin: resolveBin(popplerPath), exec: exec}
}

func resolveBin(popplerPath string) string {
	bin := namePdftoppm
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	if popplerPath == "" {
		return bin
	}
	if info, err := os.Stat(popplerPath); err == nil && info.IsDir() {
		return filepath.Join(popplerPath, bin)
	}
	return popplerPath
}

func (p *Pdftoppm) Name() string { return namePdftoppm }

// Verify checks that the binary can be found and answers -v.
func (p *Pdftoppm) Verify() error {
	if _, err := p.exec.LookPath(p.bin); err != nil {
		return fmt.Errorf("pdftoppm not found at %s: %w", p.bin, err)
	}
	if err := p.exec.RunSilent(context.Background(), p.bin, "-v"); err != nil {
		return fmt.Errorf("pdftoppm at %s is not operational: %w", p.bin, err)
	}
	return nil
}

func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath string, dpi float64) ([]image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "pdfpng-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := []string{
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-png",
		pdfPath,
		filepath.Join(tmpDir, pagePrefix),
	}

	var stderr bytes.Buffer
	if err := p.exec.Run(ctx, p.bin, args, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftoppm: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}

	files, err := pageFiles(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", pdfPath)
	}

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := decodeFile(f)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// pageFiles lists page-N.png files in dir ordered by N. pdftoppm zero-pads
// N to the width of the last page number, so the names do not sort
// lexically for mixed widths across runs.
func pageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pdftoppm output: %w", err)
	}

	type page struct {
		n    int
		path string
	}
	var pages []page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, pagePrefix+"-") || filepath.Ext(name) != ".png" {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(name, pagePrefix+"-"), ".png")
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		pages = append(pages, page{n: n, path: filepath.Join(dir, name)})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	paths := make([]string, len(pages))
	for i, pg := range pages {
		paths[i] = pg.path
	}
	return paths, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
