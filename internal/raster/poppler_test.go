// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfpng/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runFunc       func(name string, args []string, stderr io.Writer) error
	lastArgs      []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args []string, stderr io.Writer) error {
	m.lastArgs = args
	if m.runFunc != nil {
		return m.runFunc(name, args, stderr)
	}
	return nil
}

// writePages emulates pdftoppm by writing widths[i]-wide PNGs named
// <base>-<n>.png with n zero-padded to pad digits.
func writePages(widths []int, pad int) func(string, []string, io.Writer) error {
	return func(_ string, args []string, _ io.Writer) error {
		base := args[len(args)-1]
		for i, w := range widths {
			name := fmt.Sprintf("%s-%0*d.png", base, pad, i+1)
			f, err := os.Create(name)
			if err != nil {
				return err
			}
			err = png.Encode(f, image.NewGray(image.Rect(0, 0, w, 5)))
			f.Close()
			if err != nil {
				return err
			}
		}
		return nil
	}
}

func TestPdftoppm_Verify(t *testing.T) {
	tests := []struct {
		name    string
		exec    *mockExecutor
		wantErr string
	}{
		{
			name: "available and operational",
			exec: &mockExecutor{
				availableBins: map[string]bool{"pdftoppm": true},
				runnableCmds:  map[string]bool{"pdftoppm -v": true},
			},
		},
		{
			name:    "not on PATH",
			exec:    &mockExecutor{},
			wantErr: "not found",
		},
		{
			name: "found but broken",
			exec: &mockExecutor{
				availableBins: map[string]bool{"pdftoppm": true},
			},
			wantErr: "not operational",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPdftoppm("", tt.exec)
			err := p.Verify()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pdftoppm", p.Name())
		})
	}
}

func TestPdftoppm_Rasterize(t *testing.T) {
	widths := []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	exec := &mockExecutor{runFunc: writePages(widths, 2)}
	p := newPdftoppm("", exec)

	pages, err := p.Rasterize(context.Background(), "in.pdf", 200)
	require.NoError(t, err)
	require.Len(t, pages, len(widths))
	for i, img := range pages {
		assert.Equal(t, widths[i], img.Bounds().Dx(), "page %d out of order", i+1)
	}

	require.Len(t, exec.lastArgs, 5)
	assert.Equal(t, []string{"-r", "200", "-png", "in.pdf"}, exec.lastArgs[:4])

	// The scratch directory is removed afterwards.
	_, err = os.Stat(filepath.Dir(exec.lastArgs[4]))
	assert.True(t, os.IsNotExist(err))
}

func TestPdftoppm_RasterizeCommandFails(t *testing.T) {
	exec := &mockExecutor{runFunc: func(_ string, _ []string, stderr io.Writer) error {
		io.WriteString(stderr, "Syntax Error: Couldn't find trailer dictionary\n")
		return errors.New("exit status 1")
	}}
	p := newPdftoppm("", exec)

	_, err := p.Rasterize(context.Background(), "bad.pdf", 200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "trailer dictionary")
}

func TestPdftoppm_RasterizeNoOutput(t *testing.T) {
	p := newPdftoppm("", &mockExecutor{})

	_, err := p.Rasterize(context.Background(), "empty.pdf", 200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pages")
}

func TestResolveBin(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, filepath.Base(resolveBin("")), resolveBin(""))
	assert.Equal(t, filepath.Join(dir, resolveBin("")), resolveBin(dir))
	assert.Equal(t, "/opt/poppler/bin/pdftoppm", resolveBin("/opt/poppler/bin/pdftoppm"))
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend  types.RasterBackend
		wantName string
		wantErr  bool
	}{
		{backend: "", wantName: "fitz"},
		{backend: types.BackendAuto, wantName: "fitz"},
		{backend: types.BackendFitz, wantName: "fitz"},
		{backend: "PDFTOPPM", wantName: "pdftoppm"},
		{backend: "ghostscript", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			r, err := New(tt.backend, "")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, r.Name())
		})
	}
}
