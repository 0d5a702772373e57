// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfpng/internal/convert"
	"github.com/pdiddy/pdfpng/pkg/types"
)

// fakeRasterizer returns solid pages so PDF uploads work without a real
// PDF renderer.
type fakeRasterizer struct {
	pages int
	err   error
}

func (f *fakeRasterizer) Name() string  { return "fake" }
func (f *fakeRasterizer) Verify() error { return nil }

func (f *fakeRasterizer) Rasterize(_ context.Context, _ string, _ float64) ([]image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]image.Image, f.pages)
	for i := range pages {
		pages[i] = image.NewGray(image.Rect(0, 0, 8+i, 8))
	}
	return pages, nil
}

func newTestServer(t *testing.T, r *fakeRasterizer, cfg types.ServerConfig) (*Server, *convert.Engine) {
	t.Helper()
	root := t.TempDir()
	engine, err := convert.NewEngine(types.EngineConfig{
		InputDir:  filepath.Join(root, "input"),
		OutputDir: filepath.Join(root, "output"),
	}, r, nil)
	require.NoError(t, err)
	return New(engine, cfg, nil), engine
}

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadRequest builds a multipart POST /convert with content under field.
func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("other", "value"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestConvert_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		wantStatus int
		wantError  string
	}{
		{name: "text file", field: "file", filename: "notes.txt", wantStatus: http.StatusBadRequest, wantError: "Invalid file type"},
		{name: "no extension", field: "file", filename: "README", wantStatus: http.StatusBadRequest, wantError: "Invalid file type"},
		{name: "empty filename", field: "file", filename: "", wantStatus: http.StatusBadRequest, wantError: "No file selected"},
		{name: "missing field", field: "", wantStatus: http.StatusBadRequest, wantError: "No file provided"},
		{name: "wrong field name", field: "upload", filename: "a.png", wantStatus: http.StatusBadRequest, wantError: "No file provided"},
		{name: "name sanitizes to nothing", field: "file", filename: "日本.png", wantStatus: http.StatusBadRequest, wantError: "Invalid file name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, &fakeRasterizer{pages: 1}, types.ServerConfig{})
			rec := serve(s, uploadRequest(t, tt.field, tt.filename, []byte("data")))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, errorBody(t, rec))
		})
	}
}

func TestConvert_PNGToPDF(t *testing.T) {
	s, engine := newTestServer(t, &fakeRasterizer{}, types.ServerConfig{})

	rec := serve(s, uploadRequest(t, "file", "Photo.PNG", pngData(t)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")), "body should be a PDF")
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get(headerPageCount))
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "inline"), disposition)
	assert.Contains(t, disposition, "Photo.pdf")

	id := rec.Header().Get(headerRequestID)
	require.NotEmpty(t, id)
	assert.FileExists(t, filepath.Join(engine.InputDir(), id, "Photo.png"))
	assert.FileExists(t, filepath.Join(engine.OutputDir(), id, "Photo.pdf"))
}

func TestConvert_PDFToPNG(t *testing.T) {
	s, engine := newTestServer(t, &fakeRasterizer{pages: 3}, types.ServerConfig{})

	rec := serve(s, uploadRequest(t, "file", "../../report.pdf", []byte("%PDF-1.7\n")))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get(headerPageCount))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx(), "first page is returned")

	id := rec.Header().Get(headerRequestID)
	for _, name := range []string{"report_page_1.png", "report_page_2.png", "report_page_3.png"} {
		assert.FileExists(t, filepath.Join(engine.OutputDir(), id, name))
	}
}

func TestConvert_ConversionFailure(t *testing.T) {
	for _, debug := range []bool{false, true} {
		t.Run("debug="+map[bool]string{false: "off", true: "on"}[debug], func(t *testing.T) {
			s, _ := newTestServer(t, &fakeRasterizer{err: errors.New("broken xref table")}, types.ServerConfig{Debug: debug})

			rec := serve(s, uploadRequest(t, "file", "bad.pdf", []byte("junk")))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			msg := errorBody(t, rec)
			assert.True(t, strings.HasPrefix(msg, "PDF conversion error: "), msg)
			assert.Contains(t, msg, "broken xref table")
			if debug {
				assert.Contains(t, msg, ".go:", "debug responses include the stack")
			} else {
				assert.NotContains(t, msg, ".go:", "stack must not leak without debug")
			}
		})
	}
}

func TestConvert_CorruptPNG(t *testing.T) {
	s, _ := newTestServer(t, &fakeRasterizer{}, types.ServerConfig{})

	rec := serve(s, uploadRequest(t, "file", "broken.png", []byte("not really a png")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(errorBody(t, rec), "PNG conversion error: "))
}

func TestConvert_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, &fakeRasterizer{}, types.ServerConfig{MaxUploadBytes: 512})

	rec := serve(s, uploadRequest(t, "file", "big.png", bytes.Repeat([]byte{0x42}, 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large", errorBody(t, rec))
}

func TestConvert_ConcurrentSameName(t *testing.T) {
	s, engine := newTestServer(t, &fakeRasterizer{}, types.ServerConfig{})
	data := pngData(t)

	const n = 4
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = uploadRequest(t, "file", "same.png", data)
	}

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := serve(s, req)
			if rec.Code == http.StatusOK {
				ids[i] = rec.Header().Get(headerRequestID)
			}
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "request IDs must be unique")
		seen[id] = true
		assert.FileExists(t, filepath.Join(engine.OutputDir(), id, "same.pdf"))
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeRasterizer{}, types.ServerConfig{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","backend":"fake"}`, rec.Body.String())
}

func TestConvert_WrongMethod(t *testing.T) {
	s, _ := newTestServer(t, &fakeRasterizer{}, types.ServerConfig{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	root := t.TempDir()
	engine, err := convert.NewEngine(types.EngineConfig{
		InputDir:  filepath.Join(root, "in"),
		OutputDir: filepath.Join(root, "out"),
	}, &fakeRasterizer{}, nil)
	require.NoError(t, err)

	_, err = engine.PNGToPDF(context.Background(), nil, "x")
	assert.Equal(t, http.StatusBadRequest, statusFor(err))

	_, err = engine.PDFToPNG(context.Background(), filepath.Join(root, "missing.pdf"), "")
	assert.Equal(t, http.StatusNotFound, statusFor(err))

	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("other")))
}
