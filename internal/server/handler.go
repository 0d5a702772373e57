// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/pdfpng/internal/convert"
	"github.com/pdiddy/pdfpng/internal/imaging"
)

const (
	formField       = "file"
	headerPageCount = "X-Page-Count"
)

var allowedExts = map[string]bool{
	".pdf": true,
	".png": true,
}

func (s *Server) handleConvert(c *gin.Context) {
	reqID := getRequestID(c)

	fh, err := c.FormFile(formField)
	if err != nil {
		if isBodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		if emptyFilePart(c) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}

	stem := SanitizeFilename(strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename)))
	if stem == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file name"})
		return
	}

	inDir := filepath.Join(s.engine.InputDir(), reqID)
	if err := os.MkdirAll(inDir, 0o755); err != nil {
		s.fail(c, "Upload error", err)
		return
	}
	inPath := filepath.Join(inDir, stem+ext)
	if err := c.SaveUploadedFile(fh, inPath); err != nil {
		s.fail(c, "Upload error", err)
		return
	}

	engine, err := s.engine.Scoped(reqID)
	if err != nil {
		s.fail(c, "Upload error", err)
		return
	}

	var outputs []string
	var prefix string
	switch ext {
	case ".pdf":
		prefix = "PDF conversion error"
		outputs, err = engine.PDFToPNG(c.Request.Context(), inPath, stem)
	default:
		prefix = "PNG conversion error"
		var out string
		out, err = engine.PNGToPDF(c.Request.Context(), []string{inPath}, stem+".pdf")
		outputs = []string{out}
	}
	if err != nil {
		s.fail(c, prefix, err)
		return
	}

	first := outputs[0]
	if ct, err := imaging.DetectContentType(first); err == nil {
		c.Header("Content-Type", ct)
	}
	c.Header(headerPageCount, strconv.Itoa(len(outputs)))
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filepath.Base(first)}))
	c.File(first)

	s.log.Info("converted upload",
		zap.String("request_id", reqID),
		zap.String("input", inPath),
		zap.Strings("outputs", outputs))
}

// fail logs err and writes the JSON error body. Stack traces are included
// only in debug mode.
func (s *Server) fail(c *gin.Context, prefix string, err error) {
	status := statusFor(err)
	msg := prefix + ": " + err.Error()
	if s.cfg.Debug {
		msg += "\n" + convert.StackOf(err)
	}

	s.log.Error(prefix,
		zap.String("request_id", getRequestID(c)),
		zap.Int("status", status),
		zap.Stringer("kind", convert.KindOf(err)),
		zap.Error(err))

	c.JSON(status, gin.H{"error": msg})
}

func statusFor(err error) int {
	switch convert.KindOf(err) {
	case convert.KindInvalidInput:
		return http.StatusBadRequest
	case convert.KindNotFound:
		return http.StatusNotFound
	case convert.KindConfiguration:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// emptyFilePart reports whether the form carried the file field with an empty
// filename. multipart files such a part under the form values.
func emptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[formField]
	return ok
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
