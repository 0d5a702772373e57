package types

import (
	"fmt"
	"strings"
)

// Default values applied by DefaultConfig and by the engine when a field is
// left zero.
const (
	DefaultInputDir       = "input"
	DefaultOutputDir      = "output"
	DefaultRasterDPI      = 200
	DefaultPDFResolution  = 100
	DefaultServerAddr     = "0.0.0.0:5001"
	DefaultMaxUploadBytes = 16 << 20
)

// RasterBackend identifies the PDF rasterizer.
type RasterBackend string

const (
	BackendAuto     RasterBackend = "auto"
	BackendFitz     RasterBackend = "fitz"
	BackendPdftoppm RasterBackend = "pdftoppm"
)

// EngineConfig holds settings for the conversion engine.
type EngineConfig struct {
	// InputDir is where uploaded or staged source files live (default "input").
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives every generated file (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// RasterDPI is the resolution used when rendering PDF pages (default 200).
	RasterDPI int `json:"raster_dpi" yaml:"raster_dpi" mapstructure:"raster_dpi"`

	// PDFResolution is the resolution recorded for images placed into a PDF
	// (default 100). It determines the page size of each generated page.
	PDFResolution int `json:"pdf_resolution" yaml:"pdf_resolution" mapstructure:"pdf_resolution"`

	// Backend selects the rasterizer: auto, fitz, or pdftoppm.
	Backend RasterBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PopplerPath is an optional directory containing pdftoppm, or the
	// pdftoppm binary itself. Empty means look it up on PATH.
	PopplerPath string `json:"poppler_path,omitempty" yaml:"poppler_path,omitempty" mapstructure:"poppler_path"`
}

// ServerConfig holds settings for the HTTP front-end.
type ServerConfig struct {
	// Addr is the listen address (default "0.0.0.0:5001").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the request body size (default 16 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// Debug adds stack traces to error responses. Only for trusted deployments.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console" (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every section of the pdfpng configuration file.
type Config struct {
	EngineConfig `yaml:",inline" mapstructure:",squash"`

	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() Config {
	return Config{
		EngineConfig: EngineConfig{
			InputDir:      DefaultInputDir,
			OutputDir:     DefaultOutputDir,
			RasterDPI:     DefaultRasterDPI,
			PDFResolution: DefaultPDFResolution,
			Backend:       BackendAuto,
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate reports the first invalid setting in c.
func (c Config) Validate() error {
	if c.InputDir == "" || c.OutputDir == "" {
		return fmt.Errorf("input_dir and output_dir must be set")
	}
	if c.RasterDPI <= 0 {
		return fmt.Errorf("raster_dpi must be positive, got %d", c.RasterDPI)
	}
	if c.PDFResolution <= 0 {
		return fmt.Errorf("pdf_resolution must be positive, got %d", c.PDFResolution)
	}
	switch RasterBackend(strings.ToLower(string(c.Backend))) {
	case BackendAuto, BackendFitz, BackendPdftoppm, "":
	default:
		return fmt.Errorf("unknown backend %q: want auto, fitz, or pdftoppm", c.Backend)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q: want json or console", c.Log.Format)
	}
	return nil
}
