// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfpng CLI. The root command runs a
// single conversion; serve, inspect, config, and version are subcommands.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pdfpng/internal/convert"
	"github.com/pdiddy/pdfpng/internal/logging"
	"github.com/pdiddy/pdfpng/internal/raster"
	"github.com/pdiddy/pdfpng/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg and logger are populated by PersistentPreRunE before any command runs.
	cfg    types.Config
	logger = zap.NewNop()
)

// errReported marks an error whose message has already been printed.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "pdfpng --mode {pdf2png|png2pdf} --input <path>... --output <name>",
	Short: "Convert PDF pages to PNG images and PNG images to PDF",
	Long: `pdfpng converts between PDF documents and PNG images.

pdf2png renders every page of one PDF into <output>_page_<n>.png files.
png2pdf assembles one or more PNG images, in order, into a single PDF.

Generated files are written to the output directory (default "output").
Run "pdfpng serve" to expose the same conversions over HTTP.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		c, err := loadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		l, err := logging.New(c.Log)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runConvert,
}

func init() {
	defaults := types.DefaultConfig()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pdfpng.yaml or ~/.config/pdfpng/pdfpng.yaml)")
	pf.String("input-dir", defaults.InputDir, "directory for staged input files")
	pf.String("output-dir", defaults.OutputDir, "directory for generated files")
	pf.Int("dpi", defaults.RasterDPI, "resolution used when rendering PDF pages")
	pf.String("backend", string(defaults.Backend), "PDF rasterizer: auto, fitz, or pdftoppm")
	pf.String("poppler-path", "", "directory containing pdftoppm (pdftoppm backend only)")
	pf.String("log-level", defaults.Log.Level, "log level: debug, info, warn, error")

	bindFlag("input_dir", pf.Lookup("input-dir"))
	bindFlag("output_dir", pf.Lookup("output-dir"))
	bindFlag("raster_dpi", pf.Lookup("dpi"))
	bindFlag("backend", pf.Lookup("backend"))
	bindFlag("poppler_path", pf.Lookup("poppler-path"))
	bindFlag("log.level", pf.Lookup("log-level"))

	f := rootCmd.Flags()
	f.String("mode", "", "conversion mode: pdf2png or png2pdf")
	f.StringArray("input", nil, "input file path (repeatable; extra arguments are appended)")
	f.String("output", "", "output prefix (pdf2png) or PDF filename (png2pdf)")
	for _, name := range []string{"mode", "input", "output"} {
		_ = rootCmd.MarkFlagRequired(name)
	}
}

// loadConfig resolves the effective configuration from defaults, the config
// file, a .env file, PDFPNG_* environment variables, and bound flags.
func loadConfig(v *viper.Viper, cfgFile string) (types.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return types.Config{}, fmt.Errorf("loading .env: %w", err)
	}

	setDefaults(v, types.DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pdfpng")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "pdfpng"))
		}
	}

	v.SetEnvPrefix("PDFPNG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	c := types.DefaultConfig()
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// setDefaults registers every key so environment variables reach Unmarshal.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("raster_dpi", d.RasterDPI)
	v.SetDefault("pdf_resolution", d.PDFResolution)
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("poppler_path", d.PopplerPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.debug", d.Server.Debug)
}

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// newEngine builds the rasterizer selected by c and the engine around it.
func newEngine(c types.Config) (*convert.Engine, error) {
	r, err := raster.New(c.Backend, c.PopplerPath)
	if err != nil {
		return nil, err
	}
	return convert.NewEngine(c.EngineConfig, r, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
