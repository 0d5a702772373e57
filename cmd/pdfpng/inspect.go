// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfpng/internal/imaging"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf>",
	Short: "Show page count, size, and content type of a PDF",
	Long: `Inspect reports what pdf2png would work with: the detected content type,
the file size, and the number of pages. Use --json for machine-readable
output.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

type inspectReport struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Pages       int    `json:"pages"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	report, err := inspectPDF(args[0])
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), report, jsonOutput)
}

func inspectPDF(path string) (inspectReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return inspectReport{}, err
	}
	if info.IsDir() {
		return inspectReport{}, fmt.Errorf("%s is a directory", path)
	}

	ct, err := imaging.DetectContentType(path)
	if err != nil {
		return inspectReport{}, fmt.Errorf("detecting content type: %w", err)
	}
	if !imaging.IsPDF(path) {
		return inspectReport{}, fmt.Errorf("%s is not a PDF (detected %s)", path, ct)
	}

	pages, err := imaging.PageCount(path)
	if err != nil {
		return inspectReport{}, err
	}

	return inspectReport{
		Path:        path,
		ContentType: ct,
		Size:        info.Size(),
		Pages:       pages,
	}, nil
}

func writeReport(w io.Writer, r inspectReport, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	fmt.Fprintf(w, "File:         %s\n", r.Path)
	fmt.Fprintf(w, "Content type: %s\n", r.ContentType)
	fmt.Fprintf(w, "Size:         %d bytes\n", r.Size)
	fmt.Fprintf(w, "Pages:        %d\n", r.Pages)
	return nil
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output the report as JSON")
	rootCmd.AddCommand(inspectCmd)
}
