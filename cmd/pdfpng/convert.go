package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfpng/pkg/types"
)

func runConvert(cmd *cobra.Command, args []string) error {
	modeName, _ := cmd.Flags().GetString("mode")
	inputs, _ := cmd.Flags().GetStringArray("input")
	output, _ := cmd.Flags().GetString("output")

	req, err := buildRequest(modeName, append(inputs, args...), output)
	if err == nil {
		var result types.ConversionResult
		result, err = convertOnce(cmd, req)
		if err == nil {
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), successMessage(result))
			return nil
		}
	}

	color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error during conversion: %v\n", err)
	return errReported
}

func convertOnce(cmd *cobra.Command, req types.ConversionRequest) (types.ConversionResult, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return types.ConversionResult{}, err
	}
	return engine.Run(cmd.Context(), req)
}

// buildRequest validates the flag values and assembles a ConversionRequest.
func buildRequest(modeName string, inputs []string, output string) (types.ConversionRequest, error) {
	mode, err := types.ParseMode(modeName)
	if err != nil {
		return types.ConversionRequest{}, err
	}
	if len(inputs) == 0 {
		return types.ConversionRequest{}, fmt.Errorf("no input files given")
	}
	if strings.TrimSpace(output) == "" {
		return types.ConversionRequest{}, fmt.Errorf("--output must not be empty")
	}
	return types.ConversionRequest{Mode: mode, Inputs: inputs, Output: output}, nil
}

func successMessage(r types.ConversionResult) string {
	if r.Mode == types.ModePDFToPNG {
		return "Successfully converted PDF to PNG. Output files: " + formatPaths(r.Outputs)
	}
	return "Successfully converted PNG to PDF. Output file: " + r.First()
}

// formatPaths renders paths as ['a', 'b'].
func formatPaths(paths []string) string {
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = "'" + p + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
