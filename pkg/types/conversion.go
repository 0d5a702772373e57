// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for pdfpng: conversion
// modes, requests and results, and the configuration tree read by viper.
package types

import (
	"fmt"
	"strings"
)

// Mode selects the direction of a conversion.
type Mode string

const (
	ModePDFToPNG Mode = "pdf2png"
	ModePNGToPDF Mode = "png2pdf"
)

// ParseMode converts a user-supplied mode name into a Mode. Matching is
// case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePDFToPNG:
		return ModePDFToPNG, nil
	case ModePNGToPDF:
		return ModePNGToPDF, nil
	}
	return "", fmt.Errorf("unknown mode %q: want %s or %s", s, ModePDFToPNG, ModePNGToPDF)
}

// ConversionRequest describes one conversion. It is never stored.
type ConversionRequest struct {
	// Mode is the conversion direction.
	Mode Mode `json:"mode" yaml:"mode"`

	// Inputs lists source paths in order. pdf2png uses only the first.
	Inputs []string `json:"inputs" yaml:"inputs"`

	// Output is the page-file prefix (pdf2png) or the PDF filename (png2pdf).
	Output string `json:"output" yaml:"output"`
}

// ConversionResult lists the files produced by a conversion, in order.
type ConversionResult struct {
	Mode    Mode     `json:"mode" yaml:"mode"`
	Outputs []string `json:"outputs" yaml:"outputs"`
}

// First returns the first output path, or "" if there is none.
func (r ConversionResult) First() string {
	if len(r.Outputs) == 0 {
		return ""
	}
	return r.Outputs[0]
}
