// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var windowsDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFilename reduces a client-supplied name to a safe single path
// element: accents are folded to ASCII, path separators and whitespace
// become underscores, everything outside [A-Za-z0-9_.-] is dropped, and
// leading or trailing dots and underscores are trimmed. The result may be
// empty.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		switch {
		case r > unicode.MaxASCII:
			// drops combining marks left by NFKD and anything non-ASCII
		case r == '/' || r == '\\':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(b.String()), "_")

	b.Reset()
	for _, r := range joined {
		if r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), "._")

	stem, _, _ := strings.Cut(out, ".")
	if windowsDeviceNames[strings.ToUpper(stem)] {
		out = "_" + out
	}
	return out
}
