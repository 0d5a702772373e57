// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsAndKind(t *testing.T) {
	tests := []struct {
		kind     Kind
		sentinel error
	}{
		{KindNotFound, ErrNotFound},
		{KindInvalidInput, ErrInvalidInput},
		{KindConversion, ErrConversion},
		{KindConfiguration, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := newError(tt.kind, "op", "file.pdf", errors.New("boom"))
			wrapped := fmt.Errorf("outer: %w", err)

			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(wrapped))

			for _, other := range tests {
				if other.kind != tt.kind {
					assert.NotErrorIs(t, err, other.sentinel)
				}
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	cause := errors.New("bad header")
	err := newError(KindConversion, "pdf2png", "in/a.pdf", cause)

	assert.Equal(t, "pdf2png: in/a.pdf: bad header", err.Error())
	assert.ErrorIs(t, err, cause)

	noPath := newError(KindInvalidInput, "png2pdf", "", errors.New("no PNG files provided"))
	assert.Equal(t, "png2pdf: no PNG files provided", noPath.Error())
}

func TestError_Stack(t *testing.T) {
	err := newError(KindConversion, "pdf2png", "a.pdf", errors.New("bad"))

	stack := StackOf(err)
	assert.Contains(t, stack, "bad")
	assert.Contains(t, stack, "errors_test.go", "stack should point at the caller")

	plain := errors.New("plain")
	assert.Equal(t, "plain", StackOf(plain))
	assert.Equal(t, KindUnknown, KindOf(plain))
}
