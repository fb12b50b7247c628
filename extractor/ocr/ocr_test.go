package ocr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, float64(300), cfg.DPI)
	assert.Equal(t, []string{"spa", "eng"}, cfg.Languages)
}

func TestNew_AppliesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DPI = 150

	engine := New(cfg)
	assert.NotNil(t, engine)
	assert.Equal(t, float64(150), engine.cfg.DPI)
}

func TestErrUnavailable_Wrapping(t *testing.T) {
	// Engine failures are wrapped so callers can tell them apart from
	// "wrong document" outcomes
	err := fmt.Errorf("%w: tesseract not on PATH", ErrUnavailable)

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(errors.New("no markers found"), ErrUnavailable))
}
