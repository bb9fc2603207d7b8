package measure

import (
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/flowpack/pkg/diagram"
)

// FontOptions configures a [Font] measurer.
type FontOptions struct {
	// Size is the font size in points. Default 14.
	Size float64
	// PadX and PadY are added on each side of the measured text. Defaults 16 and 12.
	PadX, PadY float64
	// MinWidth and MinHeight clamp the result. Defaults 60 and 40.
	MinWidth, MinHeight float64
}

func (o *FontOptions) setDefaults() {
	if o.Size == 0 {
		o.Size = 14
	}
	if o.PadX == 0 {
		o.PadX = 16
	}
	if o.PadY == 0 {
		o.PadY = 12
	}
	if o.MinWidth == 0 {
		o.MinWidth = heuristicMinWidth
	}
	if o.MinHeight == 0 {
		o.MinHeight = heuristicHeight
	}
}

// Font measures labels with glyph metrics of the embedded Go Regular font.
// It is safe for concurrent use.
type Font struct {
	opts FontOptions
	mu   sync.Mutex
	dc   *gg.Context
}

// NewFont parses the embedded font and returns a measurer.
func NewFont(opts FontOptions) (*Font, error) {
	opts.setDefaults()
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: opts.Size}))
	return &Font{opts: opts, dc: dc}, nil
}

// Measure returns the padded text extent, clamped to the minimum size.
// Multi-line labels are measured with the context's line spacing.
func (f *Font) Measure(text string) diagram.Size {
	f.mu.Lock()
	w, h := f.dc.MeasureMultilineString(text, 1.2)
	f.mu.Unlock()
	return diagram.Size{
		Width:  max(f.opts.MinWidth, w+2*f.opts.PadX),
		Height: max(f.opts.MinHeight, h+2*f.opts.PadY),
	}
}

var (
	defaultFont     *Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// DefaultFont returns the process-wide font measurer with default options.
func DefaultFont() (*Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = NewFont(FontOptions{})
	})
	return defaultFont, defaultFontErr
}
