// Package render draws label images from a domain.LabelContext.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"qlweb/internal/domain"
)

const (
	// lineSpacing is the gap in pixels between lines of multi-line text.
	lineSpacing = 4
	// maxCanvasSide is the longest job any supported printer accepts, in dots.
	maxCanvasSide = 35434
)

var (
	// ErrEmptyCanvas is returned when the computed label size is not positive.
	ErrEmptyCanvas = errors.New("label has no printable area")
	// ErrCanvasTooLarge is returned when a label would exceed maxCanvasSide.
	ErrCanvasTooLarge = errors.New("label is too large")
)

// FaceSource creates font faces. *fonts.Registry implements it.
type FaceSource interface {
	Face(family, style string, size float64) (font.Face, error)
}

// Renderer draws labels with fonts from a FaceSource.
type Renderer struct {
	fonts FaceSource
}

// New returns a Renderer.
func New(fonts FaceSource) *Renderer {
	return &Renderer{fonts: fonts}
}

func (r *Renderer) face(lc *domain.LabelContext, size float64) (font.Face, error) {
	return r.fonts.Face(lc.FontFamily, lc.FontStyle, size)
}

// Text draws a text label.
func (r *Renderer) Text(lc *domain.LabelContext) (image.Image, error) {
	face, err := r.face(lc, float64(lc.FontSize))
	if err != nil {
		return nil, err
	}
	return TextLabel(lc, face)
}

// textBlock is a measured block of lines.
type textBlock struct {
	lines  []string
	widths []int
	width  int
	height int
	// lineHeight is the distance between two baselines.
	lineHeight int
	ascent     int
}

func measure(face font.Face, text string) textBlock {
	// Empty lines keep their height.
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = " "
		}
	}
	m := face.Metrics()
	fh := m.Height.Ceil()
	b := textBlock{
		lines:      lines,
		widths:     make([]int, len(lines)),
		lineHeight: fh + lineSpacing,
		ascent:     m.Ascent.Ceil(),
	}
	for i, l := range lines {
		b.widths[i] = font.MeasureString(face, l).Ceil()
		b.width = max(b.width, b.widths[i])
	}
	b.height = len(lines)*fh + (len(lines)-1)*lineSpacing
	return b
}

// draw renders the block with its top-left corner at (x, y).
func (b textBlock) draw(dc *gg.Context, x, y int, align domain.Align) {
	for i, l := range b.lines {
		lx := x
		switch align {
		case domain.AlignCenter:
			lx += (b.width - b.widths[i]) / 2
		case domain.AlignRight:
			lx += b.width - b.widths[i]
		}
		dc.DrawString(l, float64(lx), float64(y+i*b.lineHeight+b.ascent))
	}
}

func newCanvas(width, height int, face font.Face, fill color.Color) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyCanvas, width, height)
	}
	if width > maxCanvasSide || height > maxCanvasSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, width, height)
	}
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	if face != nil {
		dc.SetFontFace(face)
	}
	dc.SetColor(fill)
	return dc, nil
}

// TextLabel lays out lc.Text. Endless labels grow along the feed direction
// to fit the text; pre-cut labels center it.
func TextLabel(lc *domain.LabelContext, face font.Face) (image.Image, error) {
	b := measure(face, lc.Text)

	width, height := lc.Width, lc.Height
	if lc.Endless() {
		if lc.Rotated() {
			width = b.width + lc.MarginLeft + lc.MarginRight
		} else {
			height = b.height + lc.MarginTop + lc.MarginBottom
		}
	}

	var x, y int
	centeredY := (height-b.height)/2 + (lc.MarginTop-lc.MarginBottom)/2
	centeredX := max((width-b.width)/2, 0)
	switch {
	case !lc.Rotated() && lc.Endless():
		x, y = centeredX, lc.MarginTop
	case !lc.Rotated():
		x, y = centeredX, centeredY
	case lc.Endless():
		x, y = lc.MarginLeft, centeredY
	default:
		x, y = centeredX, centeredY
	}

	dc, err := newCanvas(width, height, face, lc.FillColor)
	if err != nil {
		return nil, err
	}
	b.draw(dc, x, y, lc.Align)
	return dc.Image(), nil
}
