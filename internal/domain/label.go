// Package domain contains the core concepts of the label designer.
// Keep this package free of transport (HTTP) and infrastructure (Redis/Postgres/MQTT) concerns.
package domain

import (
	"errors"
	"image/color"

	"qlweb/internal/brotherql"
)

var (
	// ErrUnknownFont signals that the requested font family/style is not installed.
	ErrUnknownFont = errors.New("couldn't find the font & style")
	// ErrUnknownLabelSize signals a label identifier missing from the label table.
	ErrUnknownLabelSize = errors.New("unknown label_size")
	// ErrMissingText signals a text print request without text.
	ErrMissingText = errors.New("please provide the text for the label")
	// ErrMissingGrocyName signals a grocy request without product, chore or battery.
	ErrMissingGrocyName = errors.New("please provide the product/battery/chore for the label")
	// ErrMissingGrocyCode signals a grocy request without a grocycode.
	ErrMissingGrocyCode = errors.New("please provide the grocycode for the label")
)

// Orientation of the label content relative to the feed direction.
type Orientation string

const (
	OrientationStandard Orientation = "standard"
	OrientationRotated  Orientation = "rotated"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == OrientationStandard || o == OrientationRotated
}

// Align is the horizontal alignment of multi-line text.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// CodeType selects the symbol printed on grocy labels.
type CodeType string

const (
	CodeDataMatrix CodeType = "datamatrix"
	CodeCode128    CodeType = "code128"
	CodeQR         CodeType = "qrcode"
)

// Valid reports whether c is a known code type.
func (c CodeType) Valid() bool {
	return c == CodeDataMatrix || c == CodeCode128 || c == CodeQR
}

var (
	Black = color.RGBA{A: 0xFF}
	Red   = color.RGBA{R: 0xFF, A: 0xFF}
)

// LabelContext holds the rendering parameters of one request.
type LabelContext struct {
	Text       string
	FontSize   int
	FontFamily string
	FontStyle  string
	FontPath   string

	LabelSize   string
	Kind        brotherql.LabelKind
	Margin      int
	Threshold   int
	Align       Align
	Orientation Orientation

	// Margins in pixels, derived from percentages of the font size.
	MarginTop    int
	MarginBottom int
	MarginLeft   int
	MarginRight  int

	FillColor color.RGBA
	Red       bool

	Width  int
	Height int

	GrocyCode string
	Product   string
	Chore     string
	Battery   string
	DueDate   string
	CodeType  CodeType
}

// Rotated reports whether the label is printed in rotated orientation.
func (c *LabelContext) Rotated() bool { return c.Orientation == OrientationRotated }

// Endless reports whether the label is continuous tape.
func (c *LabelContext) Endless() bool { return c.Kind == brotherql.EndlessLabel }

// GrocyName returns the product name, falling back to chore and battery.
func (c *LabelContext) GrocyName() string {
	switch {
	case c.Product != "":
		return c.Product
	case c.Chore != "":
		return c.Chore
	default:
		return c.Battery
	}
}

// PrintRotation is the rotation the raster converter applies: endless
// labels follow the orientation, pre-cut labels are rotated automatically.
func (c *LabelContext) PrintRotation() brotherql.Rotation {
	if !c.Endless() {
		return brotherql.RotateAuto
	}
	if c.Rotated() {
		return 90
	}
	return 0
}

// Dimensions returns the canvas size for a label. The longer side comes
// first; a rotated label swaps them again.
func Dimensions(spec brotherql.LabelSpec, orientation Orientation) (width, height int) {
	width, height = spec.DotsPrintable.Width, spec.DotsPrintable.Height
	if height > width {
		width, height = height, width
	}
	if orientation == OrientationRotated {
		width, height = height, width
	}
	return width, height
}
