package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"

	"qlweb/internal/domain"
)

const (
	grocyHeight       = 180
	grocyNameSize     = 45
	grocyDueDateSize  = 35
	grocyWrapWidth    = 15
	grocySecondLine   = 45
	grocyDueDateTop   = 115
	grocyTextGap      = 20
	symbolModuleSize  = 5
	symbolQuietMargin = 10

	linearNameSize    = 40
	linearDueDateSize = 20
	linearBarHeight   = 100
	linearRotatedW    = 700
)

// ErrSymbol is returned when a grocycode cannot be encoded or does not fit.
var ErrSymbol = errors.New("cannot draw code")

// Grocy draws a grocy label with the symbol selected by lc.CodeType.
func (r *Renderer) Grocy(lc *domain.LabelContext) (image.Image, error) {
	if lc.CodeType == domain.CodeCode128 {
		nameFace, err := r.face(lc, linearNameSize)
		if err != nil {
			return nil, err
		}
		dueFace, err := r.face(lc, linearDueDateSize)
		if err != nil {
			return nil, err
		}
		return GrocyLabel1D(lc, nameFace, dueFace)
	}

	nameFace, err := r.face(lc, grocyNameSize)
	if err != nil {
		return nil, err
	}
	dueFace, err := r.face(lc, grocyDueDateSize)
	if err != nil {
		return nil, err
	}
	return GrocyLabel(lc, nameFace, dueFace)
}

// Symbol encodes a grocycode as a 2-D symbol with 5 px modules and a 10 px
// white border.
func Symbol(code string, kind domain.CodeType) (image.Image, error) {
	var sym image.Image
	switch kind {
	case domain.CodeQR:
		q, err := qrcode.New(code, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("%w: encode qr code: %v", ErrSymbol, err)
		}
		q.DisableBorder = true
		sym = q.Image(-symbolModuleSize)
	default:
		dm, err := datamatrix.Encode(code)
		if err != nil {
			return nil, fmt.Errorf("%w: encode datamatrix: %v", ErrSymbol, err)
		}
		b := dm.Bounds()
		scaled, err := barcode.Scale(dm, b.Dx()*symbolModuleSize, b.Dy()*symbolModuleSize)
		if err != nil {
			return nil, fmt.Errorf("%w: scale datamatrix: %v", ErrSymbol, err)
		}
		sym = scaled
	}

	b := sym.Bounds()
	bg := imaging.New(b.Dx()+2*symbolQuietMargin, b.Dy()+2*symbolQuietMargin, color.White)
	return imaging.Paste(bg, sym, image.Pt(symbolQuietMargin, symbolQuietMargin)), nil
}

// GrocyLabel draws the 2-D symbol layout: the symbol on the left, the
// wrapped name to its right and the due date below. A rotated label is the
// same layout turned by 90 degrees.
func GrocyLabel(lc *domain.LabelContext, nameFace, dueFace font.Face) (image.Image, error) {
	sym, err := Symbol(lc.GrocyCode, lc.CodeType)
	if err != nil {
		return nil, err
	}
	symW, symH := sym.Bounds().Dx(), sym.Bounds().Dy()

	width := lc.Width
	if lc.Rotated() {
		width = lc.Height
	}
	if lc.MarginTop+symH > grocyHeight || lc.MarginLeft+symW > width {
		return nil, fmt.Errorf("%w: %dx%d symbol does not fit a %dx%d label", ErrSymbol, symW, symH, width, grocyHeight)
	}
	dc, err := newCanvas(width, grocyHeight, nameFace, lc.FillColor)
	if err != nil {
		return nil, err
	}
	dc.DrawImage(sym, lc.MarginLeft, lc.MarginTop)

	lines := wrapText(lc.GrocyName(), grocyWrapWidth)
	ascent := nameFace.Metrics().Ascent.Ceil()
	x := symW + grocyTextGap
	for i, line := range lines {
		if i == 2 {
			break
		}
		dc.DrawString(line, float64(x), float64(lc.MarginTop+i*grocySecondLine+ascent))
	}

	if lc.DueDate != "" {
		dc.SetFontFace(dueFace)
		y := lc.MarginTop + grocyDueDateTop + dueFace.Metrics().Ascent.Ceil()
		dc.DrawString(lc.DueDate, float64(lc.MarginLeft+8), float64(y))
	}

	img := dc.Image()
	if lc.Rotated() {
		return imaging.Rotate90(img), nil
	}
	return img, nil
}

// GrocyLabel1D draws the Code128 layout: name, a full-width barcode and an
// optional due date. Rotated labels use a fixed 700 px width, swapped
// margins and a final 90 degree turn.
func GrocyLabel1D(lc *domain.LabelContext, nameFace, dueFace font.Face) (image.Image, error) {
	left, right, top, bottom := lc.MarginLeft, lc.MarginRight, lc.MarginTop, lc.MarginBottom
	width := lc.Width
	if lc.Rotated() {
		left, right, top, bottom = lc.MarginBottom, lc.MarginTop, lc.MarginLeft, lc.MarginRight
		width = linearRotatedW
	}

	height := top + bottom + linearBarHeight + int(linearNameSize*1.3) - 30
	if lc.DueDate != "" {
		height += int(linearDueDateSize * 1.3)
	}

	bc, err := code128.Encode(lc.GrocyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: encode code128: %v", ErrSymbol, err)
	}
	bars, err := barcode.Scale(bc, width-left-right, linearBarHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: scale code128: %v", ErrSymbol, err)
	}

	dc, err := newCanvas(width, height, nameFace, lc.FillColor)
	if err != nil {
		return nil, err
	}
	y := top
	dc.DrawString(lc.GrocyName(), float64(left), float64(y+nameFace.Metrics().Ascent.Ceil()))
	y += linearNameSize
	dc.DrawImage(bars, left, y)

	if lc.DueDate != "" {
		y += linearBarHeight
		dc.SetFontFace(dueFace)
		dc.DrawString(lc.DueDate, float64(left), float64(y+dueFace.Metrics().Ascent.Ceil()))
	}

	img := dc.Image()
	if lc.Rotated() {
		return imaging.Rotate90(img), nil
	}
	return img, nil
}

// wrapText breaks s into lines of at most width runes at word boundaries.
// Words longer than width are split.
func wrapText(s string, width int) []string {
	var lines []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, word := range strings.Fields(s) {
		for utf8.RuneCountInString(word) > width {
			flush()
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > width {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	flush()
	return lines
}
