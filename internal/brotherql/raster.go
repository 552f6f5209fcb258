package brotherql

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedCommand is returned when the selected model does not
// understand a raster command.
var ErrUnsupportedCommand = errors.New("command not supported by printer model")

const (
	mediaTypeEndless = 0x0A
	mediaTypeDieCut  = 0x0B
)

// Raster accumulates the command stream for one print job.
type Raster struct {
	model Model
	buf   bytes.Buffer

	mediaType   *byte
	mediaWidth  *byte
	mediaLength *byte
	pageNumber  int
	rows        int

	compression      bool
	CutAtEnd         bool
	DPI600           bool
	TwoColorPrinting bool
}

// NewRaster creates a builder for the named printer model.
func NewRaster(model string) (*Raster, error) {
	m, ok := LookupModel(model)
	if !ok {
		return nil, fmt.Errorf("unknown printer model %q", model)
	}
	return &Raster{model: m}, nil
}

// Model returns the printer model the raster is built for.
func (r *Raster) Model() Model { return r.model }

// Rows returns the number of raster lines written.
func (r *Raster) Rows() int { return r.rows }

// Data returns the bytes written so far.
func (r *Raster) Data() []byte { return r.buf.Bytes() }

func (r *Raster) unsupported(cmd string) error {
	return fmt.Errorf("%s on %s: %w", cmd, r.model.Name, ErrUnsupportedCommand)
}

// SetMedia configures the media fields sent with AddMediaAndQuality.
func (r *Raster) SetMedia(mediaType byte, width, length int) {
	t, w, l := mediaType, byte(width), byte(length&0xFF)
	r.mediaType, r.mediaWidth, r.mediaLength = &t, &w, &l
}

// AddSwitchMode selects raster mode on printers with several command modes.
func (r *Raster) AddSwitchMode() error {
	if !r.model.ModeSetting {
		return r.unsupported("switch mode")
	}
	r.buf.Write([]byte{0x1B, 0x69, 0x61, 0x01})
	return nil
}

// AddInvalidate clears any partial command left in the printer buffer.
func (r *Raster) AddInvalidate() {
	r.buf.Write(make([]byte, r.model.NumInvalidateBytes))
}

// AddInitialize resets the printer.
func (r *Raster) AddInitialize() {
	r.pageNumber = 0
	r.buf.Write([]byte{0x1B, 0x40})
}

// AddStatusInformation requests a status reply.
func (r *Raster) AddStatusInformation() {
	r.buf.Write([]byte{0x1B, 0x69, 0x53})
}

// AddMediaAndQuality writes the print information command for rows raster lines.
func (r *Raster) AddMediaAndQuality(rows int) {
	r.buf.Write([]byte{0x1B, 0x69, 0x7A})
	flags := byte(0x80)
	if r.mediaType != nil {
		flags |= 1 << 1
	}
	if r.mediaWidth != nil {
		flags |= 1 << 2
	}
	if r.mediaLength != nil {
		flags |= 1 << 3
	}
	flags |= 1 << 6 // high quality
	r.buf.WriteByte(flags)
	for _, v := range []*byte{r.mediaType, r.mediaWidth, r.mediaLength} {
		if v == nil {
			r.buf.WriteByte(0)
		} else {
			r.buf.WriteByte(*v)
		}
	}
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(rows))
	r.buf.Write(n[:])
	if r.pageNumber == 0 {
		r.buf.WriteByte(0)
	} else {
		r.buf.WriteByte(1)
	}
	r.buf.WriteByte(0)
}

// AddAutocut toggles the automatic cutter.
func (r *Raster) AddAutocut(on bool) error {
	if !r.model.Cutting {
		return r.unsupported("autocut")
	}
	var v byte
	if on {
		v = 1 << 6
	}
	r.buf.Write([]byte{0x1B, 0x69, 0x4D, v})
	return nil
}

// AddCutEvery cuts after every n labels.
func (r *Raster) AddCutEvery(n int) error {
	if !r.model.Cutting {
		return r.unsupported("cut every")
	}
	r.buf.Write([]byte{0x1B, 0x69, 0x41, byte(n & 0xFF)})
	return nil
}

// AddExpandedMode writes cut-at-end, resolution and two-colour flags.
func (r *Raster) AddExpandedMode() error {
	if !r.model.ExpandedMode {
		return r.unsupported("expanded mode")
	}
	if r.TwoColorPrinting && !r.model.TwoColor {
		return r.unsupported("two-colour printing")
	}
	var flags byte
	if r.TwoColorPrinting {
		flags |= 1
	}
	if r.CutAtEnd {
		flags |= 1 << 3
	}
	if r.DPI600 {
		flags |= 1 << 6
	}
	r.buf.Write([]byte{0x1B, 0x69, 0x4B, flags})
	return nil
}

// AddMargins sets the feed amount in dots.
func (r *Raster) AddMargins(dots int) {
	r.buf.Write([]byte{0x1B, 0x69, 0x64})
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(dots))
	r.buf.Write(n[:])
}

// AddCompression enables PackBits compression of raster rows.
func (r *Raster) AddCompression(on bool) error {
	if !r.model.Compression {
		return r.unsupported("compression")
	}
	r.compression = on
	var v byte
	if on {
		v = 1 << 1
	}
	r.buf.Write([]byte{0x4D, v})
	return nil
}

// AddRasterData writes one raster line per bitmap row. When red is non-nil
// both planes are written as two-colour lines.
func (r *Raster) AddRasterData(black, red *Bitmap) error {
	width := r.model.PixelWidth()
	if black.Width != width {
		return fmt.Errorf("raster width %d does not match printer width %d", black.Width, width)
	}
	if red != nil {
		if !r.model.TwoColor {
			return r.unsupported("two-colour raster")
		}
		if red.Width != black.Width || red.Height != black.Height {
			return fmt.Errorf("red plane %dx%d does not match black plane %dx%d", red.Width, red.Height, black.Width, black.Height)
		}
	}
	for y := 0; y < black.Height; y++ {
		if red == nil {
			r.writeRow(0x67, 0x00, black.packRow(y))
			continue
		}
		r.writeRow(0x77, 0x01, black.packRow(y))
		r.writeRow(0x77, 0x02, red.packRow(y))
	}
	r.rows += black.Height
	return nil
}

func (r *Raster) writeRow(cmd, plane byte, row []byte) {
	if r.compression {
		row = packBits(row)
	}
	r.buf.Write([]byte{cmd, plane, byte(len(row))})
	r.buf.Write(row)
}

// AddPrint ends the page; the last page feeds and cuts.
func (r *Raster) AddPrint(lastPage bool) {
	if lastPage {
		r.buf.WriteByte(0x1A)
	} else {
		r.buf.WriteByte(0x0C)
	}
	r.pageNumber++
}

// Bitmap is a one bit per pixel image. Non-zero entries of Pix are printed.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// NewBitmap allocates an empty bitmap.
func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{Width: width, Height: height, Pix: make([]byte, width*height)}
}

// Set marks the dot at x, y.
func (b *Bitmap) Set(x, y int) { b.Pix[y*b.Width+x] = 1 }

// At reports whether the dot at x, y is printed.
func (b *Bitmap) At(x, y int) bool { return b.Pix[y*b.Width+x] != 0 }

// packRow mirrors the row horizontally (the print head runs right to left)
// and packs it MSB first.
func (b *Bitmap) packRow(y int) []byte {
	row := make([]byte, (b.Width+7)/8)
	base := y * b.Width
	for x := 0; x < b.Width; x++ {
		if b.Pix[base+b.Width-1-x] != 0 {
			row[x/8] |= 0x80 >> uint(x%8)
		}
	}
	return row
}

// packBits implements the TIFF PackBits run-length encoding.
func packBits(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/128+1)
	i := 0
	for i < len(src) {
		j := i + 1
		for j < len(src) && j-i < 128 && src[j] == src[i] {
			j++
		}
		if run := j - i; run >= 2 {
			out = append(out, byte(1-run), src[i])
			i = j
			continue
		}
		start := i
		for i < len(src) && i-start < 128 {
			if i+1 < len(src) && src[i] == src[i+1] {
				break
			}
			i++
		}
		out = append(out, byte(i-start-1))
		out = append(out, src[start:i]...)
	}
	return out
}
