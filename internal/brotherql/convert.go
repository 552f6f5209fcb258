package brotherql

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var (
	// ErrUnknownLabel is returned for label identifiers missing from the spec table.
	ErrUnknownLabel = errors.New("unknown label size")
	// ErrLabelTooLong is returned when a job exceeds the model's maximum length.
	ErrLabelTooLong = errors.New("label is too long for this printer")
)

// Rotation is the counter-clockwise rotation applied before printing.
type Rotation int

// RotateAuto rotates die-cut images by 90 degrees when their dimensions are
// swapped relative to the label.
const RotateAuto Rotation = -1

// ConvertOptions controls how an image is turned into raster data.
type ConvertOptions struct {
	// Threshold in percent. Higher values print lighter pixels too.
	Threshold float64
	Cut       bool
	Red       bool
	Rotate    Rotation
	Compress  bool
}

// Convert appends the complete command sequence for printing img on the
// label identified by labelID.
func Convert(r *Raster, img image.Image, labelID string, opts ConvertOptions) error {
	spec, ok := Label(labelID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLabel, labelID)
	}
	model := r.Model()
	if !spec.SupportedBy(model.Name) {
		return fmt.Errorf("label %s is not supported by %s", spec.Identifier, model.Name)
	}
	if opts.Red && !model.TwoColor {
		return fmt.Errorf("label %s needs a two-colour printer: %w", spec.Identifier, ErrUnsupportedCommand)
	}

	prepared, err := prepareImage(img, spec, model, opts.Rotate)
	if err != nil {
		return err
	}
	if rows := prepared.Bounds().Dy(); rows > model.MaxLengthDots {
		return fmt.Errorf("%w: %d dots, %s feeds at most %d", ErrLabelTooLong, rows, model.Name, model.MaxLengthDots)
	}
	black, red := threshold(prepared, opts.Threshold, opts.Red)

	if err := r.AddSwitchMode(); err != nil && !errors.Is(err, ErrUnsupportedCommand) {
		return err
	}
	r.AddInvalidate()
	r.AddInitialize()
	if err := r.AddSwitchMode(); err != nil && !errors.Is(err, ErrUnsupportedCommand) {
		return err
	}

	r.AddStatusInformation()
	if spec.Kind == EndlessLabel {
		r.SetMedia(mediaTypeEndless, spec.TapeSize[0], 0)
	} else {
		r.SetMedia(mediaTypeDieCut, spec.TapeSize[0], spec.TapeSize[1])
	}
	r.AddMediaAndQuality(black.Height)

	if opts.Cut {
		if err := r.AddAutocut(true); err == nil {
			_ = r.AddCutEvery(1)
		}
	}
	r.CutAtEnd = opts.Cut
	r.TwoColorPrinting = opts.Red
	if err := r.AddExpandedMode(); err != nil && !errors.Is(err, ErrUnsupportedCommand) {
		return err
	}
	r.AddMargins(spec.FeedMargin)
	if opts.Compress {
		_ = r.AddCompression(true)
	}
	if err := r.AddRasterData(black, red); err != nil {
		return err
	}
	r.AddPrint(true)
	return nil
}

func rotate(img image.Image, rot Rotation) (image.Image, error) {
	switch rot {
	case 0, RotateAuto:
		return img, nil
	case 90:
		return imaging.Rotate90(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate270(img), nil
	default:
		return nil, fmt.Errorf("unsupported rotation %d", rot)
	}
}

// prepareImage rotates, scales and pads img to the full print head width.
func prepareImage(img image.Image, spec LabelSpec, model Model, rot Rotation) (*image.NRGBA, error) {
	deviceWidth := model.PixelWidth()
	rightMargin := spec.RightMarginDots + model.AdditionalOffsetR
	expected := spec.DotsPrintable

	var err error
	switch spec.Kind {
	case EndlessLabel:
		if img, err = rotate(img, rot); err != nil {
			return nil, err
		}
		if img.Bounds().Dx() != expected.Width {
			img = imaging.Resize(img, expected.Width, 0, imaging.Lanczos)
		}
	default:
		b := img.Bounds()
		if rot == RotateAuto {
			if b.Dx() == expected.Height && b.Dy() == expected.Width {
				img = imaging.Rotate90(img)
			}
		} else if img, err = rotate(img, rot); err != nil {
			return nil, err
		}
		if b = img.Bounds(); b.Dx() != expected.Width || b.Dy() != expected.Height {
			return nil, fmt.Errorf("bad image dimensions %dx%d, expecting %dx%d", b.Dx(), b.Dy(), expected.Width, expected.Height)
		}
	}

	b := img.Bounds()
	if b.Dx()+rightMargin > deviceWidth {
		return nil, fmt.Errorf("image width %d exceeds printer width %d", b.Dx(), deviceWidth-rightMargin)
	}
	canvas := imaging.New(deviceWidth, b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(deviceWidth-b.Dx()-rightMargin, 0), 1.0), nil
}

// threshold splits img into a black plane and, for two-colour media, a red
// plane. Single-colour pixels are printed when their grey value is below
// (100-percent)% of white. Two-colour media classify pixels by hue and value
// alone; red wins over black.
func threshold(img *image.NRGBA, percent float64, twoColor bool) (*Bitmap, *Bitmap) {
	limit := int((100 - percent) / 100.0 * 255)
	if limit < 0 {
		limit = 0
	}
	if limit > 255 {
		limit = 255
	}

	b := img.Bounds()
	black := NewBitmap(b.Dx(), b.Dy())
	var red *Bitmap
	if twoColor {
		red = NewBitmap(b.Dx(), b.Dy())
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			if !twoColor {
				if luminance(c) < limit {
					black.Set(x, y)
				}
				continue
			}
			h, s, v := hsv(c)
			switch {
			case (h < 40 || h > 210) && s > 100 && v > 80:
				red.Set(x, y)
			case v < 80:
				black.Set(x, y)
			}
		}
	}
	return black, red
}

func luminance(c color.NRGBA) int {
	return (int(c.R)*299 + int(c.G)*587 + int(c.B)*114) / 1000
}

// hsv converts to hue, saturation and value scaled to 0..255.
func hsv(c color.NRGBA) (h, s, v int) {
	r, g, b := int(c.R), int(c.G), int(c.B)
	maxc, minc := max(r, g, b), min(r, g, b)
	v = maxc
	if maxc == 0 || maxc == minc {
		return 0, 0, v
	}
	d := maxc - minc
	s = 255 * d / maxc
	var hf float64
	switch maxc {
	case r:
		hf = float64(g-b) / float64(d)
	case g:
		hf = 2 + float64(b-r)/float64(d)
	default:
		hf = 4 + float64(r-g)/float64(d)
	}
	hf /= 6
	if hf < 0 {
		hf++
	}
	return int(hf * 255), s, v
}
