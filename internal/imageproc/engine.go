// Package imageproc provides the pure transformation engine: it decodes raw
// image bytes, applies the requested operations in a fixed order and encodes
// the result. No I/O, no shared state - same input always gives same output.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/disintegration/imaging"
)

// Transform applies spec to src. Operation order is fixed: resize, crop,
// rotate, filters (grayscale then sepia), encode. Each step runs only if
// present in the spec and operates on the output of the previous one.
// Rotation by a non-axis-aligned angle grows the bounding box; the uncovered
// area is filled transparent, which alpha-less encodings flatten to black.
func Transform(src []byte, spec model.TransformSpec) ([]byte, model.ResultMeta, error) {
	outFormat, err := model.EncodeFormat(spec.Format)
	if err != nil {
		return nil, model.ResultMeta{}, fmt.Errorf("resolve output format %q: %w", spec.Format, err)
	}

	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, model.ResultMeta{}, fmt.Errorf("%w: %v", model.ErrDecodeImage, err)
	}

	if spec.Resize != nil {
		if img, err = resize(img, spec.Resize); err != nil {
			return nil, model.ResultMeta{}, err
		}
	}

	if spec.Crop != nil {
		if img, err = crop(img, spec.Crop); err != nil {
			return nil, model.ResultMeta{}, err
		}
	}

	if spec.Rotate != nil {
		img = imaging.Rotate(img, spec.Rotate.Degrees, color.Transparent)
	}

	if spec.Filters != nil {
		img = applyFilters(img, spec.Filters)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, outFormat); err != nil {
		return nil, model.ResultMeta{}, fmt.Errorf("encode result image: %w", err)
	}

	meta := model.ResultMeta{
		Format:    model.FormatName[outFormat],
		Width:     img.Bounds().Dx(),
		Height:    img.Bounds().Dy(),
		SizeBytes: buf.Len(),
	}
	return buf.Bytes(), meta, nil
}

// resize applies exact target dimensions - aspect ratio is intentionally
// not preserved, the caller asked for these numbers.
func resize(img image.Image, spec *model.ResizeSpec) (image.Image, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("%w: resize %dx%d", model.ErrInvalidGeometry, spec.Width, spec.Height)
	}
	return imaging.Resize(img, spec.Width, spec.Height, imaging.Lanczos), nil
}

// crop cuts the rectangle out of the current buffer; the whole rectangle
// must lie inside the buffer bounds.
func crop(img image.Image, spec *model.CropSpec) (image.Image, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	switch {
	case spec.Width <= 0 || spec.Height <= 0:
		return nil, fmt.Errorf("%w: crop %dx%d", model.ErrInvalidGeometry, spec.Width, spec.Height)
	case spec.X < 0 || spec.Y < 0:
		return nil, fmt.Errorf("%w: crop offset (%d,%d)", model.ErrInvalidGeometry, spec.X, spec.Y)
	case spec.X+spec.Width > w || spec.Y+spec.Height > h:
		return nil, fmt.Errorf("%w: crop rect (%d,%d)+%dx%d exceeds %dx%d",
			model.ErrInvalidGeometry, spec.X, spec.Y, spec.Width, spec.Height, w, h)
	}

	rect := image.Rect(spec.X, spec.Y, spec.X+spec.Width, spec.Y+spec.Height)
	return imaging.Crop(img, rect), nil
}
