package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func testImageBytes(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 100, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, format)
	require.NoError(t, err)

	return buf.Bytes()
}

func mustDecode(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, img)

	return img
}

func TestTransform_EmptySpec(t *testing.T) {
	src := testImageBytes(t, 120, 80, imaging.PNG)

	out, meta, err := Transform(src, model.TransformSpec{})
	require.NoError(t, err)

	// no ops requested: same dimensions, re-encoded in the default format
	require.Equal(t, "jpeg", meta.Format)
	require.Equal(t, 120, meta.Width)
	require.Equal(t, 80, meta.Height)
	require.Equal(t, len(out), meta.SizeBytes)

	img := mustDecode(t, out)
	require.Equal(t, 120, img.Bounds().Dx())
	require.Equal(t, 80, img.Bounds().Dy())
}

func TestTransform_Deterministic(t *testing.T) {
	src := testImageBytes(t, 60, 60, imaging.PNG)
	spec := model.TransformSpec{
		Resize:  &model.ResizeSpec{Width: 30, Height: 20},
		Filters: &model.FilterSpec{Grayscale: true},
		Format:  "png",
	}

	first, _, err := Transform(src, spec)
	require.NoError(t, err)
	second, _, err := Transform(src, spec)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestTransform_Resize(t *testing.T) {
	tests := []struct {
		name    string
		resize  model.ResizeSpec
		wantErr error
	}{
		{name: "exact target dims", resize: model.ResizeSpec{Width: 50, Height: 50}},
		{name: "aspect not preserved", resize: model.ResizeSpec{Width: 10, Height: 90}},
		{name: "zero width", resize: model.ResizeSpec{Width: 0, Height: 50}, wantErr: model.ErrInvalidGeometry},
		{name: "negative height", resize: model.ResizeSpec{Width: 50, Height: -1}, wantErr: model.ErrInvalidGeometry},
	}

	src := testImageBytes(t, 200, 100, imaging.PNG)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, meta, err := Transform(src, model.TransformSpec{
				Resize: &tt.resize,
				Format: "png",
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.resize.Width, meta.Width)
			require.Equal(t, tt.resize.Height, meta.Height)

			img := mustDecode(t, out)
			require.Equal(t, tt.resize.Width, img.Bounds().Dx())
			require.Equal(t, tt.resize.Height, img.Bounds().Dy())
		})
	}
}

func TestTransform_Crop(t *testing.T) {
	tests := []struct {
		name    string
		crop    model.CropSpec
		wantErr error
	}{
		{name: "inner rect", crop: model.CropSpec{X: 10, Y: 10, Width: 30, Height: 20}},
		{name: "full frame", crop: model.CropSpec{X: 0, Y: 0, Width: 100, Height: 50}},
		{name: "x overflow", crop: model.CropSpec{X: 80, Y: 0, Width: 30, Height: 20}, wantErr: model.ErrInvalidGeometry},
		{name: "y overflow", crop: model.CropSpec{X: 0, Y: 40, Width: 20, Height: 20}, wantErr: model.ErrInvalidGeometry},
		{name: "negative offset", crop: model.CropSpec{X: -1, Y: 0, Width: 20, Height: 20}, wantErr: model.ErrInvalidGeometry},
		{name: "zero size", crop: model.CropSpec{X: 0, Y: 0, Width: 0, Height: 20}, wantErr: model.ErrInvalidGeometry},
	}

	src := testImageBytes(t, 100, 50, imaging.PNG)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, meta, err := Transform(src, model.TransformSpec{
				Crop:   &tt.crop,
				Format: "png",
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.crop.Width, meta.Width)
			require.Equal(t, tt.crop.Height, meta.Height)
		})
	}
}

func TestTransform_CropAfterResize(t *testing.T) {
	// crop offsets apply to the already-resized buffer: this rect fits a
	// 400x200 resize result but not the 100x50 source
	src := testImageBytes(t, 100, 50, imaging.PNG)

	_, meta, err := Transform(src, model.TransformSpec{
		Resize: &model.ResizeSpec{Width: 400, Height: 200},
		Crop:   &model.CropSpec{X: 150, Y: 60, Width: 200, Height: 100},
		Format: "png",
	})
	require.NoError(t, err)
	require.Equal(t, 200, meta.Width)
	require.Equal(t, 100, meta.Height)
}

func TestTransform_Rotate(t *testing.T) {
	src := testImageBytes(t, 100, 50, imaging.PNG)

	t.Run("90 degrees swaps dimensions", func(t *testing.T) {
		_, meta, err := Transform(src, model.TransformSpec{
			Rotate: &model.RotateSpec{Degrees: 90},
			Format: "png",
		})
		require.NoError(t, err)
		require.Equal(t, 50, meta.Width)
		require.Equal(t, 100, meta.Height)
	})

	t.Run("45 degrees grows bounding box", func(t *testing.T) {
		out, meta, err := Transform(src, model.TransformSpec{
			Rotate: &model.RotateSpec{Degrees: 45},
			Format: "png",
		})
		require.NoError(t, err)
		require.Greater(t, meta.Width, 100)
		require.Greater(t, meta.Height, 50)

		// uncovered corner must be filled transparent in PNG output
		img := mustDecode(t, out)
		_, _, _, a := img.At(0, 0).RGBA()
		require.Zero(t, a)
	})
}

func TestTransform_Grayscale(t *testing.T) {
	src := testImageBytes(t, 20, 20, imaging.PNG)

	out, meta, err := Transform(src, model.TransformSpec{
		Filters: &model.FilterSpec{Grayscale: true},
		Format:  "png",
	})
	require.NoError(t, err)
	require.Equal(t, "png", meta.Format)

	img := mustDecode(t, out)
	for y := 0; y < 20; y += 5 {
		for x := 0; x < 20; x += 5 {
			r, g, b, _ := img.At(x, y).RGBA()
			require.Equal(t, r, g)
			require.Equal(t, g, b)
		}
	}
}

func TestTransform_Sepia(t *testing.T) {
	src := testImageBytes(t, 20, 20, imaging.PNG)

	out, _, err := Transform(src, model.TransformSpec{
		Filters: &model.FilterSpec{Sepia: true},
		Format:  "png",
	})
	require.NoError(t, err)

	// warm remap: red channel above green above blue
	img := mustDecode(t, out)
	r, g, b, _ := img.At(10, 10).RGBA()
	require.Greater(t, r, g)
	require.Greater(t, g, b)
}

func TestTransform_SepiaSupersedesGrayscale(t *testing.T) {
	src := testImageBytes(t, 20, 20, imaging.PNG)

	out, _, err := Transform(src, model.TransformSpec{
		Filters: &model.FilterSpec{Grayscale: true, Sepia: true},
		Format:  "png",
	})
	require.NoError(t, err)

	// sepia runs after grayscale, so channels must differ again
	img := mustDecode(t, out)
	r, g, b, _ := img.At(10, 10).RGBA()
	require.Greater(t, r, g)
	require.Greater(t, g, b)
}

func TestTransform_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     []byte
		spec    model.TransformSpec
		wantErr error
	}{
		{
			name:    "broken image",
			src:     []byte("not-an-image"),
			spec:    model.TransformSpec{},
			wantErr: model.ErrDecodeImage,
		},
		{
			name:    "unsupported output format",
			src:     testImageBytes(t, 10, 10, imaging.PNG),
			spec:    model.TransformSpec{Format: "webp"},
			wantErr: model.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Transform(tt.src, tt.spec)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
