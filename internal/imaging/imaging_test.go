package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func sample(t *testing.T, w, h int) image.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestResizerPNG(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, sample(t, 640, 480)))

	out, err := NewResizer(0, 0, "").Transform(context.Background(), in.Bytes())
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())
}

func TestResizerAcceptsBMPAndEmitsJPEG(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, bmp.Encode(&in, sample(t, 50, 30)))

	out, err := NewResizer(64, 32, "jpeg").Transform(context.Background(), in.Bytes())
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestResizerDecodeError(t *testing.T) {
	_, err := NewResizer(0, 0, "").Transform(context.Background(), []byte("definitely not an image"))
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode(sample(t, 2, 2), "tga", 0)
	assert.Error(t, err)
}
