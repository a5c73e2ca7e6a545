// Package imaging turns an uploaded image into a fixed-size thumbnail.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// decoders registered with image.Decode
	_ "image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError means the input is not an image in a supported format.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode image: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Transformer resizes and re-encodes an image buffer.
type Transformer interface {
	Transform(ctx context.Context, buf []byte) ([]byte, error)
}

// Resizer scales to Width x Height and encodes as Format ("png", "jpeg" or "bmp").
type Resizer struct {
	Width   int
	Height  int
	Format  string
	Quality int
}

// NewResizer returns a Resizer, falling back to 200x200 png for zero values.
func NewResizer(width, height int, format string) *Resizer {
	if width <= 0 {
		width = 200
	}
	if height <= 0 {
		height = 200
	}
	if format == "" {
		format = "png"
	}
	return &Resizer{Width: width, Height: height, Format: format, Quality: 85}
}

// Transform decodes buf, scales it and returns the encoded result.
func (r *Resizer) Transform(ctx context.Context, buf []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return Encode(dst, r.Format, r.Quality)
}

// Encode writes img in the named format.
func Encode(img image.Image, format string, quality int) ([]byte, error) {
	var out bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&out, img)
	case "jpeg", "jpg":
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: quality})
	case "bmp":
		err = bmp.Encode(&out, img)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return out.Bytes(), nil
}
