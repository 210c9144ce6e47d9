// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package pixel

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// BytesPerPixel is the number of bytes used by a single pixel in an Image.
const BytesPerPixel = 3

// ErrSizeMismatch is returned when a pixel buffer's size does not match its
// declared dimensions.
var ErrSizeMismatch = errors.New("pixel buffer size mismatch")

// Image is a row-major RGB pixel buffer, 3 bytes per pixel.
//
// An Image used by a painter must not be modified while that painter is in
// use. The painter borrows the buffer rather than copying it.
type Image struct {
	Width  int
	Height int

	buf []byte
}

// NewImage wraps buf as an Image with the supplied dimensions. buf is used
// directly, not copied.
//
// If buf's size is not width*height*3, NewImage returns an error whose cause
// is ErrSizeMismatch.
func NewImage(buf []byte, width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if expected := width * height * BytesPerPixel; len(buf) != expected {
		return nil, errors.Wrapf(ErrSizeMismatch, "buffer has %d bytes, %dx%d needs %d",
			len(buf), width, height, expected)
	}
	return &Image{
		Width:  width,
		Height: height,
		buf:    buf,
	}, nil
}

// MakeImage allocates a new, black Image.
func MakeImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		buf:    make([]byte, width*height*BytesPerPixel),
	}
}

// FromImage converts img into an RGB Image. Alpha is discarded, not
// composited.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	dst := MakeImage(b.Dx(), b.Dy())

	// Fast path for the common decoder output.
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < dst.Height; y++ {
			start := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[start : start+dst.Width*4]
			out := dst.buf[y*dst.Width*BytesPerPixel:]
			for x := 0; x < dst.Width; x++ {
				out[x*3], out[x*3+1], out[x*3+2] = row[x*4], row[x*4+1], row[x*4+2]
			}
		}
		return dst
	}

	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			dst.SetPixel(x, y, P{Red: c.R, Green: c.G, Blue: c.B})
		}
	}
	return dst
}

// Bytes returns the raw row-major RGB bytes for this image.
func (img *Image) Bytes() []byte { return img.buf }

// Pixel returns the pixel at (x, y).
//
// If (x, y) is out of bounds, Pixel will return a zero value.
func (img *Image) Pixel(x, y int) (p P) {
	offset, ok := img.offset(x, y)
	if !ok {
		return
	}
	p.Red, p.Green, p.Blue = img.buf[offset], img.buf[offset+1], img.buf[offset+2]
	return
}

// SetPixel sets the pixel value at (x, y).
//
// If (x, y) is out of bounds, SetPixel will do nothing.
func (img *Image) SetPixel(x, y int, p P) {
	offset, ok := img.offset(x, y)
	if !ok {
		return
	}
	img.buf[offset], img.buf[offset+1], img.buf[offset+2] = p.Red, p.Green, p.Blue
}

func (img *Image) offset(x, y int) (int, bool) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0, false
	}
	return (y*img.Width + x) * BytesPerPixel, true
}
