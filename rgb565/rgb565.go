// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rgb565 implements a 16 bits per pixel image in the byte order
// expected by color OLED and TFT controllers: red in the 5 most significant
// bits, then 6 bits of green and 5 of blue, high byte first.
//
// Image also implements the TinyGo drivers.Displayer interface so tinyfont
// and tinydraw can render onto it.
package rgb565

import (
	"image"
	"image/color"

	"tinygo.org/x/drivers"
)

// Color is a RGB565 color.
type Color uint16

// Common colors.
const (
	Black Color = 0x0000
	White Color = 0xffff
	Red   Color = 0xf800
	Green Color = 0x07e0
	Blue  Color = 0x001f
	Gray  Color = 0x8410
)

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1f
	g6 := uint32(c>>5) & 0x3f
	b5 := uint32(c) & 0x1f
	r = r5<<11 | r5<<6 | r5<<1 | r5>>4
	g = g6<<10 | g6<<4 | g6>>2
	b = b5<<11 | b5<<6 | b5<<1 | b5>>4
	return r, g, b, 0xffff
}

// Model is the color.Model of Color.
var Model = color.ModelFunc(convert)

func convert(c color.Color) color.Color {
	if c, ok := c.(Color); ok {
		return c
	}
	return fromRGBA(c.RGBA())
}

// FromRGBA converts an 8 bits per channel color, ignoring alpha.
func FromRGBA(c color.RGBA) Color {
	return Color(uint16(c.R)>>3<<11 | uint16(c.G)>>2<<5 | uint16(c.B)>>3)
}

func fromRGBA(r, g, b, _ uint32) Color {
	return Color((r>>11)<<11 | (g>>10)<<5 | b>>11)
}

// Image is an in-memory image of Color.
type Image struct {
	// Pix holds the pixels, 2 bytes each, high byte first.
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewImage returns an image of the given bounds, all black.
func NewImage(r image.Rectangle) *Image {
	return &Image{
		Pix:    make([]byte, 2*r.Dx()*r.Dy()),
		Stride: 2 * r.Dx(),
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	return i.Color565At(x, y)
}

// Color565At returns the color of the pixel at (x, y), black if outside.
func (i *Image) Color565At(x, y int) Color {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return Black
	}
	o := i.PixOffset(x, y)
	return Color(uint16(i.Pix[o])<<8 | uint16(i.Pix[o+1]))
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (i *Image) PixOffset(x, y int) int {
	return (y-i.Rect.Min.Y)*i.Stride + (x-i.Rect.Min.X)*2
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	i.Set565(x, y, convert(c).(Color))
}

// Set565 sets the pixel at (x, y). Points outside are ignored.
func (i *Image) Set565(x, y int, c Color) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	o := i.PixOffset(x, y)
	i.Pix[o] = byte(c >> 8)
	i.Pix[o+1] = byte(c)
}

// Fill sets all the pixels.
func (i *Image) Fill(c Color) {
	i.FillRect(i.Rect, c)
}

// FillRect sets all the pixels of r clipped to the image.
func (i *Image) FillRect(r image.Rectangle, c Color) {
	r = r.Intersect(i.Rect)
	hi, lo := byte(c>>8), byte(c)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := i.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			i.Pix[o] = hi
			i.Pix[o+1] = lo
			o += 2
		}
	}
}

// Size implements drivers.Displayer.
func (i *Image) Size() (x, y int16) {
	return int16(i.Rect.Dx()), int16(i.Rect.Dy())
}

// SetPixel implements drivers.Displayer. Coordinates are relative to the
// image origin.
func (i *Image) SetPixel(x, y int16, c color.RGBA) {
	i.Set565(i.Rect.Min.X+int(x), i.Rect.Min.Y+int(y), FromRGBA(c))
}

// Display implements drivers.Displayer. The image is kept in memory, there
// is nothing to flush.
func (i *Image) Display() error {
	return nil
}

var _ drivers.Displayer = &Image{}
