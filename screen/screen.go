// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen implements a 2D display.Drawer that outputs to terminal
// (stdout) using ANSI color codes.
//
// It stands in for the OLED when running the station on a host without
// one. Each frame is redrawn in place.
package screen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	W, H int
	// Scale keeps one pixel out of Scale in each direction. 0 means 1.
	Scale   int
	Palette *ansi256.Palette
	// Out defaults to stdout.
	Out io.Writer

	_ struct{}
}

// Dev is a small screen emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	rect    image.Rectangle
	scale   int
	palette ansi256.Palette

	// pixels holds 3 bytes per pixel, row after row.
	pixels []byte
	buf    bytes.Buffer
	lines  int
}

// New returns a Dev that displays at the console.
func New(opts *Opts) (*Dev, error) {
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("screen: invalid size %dx%d", opts.W, opts.H)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	s := opts.Scale
	if s <= 0 {
		s = 1
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		rect:    image.Rect(0, 0, opts.W, opts.H),
		scale:   s,
		palette: *p,
		pixels:  make([]byte, 3*opts.W*opts.H),
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("Screen{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Write accepts a stream of raw RGB pixels and writes it to the console.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.pixels) {
		return 0, errors.New("screen: invalid RGB stream length")
	}
	copy(d.pixels, pixels)
	return d.refresh()
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	// sp maps to the unclipped corner of r.
	origin := r.Min
	r = r.Intersect(d.rect)
	w := d.rect.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			r16, g16, b16, _ := src.At(sp.X+x-origin.X, sp.Y+y-origin.Y).RGBA()
			i := 3 * (y*w + x)
			d.pixels[i] = byte(r16 >> 8)
			d.pixels[i+1] = byte(g16 >> 8)
			d.pixels[i+2] = byte(b16 >> 8)
		}
	}
	_, err := d.refresh()
	return err
}

func (d *Dev) refresh() (int, error) {
	d.buf.Reset()
	if d.lines != 0 {
		// Go back to the top of the previous frame.
		fmt.Fprintf(&d.buf, "\033[%dA", d.lines)
	}
	w := d.rect.Dx()
	lines := 0
	for y := 0; y < d.rect.Dy(); y += d.scale {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := 0; x < w; x += d.scale {
			i := 3 * (y*w + x)
			c := color.NRGBA{d.pixels[i], d.pixels[i+1], d.pixels[i+2], 255}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
		lines++
	}
	d.lines = lines
	_, err := d.buf.WriteTo(d.w)
	return len(d.pixels), err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
