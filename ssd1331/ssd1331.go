// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1331

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/GermanBionicSystems/airstation/rgb565"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Commands
const (
	setColumn        byte = 0x15
	deactivateScroll byte = 0x2E
	setRow           byte = 0x75
	setContrastA     byte = 0x81
	setContrastB     byte = 0x82
	setContrastC     byte = 0x83
	masterCurrent    byte = 0x87
	prechargeA       byte = 0x8A
	prechargeB       byte = 0x8B
	prechargeC       byte = 0x8C
	setRemap         byte = 0xA0
	startLine        byte = 0xA1
	displayOffset    byte = 0xA2
	normalDisplay    byte = 0xA4
	invertDisplay    byte = 0xA7
	setMultiplex     byte = 0xA8
	setMaster        byte = 0xAD
	displayOff       byte = 0xAE
	displayOn        byte = 0xAF
	powerMode        byte = 0xB0
	precharge        byte = 0xB1
	clockDiv         byte = 0xB3
	prechargeLevel   byte = 0xBB
	vcomh            byte = 0xBE
)

// Remap and color depth bits of setRemap.
const (
	remapColumn     = 0x02
	remapCOMReverse = 0x10
	remapCOMSplit   = 0x20
	remapColor65k   = 0x40
)

// Opts defines the options for the device.
type Opts struct {
	W int
	H int
	// Rotated turns the picture by 180°.
	Rotated bool
	// Contrast is applied to the three color channels.
	Contrast byte
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	W:        96,
	H:        64,
	Contrast: 0xFF,
}

// Dev is an open handle to the display controller.
type Dev struct {
	c         conn.Conn
	dc        gpio.PinOut
	rst       gpio.PinOut
	maxTxSize int

	rect image.Rectangle
	// buffer holds the pixels as last sent to the controller.
	buffer []byte
	// next is lazy initialized on first Draw(). Write() skips it.
	next *rgb565.Image
	// window is the area set by SetWindow, empty once flush moved it.
	window image.Rectangle
	fresh  bool
	halted bool
}

// NewSPI returns a Dev object that communicates over SPI to a SSD1331
// display controller.
//
// # Wiring
//
// Connect SDA to SPI_MOSI, SCL to SPI_CLK, CS to SPI_CS. dc is required. rst
// may be nil when the reset line is handled externally; otherwise the
// controller is reset before initialization.
func NewSPI(p spi.Port, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("ssd1331: dc pin is required")
	}
	if opts.W < 1 || opts.W > 96 {
		return nil, fmt.Errorf("ssd1331: invalid width %d", opts.W)
	}
	if opts.H < 1 || opts.H > 64 {
		return nil, fmt.Errorf("ssd1331: invalid height %d", opts.H)
	}
	c, err := p.Connect(6250*physic.KiloHertz, spi.Mode3, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1331: %w", err)
	}
	maxTxSize := 0
	if l, ok := c.(conn.Limits); ok {
		maxTxSize = l.MaxTxSize()
	}
	if maxTxSize <= 0 {
		maxTxSize = 4096
	}
	d := &Dev{
		c:         c,
		dc:        dc,
		rst:       rst,
		maxTxSize: maxTxSize,
		rect:      image.Rect(0, 0, opts.W, opts.H),
		buffer:    make([]byte, opts.W*opts.H*2),
		fresh:     true,
	}
	eh := errorHandler{d: d}
	eh.reset()
	initDisplay(&eh, opts)
	if eh.err != nil {
		return nil, fmt.Errorf("ssd1331: %w", eh.err)
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ssd1331.Dev{%s, %s, %s}", d.c, d.dc, d.rect.Max)
}

// ColorModel implements display.Drawer.
//
// It is a 16 bits color model, as implemented by rgb565.Color.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// It draws synchronously, once this function returns, the display is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	var next []byte
	if img, ok := src.(*rgb565.Image); ok && r == d.rect && img.Rect == d.rect && sp.X == 0 && sp.Y == 0 {
		next = img.Pix
	} else {
		if d.next == nil {
			d.next = rgb565.NewImage(d.rect)
		}
		copy(d.next.Pix, d.buffer)
		next = d.next.Pix
		draw.Src.Draw(d.next, r, src, sp)
	}
	return d.flush(next)
}

// SetWindow restricts the controller's write area to r.
//
// A following Write of exactly r's size streams into r. The window is reset
// once Draw or a full frame Write sends pixels.
func (d *Dev) SetWindow(r image.Rectangle) error {
	if r.Empty() || !r.In(d.rect) {
		return fmt.Errorf("ssd1331: window %s out of %s", r, d.rect)
	}
	eh := errorHandler{d: d}
	setWindow(&eh, r)
	if eh.err != nil {
		d.window = image.Rectangle{}
		return fmt.Errorf("ssd1331: %w", eh.err)
	}
	d.window = r
	return nil
}

// Write writes pixels, 2 bytes per pixel high byte first.
//
// pixels is either a full frame, like the content of rgb565.Image.Pix, or
// the size of the area set by SetWindow.
func (d *Dev) Write(pixels []byte) (int, error) {
	w := d.window
	if !w.Empty() && len(pixels) == w.Dx()*w.Dy()*2 {
		if err := d.writeWindow(w, pixels); err != nil {
			return 0, err
		}
		return len(pixels), nil
	}
	if len(pixels) != len(d.buffer) {
		return 0, fmt.Errorf("ssd1331: invalid pixel stream length; expected %d bytes, got %d bytes", len(d.buffer), len(pixels))
	}
	if err := d.flush(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

func (d *Dev) writeWindow(w image.Rectangle, pixels []byte) error {
	stride := d.rect.Dx() * 2
	row := w.Dx() * 2
	for y := w.Min.Y; y < w.Max.Y; y++ {
		i := (y - w.Min.Y) * row
		copy(d.buffer[y*stride+w.Min.X*2:], pixels[i:i+row])
	}
	eh := errorHandler{d: d}
	eh.sendData(pixels)
	if eh.err != nil {
		d.fresh = true
		return fmt.Errorf("ssd1331: %w", eh.err)
	}
	return nil
}

// Fill paints the whole screen with c.
func (d *Dev) Fill(c rgb565.Color) error {
	img := rgb565.NewImage(d.rect)
	img.Fill(c)
	return d.flush(img.Pix)
}

// Clear paints the screen black.
func (d *Dev) Clear() error {
	return d.Fill(rgb565.Black)
}

// SetContrast changes the contrast of the three color channels.
func (d *Dev) SetContrast(level byte) error {
	eh := errorHandler{d: d}
	eh.sendCommand(setContrastA, level)
	eh.sendCommand(setContrastB, level)
	eh.sendCommand(setContrastC, level)
	return eh.err
}

// Invert the display colors.
func (d *Dev) Invert(inverted bool) error {
	c := normalDisplay
	if inverted {
		c = invertDisplay
	}
	eh := errorHandler{d: d}
	eh.sendCommand(c)
	return eh.err
}

// Halt turns off the display.
//
// Sending any other command afterward reenables the display.
func (d *Dev) Halt() error {
	d.halted = false
	eh := errorHandler{d: d}
	eh.sendCommand(displayOff)
	if eh.err == nil {
		d.halted = true
	}
	return eh.err
}

// flush sends the part of next that differs from what the controller shows.
func (d *Dev) flush(next []byte) error {
	r, ok := d.dirty(next)
	if !ok {
		return nil
	}
	copy(d.buffer, next)
	d.window = image.Rectangle{}
	eh := errorHandler{d: d}
	setWindow(&eh, r)
	stride := d.rect.Dx() * 2
	if r.Dx() == d.rect.Dx() {
		eh.sendData(d.buffer[r.Min.Y*stride : r.Max.Y*stride])
	} else {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			eh.sendData(d.buffer[y*stride+r.Min.X*2 : y*stride+r.Max.X*2])
		}
	}
	if eh.err != nil {
		// The controller content is unknown, resend everything next time.
		d.fresh = true
		return fmt.Errorf("ssd1331: %w", eh.err)
	}
	d.fresh = false
	return nil
}

// dirty returns the smallest rectangle covering the pixels that changed.
func (d *Dev) dirty(next []byte) (image.Rectangle, bool) {
	if d.fresh {
		return d.rect, true
	}
	stride := d.rect.Dx() * 2
	h := d.rect.Dy()
	top, bottom := 0, h
	for ; top < bottom; top++ {
		if !bytes.Equal(d.buffer[top*stride:(top+1)*stride], next[top*stride:(top+1)*stride]) {
			break
		}
	}
	for ; bottom > top; bottom-- {
		if !bytes.Equal(d.buffer[(bottom-1)*stride:bottom*stride], next[(bottom-1)*stride:bottom*stride]) {
			break
		}
	}
	if top == bottom {
		return image.Rectangle{}, false
	}
	changed := func(x int) bool {
		for y := top; y < bottom; y++ {
			i := y*stride + x*2
			if d.buffer[i] != next[i] || d.buffer[i+1] != next[i+1] {
				return true
			}
		}
		return false
	}
	left, right := 0, d.rect.Dx()
	for ; left < right && !changed(left); left++ {
	}
	for ; right > left && !changed(right-1); right-- {
	}
	return image.Rect(left, top, right, bottom), true
}

var _ conn.Resource = &Dev{}
var _ display.Drawer = &Dev{}
