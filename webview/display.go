// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package webview mirrors the station display and its latest readings over
// HTTP.
//
// Display is a display.Drawer. Clients of /display.mjpeg get an initial
// snapshot and a new image on every change, using the "MJPEG" protocol
// (https://en.wikipedia.org/wiki/Motion_JPEG). /display.png returns a single
// snapshot and /readings.json the last values published with SetReadings.
//
// The display is tiny, images are scaled up with nearest neighbor
// interpolation so pixels stay sharp.
package webview

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/display"
)

// Options for webview devices.
type Options struct {
	// Width and height of the mirrored display.
	Width, Height int
	// Scale is the magnification of served images. 0 means 4.
	Scale int
	// Format specifies the default image format sent to clients.
	Format ImageFormat
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Display is an HTTP mirror of a display.
type Display struct {
	defaultFormat ImageFormat
	log           logrus.FieldLogger

	mu       sync.Mutex
	buffer   *image.RGBA
	scaled   *image.RGBA
	clients  map[*client]struct{}
	snapshot map[ImageFormat][]byte
	readings []byte
}

// New creates a new webview instance.
func New(opt *Options) (*Display, error) {
	if opt.Width <= 0 || opt.Height <= 0 {
		return nil, fmt.Errorf("webview: invalid size %dx%d", opt.Width, opt.Height)
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 4
	}
	l := opt.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	buffer := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	// Make the buffer opaque.
	draw.Draw(buffer, buffer.Bounds(), image.Black, image.Point{}, draw.Src)
	d := &Display{
		defaultFormat: opt.Format,
		log:           l,
		buffer:        buffer,
		scaled:        image.NewRGBA(image.Rect(0, 0, opt.Width*scale, opt.Height*scale)),
		clients:       map[*client]struct{}{},
		snapshot:      map[ImageFormat][]byte{},
		readings:      []byte("{}"),
	}
	d.rescaleLocked()
	return d, nil
}

// String returns the name of the device.
func (d *Display) String() string {
	return "WebView"
}

// Halt implements conn.Resource and terminates all running client requests
// asynchronously.
func (d *Display) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return d.buffer.ColorModel()
}

// Bounds implements display.Drawer.
func (d *Display) Bounds() image.Rectangle {
	return d.buffer.Bounds()
}

// Draw implements display.Drawer.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	draw.Draw(d.buffer, dstRect, src, srcPts, draw.Src)
	d.rescaleLocked()
	d.bufferChangedLocked()
	return nil
}

// SetReadings publishes v, served as JSON on /readings.json.
func (d *Display) SetReadings(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("webview: %w", err)
	}
	d.mu.Lock()
	d.readings = b
	d.mu.Unlock()
	return nil
}

func (d *Display) rescaleLocked() {
	xdraw.NearestNeighbor.Scale(d.scaled, d.scaled.Bounds(), d.buffer, d.buffer.Bounds(), xdraw.Src, nil)
}

func (d *Display) bufferChangedLocked() {
	clear(d.snapshot)
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

var _ display.Drawer = (*Display)(nil)
