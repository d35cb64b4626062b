// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dashboard draws the station screens on a 96x64 RGB565 image.
package dashboard

import (
	"image"
	"strconv"

	"github.com/GermanBionicSystems/airstation/co2"
	"github.com/GermanBionicSystems/airstation/dht11"
	"github.com/GermanBionicSystems/airstation/hcho"
	"github.com/GermanBionicSystems/airstation/rgb565"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	// Width and Height of the screen, in pixels.
	Width  = 96
	Height = 64
	// LineHeight is the distance between two text rows.
	LineHeight = 8
	// ValueX is the column where values start.
	ValueX = 40
)

// Colors used on the screens.
const (
	Background rgb565.Color = 0x8410
	Text       rgb565.Color = 0xffff
	Raspberry  rgb565.Color = 0xe007
	Pi         rgb565.Color = 0x1f00
	Micro      rgb565.Color = 0x00f1
	Python     rgb565.Color = 0xff07
)

// Font is used for all text. Text rows are LineHeight pixels high and
// Baseline is the offset of the font baseline from the top of a row.
var (
	Font     tinyfont.Fonter = &proggy.TinySZ8pt7b
	Baseline int16           = 7
)

// Values is what the readings screen shows.
type Values struct {
	CO2  co2.PPM
	PM   int
	HCHO hcho.PPM
	TH   dht11.Reading
}

// Line is one text item, its top left corner at X, Y.
type Line struct {
	X, Y  int
	Text  string
	Color rgb565.Color
}

// Box is a filled rectangle drawn under the text.
type Box struct {
	Rect  image.Rectangle
	Color rgb565.Color
}

// Screen is a background, boxes and text.
type Screen struct {
	Background rgb565.Color
	Boxes      []Box
	Lines      []Line
}

// Welcome returns the screen shown while the first measurement is running.
func Welcome() Screen {
	return Screen{
		Background: rgb565.White,
		Lines: []Line{
			{X: 24, Y: 24, Text: "PLEASE", Color: rgb565.Black},
			{X: 32, Y: 32, Text: "WAIT", Color: rgb565.Black},
		},
	}
}

// Readings returns the screen showing v.
func Readings(v Values) Screen {
	row := func(i int) int { return i * LineHeight }
	return Screen{
		Background: Background,
		Boxes: []Box{
			{Rect: image.Rect(0, row(6), 32, row(7)), Color: rgb565.White},
		},
		Lines: []Line{
			{X: 0, Y: row(0), Text: "CO2:", Color: Text},
			{X: ValueX, Y: row(0), Text: strconv.Itoa(int(v.CO2)) + "ppm", Color: Text},
			{X: 0, Y: row(1), Text: "PM:", Color: Text},
			{X: ValueX, Y: row(1), Text: strconv.Itoa(v.PM) + "ug/m3", Color: Text},
			{X: 0, Y: row(2), Text: "HCHO:", Color: Text},
			{X: ValueX, Y: row(2), Text: v.HCHO.String(), Color: Text},
			{X: 0, Y: row(3), Text: "TEM:", Color: Text},
			{X: ValueX, Y: row(3), Text: v.TH.TemperatureString() + "c", Color: Text},
			{X: 0, Y: row(4), Text: "HUM:", Color: Text},
			{X: ValueX, Y: row(4), Text: v.TH.HumidityString() + "%", Color: Text},
			{X: 0, Y: row(5), Text: "Raspberry", Color: Raspberry},
			{X: 80, Y: row(5), Text: "Pi", Color: Pi},
			{X: 0, Y: row(6), Text: "PICO", Color: rgb565.Black},
			{X: ValueX, Y: row(6), Text: "with", Color: Text},
			{X: 0, Y: row(7), Text: "Micro", Color: Micro},
			{X: ValueX, Y: row(7), Text: "Python", Color: Python},
		},
	}
}

// NewImage returns an image the size of the screen.
func NewImage() *rgb565.Image {
	return rgb565.NewImage(image.Rect(0, 0, Width, Height))
}

// Draw renders s onto img.
func (s Screen) Draw(img *rgb565.Image) {
	img.Fill(s.Background)
	for _, b := range s.Boxes {
		img.FillRect(b.Rect, b.Color)
	}
	for _, l := range s.Lines {
		r, g, b, _ := l.Color.RGBA()
		c := color8(r, g, b)
		tinyfont.WriteLine(img, Font, int16(l.X), int16(l.Y)+Baseline, l.Text, c)
	}
}
