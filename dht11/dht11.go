// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airstation/common"
	"github.com/GermanBionicSystems/airstation/singlewire"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ErrChecksum is returned when the received checksum does not match.
var ErrChecksum = errors.New("dht11: checksum mismatch")

// Checksum selects how the checksum byte is compared.
type Checksum int

const (
	// ChecksumUnbounded compares the plain sum of the first four bytes. A sum
	// above 255 never matches.
	ChecksumUnbounded Checksum = iota
	// ChecksumWrap8 compares the sum modulo 256, as documented for the
	// sensor.
	ChecksumWrap8
)

// Layout selects which bytes carry the temperature.
type Layout int

const (
	// TempFirst reads the temperature from bytes 0 and 1 and the humidity
	// from bytes 2 and 3.
	TempFirst Layout = iota
	// HumidityFirst is the order documented for the sensor: humidity in
	// bytes 0 and 1.
	HumidityFirst
)

// Pin is the part of gpio.PinIO used to wake the sensor up.
type Pin interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
}

// Opts holds the configuration options.
type Opts struct {
	// WakeLow is how long the line is held low to request a measurement.
	WakeLow  time.Duration
	Checksum Checksum
	Layout   Layout
	// Timeout bounds one read. 0 waits forever.
	Timeout time.Duration
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	WakeLow: 18 * time.Millisecond,
}

// Reading is one measurement, as integral and decimal parts.
type Reading struct {
	TempInt uint8
	TempDec uint8
	HumInt  uint8
	HumDec  uint8
}

// IsZero reports whether r is the zero Reading, which is also what a
// checksum failure returns.
func (r Reading) IsZero() bool {
	return r == Reading{}
}

// Temperature returns the temperature, the decimal part being tenths.
func (r Reading) Temperature() physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(r.TempInt)*physic.Celsius + physic.Temperature(r.TempDec)*100*physic.MilliCelsius
}

// Humidity returns the relative humidity, the decimal part being tenths.
func (r Reading) Humidity() physic.RelativeHumidity {
	return physic.RelativeHumidity(r.HumInt)*physic.PercentRH + physic.RelativeHumidity(r.HumDec)*physic.MilliRH
}

// Env fills the temperature and humidity of e.
func (r Reading) Env(e *physic.Env) {
	e.Temperature = r.Temperature()
	e.Humidity = r.Humidity()
}

// TemperatureString returns the temperature as "<int>.<dec>".
func (r Reading) TemperatureString() string {
	return fmt.Sprintf("%d.%d", r.TempInt, r.TempDec)
}

// HumidityString returns the humidity as "<int>.<dec>".
func (r Reading) HumidityString() string {
	return fmt.Sprintf("%d.%d", r.HumInt, r.HumDec)
}

func (r Reading) String() string {
	return r.TemperatureString() + "°C " + r.HumidityString() + "%rH"
}

// FrameConfig returns the frame description of the sensor answer, after the
// wake up pulse.
func FrameConfig() singlewire.Config {
	return singlewire.Config{
		Name:   "dht11",
		Pull:   gpio.PullUp,
		Period: time.Microsecond,
		Start: singlewire.StartCondition{
			{Level: gpio.Low},
			{Level: gpio.High},
			{Level: gpio.Low},
		},
		Bit:      singlewire.PulseWidth{Threshold: 28},
		Words:    5,
		WordBits: 8,
	}
}

// Validate checks the checksum of a 5 bytes frame and decodes it.
//
// On mismatch, the zero Reading is returned with ErrChecksum.
func Validate(f singlewire.Frame, c Checksum, l Layout) (Reading, error) {
	if len(f) != 5 {
		return Reading{}, fmt.Errorf("dht11: expected 5 bytes, got %d", len(f))
	}
	for _, w := range f {
		if w > 0xff {
			return Reading{}, fmt.Errorf("dht11: word %#x is not a byte", w)
		}
	}
	b := f.Bytes()
	var ok bool
	switch c {
	case ChecksumWrap8:
		ok = common.Sum8(b[:4]) == b[4]
	default:
		ok = common.Sum(b[:4]) == int(b[4])
	}
	if !ok {
		return Reading{}, ErrChecksum
	}
	if l == HumidityFirst {
		return Reading{HumInt: b[0], HumDec: b[1], TempInt: b[2], TempDec: b[3]}, nil
	}
	return Reading{TempInt: b[0], TempDec: b[1], HumInt: b[2], HumDec: b[3]}, nil
}

// Dev is a handle to a DHT11 sensor.
type Dev struct {
	p    Pin
	r    singlewire.Reader
	opts Opts

	mu  sync.Mutex
	cfg singlewire.Config
}

// New returns a Dev on pin p, reading frames through r.
//
// r must sample the same line as p.
func New(p Pin, r singlewire.Reader, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.WakeLow < 18*time.Millisecond {
		return nil, fmt.Errorf("dht11: wake pulse must be at least 18ms, got %s", opts.WakeLow)
	}
	d := &Dev{p: p, r: r, opts: *opts, cfg: FrameConfig()}
	d.cfg.Timeout = opts.Timeout
	d.cfg.Wake = d.wake
	return d, nil
}

func (d *Dev) String() string {
	return "DHT11"
}

// Sense requests a measurement and reads it.
//
// The zero Reading is returned on any error.
func (d *Dev) Sense(ctx context.Context) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := d.r.ReadFrame(ctx, &d.cfg)
	if err != nil {
		return Reading{}, fmt.Errorf("dht11: %w", err)
	}
	return Validate(f, d.opts.Checksum, d.opts.Layout)
}

// SenseEnv reads a measurement into e.
func (d *Dev) SenseEnv(ctx context.Context, e *physic.Env) error {
	r, err := d.Sense(ctx)
	if err != nil {
		return err
	}
	r.Env(e)
	return nil
}

// Precision returns the resolution of the sensor.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 100 * physic.MilliKelvin
	e.Humidity = physic.MilliRH
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return nil
}

// wake pulls the line low then releases it to the pull-up.
func (d *Dev) wake() error {
	if err := d.p.Out(gpio.Low); err != nil {
		return fmt.Errorf("dht11: wake: %w", err)
	}
	time.Sleep(d.opts.WakeLow)
	if err := d.p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("dht11: wake: %w", err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
