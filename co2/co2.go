// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package co2

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airstation/singlewire"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// PPM=Parts Per Million. Units of measure for CO2 concentration.
type PPM int

func (p PPM) String() string {
	return strconv.Itoa(int(p)) + "ppm"
}

// Words is the number of samples of one frame.
const Words = 1000

// Opts holds the configuration options.
type Opts struct {
	// RangePPM is the full scale of the sensor: 2000, 5000 or 10000.
	RangePPM int
	// Timeout bounds one read. 0 waits forever.
	Timeout time.Duration
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	RangePPM: 5000,
}

// FrameConfig returns the frame description of the sensor's PWM output.
//
// Samples are 1ms apart, taken as 5 cycles of a 5kHz clock.
func FrameConfig() singlewire.Config {
	return singlewire.Config{
		Name:   "co2",
		Pull:   gpio.PullUp,
		Period: 200 * time.Microsecond,
		Start: singlewire.StartCondition{
			{Level: gpio.Low, Dead: 9},
			{Level: gpio.High, Dead: 9},
		},
		Bit:      singlewire.DutyCycle{Every: 5},
		Words:    Words,
		WordBits: 1,
	}
}

// Convert returns the concentration measured by a frame of 1 bit samples.
//
// The division truncates.
func Convert(f singlewire.Frame, rangePPM int) PPM {
	if len(f) == 0 {
		return 0
	}
	return PPM(rangePPM * f.Sum() / len(f))
}

// Dev is a handle to a PWM CO2 sensor.
type Dev struct {
	r        singlewire.Reader
	rangePPM int

	mu  sync.Mutex
	cfg singlewire.Config
}

// New returns a Dev reading frames through r.
func New(r singlewire.Reader, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	switch opts.RangePPM {
	case 2000, 5000, 10000:
	default:
		return nil, fmt.Errorf("co2: unsupported range %dppm", opts.RangePPM)
	}
	cfg := FrameConfig()
	cfg.Timeout = opts.Timeout
	return &Dev{r: r, rangePPM: opts.RangePPM, cfg: cfg}, nil
}

func (d *Dev) String() string {
	return "CO2 PWM"
}

// Sense reads one PWM cycle and returns the concentration.
func (d *Dev) Sense(ctx context.Context) (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := d.r.ReadFrame(ctx, &d.cfg)
	if err != nil {
		return 0, fmt.Errorf("co2: %w", err)
	}
	return Convert(f, d.rangePPM), nil
}

// Precision returns the resolution of one sample.
func (d *Dev) Precision() PPM {
	return PPM(d.rangePPM / Words)
}

// Halt implements conn.Resource. Reads are synchronous, there is nothing to
// interrupt.
func (d *Dev) Halt() error {
	return nil
}

var _ conn.Resource = &Dev{}
