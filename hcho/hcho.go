// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hcho

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airstation/singlewire"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// PPM=Parts Per Million, rounded to two decimals.
type PPM float64

// String returns the shortest representation of p, always with a decimal
// point, followed by the unit.
func (p PPM) String() string {
	s := strconv.FormatFloat(float64(p), 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s + "ppm"
}

const (
	// Words is the number of samples counted in one frame.
	Words = 1500
	// Step is the concentration represented by one high sample.
	Step = 0.0008
)

// Opts holds the configuration options.
type Opts struct {
	// Timeout bounds one read. 0 waits forever.
	Timeout time.Duration
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{}

// FrameConfig returns the frame description of the sensor's PWM output.
func FrameConfig() singlewire.Config {
	return singlewire.Config{
		Name:   "hcho",
		Pull:   gpio.PullUp,
		Period: 200 * time.Microsecond,
		Start: singlewire.StartCondition{
			{Level: gpio.Low, Dead: 4},
			{Level: gpio.High, Dead: 9},
		},
		Bit:      singlewire.DutyCycle{Every: 5},
		Words:    Words,
		WordBits: 1,
		Discard:  1,
	}
}

// Convert returns round(0.0008*sum, 2) for a frame of 1 bit samples.
func Convert(f singlewire.Frame) PPM {
	return PPM(math.Round(Step*float64(f.Sum())*100) / 100)
}

// Dev is a handle to a PWM formaldehyde sensor.
type Dev struct {
	r singlewire.Reader

	mu  sync.Mutex
	cfg singlewire.Config
}

// New returns a Dev reading frames through r.
func New(r singlewire.Reader, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	cfg := FrameConfig()
	cfg.Timeout = opts.Timeout
	return &Dev{r: r, cfg: cfg}, nil
}

func (d *Dev) String() string {
	return "HCHO PWM"
}

// Sense reads one frame and returns the concentration.
func (d *Dev) Sense(ctx context.Context) (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := d.r.ReadFrame(ctx, &d.cfg)
	if err != nil {
		return 0, fmt.Errorf("hcho: %w", err)
	}
	return Convert(f), nil
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return nil
}

var _ conn.Resource = &Dev{}
