// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package singlewire

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Step is one stage of a start condition: wait until the line reads Level,
// then idle for Dead sample periods.
type Step struct {
	Level gpio.Level
	Dead  int
}

// StartCondition is the sequence of line levels announcing a frame.
type StartCondition []Step

// BitRule extracts one bit from the line.
type BitRule interface {
	ReadBit(l *Line) (gpio.Level, error)
}

// DutyCycle samples the line once every Every periods. The level itself is
// the bit.
type DutyCycle struct {
	Every int
}

// ReadBit implements BitRule.
func (d DutyCycle) ReadBit(l *Line) (gpio.Level, error) {
	v, err := l.Sample()
	if err != nil {
		return v, err
	}
	return v, l.Skip(d.Every - 1)
}

func (d DutyCycle) String() string {
	return fmt.Sprintf("DutyCycle{%d}", d.Every)
}

// PulseWidth decodes bits carried by the length of a high pulse.
//
// The line is sampled Threshold periods after its rising edge: still high
// means 1. The rule then waits for the falling edge.
type PulseWidth struct {
	Threshold int
}

// ReadBit implements BitRule.
func (p PulseWidth) ReadBit(l *Line) (gpio.Level, error) {
	if err := l.WaitFor(gpio.High, p.Threshold-1); err != nil {
		return gpio.Low, err
	}
	v, err := l.Sample()
	if err != nil {
		return v, err
	}
	return v, l.WaitFor(gpio.Low, 0)
}

func (p PulseWidth) String() string {
	return fmt.Sprintf("PulseWidth{%d}", p.Threshold)
}

// Config describes one frame read.
type Config struct {
	// Name identifies the sensor in errors.
	Name string
	// Pull is applied to the pin while reading.
	Pull gpio.Pull
	// Period is the length of one sample cycle.
	Period time.Duration
	Start  StartCondition
	Bit    BitRule
	// Words is the number of words kept in the Frame.
	Words int
	// WordBits is the number of bits per word, between 1 and 32.
	WordBits int
	// Discard is the number of words read and dropped before each kept word.
	Discard int
	// Timeout bounds the whole read, start condition included. 0 means no
	// limit.
	Timeout time.Duration
	// Wake, when set, is called once the sampler is ready and before the
	// start condition. It triggers sensors that only answer on request.
	Wake func() error
}

// Validate returns an error wrapping ErrConfig if c cannot be decoded.
func (c *Config) Validate() error {
	switch {
	case c.Period <= 0:
		return fmt.Errorf("%w: period must be positive, got %s", ErrConfig, c.Period)
	case c.Bit == nil:
		return fmt.Errorf("%w: missing bit rule", ErrConfig)
	case c.Words <= 0:
		return fmt.Errorf("%w: word count must be positive, got %d", ErrConfig, c.Words)
	case c.WordBits < 1 || c.WordBits > 32:
		return fmt.Errorf("%w: word width must be within [1, 32], got %d", ErrConfig, c.WordBits)
	case c.Discard < 0:
		return fmt.Errorf("%w: discard must not be negative, got %d", ErrConfig, c.Discard)
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative, got %s", ErrConfig, c.Timeout)
	}
	for i, s := range c.Start {
		if s.Dead < 0 {
			return fmt.Errorf("%w: start step %d has negative dead time", ErrConfig, i)
		}
	}
	switch b := c.Bit.(type) {
	case DutyCycle:
		if b.Every < 1 {
			return fmt.Errorf("%w: duty cycle must be at least one period", ErrConfig)
		}
	case PulseWidth:
		if b.Threshold < 1 {
			return fmt.Errorf("%w: pulse width threshold must be at least one period", ErrConfig)
		}
	}
	return nil
}

// Budget returns the number of sample periods allowed by Timeout, or -1 when
// unbounded.
func (c *Config) Budget() int {
	if c.Timeout <= 0 {
		return -1
	}
	n := int(c.Timeout / c.Period)
	if n < 1 {
		n = 1
	}
	return n
}

// Samples returns the number of bits read from the line after the start
// condition.
func (c *Config) Samples() int {
	return c.Words * (1 + c.Discard) * c.WordBits
}

func (c *Config) name() string {
	if c.Name == "" {
		return "frame"
	}
	return c.Name
}
