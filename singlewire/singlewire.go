// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package singlewire

import (
	"context"
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrTimeout is returned when a frame could not be completed within
	// Config.Timeout.
	ErrTimeout = errors.New("sensor timeout")
	// ErrConfig is returned for an invalid Config.
	ErrConfig = errors.New("invalid configuration")
)

// Word is an unsigned value assembled most significant bit first from
// Config.WordBits samples.
type Word uint32

// Frame is the fixed-length sequence of Words produced by one read.
type Frame []Word

// Sum returns the sum of all words, without wrapping.
func (f Frame) Sum() int {
	s := 0
	for _, w := range f {
		s += int(w)
	}
	return s
}

// Bytes returns the frame truncated to 8 bits per word.
func (f Frame) Bytes() []byte {
	b := make([]byte, len(f))
	for i, w := range f {
		b[i] = byte(w)
	}
	return b
}

// PackMSB packs bits into a Word, the first bit being the most significant.
//
// At most 32 bits are used.
func PackMSB(bits []gpio.Level) Word {
	var w Word
	for i, b := range bits {
		if i == 32 {
			break
		}
		w <<= 1
		if b {
			w |= 1
		}
	}
	return w
}

// Sampler samples one pin at a fixed cadence.
//
// All durations are expressed in sample periods. Implementations must keep
// the cadence across calls: Skip(n) followed by Sample() returns the level
// n+1 periods after the previous sample.
type Sampler interface {
	// Begin switches the pin to input with the pull specified and sets the
	// sample period.
	Begin(pull gpio.Pull, period time.Duration) error
	// Sample returns the level at the next sample instant.
	Sample() gpio.Level
	// Skip idles for n sample periods.
	Skip(n int)
	// End releases resources taken by Begin.
	End() error
}

// Reader reads one frame as described by cfg.
//
// Decoder implements it on top of a Sampler. Hardware backends implement it
// directly.
type Reader interface {
	ReadFrame(ctx context.Context, cfg *Config) (Frame, error)
}
