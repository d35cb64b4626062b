// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package singlewire

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// PinSampler samples a periph GPIO pin by busy-waiting on the monotonic
// clock.
type PinSampler struct {
	p gpio.PinIO

	mu       sync.Mutex
	period   time.Duration
	next     time.Time
	gc       int
	active   bool
	overruns atomic.Int64
}

// NewPinSampler returns a Sampler reading p.
func NewPinSampler(p gpio.PinIO) *PinSampler {
	return &PinSampler{p: p}
}

func (s *PinSampler) String() string {
	return s.p.String()
}

// Begin implements Sampler.
//
// The calling goroutine is locked to its thread and the garbage collector
// is stopped until End is called.
func (s *PinSampler) Begin(pull gpio.Pull, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %s", ErrConfig, period)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return fmt.Errorf("singlewire: %s: sampler already active", s.p)
	}
	if err := s.p.In(pull, gpio.NoEdge); err != nil {
		return err
	}
	runtime.LockOSThread()
	s.gc = debug.SetGCPercent(-1)
	s.active = true
	s.period = period
	// The schedule starts at the first sample.
	s.next = time.Time{}
	return nil
}

// Sample implements Sampler.
func (s *PinSampler) Sample() gpio.Level {
	s.wait()
	return s.p.Read()
}

// Skip implements Sampler.
func (s *PinSampler) Skip(n int) {
	s.next = s.next.Add(time.Duration(n) * s.period)
}

// End implements Sampler.
func (s *PinSampler) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	debug.SetGCPercent(s.gc)
	runtime.UnlockOSThread()
	s.active = false
	return nil
}

// Overruns returns the number of samples taken more than one period late
// since the sampler was created.
func (s *PinSampler) Overruns() int {
	return int(s.overruns.Load())
}

func (s *PinSampler) wait() {
	for {
		now := time.Now()
		if s.next.IsZero() {
			s.next = now
		}
		late := now.Sub(s.next)
		if late < 0 {
			continue
		}
		if late > s.period {
			// Resynchronize instead of sampling back to back.
			s.overruns.Add(1)
			s.next = now
		}
		break
	}
	s.next = s.next.Add(s.period)
}

var _ Sampler = &PinSampler{}
