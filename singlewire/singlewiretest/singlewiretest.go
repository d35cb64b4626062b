// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package singlewiretest is meant to be used to test drivers over a
// single-wire line.
package singlewiretest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airstation/singlewire"
	"periph.io/x/conn/v3/gpio"
)

// Segment is a run of identical levels lasting Cycles sample periods.
type Segment struct {
	Level  gpio.Level
	Cycles int
}

// High returns a Segment of n high periods.
func High(n int) Segment {
	return Segment{Level: gpio.High, Cycles: n}
}

// Low returns a Segment of n low periods.
func Low(n int) Segment {
	return Segment{Level: gpio.Low, Cycles: n}
}

// Pulses expands segments into one level per sample period.
func Pulses(segs ...Segment) []gpio.Level {
	n := 0
	for _, s := range segs {
		n += s.Cycles
	}
	out := make([]gpio.Level, 0, n)
	for _, s := range segs {
		for i := 0; i < s.Cycles; i++ {
			out = append(out, s.Level)
		}
	}
	return out
}

// Trace implements singlewire.Sampler by playing back Levels, one per
// sample period.
//
// Once Levels is exhausted, Idle is returned forever.
type Trace struct {
	sync.Mutex
	Levels []gpio.Level
	Idle   gpio.Level
	// Pos is the index of the next level to be sampled.
	Pos int

	// Recorded by Begin.
	Pull   gpio.Pull
	Period time.Duration
	Begins int
	Ends   int

	// BeginErr is returned by Begin when set.
	BeginErr error

	active bool
}

func (t *Trace) String() string {
	return "trace"
}

// Begin implements singlewire.Sampler.
func (t *Trace) Begin(pull gpio.Pull, period time.Duration) error {
	t.Lock()
	defer t.Unlock()
	if t.BeginErr != nil {
		return t.BeginErr
	}
	if t.active {
		return errors.New("singlewiretest: Begin called twice")
	}
	t.active = true
	t.Pull = pull
	t.Period = period
	t.Begins++
	return nil
}

// Sample implements singlewire.Sampler.
func (t *Trace) Sample() gpio.Level {
	t.Lock()
	defer t.Unlock()
	l := t.Idle
	if t.Pos < len(t.Levels) {
		l = t.Levels[t.Pos]
	}
	t.Pos++
	return l
}

// Skip implements singlewire.Sampler.
func (t *Trace) Skip(n int) {
	t.Lock()
	defer t.Unlock()
	t.Pos += n
}

// End implements singlewire.Sampler.
func (t *Trace) End() error {
	t.Lock()
	defer t.Unlock()
	if !t.active {
		return errors.New("singlewiretest: End called without Begin")
	}
	t.active = false
	t.Ends++
	return nil
}

// Rewind restarts the playback from the first level.
func (t *Trace) Rewind() {
	t.Lock()
	defer t.Unlock()
	t.Pos = 0
}

// Playback implements singlewire.Reader by returning recorded frames in
// order.
type Playback struct {
	sync.Mutex
	Frames []singlewire.Frame
	// Errs, when set, is returned instead of the frame at the same index.
	Errs    []error
	Configs []singlewire.Config
	Count   int
}

// ReadFrame implements singlewire.Reader.
func (p *Playback) ReadFrame(_ context.Context, cfg *singlewire.Config) (singlewire.Frame, error) {
	p.Lock()
	defer p.Unlock()
	p.Configs = append(p.Configs, *cfg)
	i := p.Count
	p.Count++
	if i < len(p.Errs) && p.Errs[i] != nil {
		return nil, p.Errs[i]
	}
	if i >= len(p.Frames) {
		return nil, fmt.Errorf("singlewiretest: unexpected read #%d of %s", i, cfg.Name)
	}
	return append(singlewire.Frame(nil), p.Frames[i]...), nil
}

var _ singlewire.Sampler = &Trace{}
var _ singlewire.Reader = &Playback{}
