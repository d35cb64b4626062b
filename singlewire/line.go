// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package singlewire

import (
	"context"

	"periph.io/x/conn/v3/gpio"
)

// pollEvery is the number of periods between two context checks.
const pollEvery = 256

// Line is a Sampler bounded by a cycle budget and a context.
//
// Once an error occurred, every further call returns it.
type Line struct {
	s       Sampler
	ctx     context.Context
	done    <-chan struct{}
	left    int
	limited bool
	used    int
	poll    int
	err     error
}

// NewLine returns a Line that spends at most budget sample periods. A
// negative budget is unbounded.
func NewLine(ctx context.Context, s Sampler, budget int) *Line {
	return &Line{
		s:       s,
		ctx:     ctx,
		done:    ctx.Done(),
		left:    budget,
		limited: budget >= 0,
	}
}

// Used returns the number of periods spent so far.
func (l *Line) Used() int {
	return l.used
}

// Err returns the first error encountered.
func (l *Line) Err() error {
	return l.err
}

// Sample returns the level at the next sample instant.
func (l *Line) Sample() (gpio.Level, error) {
	if err := l.spend(1); err != nil {
		return gpio.Low, err
	}
	return l.s.Sample(), nil
}

// Skip idles for n periods.
func (l *Line) Skip(n int) error {
	if n <= 0 {
		return l.err
	}
	if err := l.spend(n); err != nil {
		return err
	}
	l.s.Skip(n)
	return nil
}

// WaitFor samples until the line reads level, then idles dead periods.
func (l *Line) WaitFor(level gpio.Level, dead int) error {
	for {
		v, err := l.Sample()
		if err != nil {
			return err
		}
		if v == level {
			return l.Skip(dead)
		}
	}
}

func (l *Line) spend(n int) error {
	if l.err != nil {
		return l.err
	}
	if l.limited {
		if n > l.left {
			l.left = 0
			l.err = ErrTimeout
			return l.err
		}
		l.left -= n
	}
	l.used += n
	if l.done == nil {
		return nil
	}
	if l.poll += n; l.poll >= pollEvery {
		l.poll = 0
		select {
		case <-l.done:
			l.err = l.ctx.Err()
			return l.err
		default:
		}
	}
	return nil
}
