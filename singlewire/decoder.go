// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package singlewire

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Decoder reads frames from a Sampler.
type Decoder struct {
	mu sync.Mutex
	s  Sampler
}

// NewDecoder returns a Decoder sampling through s.
func NewDecoder(s Sampler) *Decoder {
	return &Decoder{s: s}
}

func (d *Decoder) String() string {
	if s, ok := d.s.(fmt.Stringer); ok {
		return "singlewire{" + s.String() + "}"
	}
	return "singlewire"
}

// ReadFrame implements Reader.
//
// It waits for the start condition, then reads bits until cfg.Words words
// are assembled. The sampler is held for the whole read.
func (d *Decoder) ReadFrame(ctx context.Context, cfg *Config) (Frame, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("singlewire: %s: %w", cfg.name(), err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.s.Begin(cfg.Pull, cfg.Period); err != nil {
		return nil, fmt.Errorf("singlewire: %s: %w", cfg.name(), err)
	}
	var f Frame
	var err error
	if cfg.Wake != nil {
		err = cfg.Wake()
	}
	if err == nil {
		f, err = decode(NewLine(ctx, d.s, cfg.Budget()), cfg)
	}
	if err2 := d.s.End(); err == nil {
		err = err2
	}
	if err != nil {
		return nil, fmt.Errorf("singlewire: %s: %w", cfg.name(), err)
	}
	return f, nil
}

func decode(l *Line, cfg *Config) (Frame, error) {
	for _, s := range cfg.Start {
		if err := l.WaitFor(s.Level, s.Dead); err != nil {
			return nil, err
		}
	}
	stride := 1 + cfg.Discard
	f := make(Frame, 0, cfg.Words)
	bits := make([]gpio.Level, cfg.WordBits)
	for i := 0; len(f) < cfg.Words; i++ {
		for j := range bits {
			b, err := cfg.Bit.ReadBit(l)
			if err != nil {
				return nil, err
			}
			bits[j] = b
		}
		// The last word of each group is kept.
		if i%stride == stride-1 {
			f = append(f, PackMSB(bits))
		}
	}
	return f, nil
}

var _ Reader = &Decoder{}
