// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build rp2040 || rp2350

package pioreader

import (
	"context"
	"fmt"
	"machine"
	"runtime"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airstation/singlewire"
	pio "github.com/tinygo-org/pio/rp2-pio"
	"periph.io/x/conn/v3/gpio"
)

// Reader reads frames on one pin with a state machine of a PIO block.
//
// The state machine and the program memory are claimed for the duration of a
// read only, so several Readers can share a block.
type Reader struct {
	mu  sync.Mutex
	p   *pio.PIO
	pin machine.Pin
}

// New returns a Reader sampling pin with block p.
func New(p *pio.PIO, pin machine.Pin) *Reader {
	return &Reader{p: p, pin: pin}
}

func (r *Reader) String() string {
	return fmt.Sprintf("pio%d{GP%d}", r.p.BlockIndex(), r.pin)
}

// ReadFrame implements singlewire.Reader.
func (r *Reader) ReadFrame(ctx context.Context, cfg *singlewire.Config) (singlewire.Frame, error) {
	prog, err := Assemble(cfg)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.read(ctx, cfg, prog)
	if err != nil {
		return nil, fmt.Errorf("pioreader: %s: %w", cfg.Name, err)
	}
	return f, nil
}

func (r *Reader) read(ctx context.Context, cfg *singlewire.Config, prog *Program) (singlewire.Frame, error) {
	r.pin.Configure(machine.PinConfig{Mode: inputMode(cfg.Pull)})
	sm, err := r.p.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	defer sm.Unclaim()
	words := prog.Words()
	offset, err := r.p.AddProgram(words, -1)
	if err != nil {
		return nil, err
	}
	defer r.p.ClearProgramSection(offset, uint8(len(words)))

	whole, frac, err := pio.ClkDivFromFrequency(uint32(time.Second/cfg.Period), machine.CPUFrequency())
	if err != nil {
		return nil, err
	}
	c := pio.DefaultStateMachineConfig()
	c.SetInPins(r.pin)
	c.SetJmpPin(r.pin)
	c.SetInShift(false, true, uint16(prog.WordBits))
	c.SetWrap(offset+prog.WrapTarget, offset+prog.Wrap)
	c.SetClkDivIntFrac(whole, frac)
	sm.Init(offset, c)
	defer func() {
		sm.SetEnabled(false)
		sm.ClearFIFOs()
	}()

	if cfg.Wake != nil {
		if err := cfg.Wake(); err != nil {
			return nil, err
		}
	}
	sm.SetEnabled(true)

	var deadline time.Time
	if cfg.Timeout > 0 {
		deadline = time.Now().Add(cfg.Timeout)
	}
	mask := uint32(1)<<uint(prog.WordBits) - 1
	if prog.WordBits == 32 {
		mask = ^uint32(0)
	}
	stride := 1 + cfg.Discard
	f := make(singlewire.Frame, 0, cfg.Words)
	for i := 0; len(f) < cfg.Words; i++ {
		for sm.IsRxFIFOEmpty() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return nil, singlewire.ErrTimeout
			}
			runtime.Gosched()
		}
		w := sm.RxGet() & mask
		if i%stride == stride-1 {
			f = append(f, singlewire.Word(w))
		}
	}
	return f, nil
}

func inputMode(p gpio.Pull) machine.PinMode {
	switch p {
	case gpio.PullUp:
		return machine.PinInputPullup
	case gpio.PullDown:
		return machine.PinInputPulldown
	default:
		return machine.PinInput
	}
}

var _ singlewire.Reader = &Reader{}
