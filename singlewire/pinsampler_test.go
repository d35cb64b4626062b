// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package singlewire

import (
	"context"
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPinSampler(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO4", Num: 4, L: gpio.Low}
	s := NewPinSampler(p)
	if s.String() != "GPIO4(4)" {
		t.Errorf("String()=%q", s.String())
	}
	if err := s.Begin(gpio.PullUp, time.Microsecond); err != nil {
		t.Fatal(err)
	}
	if p.P != gpio.PullUp {
		t.Errorf("pull not applied: %s", p.P)
	}
	if l := s.Sample(); l != gpio.High {
		t.Errorf("Sample()=%s expected High", l)
	}
	_ = p.Out(gpio.Low)
	s.Skip(3)
	start := time.Now()
	if l := s.Sample(); l != gpio.Low {
		t.Errorf("Sample()=%s expected Low", l)
	}
	if time.Since(start) > time.Second {
		t.Error("Sample blocked")
	}
	if err := s.Begin(gpio.PullUp, time.Microsecond); err == nil {
		t.Error("expected error on nested Begin")
	}
	if err := s.End(); err != nil {
		t.Fatal(err)
	}
	if err := s.End(); err != nil {
		t.Fatal(err)
	}
	if s.Overruns() < 0 {
		t.Error("negative overruns")
	}
}

func TestPinSamplerPeriod(t *testing.T) {
	s := NewPinSampler(&gpiotest.Pin{N: "GPIO4", Num: 4})
	if err := s.Begin(gpio.PullDown, 0); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestPinSamplerCadence(t *testing.T) {
	s := NewPinSampler(&gpiotest.Pin{N: "GPIO4", Num: 4})
	if err := s.Begin(gpio.PullDown, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	defer s.End()
	start := time.Now()
	s.Sample()
	s.Skip(4)
	s.Sample()
	// The second sample is due 5 periods after the first one.
	if d := time.Since(start); d < 4*time.Millisecond {
		t.Errorf("samples taken %s apart, expected about 5ms", d)
	}
}

func TestDecoderOnPin(t *testing.T) {
	// A line held high reads all ones without any start condition.
	p := &gpiotest.Pin{N: "GPIO17", Num: 17}
	cfg := Config{
		Name:     "pin",
		Pull:     gpio.PullUp,
		Period:   time.Microsecond,
		Bit:      DutyCycle{Every: 2},
		Words:    2,
		WordBits: 8,
	}
	f, err := NewDecoder(NewPinSampler(p)).ReadFrame(context.Background(), &cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(f) != 2 || f[0] != 0xff || f[1] != 0xff {
		t.Errorf("got %v", f)
	}
}
