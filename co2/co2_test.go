// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package co2

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airstation/singlewire"
	"github.com/GermanBionicSystems/airstation/singlewire/singlewiretest"
	"periph.io/x/conn/v3/gpio"
)

// frameWithSum returns a frame of Words samples where the first sum are high.
func frameWithSum(sum int) singlewire.Frame {
	f := make(singlewire.Frame, Words)
	for i := 0; i < sum; i++ {
		f[i] = 1
	}
	return f
}

func TestConvert(t *testing.T) {
	var tests = []struct {
		sum  int
		want PPM
	}{
		{0, 0},
		{1, 5},
		{200, 1000},
		{81, 405},
		{999, 4995},
		{1000, 5000},
	}
	for _, test := range tests {
		if got := Convert(frameWithSum(test.sum), 5000); got != test.want {
			t.Errorf("Convert(sum=%d)=%d expected %d", test.sum, got, test.want)
		}
	}
	if got := Convert(nil, 5000); got != 0 {
		t.Errorf("Convert(nil)=%d", got)
	}
}

func TestConvertProperty(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 100; n++ {
		f := make(singlewire.Frame, Words)
		sum := 0
		for i := range f {
			f[i] = singlewire.Word(rnd.Intn(2))
			sum += int(f[i])
		}
		if got, want := Convert(f, 5000), PPM(5000*sum/1000); got != want {
			t.Fatalf("Convert(sum=%d)=%d expected %d", sum, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(&singlewiretest.Playback{}, &Opts{RangePPM: 3000}); err == nil {
		t.Error("expected error for unsupported range")
	}
	d, err := New(&singlewiretest.Playback{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d.Precision() != 5 {
		t.Errorf("Precision()=%d", d.Precision())
	}
	if d.String() != "CO2 PWM" {
		t.Errorf("String()=%q", d.String())
	}
	if err := d.Halt(); err != nil {
		t.Error(err)
	}
}

func TestSense(t *testing.T) {
	pb := &singlewiretest.Playback{Frames: []singlewire.Frame{frameWithSum(200), frameWithSum(81)}}
	d, err := New(pb, &Opts{RangePPM: 5000, Timeout: 3 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []PPM{1000, 405} {
		got, err := d.Sense(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Sense()=%s expected %s", got, want)
		}
	}
	cfg := pb.Configs[0]
	if cfg.Name != "co2" || cfg.Words != Words || cfg.WordBits != 1 || cfg.Timeout != 3*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	if _, err := d.Sense(context.Background()); err == nil {
		t.Error("expected error once playback is exhausted")
	}
}

func TestSenseTrace(t *testing.T) {
	// Two cycles of a 20% duty PWM signal, high 200ms and low 800ms.
	var segs []singlewiretest.Segment
	for n := 0; n < 2; n++ {
		segs = append(segs, singlewiretest.High(1000), singlewiretest.Low(4000))
	}
	levels := singlewiretest.Pulses(segs...)
	var got []PPM
	for n := 0; n < 2; n++ {
		tr := &singlewiretest.Trace{Levels: levels, Idle: gpio.Low}
		d, err := New(singlewire.NewDecoder(tr), nil)
		if err != nil {
			t.Fatal(err)
		}
		v, err := d.Sense(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if got[0] != got[1] {
		t.Errorf("identical traces gave %s and %s", got[0], got[1])
	}
	// The first sample is taken 10 periods after the rising edge, then one
	// every 5 periods: 198 of them fall within the 1000 high periods.
	if got[0] != 990 {
		t.Errorf("Sense()=%s expected 990ppm", got[0])
	}
}

func TestSenseTimeout(t *testing.T) {
	tr := &singlewiretest.Trace{Idle: gpio.High}
	d, err := New(singlewire.NewDecoder(tr), &Opts{RangePPM: 5000, Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Sense(context.Background()); !errors.Is(err, singlewire.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
