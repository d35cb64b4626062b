// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package station

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airstation/co2"
	"github.com/GermanBionicSystems/airstation/dashboard"
	"github.com/GermanBionicSystems/airstation/dht11"
	"github.com/GermanBionicSystems/airstation/hcho"
	"github.com/GermanBionicSystems/airstation/pm25"
	"github.com/GermanBionicSystems/airstation/rgb565"
	"github.com/GermanBionicSystems/airstation/singlewire"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type fakeCO2 struct {
	v   co2.PPM
	err error
}

func (f *fakeCO2) Sense(context.Context) (co2.PPM, error) { return f.v, f.err }

type fakeHCHO struct {
	v   hcho.PPM
	err error
}

func (f *fakeHCHO) Sense(context.Context) (hcho.PPM, error) { return f.v, f.err }

type fakeTH struct {
	v   dht11.Reading
	err error
}

func (f *fakeTH) Sense(context.Context) (dht11.Reading, error) { return f.v, f.err }

type fakePM struct {
	v   pm25.Reading
	err error
}

func (f *fakePM) String() string                              { return "fakePM" }
func (f *fakePM) Halt() error                                 { return nil }
func (f *fakePM) Sense(context.Context) (pm25.Reading, error) { return f.v, f.err }

// sink records the frames drawn on it.
type sink struct {
	frames []*rgb565.Image
	err    error
}

func (s *sink) String() string          { return "sink" }
func (s *sink) Halt() error             { return nil }
func (s *sink) ColorModel() color.Model { return rgb565.Model }
func (s *sink) Bounds() image.Rectangle {
	return image.Rect(0, 0, dashboard.Width, dashboard.Height)
}

func (s *sink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	img := rgb565.NewImage(r)
	copy(img.Pix, src.(*rgb565.Image).Pix)
	s.frames = append(s.frames, img)
	return s.err
}

type publisher struct {
	got []interface{}
}

func (p *publisher) SetReadings(v interface{}) error {
	p.got = append(p.got, v)
	return nil
}

var validTH = dht11.Reading{TempInt: 25, TempDec: 3, HumInt: 60, HumDec: 5}

type fixture struct {
	sensors Sensors
	co2     *fakeCO2
	hcho    *fakeHCHO
	th      *fakeTH
	pm      *fakePM
	led     *gpiotest.Pin
	sinks   []*sink
	pub     *publisher
	metrics *Metrics
	logs    *test.Hook
	st      *Station
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		co2:   &fakeCO2{v: 990},
		hcho:  &fakeHCHO{v: 0.03},
		th:    &fakeTH{v: validTH},
		pm:    &fakePM{v: pm25.Reading{PM1: 5, PM25: 12, PM10: 20}},
		led:   &gpiotest.Pin{N: "LED", Num: 25},
		sinks: []*sink{{}, {}},
		pub:   &publisher{},
	}
	f.sensors = Sensors{CO2: f.co2, HCHO: f.hcho, TH: f.th, PM: f.pm, LED: f.led}
	m, err := NewMetrics(prometheus.NewPedanticRegistry())
	if err != nil {
		t.Fatal(err)
	}
	f.metrics = m
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f.logs = hook
	st, err := New(f.sensors, sinks(f.sinks), &Opts{Logger: logger, Metrics: m, Publisher: f.pub})
	if err != nil {
		t.Fatal(err)
	}
	f.st = st
	return f
}

func sinks(s []*sink) []display.Drawer {
	out := make([]display.Drawer, len(s))
	for i := range s {
		out[i] = s[i]
	}
	return out
}

func TestCycle(t *testing.T) {
	f := newFixture(t)
	r, err := f.st.Cycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range f.sinks {
		if len(s.frames) != 1 {
			t.Fatalf("sink %d got %d frames", i, len(s.frames))
		}
	}
	want := dashboard.NewImage()
	dashboard.Readings(dashboard.Values{CO2: 990, PM: 12, HCHO: 0.03, TH: validTH}).Draw(want)
	if diff := cmp.Diff(want.Pix, f.sinks[0].frames[0].Pix); diff != "" {
		t.Error("unexpected frame")
	}
	if r.Temperature != 25.3 || r.Humidity != 60.5 || r.PM.PM25 != 12 {
		t.Errorf("unexpected readings %+v", r)
	}
	for q, want := range map[string]float64{
		"co2_ppm":             990,
		"hcho_ppm":            0.03,
		"temperature_celsius": 25.3,
		"humidity_percent":    60.5,
		"pm25_ugm3":           12,
		"pm10_ugm3":           20,
	} {
		if got := testutil.ToFloat64(f.metrics.Reading.WithLabelValues(q)); got != want {
			t.Errorf("%s=%v, want %v", q, got, want)
		}
	}
	if testutil.CollectAndCount(f.metrics.Cycle) != 1 {
		t.Error("cycle duration not observed")
	}
	if len(f.pub.got) != 1 || f.pub.got[0] != r {
		t.Errorf("published %v", f.pub.got)
	}
	if f.led.L != gpio.Low {
		t.Error("LED must end low after the blink")
	}
}

func TestCycleSkipsZeroTH(t *testing.T) {
	for _, tc := range []struct {
		name   string
		th     fakeTH
		reason string
	}{
		{"sentinel", fakeTH{}, "zero"},
		{"checksum", fakeTH{err: fmt.Errorf("dht11: %w", dht11.ErrChecksum)}, "checksum"},
		{"timeout", fakeTH{err: fmt.Errorf("dht11: %w", singlewire.ErrTimeout)}, "timeout"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			*f.th = tc.th
			if _, err := f.st.Cycle(context.Background()); !errors.Is(err, ErrSkipped) {
				t.Fatalf("expected ErrSkipped, got %v", err)
			}
			for i, s := range f.sinks {
				if len(s.frames) != 0 {
					t.Errorf("sink %d got %d frames", i, len(s.frames))
				}
			}
			if len(f.pub.got) != 0 {
				t.Error("skipped cycle must not be published")
			}
			if got := testutil.ToFloat64(f.metrics.Failures.WithLabelValues("th", tc.reason)); got != 1 {
				t.Errorf("failures{th,%s}=%v", tc.reason, got)
			}
		})
	}
}

func TestCyclePMFailure(t *testing.T) {
	for _, tc := range []struct {
		name   string
		pm     pm25.Sensor
		reason string
		count  float64
	}{
		// A missing module is expected and not counted.
		{"stub", pm25.Stub{}, "not_configured", 0},
		{"checksum", &fakePM{err: pm25.ErrChecksum}, "checksum", 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.sensors.PM = tc.pm
			st, err := New(f.sensors, sinks(f.sinks), &Opts{Logger: logrus.New(), Metrics: f.metrics})
			if err != nil {
				t.Fatal(err)
			}
			r, err := st.Cycle(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if r.PM != nil || r.Values().PM != 0 {
				t.Errorf("PM must render as 0, got %v", r.Values().PM)
			}
			if len(f.sinks[0].frames) != 1 {
				t.Error("frame not pushed")
			}
			if got := testutil.ToFloat64(f.metrics.Failures.WithLabelValues("pm", tc.reason)); got != tc.count {
				t.Errorf("failures{pm,%s}=%v, want %v", tc.reason, got, tc.count)
			}
		})
	}
}

func TestCycleErrors(t *testing.T) {
	f := newFixture(t)
	f.co2.err = fmt.Errorf("co2: %w", singlewire.ErrTimeout)
	if _, err := f.st.Cycle(context.Background()); !errors.Is(err, singlewire.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.Failures.WithLabelValues("co2", "timeout")); got != 1 {
		t.Errorf("failures{co2,timeout}=%v", got)
	}
	f.co2.err = nil
	f.hcho.err = errors.New("pin busy")
	if _, err := f.st.Cycle(context.Background()); err == nil {
		t.Fatal("expected HCHO error")
	}
	if got := testutil.ToFloat64(f.metrics.Failures.WithLabelValues("hcho", "error")); got != 1 {
		t.Errorf("failures{hcho,error}=%v", got)
	}
	if len(f.sinks[0].frames) != 0 {
		t.Error("failed cycles must not draw")
	}

	f.hcho.err = nil
	f.sinks[1].err = errors.New("bus error")
	if _, err := f.st.Cycle(context.Background()); err == nil {
		t.Fatal("expected draw error")
	}
	if len(f.sinks[0].frames) != 1 || len(f.sinks[1].frames) != 1 {
		t.Error("every sink must be drawn even when one fails")
	}
}

func TestCycleSinkFailure(t *testing.T) {
	f := newFixture(t)
	f.sinks[0].err = errors.New("spi glitch")
	r, err := f.st.Cycle(context.Background())
	if err == nil {
		t.Fatal("expected draw error")
	}
	if r == nil || r.CO2 != 990 {
		t.Fatalf("readings must be returned with the draw error, got %+v", r)
	}
	if got := testutil.ToFloat64(f.metrics.Reading.WithLabelValues("co2_ppm")); got != 990 {
		t.Errorf("co2_ppm=%v, want 990", got)
	}
	if len(f.pub.got) != 1 || f.pub.got[0] != r {
		t.Errorf("published %v", f.pub.got)
	}
	if len(f.sinks[1].frames) != 1 {
		t.Error("healthy sink not drawn")
	}
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	pub := &cancelAfter{n: 2}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub.cancel = cancel
	var calls int64
	st, err := New(f.sensors, sinks(f.sinks), &Opts{
		Logger:    logrus.New(),
		Metrics:   f.metrics,
		Publisher: pub,
		Blink:     time.Microsecond,
		Welcome:   time.Microsecond,
		Overruns:  func() int64 { calls++; return calls * 3 },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run()=%v", err)
	}
	// Welcome screen then one frame per cycle.
	if got := len(f.sinks[0].frames); got != 3 {
		t.Fatalf("got %d frames", got)
	}
	if c := f.sinks[0].frames[0].Color565At(0, 0); c != rgb565.White {
		t.Errorf("welcome background %#04x", uint16(c))
	}
	if got := testutil.ToFloat64(f.metrics.Overruns); got != 6 {
		t.Errorf("overruns=%v", got)
	}
}

// cancelAfter cancels the context after n published readings.
type cancelAfter struct {
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) SetReadings(interface{}) error {
	c.n--
	if c.n == 0 {
		c.cancel()
	}
	return nil
}

func TestNew(t *testing.T) {
	if _, err := New(Sensors{}, nil, &DefaultOpts); err == nil {
		t.Error("expected error")
	}
	st, err := New(Sensors{CO2: &fakeCO2{}, HCHO: &fakeHCHO{}, TH: &fakeTH{}}, nil, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if st.log == nil {
		t.Error("default logger not set")
	}
	st, err = New(Sensors{CO2: &fakeCO2{}, HCHO: &fakeHCHO{}, TH: &fakeTH{}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.opts.Blink != DefaultOpts.Blink || st.opts.Welcome != DefaultOpts.Welcome {
		t.Errorf("nil opts must fall back to DefaultOpts, got %+v", st.opts)
	}
}
