// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package station runs the measurement loop: read every sensor, render the
// dashboard and push it to the displays.
package station

import (
	"context"
	"image"
	"time"

	"github.com/GermanBionicSystems/airstation/co2"
	"github.com/GermanBionicSystems/airstation/dashboard"
	"github.com/GermanBionicSystems/airstation/dht11"
	"github.com/GermanBionicSystems/airstation/hcho"
	"github.com/GermanBionicSystems/airstation/pm25"
	"github.com/GermanBionicSystems/airstation/rgb565"
	"github.com/GermanBionicSystems/airstation/singlewire"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// ErrSkipped is returned by Cycle when the temperature and humidity reading
// is missing. Nothing is displayed for such a cycle.
var ErrSkipped = errors.New("cycle skipped: no temperature and humidity reading")

// CO2Sensor reads carbon dioxide.
type CO2Sensor interface {
	Sense(ctx context.Context) (co2.PPM, error)
}

// HCHOSensor reads formaldehyde.
type HCHOSensor interface {
	Sense(ctx context.Context) (hcho.PPM, error)
}

// THSensor reads temperature and humidity.
type THSensor interface {
	Sense(ctx context.Context) (dht11.Reading, error)
}

// Sensors are the station inputs. PM and LED are optional.
type Sensors struct {
	CO2  CO2Sensor
	HCHO HCHOSensor
	TH   THSensor
	PM   pm25.Sensor
	LED  gpio.PinOut
}

// Publisher receives the readings of every valid cycle.
//
// webview.Display implements it.
type Publisher interface {
	SetReadings(v interface{}) error
}

// Readings is the outcome of a valid cycle.
type Readings struct {
	Time        time.Time     `json:"time"`
	CO2         co2.PPM       `json:"co2_ppm"`
	HCHO        hcho.PPM      `json:"hcho_ppm"`
	Temperature float64       `json:"temperature_celsius"`
	Humidity    float64       `json:"humidity_percent"`
	PM          *pm25.Reading `json:"pm,omitempty"`
	TH          dht11.Reading `json:"-"`
}

// Values returns what the dashboard shows for r.
func (r *Readings) Values() dashboard.Values {
	v := dashboard.Values{CO2: r.CO2, HCHO: r.HCHO, TH: r.TH}
	if r.PM != nil {
		v.PM = int(r.PM.PM25)
	}
	return v
}

// Opts configures a Station.
type Opts struct {
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
	// Interval is an extra pause between cycles.
	Interval time.Duration
	// Blink is the duration of each of the four LED steps starting a cycle.
	Blink time.Duration
	// Welcome is how long the LED stays on after the welcome screen.
	Welcome time.Duration
	// Metrics is optional.
	Metrics *Metrics
	// Publisher is optional.
	Publisher Publisher
	// Overruns, when set, returns the total count of late sample periods.
	Overruns func() int64
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Blink:   100 * time.Millisecond,
	Welcome: time.Second,
}

// Station ties the sensors to the displays.
type Station struct {
	sensors  Sensors
	sinks    []display.Drawer
	opts     Opts
	log      logrus.FieldLogger
	img      *rgb565.Image
	overruns int64
}

// New returns a Station reading sensors and drawing on sinks.
func New(sensors Sensors, sinks []display.Drawer, opts *Opts) (*Station, error) {
	switch {
	case sensors.CO2 == nil:
		return nil, errors.New("station: missing CO2 sensor")
	case sensors.HCHO == nil:
		return nil, errors.New("station: missing HCHO sensor")
	case sensors.TH == nil:
		return nil, errors.New("station: missing temperature and humidity sensor")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	s := &Station{sensors: sensors, sinks: sinks, opts: *opts, log: opts.Logger, img: dashboard.NewImage()}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s, nil
}

// Run lights the LED, shows the welcome screen then runs cycles until ctx is
// done.
func (s *Station) Run(ctx context.Context) error {
	s.led(gpio.High)
	if err := sleep(ctx, s.opts.Welcome); err != nil {
		return err
	}
	s.led(gpio.Low)
	if err := s.show(dashboard.Welcome()); err != nil {
		s.log.WithError(err).Warn("drawing welcome screen")
	}
	for {
		r, err := s.Cycle(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrSkipped):
			s.log.Info("no temperature and humidity reading, cycle skipped")
		case err != nil:
			s.log.WithError(err).Warn("cycle failed")
		}
		if r != nil {
			s.log.WithFields(logrus.Fields{
				"ppm":      r.CO2,
				"hcho":     r.HCHO,
				"ugm3":     r.Values().PM,
				"temp":     r.TH.TemperatureString(),
				"humidity": r.TH.HumidityString(),
			}).Info("readings")
		}
		if err := sleep(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
}

// Cycle blinks the LED, reads every sensor and displays the result.
func (s *Station) Cycle(ctx context.Context) (*Readings, error) {
	start := time.Now()
	defer func() {
		if s.opts.Metrics != nil {
			s.opts.Metrics.Cycle.Observe(time.Since(start).Seconds())
		}
		s.countOverruns()
	}()
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low} {
		s.led(l)
		if err := sleep(ctx, s.opts.Blink); err != nil {
			return nil, err
		}
	}

	r := &Readings{}
	th, thErr := s.sensors.TH.Sense(ctx)
	if thErr != nil {
		s.failed("th", thErr)
		th = dht11.Reading{}
	}
	r.TH = th
	if s.sensors.PM != nil {
		pm, err := s.sensors.PM.Sense(ctx)
		if err != nil {
			s.failed("pm", err)
		} else {
			r.PM = &pm
		}
	}
	var err error
	if r.CO2, err = s.sensors.CO2.Sense(ctx); err != nil {
		s.failed("co2", err)
		return nil, errors.Wrap(err, "reading CO2")
	}
	if r.HCHO, err = s.sensors.HCHO.Sense(ctx); err != nil {
		s.failed("hcho", err)
		return nil, errors.Wrap(err, "reading HCHO")
	}
	if th.IsZero() {
		if thErr == nil {
			s.opts.Metrics.fail("th", "zero")
		}
		return nil, ErrSkipped
	}
	r.Time = time.Now()
	r.Temperature = float64(th.TempInt) + float64(th.TempDec)/10
	r.Humidity = float64(th.HumInt) + float64(th.HumDec)/10

	// A sink failing to draw does not invalidate the readings.
	err = s.show(dashboard.Readings(r.Values()))
	s.opts.Metrics.observe(r)
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.SetReadings(r); err != nil {
			s.log.WithError(err).Warn("publishing readings")
		}
	}
	return r, err
}

// show renders sc and pushes it to every sink.
func (s *Station) show(sc dashboard.Screen) error {
	sc.Draw(s.img)
	var first error
	for _, d := range s.sinks {
		if err := d.Draw(d.Bounds(), s.img, image.Point{}); err != nil {
			s.log.WithError(err).WithField("sink", d.String()).Warn("draw failed")
			if first == nil {
				first = errors.Wrapf(err, "drawing on %s", d)
			}
		}
	}
	return first
}

func (s *Station) led(l gpio.Level) {
	if s.sensors.LED == nil {
		return
	}
	if err := s.sensors.LED.Out(l); err != nil {
		s.log.WithError(err).Debug("status LED")
	}
}

func (s *Station) failed(sensor string, err error) {
	reason := failureReason(err)
	e := s.log.WithError(err).WithFields(logrus.Fields{"sensor": sensor, "reason": reason})
	if reason == "not_configured" {
		// An absent sensor is not a failure.
		e.Debug("sensor read failed")
		return
	}
	s.opts.Metrics.fail(sensor, reason)
	e.Warn("sensor read failed")
}

func (s *Station) countOverruns() {
	if s.opts.Overruns == nil {
		return
	}
	n := s.opts.Overruns()
	if d := n - s.overruns; d > 0 && s.opts.Metrics != nil {
		s.opts.Metrics.Overruns.Add(float64(d))
	}
	s.overruns = n
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, singlewire.ErrTimeout):
		return "timeout"
	case errors.Is(err, dht11.ErrChecksum), errors.Is(err, pm25.ErrChecksum):
		return "checksum"
	case errors.Is(err, pm25.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
