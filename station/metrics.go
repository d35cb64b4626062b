// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package station

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the station readings to Prometheus.
type Metrics struct {
	Reading  *prometheus.GaugeVec
	Failures *prometheus.CounterVec
	Cycle    prometheus.Histogram
	Overruns prometheus.Counter
}

// NewMetrics creates the station metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Reading: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "airstation_reading",
				Help: "Last valid reading, by quantity (units in the quantity name).",
			},
			[]string{"quantity"},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "airstation_read_failures_total",
				Help: "Failed sensor reads.",
			},
			[]string{"sensor", "reason"},
		),
		Cycle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "airstation_cycle_seconds",
			Help:    "Duration of a measurement cycle, LED blink included.",
			Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 20, 30},
		}),
		Overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airstation_sampler_overruns_total",
			Help: "Sample periods the software sampler was late for.",
		}),
	}
	for _, c := range []prometheus.Collector{m.Reading, m.Failures, m.Cycle, m.Overruns} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering station metrics")
		}
	}
	return m, nil
}

func (m *Metrics) observe(r *Readings) {
	if m == nil {
		return
	}
	m.Reading.WithLabelValues("co2_ppm").Set(float64(r.CO2))
	m.Reading.WithLabelValues("hcho_ppm").Set(float64(r.HCHO))
	m.Reading.WithLabelValues("temperature_celsius").Set(r.Temperature)
	m.Reading.WithLabelValues("humidity_percent").Set(r.Humidity)
	if r.PM != nil {
		m.Reading.WithLabelValues("pm1_ugm3").Set(float64(r.PM.PM1))
		m.Reading.WithLabelValues("pm25_ugm3").Set(float64(r.PM.PM25))
		m.Reading.WithLabelValues("pm10_ugm3").Set(float64(r.PM.PM10))
	}
}

func (m *Metrics) fail(sensor, reason string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(sensor, reason).Inc()
}
