// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// airstation runs the air quality station on a Linux host.
//
// It reads the sensors through periph.io GPIO pins, draws the dashboard on a
// SSD1331 panel and mirrors it to the terminal and to an HTTP page. Readings
// are exported as Prometheus metrics on the same listener.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/airstation/co2"
	"github.com/GermanBionicSystems/airstation/dashboard"
	"github.com/GermanBionicSystems/airstation/dht11"
	"github.com/GermanBionicSystems/airstation/hcho"
	"github.com/GermanBionicSystems/airstation/pm25"
	"github.com/GermanBionicSystems/airstation/screen"
	"github.com/GermanBionicSystems/airstation/singlewire"
	"github.com/GermanBionicSystems/airstation/ssd1331"
	"github.com/GermanBionicSystems/airstation/station"
	"github.com/GermanBionicSystems/airstation/webview"
)

// CLI args
var (
	co2Pin   = flag.String("co2", "GPIO17", "CO2 sensor PWM pin")
	hchoPin  = flag.String("hcho", "GPIO27", "formaldehyde sensor PWM pin")
	thPin    = flag.String("th", "GPIO22", "DHT11 data pin")
	ledPin   = flag.String("led", "GPIO23", "status LED pin, empty to disable")
	spiPort  = flag.String("spi", "", "SPI port of the SSD1331 panel, empty for the first one")
	dcPin    = flag.String("dc", "GPIO24", "SSD1331 data/command pin, empty to disable the panel")
	rstPin   = flag.String("rst", "GPIO25", "SSD1331 reset pin")
	pmsDev   = flag.String("pms", "", "serial device of the PMS particulate sensor, e.g. /dev/ttyAMA0")
	co2Range = flag.Int("co2-range", co2.DefaultOpts.RangePPM, "CO2 sensor full scale in ppm")

	co2Timeout  = flag.Duration("co2-timeout", 3*time.Second, "CO2 read timeout, 0 to wait forever")
	hchoTimeout = flag.Duration("hcho-timeout", 6*time.Second, "formaldehyde read timeout, 0 to wait forever")
	thTimeout   = flag.Duration("th-timeout", 100*time.Millisecond, "DHT11 read timeout, 0 to wait forever")

	listenAddr = flag.String("listen", ":9101", "address serving /metrics and the web mirror, empty to disable")
	interval   = flag.Duration("interval", 0, "pause between cycles")
	term       = flag.Bool("terminal", false, "mirror the display on the terminal")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn or error")
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	flag.Parse()
	if err := mainImpl(); err != nil {
		log.Fatal(err)
	}
}

func mainImpl() error {
	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		return errors.Wrap(err, "invalid -log-level")
	}
	log.SetLevel(lvl)

	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize periph")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var samplers []*singlewire.PinSampler
	reader := func(name string) (gpio.PinIO, singlewire.Reader, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, nil, errors.Errorf("no pin %q", name)
		}
		s := singlewire.NewPinSampler(p)
		samplers = append(samplers, s)
		return p, singlewire.NewDecoder(s), nil
	}

	var sensors station.Sensors
	_, r, err := reader(*co2Pin)
	if err != nil {
		return errors.Wrap(err, "co2")
	}
	if sensors.CO2, err = co2.New(r, &co2.Opts{RangePPM: *co2Range, Timeout: *co2Timeout}); err != nil {
		return err
	}
	if _, r, err = reader(*hchoPin); err != nil {
		return errors.Wrap(err, "hcho")
	}
	if sensors.HCHO, err = hcho.New(r, &hcho.Opts{Timeout: *hchoTimeout}); err != nil {
		return err
	}
	p, r, err := reader(*thPin)
	if err != nil {
		return errors.Wrap(err, "th")
	}
	thOpts := dht11.DefaultOpts
	thOpts.Timeout = *thTimeout
	if sensors.TH, err = dht11.New(p, r, &thOpts); err != nil {
		return err
	}
	if *pmsDev != "" {
		pm, err := pm25.Open(*pmsDev, &pm25.DefaultOpts)
		if err != nil {
			return err
		}
		defer pm.Halt()
		sensors.PM = pm
	} else {
		sensors.PM = pm25.Stub{}
	}
	if *ledPin != "" {
		if sensors.LED = gpioreg.ByName(*ledPin); sensors.LED == nil {
			return errors.Errorf("no LED pin %q", *ledPin)
		}
	}

	sinks, err := openSinks()
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Halt(); err != nil {
				log.WithError(err).Warnf("failed to halt %s", s)
			}
		}
	}()
	web, err := webview.New(&webview.Options{Width: dashboard.Width, Height: dashboard.Height})
	if err != nil {
		return err
	}
	sinks = append(sinks, web)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewBuildInfoCollector())
	reg.MustRegister(prometheus.NewGoCollector())
	m, err := station.NewMetrics(reg)
	if err != nil {
		return err
	}

	opts := station.DefaultOpts
	opts.Logger = log.StandardLogger()
	opts.Interval = *interval
	opts.Metrics = m
	opts.Publisher = web
	opts.Overruns = func() int64 {
		var n int64
		for _, s := range samplers {
			n += int64(s.Overruns())
		}
		return n
	}
	st, err := station.New(sensors, sinks, &opts)
	if err != nil {
		return err
	}

	if *listenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		}))
		mux.Handle("/", web.Handler())
		srv := &http.Server{Addr: *listenAddr, Handler: mux}
		go func() {
			log.Infof("serving on %s", *listenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server stopped")
			}
		}()
		defer srv.Close()
	}

	if err := st.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "station stopped")
	}
	log.Info("bye")
	return nil
}

// openSinks returns the SSD1331 panel and the terminal mirror, each when
// enabled.
func openSinks() ([]display.Drawer, error) {
	var sinks []display.Drawer
	if *dcPin != "" {
		port, err := spireg.Open(*spiPort)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open SPI port")
		}
		dc := gpioreg.ByName(*dcPin)
		if dc == nil {
			return nil, errors.Errorf("no DC pin %q", *dcPin)
		}
		var rst gpio.PinOut
		if *rstPin != "" {
			if rst = gpioreg.ByName(*rstPin); rst == nil {
				return nil, errors.Errorf("no RST pin %q", *rstPin)
			}
		}
		d, err := ssd1331.NewSPI(port, dc, rst, &ssd1331.DefaultOpts)
		if err != nil {
			return nil, err
		}
		log.Infof("panel %s", d)
		sinks = append(sinks, d)
	}
	if *term {
		d, err := screen.New(&screen.Opts{W: dashboard.Width, H: dashboard.Height})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, d)
	}
	return sinks, nil
}
