// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build rp2040 || rp2350

// airstation-pico runs the air quality station on a Raspberry Pi Pico.
//
// Build it with TinyGo:
//
//	tinygo flash -target=pico ./cmd/airstation-pico
//
// The single wire sensors are sampled by the PIO blocks. Pin map:
//
//	GP0   CO2 PWM
//	GP1   PMS UART0 RX
//	GP2   HCHO PWM
//	GP3   DHT11 data
//	GP8   SSD1331 DC
//	GP9   SSD1331 CS
//	GP10  SSD1331 SCK (SPI1)
//	GP11  SSD1331 SDA (SPI1)
//	GP12  SSD1331 RST
//	GP25  LED
package main

import (
	"context"
	"log"
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers/ssd1331"

	"github.com/GermanBionicSystems/airstation/co2"
	"github.com/GermanBionicSystems/airstation/dashboard"
	"github.com/GermanBionicSystems/airstation/dht11"
	"github.com/GermanBionicSystems/airstation/hcho"
	"github.com/GermanBionicSystems/airstation/pioreader"
	"github.com/GermanBionicSystems/airstation/pm25"
	"github.com/GermanBionicSystems/airstation/rgb565"
)

const (
	co2Pin  = machine.GP0
	hchoPin = machine.GP2
	thPin   = machine.GP3
	ledPin  = machine.GP25

	blink = 100 * time.Millisecond
)

func main() {
	if err := mainImpl(); err != nil {
		log.Fatal(err)
	}
}

func mainImpl() error {
	led := ledPin
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	led.High()
	time.Sleep(time.Second)
	led.Low()
	p := newPanel()
	img := dashboard.NewImage()
	dashboard.Welcome().Draw(img)
	p.push(img)

	c, err := co2.New(pioreader.New(pio.PIO0, co2Pin), &co2.Opts{RangePPM: co2.DefaultOpts.RangePPM, Timeout: 3 * time.Second})
	if err != nil {
		return err
	}
	h, err := hcho.New(pioreader.New(pio.PIO0, hchoPin), &hcho.Opts{Timeout: 6 * time.Second})
	if err != nil {
		return err
	}
	thOpts := dht11.DefaultOpts
	thOpts.Timeout = 100 * time.Millisecond
	th, err := dht11.New(wakePin(thPin), pioreader.New(pio.PIO1, thPin), &thOpts)
	if err != nil {
		return err
	}
	// UART0 also claims GP0 for TX. The CO2 reader switches it back to an
	// input on every read.
	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{BaudRate: pm25.Baud, TX: machine.UART0_TX_PIN, RX: machine.UART0_RX_PIN}); err != nil {
		return err
	}
	pm := pm25.New(uart, &pm25.DefaultOpts)

	ctx := context.Background()
	for {
		led.High()
		time.Sleep(blink)
		led.Low()
		time.Sleep(blink)
		led.High()
		time.Sleep(blink)
		led.Low()

		r, err := th.Sense(ctx)
		if err != nil {
			log.Println(err)
		}
		v := dashboard.Values{TH: r}
		if pr, err := pm.Sense(ctx); err != nil {
			log.Println(err)
		} else {
			v.PM = int(pr.PM25)
		}
		if v.CO2, err = c.Sense(ctx); err != nil {
			log.Println(err)
			continue
		}
		if v.HCHO, err = h.Sense(ctx); err != nil {
			log.Println(err)
			continue
		}
		if r.IsZero() {
			continue
		}
		dashboard.Readings(v).Draw(img)
		p.push(img)
		log.Printf("co2=%s hcho=%s pm2.5=%dug/m3 %s", v.CO2, v.HCHO, v.PM, r)
	}
}

// panel pushes dashboard frames to the SSD1331 through the TinyGo driver.
type panel struct {
	d ssd1331.Device
}

func newPanel() *panel {
	machine.SPI1.Configure(machine.SPIConfig{
		Frequency: 8000000,
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		Mode:      3,
	})
	d := ssd1331.New(machine.SPI1, machine.GP12, machine.GP8, machine.GP9)
	d.Configure(ssd1331.Config{Width: dashboard.Width, Height: dashboard.Height})
	return &panel{d: d}
}

// push sends img whole. rgb565.Image is in the controller wire order.
func (p *panel) push(img *rgb565.Image) {
	b := img.Bounds()
	p.d.Tx([]byte{0x15, byte(b.Min.X), byte(b.Max.X - 1)}, true)
	p.d.Tx([]byte{0x75, byte(b.Min.Y), byte(b.Max.Y - 1)}, true)
	p.d.Tx(img.Pix, false)
}

// wakePin drives the DHT11 data line for the wake up pulse.
type wakePin machine.Pin

func (p wakePin) Out(l gpio.Level) error {
	m := machine.Pin(p)
	m.Configure(machine.PinConfig{Mode: machine.PinOutput})
	m.Set(bool(l))
	return nil
}

func (p wakePin) In(pull gpio.Pull, _ gpio.Edge) error {
	mode := machine.PinInput
	switch pull {
	case gpio.PullUp:
		mode = machine.PinInputPullup
	case gpio.PullDown:
		mode = machine.PinInputPulldown
	}
	machine.Pin(p).Configure(machine.PinConfig{Mode: mode})
	return nil
}

var _ dht11.Pin = wakePin(0)
