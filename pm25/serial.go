// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !baremetal

package pm25

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// Open opens the serial device name, for example /dev/ttyAMA0, and returns a
// Dev reading from it.
func Open(name string, opts *Opts) (*Dev, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        Baud,
		ReadTimeout: 500 * time.Millisecond,
		Size:        serial.DefaultSize,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("pm25: failed to open serial port %s: %w", name, err)
	}
	d := New(p, opts)
	d.name = "PMS(" + name + ")"
	return d, nil
}
