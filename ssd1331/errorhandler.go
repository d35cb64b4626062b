// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1331

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil || eh.d.rst == nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.dc.Out(l)
}

// cTx splits w in transfers the bus accepts.
func (eh *errorHandler) cTx(w []byte) {
	for len(w) > 0 && eh.err == nil {
		n := min(len(w), eh.d.maxTxSize)
		eh.err = eh.d.c.Tx(w[:n], nil)
		w = w[n:]
	}
}

func (eh *errorHandler) sleep(d time.Duration) {
	if eh.err != nil {
		return
	}
	sleep(d)
}

func (eh *errorHandler) reset() {
	eh.rstOut(gpio.High)
	eh.sleep(100 * time.Millisecond)
	eh.rstOut(gpio.Low)
	eh.sleep(100 * time.Millisecond)
	eh.rstOut(gpio.High)
}

func (eh *errorHandler) sendCommand(c ...byte) {
	if eh.err != nil {
		return
	}
	if eh.d.halted {
		// Transparently enable the display.
		c = append([]byte{displayOn}, c...)
		eh.d.halted = false
	}
	eh.dcOut(gpio.Low)
	eh.cTx(c)
}

func (eh *errorHandler) sendData(d []byte) {
	if eh.err != nil {
		return
	}
	eh.dcOut(gpio.High)
	eh.cTx(d)
}

var sleep = time.Sleep
