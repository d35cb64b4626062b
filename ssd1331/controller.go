// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1331

import "image"

type controller interface {
	sendCommand(c ...byte)
	sendData([]byte)
}

func initDisplay(ctrl controller, opts *Opts) {
	remap := byte(remapColor65k | remapCOMSplit | remapCOMReverse | remapColumn)
	if opts.Rotated {
		remap = remapColor65k | remapCOMSplit
	}
	ctrl.sendCommand(displayOff)
	ctrl.sendCommand(setContrastA, opts.Contrast)
	ctrl.sendCommand(setContrastB, opts.Contrast)
	ctrl.sendCommand(setContrastC, opts.Contrast)
	ctrl.sendCommand(masterCurrent, 0x06)
	ctrl.sendCommand(prechargeA, 0x64)
	ctrl.sendCommand(prechargeB, 0x78)
	ctrl.sendCommand(prechargeC, 0x64)
	ctrl.sendCommand(setRemap, remap)
	ctrl.sendCommand(startLine, 0x00)
	ctrl.sendCommand(displayOffset, 0x00)
	ctrl.sendCommand(normalDisplay)
	ctrl.sendCommand(setMultiplex, byte(opts.H-1))
	ctrl.sendCommand(setMaster, 0x8E)
	ctrl.sendCommand(powerMode, 0x00)
	ctrl.sendCommand(precharge, 0x31)
	ctrl.sendCommand(clockDiv, 0xF0)
	ctrl.sendCommand(prechargeLevel, 0x3A)
	ctrl.sendCommand(vcomh, 0x3E)
	ctrl.sendCommand(deactivateScroll)
	ctrl.sendCommand(displayOn)
}

// setWindow restricts the following pixel data to r.
func setWindow(ctrl controller, r image.Rectangle) {
	ctrl.sendCommand(setColumn, byte(r.Min.X), byte(r.Max.X-1))
	ctrl.sendCommand(setRow, byte(r.Min.Y), byte(r.Max.Y-1))
}
