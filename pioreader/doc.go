// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pioreader reads singlewire frames with a programmable I/O state
// machine of the RP2040 and RP2350.
//
// Assemble turns a singlewire.Config into a PIO program: one wait per start
// step, then a loop pushing one bit per sample into the ISR. Autopush hands
// complete words to the RX FIFO, which Reader drains. Sampling is done by the
// state machine clock, so the cadence holds at microsecond periods.
//
// Assemble builds on any host. Reader only builds with TinyGo for rp2040 or
// rp2350.
package pioreader
