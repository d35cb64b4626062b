// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package singlewire decodes fixed-length frames from sensors that signal
// over a single GPIO line with timing-encoded bits.
//
// A read is described by a Config: the start condition that tells the sensor
// is transmitting, the rule that turns pin activity into one bit, how many
// bits form a Word and how many Words form a Frame.
//
// Sampling is isolated behind the Sampler interface. The decoder counts time
// in sample periods only, so it can be driven by a recorded trace (see
// singlewiretest), by PinSampler on a general purpose host, or replaced as a
// whole by a hardware implementation of Reader.
//
// # Timing fidelity
//
// PinSampler busy-waits on the monotonic clock and reads the pin through
// periph. It locks the OS thread and stops the garbage collector for the
// duration of a frame, but a general purpose kernel can still preempt it.
// Late samples are counted and reported by Overruns(). The protocols handled
// here tolerate some jitter at millisecond cadence; at microsecond cadence
// (DHT11) expect checksum failures on a loaded system.
//
// # Stalls
//
// A sensor that stops toggling the line mid-frame makes the decoder wait
// forever unless Config.Timeout is set or the context passed to ReadFrame is
// cancelled. With a timeout, ReadFrame fails with ErrTimeout.
package singlewire
