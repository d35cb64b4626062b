// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hcho reads electrochemical formaldehyde sensors with a PWM output,
// such as the Dart WZ-S and the Winsen ZE08-CH2O in PWM mode.
//
// The PWM output is sampled every millisecond for about three seconds. Every
// second sample is dropped and the remaining 1500 are counted: each high
// sample stands for 0.0008ppm.
package hcho
