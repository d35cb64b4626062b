// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package co2 reads NDIR CO2 sensors with a PWM output, such as the Winsen
// MH-Z14A, MH-Z19 and their clones.
//
// The sensor repeats a 1004ms cycle on its PWM pin where the time spent high
// is proportional to the concentration. The line is sampled once per
// millisecond for 1000 samples and the concentration is the sensor range
// scaled by the fraction of high samples.
//
// # Datasheet
//
// https://www.winsen-sensor.com/d/files/infrared-gas-sensor/mh-z19b-co2-ver1_0.pdf
package co2
