// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pm25 reads particulate matter sensors.
//
// Sensor is the interface used by the station. Dev implements it for the
// Plantower PMS5003, PMS7003 and PMSA003 family, which streams a 32 bytes
// frame about every second over a 9600 8N1 UART while in active mode. Stub
// implements it when no sensor is wired.
//
// # Datasheet
//
// https://www.aqmd.gov/docs/default-source/aq-spec/resources-page/plantower-pms5003-manual_v2-3.pdf
package pm25
