// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11 reads the Aosong DHT11 temperature and humidity sensor over
// its single-wire bus.
//
// The host pulls the line low for at least 18ms and releases it. The sensor
// answers with 80µs low and 80µs high, then sends 40 bits. Each bit starts
// with 50µs low followed by a high pulse of 26-28µs for 0 or 70µs for 1. The
// line is sampled 28µs into every high pulse.
//
// The 5 bytes received are validated by an additive checksum. When it does
// not match, the zero Reading is returned along with ErrChecksum. A genuine
// all-zero frame also produces the zero Reading: callers that only look at
// the value cannot tell the two apart.
//
// # Datasheet
//
// https://www.mouser.com/datasheet/2/758/DHT11-Technical-Data-Sheet-Translated-Version-1143054.pdf
package dht11
