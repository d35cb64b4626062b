// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the additive checksums used by single-wire and UART sensors.
package common

// Sum returns the sum of bytes without wrapping.
func Sum(bytes []byte) int {
	s := 0
	for _, val := range bytes {
		s += int(val)
	}
	return s
}

// Sum8 returns the sum of bytes modulo 256. It is the checksum of the DHT
// sensor family.
func Sum8(bytes []byte) byte {
	var s byte
	for _, val := range bytes {
		s += val
	}
	return s
}

// Sum16 returns the sum of bytes modulo 65536. It is the checksum of the
// Plantower PMS sensor family.
func Sum16(bytes []byte) uint16 {
	var s uint16
	for _, val := range bytes {
		s += uint16(val)
	}
	return s
}
