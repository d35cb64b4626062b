// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1331 controls a 96x64 16 bits color OLED display driven by a
// SSD1331 over 4-wire SPI.
//
// Pixels are sent as RGB565, high byte first, which is the layout of
// rgb565.Image. Only the smallest rectangle that changed since the previous
// frame is sent.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/SSD1331_1.2.pdf
package ssd1331
