// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airstation is a container for the air quality station packages.
//
// The sensors signal over a single GPIO line: singlewire decodes their
// frames in software and pioreader on the RP2040 PIO. co2, hcho, dht11 and
// pm25 turn frames into readings, dashboard renders them and ssd1331, screen
// and webview show them. station ties everything together for
// cmd/airstation. cmd/airstation-pico is the TinyGo build for the Pico.
package airstation
