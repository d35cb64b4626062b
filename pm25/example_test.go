//go:build examples
// +build examples

// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pm25_test

import (
	"context"
	"fmt"
	"log"

	"github.com/GermanBionicSystems/airstation/pm25"
)

func Example() {
	dev, err := pm25.Open("/dev/ttyAMA0", &pm25.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()
	r, err := dev.Sense(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("PM1.0 %dµg/m3 PM2.5 %dµg/m3 PM10 %dµg/m3\n", r.PM1, r.PM25, r.PM10)
}
