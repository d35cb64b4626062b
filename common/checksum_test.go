// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

func TestSum(t *testing.T) {
	var tests = []struct {
		bytes []byte
		sum   int
		sum8  byte
		sum16 uint16
	}{
		{bytes: nil, sum: 0, sum8: 0, sum16: 0},
		{bytes: []byte{25, 0, 60, 0}, sum: 85, sum8: 85, sum16: 85},
		{bytes: []byte{200, 0, 100, 0}, sum: 300, sum8: 44, sum16: 300},
		{bytes: []byte{0xff, 0xff, 0xff, 0xff}, sum: 1020, sum8: 0xfc, sum16: 1020},
	}
	for _, test := range tests {
		if res := Sum(test.bytes); res != test.sum {
			t.Errorf("Sum(%#v)!=%d received %d", test.bytes, test.sum, res)
		}
		if res := Sum8(test.bytes); res != test.sum8 {
			t.Errorf("Sum8(%#v)!=0x%x received 0x%x", test.bytes, test.sum8, res)
		}
		if res := Sum16(test.bytes); res != test.sum16 {
			t.Errorf("Sum16(%#v)!=0x%x received 0x%x", test.bytes, test.sum16, res)
		}
	}
}

func TestSum16Wraps(t *testing.T) {
	b := make([]byte, 300)
	for i := range b {
		b[i] = 0xff
	}
	if res := Sum16(b); res != uint16(len(b)*0xff) {
		t.Errorf("Sum16 received 0x%x", res)
	}
	b = make([]byte, 258)
	for i := range b {
		b[i] = 0xff
	}
	// 258*255 = 65790 wraps to 254.
	if res := Sum16(b); res != 254 {
		t.Errorf("Sum16 received %d", res)
	}
}
