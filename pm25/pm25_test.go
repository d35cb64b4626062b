// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pm25

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// frame builds a valid frame carrying the 13 data words.
func frame(words ...uint16) []byte {
	b := make([]byte, FrameSize)
	b[0], b[1] = 0x42, 0x4d
	binary.BigEndian.PutUint16(b[2:], 28)
	for i, w := range words {
		binary.BigEndian.PutUint16(b[4+2*i:], w)
	}
	var sum uint16
	for _, c := range b[:30] {
		sum += uint16(c)
	}
	binary.BigEndian.PutUint16(b[30:], sum)
	return b
}

var sample = frame(5, 8, 9, 4, 7, 9, 1200, 350, 60, 5, 1, 0, 0)

var sampleReading = Reading{
	PM1: 4, PM25: 7, PM10: 9,
	PM1Standard: 5, PM25Standard: 8, PM10Standard: 9,
	Counts: [6]uint16{1200, 350, 60, 5, 1, 0},
}

func TestParse(t *testing.T) {
	r, err := Parse(sample)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleReading, r); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}
	if s := r.String(); s != "PM1:4ug/m3 PM2.5:7ug/m3 PM10:9ug/m3" {
		t.Errorf("String()=%q", s)
	}
}

func TestParseErrors(t *testing.T) {
	corrupt := func(i int, v byte) []byte {
		b := append([]byte(nil), sample...)
		b[i] = v
		return b
	}
	var tests = []struct {
		name string
		b    []byte
	}{
		{"short", sample[:31]},
		{"header", corrupt(0, 0x41)},
		{"length", corrupt(3, 20)},
		{"checksum", corrupt(10, 0xff)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse(test.b); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Parse(corrupt(31, 0)); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestSense(t *testing.T) {
	// Garbage then two complete frames.
	var stream []byte
	stream = append(stream, 0x00, 0x42, 0x13, 0x4d, 0x42)
	stream = append(stream, sample...)
	stream = append(stream, frame(1, 2, 3, 4, 5, 6)...)
	d := New(bytes.NewReader(stream), nil)
	r, err := d.Sense(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sampleReading, r); diff != "" {
		t.Errorf("reading mismatch (-want +got):\n%s", diff)
	}
	r, err = d.Sense(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.PM25 != 5 || r.PM10Standard != 3 {
		t.Errorf("unexpected second reading %+v", r)
	}
	if d.String() != "PMS" {
		t.Errorf("String()=%q", d.String())
	}
}

func TestSenseNoHeader(t *testing.T) {
	d := New(bytes.NewReader(make([]byte, 100)), nil)
	if _, err := d.Sense(context.Background()); !errors.Is(err, ErrSync) {
		t.Fatalf("expected ErrSync, got %v", err)
	}
}

// idle never has data.
type idle struct {
	closed bool
}

func (i *idle) Read(b []byte) (int, error) {
	return 0, nil
}

func (i *idle) Close() error {
	i.closed = true
	return nil
}

func TestSenseTimeout(t *testing.T) {
	i := &idle{}
	d := New(i, &Opts{Timeout: 10 * time.Millisecond})
	if _, err := d.Sense(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if err := d.Halt(); err != nil || !i.closed {
		t.Errorf("Halt() did not close the reader: %v", err)
	}
}

func TestSenseEOF(t *testing.T) {
	// A serial port read timeout shows up as io.EOF and is retried until the
	// context expires.
	d := New(bytes.NewReader(sample[:5]), &Opts{Timeout: 10 * time.Millisecond})
	if _, err := d.Sense(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestStub(t *testing.T) {
	var s Sensor = Stub{}
	if _, err := s.Sense(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if s.String() != "PM stub" || s.Halt() != nil {
		t.Error("unexpected String() or Halt()")
	}
}
