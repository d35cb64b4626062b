// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pm25

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/GermanBionicSystems/airstation/common"
	"periph.io/x/conn/v3"
)

const (
	// Baud is the sensor UART speed.
	Baud = 9600
	// FrameSize is the size of one frame, header and checksum included.
	FrameSize = 32

	start1 = 0x42
	start2 = 0x4d
	// Length announced in the header: 13 data words and the checksum.
	frameLength = 28
)

var (
	// ErrNotConfigured is returned by Stub.
	ErrNotConfigured = errors.New("pm25: no sensor configured")
	// ErrChecksum is returned when a frame checksum does not match.
	ErrChecksum = errors.New("pm25: checksum mismatch")
	// ErrSync is returned when no frame header was found.
	ErrSync = errors.New("pm25: frame header not found")
)

// Sensor measures particulate matter.
type Sensor interface {
	conn.Resource
	Sense(ctx context.Context) (Reading, error)
}

// Reading is one measurement. Concentrations are in µg/m3.
type Reading struct {
	// Concentrations under atmospheric environment.
	PM1  uint16
	PM25 uint16
	PM10 uint16
	// Concentrations with the factory calibration (CF=1).
	PM1Standard  uint16
	PM25Standard uint16
	PM10Standard uint16
	// Counts of particles beyond 0.3, 0.5, 1, 2.5, 5 and 10µm in 0.1L of air.
	Counts [6]uint16
}

func (r Reading) String() string {
	return fmt.Sprintf("PM1:%dug/m3 PM2.5:%dug/m3 PM10:%dug/m3", r.PM1, r.PM25, r.PM10)
}

// Parse decodes one frame.
func Parse(b []byte) (Reading, error) {
	if len(b) != FrameSize {
		return Reading{}, fmt.Errorf("pm25: expected %d bytes, got %d", FrameSize, len(b))
	}
	if b[0] != start1 || b[1] != start2 {
		return Reading{}, fmt.Errorf("pm25: bad header %#x %#x", b[0], b[1])
	}
	if l := binary.BigEndian.Uint16(b[2:]); l != frameLength {
		return Reading{}, fmt.Errorf("pm25: bad frame length %d", l)
	}
	if sum := binary.BigEndian.Uint16(b[30:]); sum != common.Sum16(b[:30]) {
		return Reading{}, ErrChecksum
	}
	w := func(i int) uint16 {
		return binary.BigEndian.Uint16(b[4+2*i:])
	}
	r := Reading{
		PM1Standard:  w(0),
		PM25Standard: w(1),
		PM10Standard: w(2),
		PM1:          w(3),
		PM25:         w(4),
		PM10:         w(5),
	}
	for i := range r.Counts {
		r.Counts[i] = w(6 + i)
	}
	return r, nil
}

// Opts holds the configuration options.
type Opts struct {
	// Timeout bounds one read. The sensor sends a frame every 200ms to
	// 2.3s depending on the concentration.
	Timeout time.Duration
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Timeout: 5 * time.Second,
}

// Dev is a handle to a Plantower sensor in active mode.
type Dev struct {
	name    string
	timeout time.Duration

	mu  sync.Mutex
	r   io.Reader
	buf [FrameSize]byte
}

// New returns a Dev reading frames from r.
//
// r may return 0 bytes without error when no data is available. If r is an
// io.Closer, it is closed by Halt.
func New(r io.Reader, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &Dev{name: "PMS", timeout: opts.Timeout, r: r}
}

func (d *Dev) String() string {
	return d.name
}

// Sense waits for the next frame and decodes it.
func (d *Dev) Sense(ctx context.Context) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.sync(ctx); err != nil {
		return Reading{}, err
	}
	if err := d.readFull(ctx, d.buf[2:]); err != nil {
		return Reading{}, fmt.Errorf("pm25: %w", err)
	}
	return Parse(d.buf[:])
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// sync consumes bytes until a frame header.
func (d *Dev) sync(ctx context.Context) error {
	var prev byte
	for i := 0; i < 2*FrameSize; i++ {
		if err := d.readFull(ctx, d.buf[1:2]); err != nil {
			return fmt.Errorf("pm25: %w", err)
		}
		if prev == start1 && d.buf[1] == start2 {
			d.buf[0] = start1
			return nil
		}
		prev = d.buf[1]
	}
	return ErrSync
}

func (d *Dev) readFull(ctx context.Context, b []byte) error {
	for len(b) != 0 {
		n, err := d.r.Read(b)
		b = b[n:]
		if err != nil && err != io.EOF {
			return err
		}
		if n != 0 {
			continue
		}
		// Nothing available yet.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

// Stub is a Sensor that is not wired.
type Stub struct{}

func (Stub) String() string {
	return "PM stub"
}

// Sense returns ErrNotConfigured.
func (Stub) Sense(ctx context.Context) (Reading, error) {
	return Reading{}, ErrNotConfigured
}

// Halt implements conn.Resource.
func (Stub) Halt() error {
	return nil
}

var _ Sensor = &Dev{}
var _ Sensor = Stub{}
