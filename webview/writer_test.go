// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bytes"
	"net/textproto"
	"regexp"
	"testing"
)

var boundaryRe = regexp.MustCompile(`^[a-f0-9]{60,70}$`)

func TestRandomBoundary(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := randomBoundary(); !boundaryRe.MatchString(got) {
			t.Errorf("Boundary must match the expression %q: %s", boundaryRe.String(), got)
		}
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	w := &partWriter{u: &buf, boundary: "b"}
	h := textproto.MIMEHeader{}
	if err := w.writeFrame(h, []byte("ab")); err != nil {
		t.Fatal(err)
	}
	if err := w.writeFrame(h, []byte("c")); err != nil {
		t.Fatal(err)
	}
	want := "--b\r\nContent-Length: 2\r\n\r\nab\r\n--b\r\nContent-Length: 1\r\n\r\nc\r\n--b\r\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
