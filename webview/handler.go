// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bytes"
	"html/template"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

var index = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>Air station</title></head>
<body style="background:#222;color:#eee;font-family:monospace">
<img src="/display.mjpeg" width="{{.Width}}" height="{{.Height}}" style="image-rendering:pixelated">
<pre id="readings"></pre>
<script>
setInterval(() => fetch("/readings.json").then(r => r.text()).then(t => document.getElementById("readings").textContent = t), 2000);
</script>
</body></html>
`))

// Handler returns the HTTP handler serving the index page, the display and
// the readings.
func (d *Display) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.serveIndex)
	mux.HandleFunc("/display.png", d.serveSnapshot)
	mux.HandleFunc("/display.mjpeg", d.serveStream)
	mux.HandleFunc("/readings.json", d.serveReadings)
	return mux
}

func (d *Display) formatFromQuery(values url.Values) (ImageFormat, error) {
	if value := values.Get("format"); value != "" {
		return ImageFormatFromString(value)
	}
	return d.defaultFormat, nil
}

// grabSnapshot returns the encoded scaled image. The caller must not modify
// it.
func (d *Display) grabSnapshot(f ImageFormat) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.snapshot[f]; ok {
		return b, nil
	}
	var buf bytes.Buffer
	if err := f.encode(&buf, d.scaled); err != nil {
		return nil, err
	}
	d.snapshot[f] = buf.Bytes()
	return buf.Bytes(), nil
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (d *Display) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	b := d.scaled.Bounds()
	if err := index.Execute(w, struct{ Width, Height int }{b.Dx(), b.Dy()}); err != nil {
		d.log.WithError(err).Warn("webview: rendering index failed")
	}
}

func (d *Display) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	f, err := d.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := d.grabSnapshot(f)
	if err != nil {
		d.log.WithError(err).Error("webview: encoding image failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", f.mimeType())
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

func (d *Display) serveReadings(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	d.mu.Lock()
	b := d.readings
	d.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

// serveStream sends a stream of images representing the display buffer. The
// display options control the default format and clients can explicitly
// request PNG or JPEG images using the "format" parameter ("?format=png",
// "?format=jpeg").
func (d *Display) serveStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f, err := d.formatFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pw := newPartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	n := len(d.clients)
	d.mu.Unlock()
	d.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "clients": n}).Debug("webview: stream started")
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
	}()

	partHeaders := make(textproto.MIMEHeader)
	partHeaders.Set("Content-Type", f.mimeType())
	partHeaders.Set("Content-Transfer-Encoding", "binary")
	for {
		payload, err := d.grabSnapshot(f)
		if err != nil {
			d.log.WithError(err).Error("webview: encoding image failed")
			return
		}
		// Errors cause the request to be silently terminated. There's no
		// good way to deliver an error message within an image stream.
		if err := pw.writeFrame(partHeaders, payload); err != nil {
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}
