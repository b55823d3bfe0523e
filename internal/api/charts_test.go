package api

import (
	"bytes"
	"image/png"
	"net/http"
	"strings"
	"testing"
)

func TestAngleChart(t *testing.T) {
	env := setupTestServer(t)
	recordSamples(t, env, 10, 20, 30)

	w := env.do(t, http.MethodGet, "/charts/angles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"Encoder Angle", "processed", "raw", "samples=3"} {
		if !strings.Contains(body, want) {
			t.Errorf("chart HTML missing %q", want)
		}
	}
}

func TestAnglePlot(t *testing.T) {
	env := setupTestServer(t)
	recordSamples(t, env, 10, 20, 30, 350)

	w := env.do(t, http.MethodGet, "/charts/angles.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() <= b.Dy() {
		t.Errorf("expected a landscape plot, got %v", b)
	}
}

func TestAnglePlot_Empty(t *testing.T) {
	env := setupTestServer(t)
	w := env.do(t, http.MethodGet, "/charts/angles.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("empty plot is not a PNG: %v", err)
	}
}

func TestCharts_Errors(t *testing.T) {
	env := setupTestServer(t)
	for _, path := range []string{"/charts/angles", "/charts/angles.png"} {
		if w := env.do(t, http.MethodPost, path, nil); w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: expected 405, got %d", path, w.Code)
		}
		if w := env.do(t, http.MethodGet, path+"?limit=x", nil); w.Code != http.StatusBadRequest {
			t.Errorf("GET %s?limit=x: expected 400, got %d", path, w.Code)
		}
	}

	s := NewServer(env.rx, nil, "", nil)
	w := httptestRecorder(s, http.MethodGet, "/charts/angles")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("no database: expected 503, got %d", w.Code)
	}
}
