package core

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestColorAtEndpoints(t *testing.T) {
	first := colorAt("Viridis", 0)
	if first != hexColor("#440154") {
		t.Errorf("colorAt(0) = %+v", first)
	}
	last := colorAt("Viridis", 1)
	if last != hexColor("#fde725") {
		t.Errorf("colorAt(1) = %+v", last)
	}
	// Out-of-range values clamp to the endpoints.
	if colorAt("Viridis", -0.5) != first {
		t.Error("colorAt below 0 did not clamp")
	}
	if colorAt("Viridis", 1.5) != last {
		t.Error("colorAt above 1 did not clamp")
	}
}

func TestColorAtInterpolates(t *testing.T) {
	mid := colorAt("Viridis", 0.125)
	lo := hexColor("#440154")
	hi := hexColor("#3b528b")
	if mid == lo || mid == hi {
		t.Errorf("colorAt(0.125) = %+v, expected a blend", mid)
	}
}

func TestBlend(t *testing.T) {
	black := hexColor("#000000")
	white := hexColor("#ffffff")
	mid := blend(black, white, 0.5)
	if mid.R != 127 || mid.G != 127 || mid.B != 127 {
		t.Errorf("blend midpoint = %+v", mid)
	}
	if got := blend(black, white, 0); got != black {
		t.Errorf("blend(0) = %+v", got)
	}
}

func TestBarPNG(t *testing.T) {
	a := testApp(t)
	r := httptest.NewRequest(http.MethodGet, "/figures/bar.png?year=2021&sex=T&age=TOTAL&scale=Viridis", nil)
	w := httptest.NewRecorder()
	a.BarPNG(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("bar.png = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("response is not a PNG")
	}
}
