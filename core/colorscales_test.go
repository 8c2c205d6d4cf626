package core

import "testing"

func TestNormalizeColorScale(t *testing.T) {
	if got := NormalizeColorScale("Turbo"); got != "Turbo" {
		t.Errorf("NormalizeColorScale(Turbo) = %q", got)
	}
	if got := NormalizeColorScale("NotAScale"); got != DefaultColorScale {
		t.Errorf("NormalizeColorScale(NotAScale) = %q, want %q", got, DefaultColorScale)
	}
	if got := NormalizeColorScale(""); got != DefaultColorScale {
		t.Errorf("NormalizeColorScale(\"\") = %q, want %q", got, DefaultColorScale)
	}
}

func TestEveryScaleHasStops(t *testing.T) {
	for _, name := range ColorScales {
		stops := scaleStops(name)
		if len(stops) < 2 {
			t.Errorf("scale %s has %d stops", name, len(stops))
			continue
		}
		if stops[0][0] != 0.0 {
			t.Errorf("scale %s first stop at %v, want 0", name, stops[0][0])
		}
		if stops[len(stops)-1][0] != 1.0 {
			t.Errorf("scale %s last stop at %v, want 1", name, stops[len(stops)-1][0])
		}
	}
}

func TestScaleStopsUnknownFallsBack(t *testing.T) {
	unknown := scaleStops("NotAScale")
	viridis := scaleStops("Viridis")
	if len(unknown) != len(viridis) {
		t.Fatalf("fallback scale has %d stops, want %d", len(unknown), len(viridis))
	}
	if unknown[0][1] != viridis[0][1] {
		t.Errorf("fallback first color %v != %v", unknown[0][1], viridis[0][1])
	}
}
