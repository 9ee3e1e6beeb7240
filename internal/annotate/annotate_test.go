package annotate

import "testing"

func TestBoundsOf(t *testing.T) {
	t.Parallel()

	if _, ok := BoundsOf(nil); ok {
		t.Fatal("empty polyline should have no bounds")
	}

	r, ok := BoundsOf([]Point{{X: 3, Y: 7}})
	if !ok || r.Width() != 0 || r.Height() != 0 {
		t.Fatalf("single point bounds = %+v, ok=%v", r, ok)
	}

	r, ok = BoundsOf([]Point{{X: 10, Y: 40}, {X: -2, Y: 5}, {X: 6, Y: 60}})
	if !ok {
		t.Fatal("bounds missing for non-empty polyline")
	}
	want := Rect{X0: -2, Y0: 5, X1: 10, Y1: 60}
	if r != want {
		t.Fatalf("bounds = %+v, want %+v", r, want)
	}
}

func TestRectContainsIncludesBoundary(t *testing.T) {
	t.Parallel()

	r := Rect{X0: 0, Y0: 0, X1: 100, Y1: 50}
	for _, p := range []Point{{0, 0}, {100, 50}, {50, 25}, {100, 0}} {
		if !r.Contains(p) {
			t.Fatalf("rect should contain %+v", p)
		}
	}
	for _, p := range []Point{{-0.1, 0}, {100.1, 50}, {50, 50.1}} {
		if r.Contains(p) {
			t.Fatalf("rect should not contain %+v", p)
		}
	}
}

func TestRectAroundAndExpand(t *testing.T) {
	t.Parallel()

	r := RectAround(Point{X: 150, Y: 300}, 120, 24)
	if r.Center() != (Point{X: 150, Y: 300}) {
		t.Fatalf("center drifted: %+v", r.Center())
	}
	grown := r.Expand(4)
	if grown.Width() != r.Width()+8 || grown.Height() != r.Height()+8 {
		t.Fatalf("expand changed size incorrectly: %+v", grown)
	}
}

func TestToolAndKindStrings(t *testing.T) {
	t.Parallel()

	if ToolPointer.String() != "pointer" || ToolInk.String() != "ink" ||
		ToolText.String() != "text" || ToolHighlight.String() != "highlight" {
		t.Fatal("unexpected tool labels")
	}
	if KindInk.String() != "ink" || KindText.String() != "text" || KindHighlight.String() != "highlight" {
		t.Fatal("unexpected kind labels")
	}
}
