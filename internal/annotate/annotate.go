package annotate

import "fmt"

// Tool selects how pointer gestures on a page are interpreted.
type Tool int

const (
	ToolPointer Tool = iota
	ToolInk
	ToolText
	ToolHighlight
)

func (t Tool) String() string {
	switch t {
	case ToolPointer:
		return "pointer"
	case ToolInk:
		return "ink"
	case ToolText:
		return "text"
	case ToolHighlight:
		return "highlight"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// Kind identifies a committed annotation variant.
type Kind int

const (
	KindInk Kind = iota
	KindText
	KindHighlight
)

func (k Kind) String() string {
	switch k {
	case KindInk:
		return "ink"
	case KindText:
		return "text"
	case KindHighlight:
		return "highlight"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Color is an RGBA value with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// WithAlpha returns the color with its alpha channel replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// Style carries the rendering parameters bound to an annotation at
// creation time.
type Style struct {
	Color Color
	Width float64
}

const (
	// MinStrokeWidth and MaxStrokeWidth bound the stroke width slider.
	MinStrokeWidth = 1.0
	MaxStrokeWidth = 10.0
)

// ClampWidth forces a stroke width into the supported range.
func ClampWidth(w float64) float64 {
	if w < MinStrokeWidth {
		return MinStrokeWidth
	}
	if w > MaxStrokeWidth {
		return MaxStrokeWidth
	}
	return w
}

// Point is a location in page space (origin bottom-left, units = points).
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in page space.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Contains reports whether the point lies inside the rectangle,
// boundary included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Center returns the rectangle midpoint.
func (r Rect) Center() Point {
	return Point{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2}
}

// Expand grows the rectangle by the margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X0: r.X0 - margin, Y0: r.Y0 - margin, X1: r.X1 + margin, Y1: r.Y1 + margin}
}

// RectAround builds a rectangle of the given size centered on a point.
func RectAround(center Point, width, height float64) Rect {
	return Rect{
		X0: center.X - width/2,
		Y0: center.Y - height/2,
		X1: center.X + width/2,
		Y1: center.Y + height/2,
	}
}

// BoundsOf returns the tight bounding rectangle of a polyline. The
// second return value is false for an empty point sequence.
func BoundsOf(points []Point) (Rect, bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	r := Rect{X0: points[0].X, Y0: points[0].Y, X1: points[0].X, Y1: points[0].Y}
	for _, p := range points[1:] {
		if p.X < r.X0 {
			r.X0 = p.X
		}
		if p.X > r.X1 {
			r.X1 = p.X
		}
		if p.Y < r.Y0 {
			r.Y0 = p.Y
		}
		if p.Y > r.Y1 {
			r.Y1 = p.Y
		}
	}
	return r, true
}

// Annotation is a committed markup object attached to one page.
type Annotation struct {
	Kind     Kind
	Page     int
	Bounds   Rect
	Style    Style
	Contents string
	// Points holds the ink polyline in page coordinates. Empty for the
	// other kinds.
	Points []Point
}

// Ref identifies an attached annotation inside the owning document.
type Ref struct {
	Page int
	ID   int
}

// Target is the annotation surface of an open document. Implemented by
// the pdfcpu engine adapter.
type Target interface {
	// Bounds returns the page rectangle for a 0-based page index. The
	// second value is false for an out-of-range index.
	Bounds(page int) (Rect, bool)
	Attach(a Annotation) (Ref, error)
	Detach(ref Ref) error
}

// State is the coordinator's view of the document/tool state holder. It
// is consulted on every gesture event, never cached.
type State interface {
	ActiveTool() Tool
	ActiveStyle() Style
	// Current returns the open document's annotation surface, or false
	// when nothing is loaded.
	Current() (Target, bool)
}
