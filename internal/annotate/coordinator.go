package annotate

import (
	"fmt"
	"strings"
)

const (
	// PlaceholderText is stamped into a text note committed without
	// user-supplied contents.
	PlaceholderText = "New note"

	// DefaultFontSize is the free-text annotation font size in points.
	DefaultFontSize = 12.0

	highlightWidth  = 120.0
	highlightHeight = 24.0
	// HighlightOpacity dims the fill so underlying content stays legible.
	HighlightOpacity = 0.3

	inkBoundsMargin = 4.0
	textPadding     = 4.0
	minTextWidth    = 40.0

	// Helvetica averages roughly half an em per glyph; close enough for
	// sizing a note box in the absence of real font metrics.
	approxGlyphAdvance = 0.52
)

// stroke is a partially drawn ink path. The style is snapshotted once at
// drag-start; later style changes never restyle an in-progress stroke.
type stroke struct {
	page   int
	points []Point
	style  Style
}

type undoEntry struct {
	ann Annotation
	ref Ref
}

// Coordinator interprets tap and drag events against the active tool and
// turns them into committed annotations. It owns the session-scoped undo
// stack: append-only except for popping the most recent entry.
//
// All methods must be called from a single event-handling goroutine.
type Coordinator struct {
	state  State
	stack  []undoEntry
	stroke *stroke
}

// NewCoordinator returns a coordinator reading tool, style and document
// from the given state holder on every event.
func NewCoordinator(state State) *Coordinator {
	return &Coordinator{state: state}
}

// Tap handles a discrete tap on the given 0-based page. With the text
// tool active it commits a note with placeholder contents; with the
// highlight tool it commits a fixed-size highlight centered on the point.
// Every other tool, taps outside the page, and taps without an open
// document are no-ops, reported as (nil, nil).
func (c *Coordinator) Tap(page int, pt Point) (*Annotation, error) {
	switch c.state.ActiveTool() {
	case ToolText:
		return c.CommitText(page, pt, PlaceholderText)
	case ToolHighlight:
		return c.commitHighlight(page, pt)
	default:
		return nil, nil
	}
}

// CommitText commits a free-text note anchored at the tapped point. Empty
// contents fall back to the placeholder. The bounds derive from the
// measured text size plus padding, with a minimum width floor so short
// notes remain clickable.
func (c *Coordinator) CommitText(page int, pt Point, contents string) (*Annotation, error) {
	target, ok := c.targetFor(page, pt)
	if !ok {
		return nil, nil
	}
	contents = strings.TrimSpace(contents)
	if contents == "" {
		contents = PlaceholderText
	}
	w, h := measureText(contents, DefaultFontSize)
	ann := Annotation{
		Kind:     KindText,
		Page:     page,
		Bounds:   Rect{X0: pt.X, Y0: pt.Y - h, X1: pt.X + w, Y1: pt.Y},
		Style:    c.state.ActiveStyle(),
		Contents: contents,
	}
	return c.commit(target, ann)
}

func (c *Coordinator) commitHighlight(page int, pt Point) (*Annotation, error) {
	target, ok := c.targetFor(page, pt)
	if !ok {
		return nil, nil
	}
	style := c.state.ActiveStyle()
	style.Color = style.Color.WithAlpha(HighlightOpacity)
	ann := Annotation{
		Kind:   KindHighlight,
		Page:   page,
		Bounds: RectAround(pt, highlightWidth, highlightHeight),
		Style:  style,
	}
	return c.commit(target, ann)
}

// DragStart begins an ink stroke at the given point. It is a no-op
// unless the ink tool is active, a document is open, the point lies on
// the page, and no stroke is already in progress.
func (c *Coordinator) DragStart(page int, pt Point) {
	if c.stroke != nil || c.state.ActiveTool() != ToolInk {
		return
	}
	if _, ok := c.targetFor(page, pt); !ok {
		return
	}
	c.stroke = &stroke{
		page:   page,
		points: []Point{pt},
		style:  c.state.ActiveStyle(),
	}
}

// DragMove appends a point to the in-progress stroke. Moves without a
// stroke, on a different page, or outside the page bounds are dropped.
func (c *Coordinator) DragMove(page int, pt Point) {
	if c.stroke == nil || page != c.stroke.page {
		return
	}
	if !c.pointOnPage(page, pt) {
		return
	}
	c.stroke.points = append(c.stroke.points, pt)
}

// DragEnd finalizes the in-progress stroke as a committed ink
// annotation. Without a stroke in progress it is a no-op.
func (c *Coordinator) DragEnd(page int, pt Point) (*Annotation, error) {
	if c.stroke == nil {
		return nil, nil
	}
	if page == c.stroke.page && c.pointOnPage(page, pt) {
		c.stroke.points = append(c.stroke.points, pt)
	}
	return c.finishStroke()
}

// DragCancel ends a drag without a release point. A cancelled drag that
// accumulated points still commits them; a cancel with no stroke in
// progress commits nothing.
func (c *Coordinator) DragCancel() (*Annotation, error) {
	if c.stroke == nil {
		return nil, nil
	}
	return c.finishStroke()
}

func (c *Coordinator) finishStroke() (*Annotation, error) {
	s := c.stroke
	c.stroke = nil
	bounds, ok := BoundsOf(s.points)
	if !ok {
		return nil, nil
	}
	target, open := c.state.Current()
	if !open {
		return nil, nil
	}
	ann := Annotation{
		Kind:   KindInk,
		Page:   s.page,
		Bounds: bounds.Expand(inkBoundsMargin),
		Style:  s.style,
		Points: s.points,
	}
	return c.commit(target, ann)
}

// Preview exposes the accumulated points and snapshotted style of the
// stroke in progress so the UI can draw a live path.
func (c *Coordinator) Preview() ([]Point, Style, bool) {
	if c.stroke == nil {
		return nil, Style{}, false
	}
	return c.stroke.points, c.stroke.style, true
}

// UndoLast pops the most recently committed annotation and detaches it
// from its page. The stack entry is removed only after a successful
// detach, keeping stack and page in step. An empty stack is a silent
// no-op reported as (nil, nil).
func (c *Coordinator) UndoLast() (*Annotation, error) {
	if len(c.stack) == 0 {
		return nil, nil
	}
	target, ok := c.state.Current()
	if !ok {
		return nil, nil
	}
	entry := c.stack[len(c.stack)-1]
	if err := target.Detach(entry.ref); err != nil {
		return nil, fmt.Errorf("undo %s annotation: %w", entry.ann.Kind, err)
	}
	c.stack = c.stack[:len(c.stack)-1]
	ann := entry.ann
	return &ann, nil
}

// Depth reports the undo stack size.
func (c *Coordinator) Depth() int {
	return len(c.stack)
}

// Committed returns the still-live annotations in creation order. The
// slice is a copy; mutating it does not affect the stack.
func (c *Coordinator) Committed() []Annotation {
	if len(c.stack) == 0 {
		return nil
	}
	out := make([]Annotation, len(c.stack))
	for i, entry := range c.stack {
		out[i] = entry.ann
	}
	return out
}

// Reset clears the undo stack and discards any stroke in progress. The
// state holder calls this when a new document replaces the old one.
func (c *Coordinator) Reset() {
	c.stack = nil
	c.stroke = nil
}

func (c *Coordinator) commit(target Target, ann Annotation) (*Annotation, error) {
	ref, err := target.Attach(ann)
	if err != nil {
		return nil, fmt.Errorf("attach %s annotation: %w", ann.Kind, err)
	}
	c.stack = append(c.stack, undoEntry{ann: ann, ref: ref})
	return &ann, nil
}

func (c *Coordinator) targetFor(page int, pt Point) (Target, bool) {
	target, ok := c.state.Current()
	if !ok {
		return nil, false
	}
	bounds, ok := target.Bounds(page)
	if !ok || !bounds.Contains(pt) {
		return nil, false
	}
	return target, true
}

func (c *Coordinator) pointOnPage(page int, pt Point) bool {
	target, ok := c.state.Current()
	if !ok {
		return false
	}
	bounds, ok := target.Bounds(page)
	return ok && bounds.Contains(pt)
}

func measureText(contents string, size float64) (width, height float64) {
	runes := 0
	for range contents {
		runes++
	}
	width = float64(runes) * size * approxGlyphAdvance
	if width < minTextWidth {
		width = minTextWidth
	}
	return width + 2*textPadding, size + 2*textPadding
}
