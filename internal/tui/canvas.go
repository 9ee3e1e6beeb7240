package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdfmark/pdfmark/internal/annotate"
)

// canvas maps a terminal cell grid onto one page's coordinate space and
// renders committed annotations plus the live stroke preview. Cell
// (0,0) is the page's top-left corner; page space keeps its PDF
// bottom-left origin, so the vertical axis flips during conversion.
type canvas struct {
	width   int
	height  int
	cursorX int
	cursorY int
}

const (
	glyphHighlight = '░'
	glyphInk       = '•'
	glyphPreview   = '·'
	glyphNote      = '¶'
	glyphCursor    = '┼'
)

func newCanvas() canvas {
	return canvas{width: 60, height: 24}
}

func (c *canvas) resize(width, height int) {
	if width < minCanvasWidth {
		width = minCanvasWidth
	}
	if height < minCanvasHeight {
		height = minCanvasHeight
	}
	c.width = width
	c.height = height
	c.clampCursor()
}

func (c *canvas) moveCursor(dx, dy int) {
	c.cursorX += dx
	c.cursorY += dy
	c.clampCursor()
}

func (c *canvas) clampCursor() {
	if c.cursorX < 0 {
		c.cursorX = 0
	}
	if c.cursorX >= c.width {
		c.cursorX = c.width - 1
	}
	if c.cursorY < 0 {
		c.cursorY = 0
	}
	if c.cursorY >= c.height {
		c.cursorY = c.height - 1
	}
}

// toPage converts a cell to the page-space point at the cell's center.
func (c canvas) toPage(bounds annotate.Rect, cellX, cellY int) annotate.Point {
	fx := (float64(cellX) + 0.5) / float64(c.width)
	fy := (float64(cellY) + 0.5) / float64(c.height)
	return annotate.Point{
		X: bounds.X0 + fx*bounds.Width(),
		Y: bounds.Y1 - fy*bounds.Height(),
	}
}

// toCell converts a page-space point to its cell, clamped to the grid.
func (c canvas) toCell(bounds annotate.Rect, pt annotate.Point) (int, int) {
	var fx, fy float64
	if bounds.Width() > 0 {
		fx = (pt.X - bounds.X0) / bounds.Width()
	}
	if bounds.Height() > 0 {
		fy = (bounds.Y1 - pt.Y) / bounds.Height()
	}
	x := int(fx * float64(c.width))
	y := int(fy * float64(c.height))
	if x < 0 {
		x = 0
	}
	if x >= c.width {
		x = c.width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= c.height {
		y = c.height - 1
	}
	return x, y
}

// cursorPoint returns the page-space location of the cursor cell.
func (c canvas) cursorPoint(bounds annotate.Rect) annotate.Point {
	return c.toPage(bounds, c.cursorX, c.cursorY)
}

type canvasCell struct {
	r     rune
	color lipgloss.Color
	set   bool
}

// render draws the page grid for the given 0-based page: committed
// annotations first in creation order, then the in-progress stroke,
// then the cursor on top.
func (c canvas) render(bounds annotate.Rect, page int, committed []annotate.Annotation, preview []annotate.Point, previewStyle annotate.Style, previewing bool) string {
	grid := make([][]canvasCell, c.height)
	for y := range grid {
		grid[y] = make([]canvasCell, c.width)
	}

	for _, ann := range committed {
		if ann.Page != page {
			continue
		}
		switch ann.Kind {
		case annotate.KindHighlight:
			c.fillRect(grid, bounds, ann.Bounds, glyphHighlight, ann.Style.Color)
		case annotate.KindText:
			x, y := c.toCell(bounds, annotate.Point{X: ann.Bounds.X0, Y: ann.Bounds.Y1})
			setCell(grid, x, y, glyphNote, colorOf(ann.Style.Color))
		case annotate.KindInk:
			c.plotPolyline(grid, bounds, ann.Points, glyphInk, ann.Style.Color)
		}
	}

	if previewing {
		c.plotPolyline(grid, bounds, preview, glyphPreview, previewStyle.Color)
	}

	setCell(grid, c.cursorX, c.cursorY, glyphCursor, cursorColor)

	rows := make([]string, c.height)
	for y, row := range grid {
		var b strings.Builder
		for _, cell := range row {
			if !cell.set {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(cell.color).Render(string(cell.r)))
		}
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}

func (c canvas) fillRect(grid [][]canvasCell, bounds, r annotate.Rect, glyph rune, color annotate.Color) {
	x0, y0 := c.toCell(bounds, annotate.Point{X: r.X0, Y: r.Y1})
	x1, y1 := c.toCell(bounds, annotate.Point{X: r.X1, Y: r.Y0})
	lip := colorOf(color)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			setCell(grid, x, y, glyph, lip)
		}
	}
}

func (c canvas) plotPolyline(grid [][]canvasCell, bounds annotate.Rect, points []annotate.Point, glyph rune, color annotate.Color) {
	lip := colorOf(color)
	if len(points) == 0 {
		return
	}
	px, py := c.toCell(bounds, points[0])
	setCell(grid, px, py, glyph, lip)
	for _, pt := range points[1:] {
		x, y := c.toCell(bounds, pt)
		plotSegment(grid, px, py, x, y, glyph, lip)
		px, py = x, y
	}
}

// plotSegment walks the cells between two grid points, stepping along
// the longer axis.
func plotSegment(grid [][]canvasCell, x0, y0, x1, y1 int, glyph rune, color lipgloss.Color) {
	dx := x1 - x0
	dy := y1 - y0
	steps := abs(dx)
	if abs(dy) > steps {
		steps = abs(dy)
	}
	if steps == 0 {
		setCell(grid, x1, y1, glyph, color)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		setCell(grid, x, y, glyph, color)
	}
}

func setCell(grid [][]canvasCell, x, y int, glyph rune, color lipgloss.Color) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	grid[y][x] = canvasCell{r: glyph, color: color, set: true}
}

func colorOf(c annotate.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x",
		channelByte(c.R), channelByte(c.G), channelByte(c.B)))
}

func channelByte(f float64) int {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return int(f*255 + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
