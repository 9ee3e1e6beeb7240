package tui

import "github.com/pdfmark/pdfmark/internal/annotate"

type stage int

const (
	stagePicker stage = iota
	stageLoading
	stageViewer
	stageTextEntry
	stageExporting
)

const heroTagline = "Mark up PDFs without leaving the terminal."

const (
	minCanvasWidth  = 30
	minCanvasHeight = 12
	minTextWidth    = 24
)

// paletteEntry pairs an annotation color with its status-bar label.
type paletteEntry struct {
	name  string
	color annotate.Color
}

var palette = []paletteEntry{
	{name: "yellow", color: annotate.Color{R: 1, G: 0.84, B: 0, A: 1}},
	{name: "red", color: annotate.Color{R: 0.86, G: 0.15, B: 0.15, A: 1}},
	{name: "green", color: annotate.Color{R: 0.16, G: 0.65, B: 0.27, A: 1}},
	{name: "blue", color: annotate.Color{R: 0.16, G: 0.4, B: 0.85, A: 1}},
	{name: "black", color: annotate.Color{R: 0, G: 0, B: 0, A: 1}},
}

// notePending remembers where a text note was requested while the user
// types its contents.
type notePending struct {
	page int
	pt   annotate.Point
}

type keyHint struct {
	Key         string
	Description string
}
