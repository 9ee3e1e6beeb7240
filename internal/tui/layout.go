package tui

// pageLayout splits the window between the page canvas and the
// extracted-text panel. The canvas keeps the page's aspect ratio,
// assuming terminal cells are roughly twice as tall as wide.
type pageLayout struct {
	windowWidth  int
	windowHeight int
	canvasWidth  int
	canvasHeight int
	textWidth    int
	textHeight   int
}

const (
	// chrome rows: header, status bar, info line, legend, borders.
	layoutChromeHeight = 10
	panelGap           = 3
	cellAspect         = 2.0
)

func newPageLayout() pageLayout {
	return pageLayout{
		canvasWidth:  46,
		canvasHeight: 24,
		textWidth:    50,
		textHeight:   24,
	}
}

func (l *pageLayout) Update(width, height int, pageAspect float64) {
	l.windowWidth = width
	l.windowHeight = height
	if pageAspect <= 0 {
		pageAspect = 612.0 / 792.0
	}

	usableHeight := height - layoutChromeHeight
	if usableHeight < minCanvasHeight {
		usableHeight = minCanvasHeight
	}
	l.canvasHeight = usableHeight

	l.canvasWidth = int(float64(l.canvasHeight) * pageAspect * cellAspect)
	maxCanvas := (width - panelGap) * 3 / 5
	if l.canvasWidth > maxCanvas {
		l.canvasWidth = maxCanvas
		l.canvasHeight = int(float64(l.canvasWidth) / (pageAspect * cellAspect))
		if l.canvasHeight < minCanvasHeight {
			l.canvasHeight = minCanvasHeight
		}
	}
	if l.canvasWidth < minCanvasWidth {
		l.canvasWidth = minCanvasWidth
	}

	l.textWidth = width - l.canvasWidth - panelGap - 4
	if l.textWidth < minTextWidth {
		l.textWidth = minTextWidth
	}
	l.textHeight = usableHeight
}
