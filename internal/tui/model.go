package tui

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pdfmark/pdfmark/internal/annotate"
	"github.com/pdfmark/pdfmark/internal/marklog"
	"github.com/pdfmark/pdfmark/internal/session"
)

// Config wires the constructed session and coordinator into the TUI.
type Config struct {
	Session     *session.Session
	Coordinator *annotate.Coordinator
	// InitialPath skips the picker and opens this document directly.
	InitialPath string
	// StartDir seeds the file picker. Empty means the home directory.
	StartDir string
	// JournalPath records export events when set.
	JournalPath string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	picker := filepicker.New()
	picker.AllowedTypes = []string{".pdf"}
	if config.StartDir != "" {
		picker.CurrentDirectory = config.StartDir
	} else if home, err := os.UserHomeDir(); err == nil {
		picker.CurrentDirectory = home
	}

	noteInput := textinput.New()
	noteInput.Placeholder = "Note contents… (Enter commits, Esc cancels)"
	noteInput.CharLimit = 200
	noteInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	textPanel := viewport.New(50, 24)
	textPanel.MouseWheelEnabled = true

	m := &model{
		config:    config,
		stage:     stagePicker,
		picker:    picker,
		noteInput: noteInput,
		spinner:   spin,
		textPanel: textPanel,
		canvas:    newCanvas(),
		layout:    newPageLayout(),
		jobs:      newJobBus(),
	}
	m.applyStyle()
	m.infoMessage = "Pick a PDF to annotate."
	return m
}

type model struct {
	config Config
	stage  stage

	picker    filepicker.Model
	noteInput textinput.Model
	spinner   spinner.Model
	textPanel viewport.Model
	canvas    canvas
	layout    pageLayout
	jobs      *jobBus

	colorIdx    int
	pendingNote *notePending

	infoMessage  string
	errorMessage string
	helpVisible  bool
	exportedPath string
}

func (m *model) Init() tea.Cmd {
	if m.config.InitialPath != "" {
		m.stage = stageLoading
		m.infoMessage = fmt.Sprintf("Opening %s…", filepath.Base(m.config.InitialPath))
		return tea.Batch(
			m.spinner.Tick,
			m.jobs.Start(jobKindOpen, openDocumentJob(m.config.Session, m.config.InitialPath)),
		)
	}
	return m.picker.Init()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageLoading || m.stage == stageExporting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		return m.Update(msg.Payload)
	case openResultMsg:
		return m.handleOpenResult(msg)
	case exportResultMsg:
		return m.handleExportResult(msg)
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height, m.pageAspect())
		m.canvas.resize(m.layout.canvasWidth, m.layout.canvasHeight)
		m.textPanel.Width = m.layout.textWidth
		m.textPanel.Height = m.layout.textHeight
		m.refreshTextPanel()
		return m, nil
	case tea.MouseMsg:
		if m.stage == stageViewer {
			var cmd tea.Cmd
			m.textPanel, cmd = m.textPanel.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	if m.stage == stagePicker {
		return m.updatePicker(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stagePicker:
		if key.Type == tea.KeyEsc {
			// Cancelling the picker is not an error; leave quietly.
			return m, tea.Quit
		}
		return m.updatePicker(key)
	case stageLoading, stageExporting:
		return m, nil
	case stageTextEntry:
		return m.handleTextEntryKey(key)
	case stageViewer:
		return m.handleViewerKey(key)
	default:
		return m, nil
	}
}

func (m *model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.stage = stageLoading
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Opening %s…", filepath.Base(path))
		return m, tea.Batch(cmd, m.spinner.Tick, m.jobs.Start(jobKindOpen, openDocumentJob(m.config.Session, path)))
	}
	if didSelect, path := m.picker.DidSelectDisabledFile(msg); didSelect {
		m.errorMessage = fmt.Sprintf("%s is not a PDF.", filepath.Base(path))
	}
	return m, cmd
}

func (m *model) handleOpenResult(msg openResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.stage = stagePicker
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Pick another file."
		return m, m.picker.Init()
	}
	m.config.Session.Install(msg.doc, msg.path)
	m.stage = stageViewer
	m.errorMessage = ""
	m.exportedPath = ""
	m.canvas.cursorX = m.canvas.width / 2
	m.canvas.cursorY = m.canvas.height / 2
	m.layout.Update(m.layout.windowWidth, m.layout.windowHeight, m.pageAspect())
	m.canvas.resize(m.layout.canvasWidth, m.layout.canvasHeight)
	m.refreshTextPanel()
	m.infoMessage = fmt.Sprintf("Loaded %s (%d pages). Press ? for keys.",
		filepath.Base(msg.path), m.config.Session.PageCount())
	return m, nil
}

func (m *model) handleExportResult(msg exportResultMsg) (tea.Model, tea.Cmd) {
	m.stage = stageViewer
	if msg.err != nil {
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Export failed. Retry with s."
		return m, nil
	}
	m.exportedPath = msg.path
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Exported to %s", msg.path)
	m.journalExport(msg.path)
	return m, nil
}

func (m *model) journalExport(dest string) {
	if m.config.JournalPath == "" {
		return
	}
	committed := m.config.Coordinator.Committed()
	marks := make([]marklog.Mark, 0, len(committed))
	for _, ann := range committed {
		marks = append(marks, marklog.Mark{
			Kind:     ann.Kind.String(),
			Page:     ann.Page,
			Contents: ann.Contents,
		})
	}
	if err := marklog.RecordExport(m.config.JournalPath, m.config.Session.Path(), dest, marks); err != nil {
		log.Printf("[journal] record export: %v", err)
	}
}

func (m *model) handleTextEntryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.pendingNote = nil
		m.noteInput.SetValue("")
		m.noteInput.Blur()
		m.stage = stageViewer
		m.infoMessage = "Note cancelled."
		return m, nil
	case tea.KeyEnter:
		pending := m.pendingNote
		m.pendingNote = nil
		contents := m.noteInput.Value()
		m.noteInput.SetValue("")
		m.noteInput.Blur()
		m.stage = stageViewer
		if pending == nil {
			return m, nil
		}
		ann, err := m.config.Coordinator.CommitText(pending.page, pending.pt, contents)
		m.reportCommit(ann, err)
		return m, nil
	}
	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(key)
	return m, cmd
}

func (m *model) handleViewerKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyEsc {
		if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
			m.cancelStroke()
			return m, nil
		}
		return m, tea.Quit
	}

	switch key.String() {
	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)
	case "enter", " ":
		m.tapAtCursor()
	case "b":
		m.beginStroke()
	case "e":
		m.endStroke()
	case "x":
		m.cancelStroke()
	case "p":
		m.selectTool(annotate.ToolPointer)
	case "i":
		m.selectTool(annotate.ToolInk)
	case "t":
		m.selectTool(annotate.ToolText)
	case "g":
		m.selectTool(annotate.ToolHighlight)
	case "c":
		m.cycleColor()
	case "+", "=":
		m.adjustWidth(1)
	case "-", "_":
		m.adjustWidth(-1)
	case "]":
		m.advancePage(1)
	case "[":
		m.advancePage(-1)
	case "u":
		m.undo()
	case "s":
		if !m.config.Session.HasDocument() {
			m.infoMessage = "Nothing to export."
			return m, nil
		}
		m.stage = stageExporting
		m.infoMessage = "Serializing annotated document…"
		return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindExport, exportDocumentJob(m.config.Session)))
	case "o":
		m.stage = stagePicker
		m.errorMessage = ""
		m.infoMessage = "Pick a PDF to annotate."
		return m, m.picker.Init()
	case "?":
		m.helpVisible = !m.helpVisible
	case "q":
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.textPanel, cmd = m.textPanel.Update(key)
		return m, cmd
	}
	return m, nil
}

func (m *model) moveCursor(dx, dy int) {
	m.canvas.moveCursor(dx, dy)
	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		page, pt, ok := m.cursorLocation()
		if ok {
			m.config.Coordinator.DragMove(page, pt)
		}
	}
}

func (m *model) cursorLocation() (int, annotate.Point, bool) {
	doc, ok := m.config.Session.Document()
	if !ok {
		return 0, annotate.Point{}, false
	}
	page := m.config.Session.Page()
	bounds, ok := doc.Bounds(page)
	if !ok {
		return 0, annotate.Point{}, false
	}
	return page, m.canvas.cursorPoint(bounds), true
}

func (m *model) tapAtCursor() {
	page, pt, ok := m.cursorLocation()
	if !ok {
		return
	}
	if m.config.Session.ActiveTool() == annotate.ToolText {
		m.pendingNote = &notePending{page: page, pt: pt}
		m.stage = stageTextEntry
		m.noteInput.Focus()
		m.infoMessage = "Type the note contents."
		return
	}
	ann, err := m.config.Coordinator.Tap(page, pt)
	if ann == nil && err == nil && m.config.Session.ActiveTool() == annotate.ToolPointer {
		m.infoMessage = "Pointer tool inspects only. Switch tools with i, t, g."
		return
	}
	m.reportCommit(ann, err)
}

func (m *model) beginStroke() {
	if m.config.Session.ActiveTool() != annotate.ToolInk {
		m.infoMessage = "Select the ink tool (i) before drawing."
		return
	}
	page, pt, ok := m.cursorLocation()
	if !ok {
		return
	}
	m.config.Coordinator.DragStart(page, pt)
	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		m.infoMessage = "Drawing. Move the cursor, then press e to finish or x to cancel."
	}
}

func (m *model) endStroke() {
	page, pt, ok := m.cursorLocation()
	if !ok {
		return
	}
	ann, err := m.config.Coordinator.DragEnd(page, pt)
	if ann == nil && err == nil {
		m.infoMessage = "No stroke in progress. Press b to start one."
		return
	}
	m.reportCommit(ann, err)
}

func (m *model) cancelStroke() {
	ann, err := m.config.Coordinator.DragCancel()
	if ann == nil && err == nil {
		return
	}
	m.reportCommit(ann, err)
}

func (m *model) undo() {
	if !m.config.Session.CanUndo() {
		m.infoMessage = "Nothing to undo."
		return
	}
	ann, err := m.config.Session.RequestUndo()
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	if ann != nil {
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Removed %s annotation (%d left).", ann.Kind, m.config.Coordinator.Depth())
	}
}

func (m *model) advancePage(delta int) {
	before := m.config.Session.Page()
	m.config.Session.AdvancePage(delta)
	after := m.config.Session.Page()
	if before == after {
		m.infoMessage = "Already at the document edge."
		return
	}
	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		// Leaving the page ends the stroke on it.
		m.cancelStroke()
	}
	m.refreshTextPanel()
	m.infoMessage = fmt.Sprintf("Page %d of %d.", after+1, m.config.Session.PageCount())
}

func (m *model) selectTool(tool annotate.Tool) {
	m.config.Session.SetTool(tool)
	m.infoMessage = fmt.Sprintf("Tool: %s.", tool)
}

func (m *model) cycleColor() {
	m.colorIdx = (m.colorIdx + 1) % len(palette)
	m.applyStyle()
	m.infoMessage = fmt.Sprintf("Color: %s.", palette[m.colorIdx].name)
}

func (m *model) adjustWidth(delta float64) {
	style := m.config.Session.ActiveStyle()
	style.Width += delta
	m.config.Session.SetStyle(style)
	m.infoMessage = fmt.Sprintf("Stroke width: %.0f.", m.config.Session.ActiveStyle().Width)
}

func (m *model) applyStyle() {
	style := m.config.Session.ActiveStyle()
	style.Color = palette[m.colorIdx].color
	m.config.Session.SetStyle(style)
}

func (m *model) reportCommit(ann *annotate.Annotation, err error) {
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	if ann == nil {
		return
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Committed %s annotation on page %d. Press u to undo.",
		ann.Kind, ann.Page+1)
}

func (m *model) refreshTextPanel() {
	doc, ok := m.config.Session.Document()
	if !ok {
		m.textPanel.SetContent("")
		return
	}
	text := doc.Text(m.config.Session.Page())
	if strings.TrimSpace(text) == "" {
		m.textPanel.SetContent(helperStyle.Render("No extractable text on this page."))
	} else {
		m.textPanel.SetContent(wordwrap.String(text, m.layout.textWidth))
	}
	m.textPanel.SetYOffset(0)
}

func (m *model) pageAspect() float64 {
	doc, ok := m.config.Session.Document()
	if !ok {
		return 0
	}
	bounds, ok := doc.Bounds(m.config.Session.Page())
	if !ok || bounds.Height() <= 0 {
		return 0
	}
	return bounds.Width() / bounds.Height()
}
