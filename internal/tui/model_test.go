package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdfmark/pdfmark/internal/annotate"
	"github.com/pdfmark/pdfmark/internal/marklog"
	"github.com/pdfmark/pdfmark/internal/session"
)

type fakeDocument struct {
	pages    int
	attached map[int]annotate.Annotation
	nextID   int
}

func newFakeDocument(pages int) *fakeDocument {
	return &fakeDocument{pages: pages, attached: map[int]annotate.Annotation{}}
}

func (d *fakeDocument) Bounds(page int) (annotate.Rect, bool) {
	if page < 0 || page >= d.pages {
		return annotate.Rect{}, false
	}
	return annotate.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}, true
}

func (d *fakeDocument) Attach(ann annotate.Annotation) (annotate.Ref, error) {
	d.nextID++
	d.attached[d.nextID] = ann
	return annotate.Ref{Page: ann.Page, ID: d.nextID}, nil
}

func (d *fakeDocument) Detach(ref annotate.Ref) error {
	if _, ok := d.attached[ref.ID]; !ok {
		return fmt.Errorf("annotation %d not found", ref.ID)
	}
	delete(d.attached, ref.ID)
	return nil
}

func (d *fakeDocument) PageCount() int       { return d.pages }
func (d *fakeDocument) Text(page int) string { return fmt.Sprintf("page %d body", page+1) }
func (d *fakeDocument) WriteTo(string) error { return nil }

func newTestModel(t *testing.T) *model {
	t.Helper()
	doc := newFakeDocument(3)
	sess := session.New(session.Config{
		Engine: session.EngineFunc(func(path string) (session.Document, error) {
			if strings.HasSuffix(path, "broken.pdf") {
				return nil, errors.New("damaged xref")
			}
			return doc, nil
		}),
		ScratchDir: t.TempDir(),
	})
	coord := annotate.NewCoordinator(sess)
	sess.BindUndoer(coord)
	m := New(Config{Session: sess, Coordinator: coord}).(*model)
	if err := sess.Open("/docs/report.pdf"); err != nil {
		t.Fatalf("open fixture document: %v", err)
	}
	m.stage = stageViewer
	m.canvas.cursorX = m.canvas.width / 2
	m.canvas.cursorY = m.canvas.height / 2
	return m
}

func pressKey(t *testing.T, m *model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m.Update(msg)
	}
}

func TestHighlightTapCommitsAnnotation(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "g", "enter")

	committed := m.config.Coordinator.Committed()
	if len(committed) != 1 {
		t.Fatalf("committed count: got %d want 1", len(committed))
	}
	if committed[0].Kind != annotate.KindHighlight {
		t.Fatalf("kind: got %s want highlight", committed[0].Kind)
	}
	if !m.config.Session.CanUndo() {
		t.Fatal("undo should be available after a commit")
	}
}

func TestPointerTapCommitsNothing(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "p", "enter")

	if depth := m.config.Coordinator.Depth(); depth != 0 {
		t.Fatalf("depth: got %d want 0", depth)
	}
	if m.config.Session.CanUndo() {
		t.Fatal("undo should stay unavailable for pointer taps")
	}
}

func TestTextToolRoutesThroughNoteEntry(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "t", "enter")

	if m.stage != stageTextEntry {
		t.Fatalf("stage: got %v want %v", m.stage, stageTextEntry)
	}
	if m.pendingNote == nil {
		t.Fatal("pending note location missing")
	}
	if depth := m.config.Coordinator.Depth(); depth != 0 {
		t.Fatalf("nothing should be committed before Enter, depth=%d", depth)
	}

	m.noteInput.SetValue("check this figure")
	pressKey(t, m, "enter")

	if m.stage != stageViewer {
		t.Fatalf("stage after commit: got %v want %v", m.stage, stageViewer)
	}
	committed := m.config.Coordinator.Committed()
	if len(committed) != 1 || committed[0].Kind != annotate.KindText {
		t.Fatalf("expected one text annotation, got %+v", committed)
	}
	if committed[0].Contents != "check this figure" {
		t.Fatalf("contents: got %q", committed[0].Contents)
	}
}

func TestNoteEntryEscCancels(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "t", "enter", "esc")

	if m.stage != stageViewer {
		t.Fatalf("stage: got %v want %v", m.stage, stageViewer)
	}
	if m.pendingNote != nil {
		t.Fatal("pending note should be dropped on cancel")
	}
	if depth := m.config.Coordinator.Depth(); depth != 0 {
		t.Fatalf("cancelled note committed anyway, depth=%d", depth)
	}
}

func TestInkStrokeBeginMoveEnd(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "i", "b")

	if _, _, inProgress := m.config.Coordinator.Preview(); !inProgress {
		t.Fatal("stroke should be in progress after b")
	}

	pressKey(t, m, "l", "l", "j", "e")

	committed := m.config.Coordinator.Committed()
	if len(committed) != 1 || committed[0].Kind != annotate.KindInk {
		t.Fatalf("expected one ink annotation, got %+v", committed)
	}
	if len(committed[0].Points) < 4 {
		t.Fatalf("stroke points: got %d want at least 4", len(committed[0].Points))
	}
	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		t.Fatal("stroke should be finished after e")
	}
}

func TestInkStrokeEscCommitsAccumulatedPoints(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "i", "b", "l", "esc")

	if m.stage != stageViewer {
		t.Fatalf("esc mid-stroke should stay in the viewer, got %v", m.stage)
	}
	committed := m.config.Coordinator.Committed()
	if len(committed) != 1 || committed[0].Kind != annotate.KindInk {
		t.Fatalf("interrupted stroke should still commit, got %+v", committed)
	}
}

func TestStrokeWithoutInkToolIsRefused(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "g", "b")

	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		t.Fatal("highlight tool must not start a stroke")
	}
}

func TestUndoKeyRemovesMostRecent(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "g", "enter", "enter")
	if depth := m.config.Coordinator.Depth(); depth != 2 {
		t.Fatalf("setup depth: got %d want 2", depth)
	}

	pressKey(t, m, "u")
	if depth := m.config.Coordinator.Depth(); depth != 1 {
		t.Fatalf("depth after undo: got %d want 1", depth)
	}

	pressKey(t, m, "u", "u")
	if depth := m.config.Coordinator.Depth(); depth != 0 {
		t.Fatalf("depth after draining: got %d want 0", depth)
	}
	if !strings.Contains(m.infoMessage, "Nothing to undo") {
		t.Fatalf("empty-stack undo should explain itself, got %q", m.infoMessage)
	}
}

func TestPageNavigationClampsAtEdges(t *testing.T) {
	m := newTestModel(t)

	pressKey(t, m, "[")
	if page := m.config.Session.Page(); page != 0 {
		t.Fatalf("page before first should clamp to 0, got %d", page)
	}

	pressKey(t, m, "]", "]", "]", "]")
	if page := m.config.Session.Page(); page != 2 {
		t.Fatalf("page past last should clamp to 2, got %d", page)
	}
}

func TestPageChangeEndsStrokeOnOldPage(t *testing.T) {
	m := newTestModel(t)
	pressKey(t, m, "i", "b", "l", "]")

	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		t.Fatal("stroke must not survive a page change")
	}
	committed := m.config.Coordinator.Committed()
	if len(committed) != 1 || committed[0].Page != 0 {
		t.Fatalf("stroke should commit on the page it started, got %+v", committed)
	}
}

func TestExportKeyEntersExportingStage(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.stage != stageExporting {
		t.Fatalf("stage: got %v want %v", m.stage, stageExporting)
	}
	if cmd == nil {
		t.Fatal("export should schedule a job command")
	}

	m.Update(jobResultEnvelope{Payload: exportResultMsg{path: "/tmp/report-edited.pdf"}})
	if m.stage != stageViewer {
		t.Fatalf("stage after export: got %v want %v", m.stage, stageViewer)
	}
	if !strings.Contains(m.infoMessage, "report-edited.pdf") {
		t.Fatalf("export destination missing from message: %q", m.infoMessage)
	}
}

func TestExportRecordsJournalEntry(t *testing.T) {
	m := newTestModel(t)
	journal := filepath.Join(t.TempDir(), "journal.json")
	m.config.JournalPath = journal
	pressKey(t, m, "g", "enter")

	m.Update(jobResultEnvelope{Payload: exportResultMsg{path: "/tmp/report-edited.pdf"}})

	entries, err := marklog.Load(journal)
	if err != nil {
		t.Fatalf("load journal: %v", err)
	}
	if len(entries) != 1 || entries[0].Document != "/docs/report.pdf" {
		t.Fatalf("unexpected journal entries: %+v", entries)
	}
	if len(entries[0].Marks) != 1 || entries[0].Marks[0].Kind != "highlight" {
		t.Fatalf("marks not recorded: %#v", entries[0].Marks)
	}
}

func TestOpenFailureReturnsToPicker(t *testing.T) {
	m := newTestModel(t)
	m.stage = stageLoading
	m.Update(jobResultEnvelope{Payload: openResultMsg{
		path: "/docs/broken.pdf",
		err:  errors.New("load /docs/broken.pdf: damaged xref"),
	}})

	if m.stage != stagePicker {
		t.Fatalf("stage: got %v want %v", m.stage, stagePicker)
	}
	if !strings.Contains(m.errorMessage, "damaged xref") {
		t.Fatalf("error message missing cause: %q", m.errorMessage)
	}
}

func TestColorCycleUpdatesActiveStyle(t *testing.T) {
	m := newTestModel(t)
	before := m.config.Session.ActiveStyle().Color

	pressKey(t, m, "c")

	after := m.config.Session.ActiveStyle().Color
	if before == after {
		t.Fatal("cycling should change the active color")
	}
	if want := palette[1].color; after != want {
		t.Fatalf("color: got %+v want %+v", after, want)
	}
}

func TestWidthKeysClampToRange(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 20; i++ {
		pressKey(t, m, "+")
	}
	if got := m.config.Session.ActiveStyle().Width; got != annotate.MaxStrokeWidth {
		t.Fatalf("width ceiling: got %.1f want %.1f", got, annotate.MaxStrokeWidth)
	}
	for i := 0; i < 20; i++ {
		pressKey(t, m, "-")
	}
	if got := m.config.Session.ActiveStyle().Width; got != annotate.MinStrokeWidth {
		t.Fatalf("width floor: got %.1f want %.1f", got, annotate.MinStrokeWidth)
	}
}

func TestViewerViewShowsStatusAndCanvas(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	pressKey(t, m, "g", "enter")

	view := m.View()
	if !strings.Contains(view, "report.pdf") {
		t.Fatalf("status bar should name the file:\n%s", view)
	}
	if !strings.Contains(view, "Page 1/3") {
		t.Fatalf("status bar should show the page position:\n%s", view)
	}
	if !strings.Contains(view, string(glyphHighlight)) {
		t.Fatalf("canvas should render the committed highlight:\n%s", view)
	}
}
