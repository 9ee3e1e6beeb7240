package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfmark/pdfmark/internal/annotate"
)

const (
	scratchEnvVar = "PDFMARK_SCRATCH_DIR"
	scratchSubdir = "pdfmark"

	// fallbackStem names the temporary export when the original file
	// name is unknown.
	fallbackStem = "Edited"
)

// ErrNoDocument marks operations that need an open document. Callers
// treat it as a disabled state, not a fault.
var ErrNoDocument = errors.New("no document open")

// LoadError reports a failed document open. Session state is unchanged
// when it is returned.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// ExportError reports a failed serialization or write. In-memory state
// is unchanged when it is returned.
type ExportError struct {
	Dest string
	Err  error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Dest, e.Err) }
func (e *ExportError) Unwrap() error { return e.Err }

// Document is the session's view of an open PDF.
type Document interface {
	annotate.Target
	PageCount() int
	// Text returns the extracted text of a 0-based page, best effort.
	Text(page int) string
	// WriteTo serializes the document, annotations included, to a path.
	WriteTo(path string) error
}

// Engine loads documents from the file system.
type Engine interface {
	Open(path string) (Document, error)
}

// EngineFunc adapts a plain open function to the Engine interface.
type EngineFunc func(path string) (Document, error)

func (f EngineFunc) Open(path string) (Document, error) { return f(path) }

// Undoer is the coordinator capability the session forwards undo
// requests to. It is a direct interface reference, bound once at
// startup, so undo availability is queryable synchronously.
type Undoer interface {
	UndoLast() (*annotate.Annotation, error)
	Depth() int
	Reset()
}

// Config wires runtime options into a session.
type Config struct {
	Engine Engine
	// ScratchDir overrides the temporary-export directory. Empty means
	// the PDFMARK_SCRATCH_DIR env var, then the OS temp dir.
	ScratchDir string
}

// Session is the single owner of "what document is open, what tool and
// style are active, what page is shown". Construct it explicitly and
// pass it down; there is no package-level instance.
type Session struct {
	engine     Engine
	scratchDir string

	doc    Document
	path   string
	page   int
	tool   annotate.Tool
	style  annotate.Style
	undoer Undoer
}

// New returns a session with the pointer tool active and a default
// yellow 3pt style.
func New(cfg Config) *Session {
	dir := cfg.ScratchDir
	if dir == "" {
		dir = os.Getenv(scratchEnvVar)
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), scratchSubdir)
	}
	return &Session{
		engine:     cfg.Engine,
		scratchDir: dir,
		tool:       annotate.ToolPointer,
		style: annotate.Style{
			Color: annotate.Color{R: 1, G: 0.84, B: 0, A: 1},
			Width: 3,
		},
	}
}

// BindUndoer connects the coordinator's undo capability. Open clears
// undo history through it when a new document replaces the old one.
func (s *Session) BindUndoer(u Undoer) {
	s.undoer = u
}

// Load opens a document through the engine without touching session
// state, so a background job can do the slow part while installation
// stays on the caller's goroutine.
func (s *Session) Load(path string) (Document, error) {
	doc, err := s.engine.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return doc, nil
}

// Install makes a loaded document current: page index resets to 0 and
// prior undo history is cleared. A nil document is ignored.
func (s *Session) Install(doc Document, path string) {
	if doc == nil {
		return
	}
	s.doc = doc
	s.path = path
	s.page = 0
	if s.undoer != nil {
		s.undoer.Reset()
	}
}

// Open loads a document and makes it current. On failure the existing
// document, page index and undo history are all left untouched.
func (s *Session) Open(path string) error {
	doc, err := s.Load(path)
	if err != nil {
		return err
	}
	s.Install(doc, path)
	return nil
}

// HasDocument reports whether a document is open.
func (s *Session) HasDocument() bool { return s.doc != nil }

// Document returns the open document, or false when nothing is loaded.
func (s *Session) Document() (Document, bool) {
	if s.doc == nil {
		return nil, false
	}
	return s.doc, true
}

// Path returns the source location of the open document.
func (s *Session) Path() string { return s.path }

// Page returns the current 0-based page index.
func (s *Session) Page() int { return s.page }

// PageCount returns the open document's page count, 0 without one.
func (s *Session) PageCount() int {
	if s.doc == nil {
		return 0
	}
	return s.doc.PageCount()
}

// AdvancePage moves the current page by delta, clamping to
// [0, PageCount-1]. Requests at either boundary, and requests without a
// document, are no-ops.
func (s *Session) AdvancePage(delta int) {
	if s.doc == nil {
		return
	}
	target := s.page + delta
	if target < 0 {
		target = 0
	}
	if max := s.doc.PageCount() - 1; target > max {
		target = max
	}
	s.page = target
}

// SetTool switches the active gesture-interpretation mode.
func (s *Session) SetTool(t annotate.Tool) { s.tool = t }

// SetStyle replaces the active style. The stroke width is clamped to
// the supported range. Existing annotations are never restyled.
func (s *Session) SetStyle(style annotate.Style) {
	style.Width = annotate.ClampWidth(style.Width)
	s.style = style
}

// ActiveTool implements annotate.State.
func (s *Session) ActiveTool() annotate.Tool { return s.tool }

// ActiveStyle implements annotate.State.
func (s *Session) ActiveStyle() annotate.Style { return s.style }

// Current implements annotate.State.
func (s *Session) Current() (annotate.Target, bool) {
	if s.doc == nil {
		return nil, false
	}
	return s.doc, true
}

// ExportTemporary serializes the in-memory document to a scratch
// location under a derived name, <original-stem>-edited.pdf. Repeated
// calls overwrite the same path with refreshed content.
func (s *Session) ExportTemporary() (string, error) {
	if s.doc == nil {
		return "", ErrNoDocument
	}
	if err := os.MkdirAll(s.scratchDir, 0o755); err != nil {
		return "", &ExportError{Dest: s.scratchDir, Err: err}
	}
	dest := filepath.Join(s.scratchDir, s.exportStem()+"-edited.pdf")
	if err := s.doc.WriteTo(dest); err != nil {
		return "", &ExportError{Dest: dest, Err: err}
	}
	return dest, nil
}

// ExportTo writes the current document to an explicit destination. It
// does not mutate in-memory state.
func (s *Session) ExportTo(dest string) error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if err := s.doc.WriteTo(dest); err != nil {
		return &ExportError{Dest: dest, Err: err}
	}
	return nil
}

// RequestUndo forwards the undo intent to the coordinator that owns the
// undo stack. The removal itself is not implemented here.
func (s *Session) RequestUndo() (*annotate.Annotation, error) {
	if s.undoer == nil || s.doc == nil {
		return nil, nil
	}
	return s.undoer.UndoLast()
}

// CanUndo is a read-through query of the coordinator's stack depth.
func (s *Session) CanUndo() bool {
	return s.undoer != nil && s.doc != nil && s.undoer.Depth() > 0
}

func (s *Session) exportStem() string {
	base := filepath.Base(s.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return fallbackStem
	}
	return stem
}
