package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdfmark/pdfmark/internal/session"
)

type openResultMsg struct {
	path string
	doc  session.Document
	err  error
}

type exportResultMsg struct {
	path string
	err  error
}

// openDocumentJob loads a PDF off the event loop and hands the opened
// document back as the job payload. The session is only mutated inside
// Update, so renders that race the load never observe a half-installed
// document.
func openDocumentJob(s *session.Session, path string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		doc, err := s.Load(path)
		if err != nil {
			return openResultMsg{path: path, err: err}, err
		}
		return openResultMsg{path: path, doc: doc}, nil
	}
}

// exportDocumentJob serializes the annotated document to the scratch
// location. Gestures stay disabled during stageExporting so the export
// observes a consistent snapshot.
func exportDocumentJob(s *session.Session) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		dest, err := s.ExportTemporary()
		if err != nil {
			return exportResultMsg{err: err}, err
		}
		return exportResultMsg{path: dest}, nil
	}
}
