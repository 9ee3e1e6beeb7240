// Package marklog keeps a JSON journal of export events, one entry per
// document, so a reader can see what was marked up and where the
// annotated copies went.
package marklog

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Mark summarizes one committed annotation.
type Mark struct {
	Kind     string `json:"kind"`
	Page     int    `json:"page"`
	Contents string `json:"contents,omitempty"`
}

// Entry records the latest export of one document.
type Entry struct {
	Document   string    `json:"document"`
	ExportedTo string    `json:"exportedTo"`
	CapturedAt time.Time `json:"capturedAt"`
	Exports    int       `json:"exports"`
	Marks      []Mark    `json:"marks"`
}

// RecordExport upserts the journal entry for a document. Repeated
// exports of the same document replace its mark list and bump the
// export counter instead of appending duplicates.
func RecordExport(path, document, exportedTo string, marks []Mark) error {
	if path == "" || document == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	entries, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}

	now := time.Now()
	updated := false
	for i := range entries {
		if entries[i].Document != document {
			continue
		}
		entries[i].ExportedTo = exportedTo
		entries[i].CapturedAt = now
		entries[i].Exports++
		entries[i].Marks = append([]Mark(nil), marks...)
		updated = true
		break
	}
	if !updated {
		entries = append(entries, Entry{
			Document:   document,
			ExportedTo: exportedTo,
			CapturedAt: now,
			Exports:    1,
			Marks:      append([]Mark(nil), marks...),
		})
	}
	return writeEntries(path, entries)
}

// Load reads the journal. A missing file surfaces os.ErrNotExist.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeEntries(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
