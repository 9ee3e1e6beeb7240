package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdfmark/pdfmark/internal/annotate"
	"github.com/pdfmark/pdfmark/internal/document"
	"github.com/pdfmark/pdfmark/internal/fetch"
	"github.com/pdfmark/pdfmark/internal/session"
	"github.com/pdfmark/pdfmark/internal/tui"
)

func main() {
	scratchDir := flag.String("scratch-dir", "", "directory for temporary exports (default: $PDFMARK_SCRATCH_DIR, then the OS temp dir)")
	startDir := flag.String("start-dir", "", "directory the file picker opens in")
	journalPath := flag.String("journal", "", "JSON file recording export history (empty disables)")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Parse()

	initialPath := flag.Arg(0)
	if fetch.IsURL(initialPath) {
		retriever, err := fetch.New(nil)
		if err != nil {
			fmt.Println("failed to prepare download cache:", err)
			os.Exit(1)
		}
		local, err := retriever.Retrieve(context.Background(), initialPath)
		if err != nil {
			fmt.Println("failed to download document:", err)
			os.Exit(1)
		}
		initialPath = local
	} else if initialPath != "" {
		abs, err := filepath.Abs(initialPath)
		if err != nil {
			fmt.Println("failed to resolve document path:", err)
			os.Exit(1)
		}
		initialPath = abs
	}

	sess := session.New(session.Config{
		Engine: session.EngineFunc(func(path string) (session.Document, error) {
			return document.Open(path)
		}),
		ScratchDir: *scratchDir,
	})
	coordinator := annotate.NewCoordinator(sess)
	sess.BindUndoer(coordinator)

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Session:     sess,
			Coordinator: coordinator,
			InitialPath: initialPath,
			StartDir:    *startDir,
			JournalPath: *journalPath,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
