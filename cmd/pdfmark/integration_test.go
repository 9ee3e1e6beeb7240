package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pdfmark/pdfmark/internal/tuitest"
)

func TestPdfmarkAnnotateAndExportFlow(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	workDir := t.TempDir()
	fixture := filepath.Join(workDir, "notes.pdf")
	writeFixturePDF(t, fixture, 2)

	binary := buildBinary(t, cmdDir)
	steps := []tuitest.Step{
		// Wait out the open job, then draw a highlight and one ink stroke.
		{Delay: time.Second},
	}
	steps = append(steps, tuitest.TypeText("g", 50*time.Millisecond)...)
	steps = append(steps, tuitest.Step{Delay: 50 * time.Millisecond, Input: tuitest.KeyEnter})
	steps = append(steps, tuitest.TypeText("ibllje", 50*time.Millisecond)...)
	steps = append(steps, tuitest.TypeText("s", 100*time.Millisecond)...)
	steps = append(steps,
		tuitest.Step{Delay: time.Second},
		tuitest.Step{Input: tuitest.KeyCtrlC},
	)

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{binary, "-no-alt-screen", "-scratch-dir", workDir, fixture},
		Dir:     workDir,
		Width:   140,
		Height:  40,
		Steps:   steps,
		Timeout: 15 * time.Second,
		Env: []string{
			"PDFMARK_SCRATCH_DIR=" + workDir,
		},
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	frame, ok := rec.FinalFrame()
	if !ok {
		t.Fatal("no frames captured")
	}
	for _, want := range []string{"notes.pdf", "Page 1/2", "Marks 2"} {
		if !strings.Contains(frame.Plain, want) {
			t.Fatalf("final frame missing %q:\n%s", want, frame.Plain)
		}
	}

	exported := filepath.Join(workDir, "notes-edited.pdf")
	if _, err := os.Stat(exported); err != nil {
		t.Fatalf("exported copy missing: %v", err)
	}
	original, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("read original: %v", err)
	}
	if !strings.Contains(string(original), "/Count 2") {
		t.Fatal("original fixture altered on disk")
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "pdfmark-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}

// writeFixturePDF builds a minimal but well-formed PDF with empty US
// Letter pages, computing the xref offsets so strict parsers accept it.
func writeFixturePDF(t *testing.T, path string, pages int) {
	t.Helper()

	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
			strings.Join(kids, " "), pages),
	}
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /Resources << >> >>")
	}

	var b strings.Builder
	b.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects)+1)
	for i, body := range objects {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOffset)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}
