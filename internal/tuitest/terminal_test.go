package tuitest

import (
	"bytes"
	"testing"
)

func TestTerminalResponderAnswersCursorQuery(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)

	tr.Process([]byte("plain output \x1b[6n more output"))

	if got := out.String(); got != "\x1b[1;1R" {
		t.Fatalf("cursor query response: %q", got)
	}
}

func TestTerminalResponderHandlesSplitQuery(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)

	// Background-color query arriving across two reads.
	tr.Process([]byte("\x1b]11;"))
	tr.Process([]byte("?\x07"))

	if got := out.String(); got != "\x1b]11;rgb:0000/0000/0000\x07" {
		t.Fatalf("split query response: %q", got)
	}
}

func TestTerminalResponderIgnoresOrdinaryOutput(t *testing.T) {
	var out bytes.Buffer
	tr := newTerminalResponder(&out)

	tr.Process([]byte("Page 1/3  Tool HIGHLIGHT  Marks 0"))

	if out.Len() != 0 {
		t.Fatalf("unexpected response to plain output: %q", out.String())
	}
}
