package tuitest

import (
	"bytes"
	"io"
)

// terminalQueries maps the capability probes bubbletea and lipgloss
// send at startup to canned replies. Without answers the program under
// test stalls waiting on the terminal.
var terminalQueries = []struct {
	query    []byte
	response []byte
}{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

// terminalResponder watches the PTY output for capability queries and
// writes the matching replies back, playing the terminal's half of the
// handshake.
type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	tr.scan()
	// Keep a tail so a query split across reads is still detected.
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

func (tr *terminalResponder) scan() {
	for {
		answered := false
		for _, q := range terminalQueries {
			if tr.consume(q.query, q.response) {
				answered = true
			}
		}
		if !answered {
			return
		}
	}
}

func (tr *terminalResponder) consume(query, response []byte) bool {
	idx := bytes.Index(tr.buf, query)
	if idx < 0 {
		return false
	}
	tr.buf = tr.buf[idx+len(query):]
	_, _ = tr.w.Write(response)
	return true
}
