package logger

import (
	"testing"
)

func TestDeferLogOrder(t *testing.T) {
	log := NewDeferLog()
	source := &Source{
		PrettyPath: "file.js",
		Contents:   "let x = 1;\nlet y = 2;\n",
	}

	log.AddError(source, Loc{Start: 11}, "second")
	log.AddError(source, Loc{Start: 0}, "first")
	if !log.HasErrors() {
		t.Fatal("expected errors")
	}

	msgs := log.Done()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "first" || msgs[1].Text != "second" {
		t.Fatalf("messages not sorted by location: %q, %q", msgs[0].Text, msgs[1].Text)
	}
	if msgs[0].Location.Line != 1 || msgs[1].Location.Line != 2 {
		t.Fatalf("bad line numbers: %d, %d", msgs[0].Location.Line, msgs[1].Location.Line)
	}
}

func TestDeferLogHasErrors(t *testing.T) {
	log := NewDeferLog()
	if log.HasErrors() {
		t.Fatal("unexpected errors")
	}
	log.AddMsg(Msg{Kind: Warning, Text: "only a warning"})
	if log.HasErrors() {
		t.Fatal("a warning is not an error")
	}
	log.AddMsg(Msg{Kind: Error, Text: "now an error"})
	if !log.HasErrors() {
		t.Fatal("expected errors")
	}
}

func TestMsgString(t *testing.T) {
	source := &Source{
		PrettyPath: "project/file.js",
		Contents:   "\tconst abc = oops;\n",
	}
	log := NewDeferLog()
	log.AddRangeError(source, Range{Loc: Loc{Start: 13}, Len: 4}, "not defined")
	msgs := log.Done()

	expected := "project/file.js:1:13: error: not defined\n" +
		"  const abc = oops;\n" +
		"              ~~~~\n"
	observed := msgs[0].String(StderrOptions{IncludeSource: true}, TerminalInfo{})
	if observed != expected {
		t.Fatalf("expected:\n%q\nobserved:\n%q", expected, observed)
	}
}

func TestMsgStringNoSource(t *testing.T) {
	msg := Msg{Kind: Warning, Text: "something happened"}
	observed := msg.String(StderrOptions{}, TerminalInfo{})
	if observed != "warning: something happened\n" {
		t.Fatalf("unexpected rendering: %q", observed)
	}
}

func TestComputeLineAndColumn(t *testing.T) {
	contents := "a\nbb\r\nccc\n"
	line, column, lineStart, lineEnd := computeLineAndColumn(contents, 7)
	if line != 2 || column != 1 || lineStart != 6 || lineEnd != 9 {
		t.Fatalf("got line=%d column=%d lineStart=%d lineEnd=%d", line, column, lineStart, lineEnd)
	}
}
