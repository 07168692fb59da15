// Package chainlint implements the TestParser and ScriptParser
// specializations of shellparser.ShellParser described in spec.md §4.3 and
// §4.4, plus the report formatting that turns their output into the
// program's annotated, human-facing text.
package chainlint

import (
	"github.com/FollowTheProcess/chainlint/shellparser"
	"github.com/FollowTheProcess/chainlint/token"
)

// TestParser re-parses a single test body (already unwrapped to its
// shell-visible text) and inserts a "?!AMP?!" annotation immediately after
// any command whose terminator doesn't chain its exit status into the next
// command (spec.md §4.3). It is a ShellParser that overrides only
// Accumulate, nothing about ParseCmd itself changes.
type TestParser struct {
	*shellparser.ShellParser
}

// NewTestParser creates a TestParser over a test body's shell text.
func NewTestParser(body string) *TestParser {
	t := &TestParser{ShellParser: shellparser.New(body)}
	t.SetAccumulator(t)
	return t
}

// Run drives the parser to completion, returning the annotated stream.
func (t *TestParser) Run() token.Stream {
	return t.ParseAll()
}

// Accumulate implements shellparser.Accumulator. Before appending cmd to
// stream: if stream has no real command in it yet, or cmd is a bare
// newline, or the previous command already ends the chain (&&, ||, |, or
// is itself already flagged), append unchanged. Otherwise splice a
// "?!AMP?!" token in right after the last non-newline token already in
// stream.
func (t *TestParser) Accumulate(stream, cmd token.Stream) token.Stream {
	if isBlank(stream) {
		return append(stream, cmd...)
	}
	if len(cmd) == 1 && cmd[0] == token.Newline {
		return append(stream, cmd...)
	}
	if endsChained(stream) {
		return append(stream, cmd...)
	}

	cut := lastNonNewline(stream)
	out := make(token.Stream, 0, len(stream)+1+len(cmd))
	out = append(out, stream[:cut+1]...)
	out = append(out, token.Amp())
	out = append(out, stream[cut+1:]...)
	out = append(out, cmd...)
	return out
}

// isBlank reports whether stream contains no token other than newlines,
// i.e. no command has been accumulated into it yet.
func isBlank(stream token.Stream) bool {
	for _, tok := range stream {
		if tok != token.Newline {
			return false
		}
	}
	return true
}

// lastNonNewline returns the index of the last non-newline token in
// stream, or -1 if there isn't one.
func lastNonNewline(stream token.Stream) int {
	for i := len(stream) - 1; i >= 0; i-- {
		if stream[i] != token.Newline {
			return i
		}
	}
	return -1
}

// endsChained walks backward over stream, skipping trailing newlines, and
// reports whether the command that precedes them already propagates
// failure (ends in "&&", "||", "|") or was already flagged (exempting it
// from a second annotation).
func endsChained(stream token.Stream) bool {
	for i := len(stream) - 1; i >= 0; i-- {
		if stream[i] == token.Newline {
			continue
		}
		if stream[i].IsAnnotation() {
			return true
		}
		return token.EndsChain(stream[i])
	}
	return false
}
