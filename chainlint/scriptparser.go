package chainlint

import (
	"regexp"

	"github.com/FollowTheProcess/chainlint/shellparser"
	"github.com/FollowTheProcess/chainlint/token"
)

// testInvocation matches the leading token of a test_expect_success /
// test_expect_failure command.
var testInvocation = regexp.MustCompile(`^test_expect_(success|failure)$`)

// trailingTerminators is the set of tokens stripped from the tail of a
// test_expect_* command before picking out its TITLE and BODY arguments.
var trailingTerminators = map[token.Token]bool{
	token.Semi:       true,
	token.Background: true,
	token.Newline:    true,
	token.Pipe:       true,
	token.AndAnd:     true,
	token.OrOr:       true,
}

// Report is one annotated test body, ready to be printed.
type Report struct {
	Title string // The test's title, unwrapped
	Body  string // The annotated, formatted body text, trailing newline included
}

// ScriptParser recognises test_expect_success/test_expect_failure
// invocations at any nesting level in a script and hands their body text to
// a fresh TestParser (spec.md §4.4). It is a ShellParser that overrides
// only the CommandRecognizer hook; nothing about the grammar it recognises
// changes.
type ScriptParser struct {
	*shellparser.ShellParser
	emitAll   bool
	testCount int
	reports   []Report
}

// NewScriptParser creates a ScriptParser over a whole script's contents.
// If emitAll is true, every recognised test produces a report even when
// nothing was annotated in it.
func NewScriptParser(src string, emitAll bool) *ScriptParser {
	s := &ScriptParser{ShellParser: shellparser.New(src), emitAll: emitAll}
	s.SetRecognizer(s)
	return s
}

// TestCount returns how many test_expect_* invocations were recognised.
func (s *ScriptParser) TestCount() int {
	return s.testCount
}

// Reports returns the reports gathered so far.
func (s *ScriptParser) Reports() []Report {
	return s.reports
}

// Recognize implements shellparser.CommandRecognizer.
func (s *ScriptParser) Recognize(cmd token.Stream) {
	if len(cmd) == 0 || !testInvocation.MatchString(string(cmd[0])) {
		return
	}

	body := cmd
	for len(body) > 0 && trailingTerminators[body[len(body)-1]] {
		body = body[:len(body)-1]
	}

	n := len(body) - 1
	switch {
	case n == 2:
		s.checkTest(body[1], body[2])
	case n > 2:
		s.checkTest(body[2], body[3])
	}
}

// checkTest re-parses a recognised test's body and, if it finds anything
// worth flagging (or --emit-all was requested), records a Report.
func (s *ScriptParser) checkTest(titleTok, bodyTok token.Token) {
	s.testCount++

	title := unwrap(string(titleTok))
	bodyText := unwrap(string(bodyTok))

	stream := NewTestParser(bodyText).Run()

	flagged := false
	for _, t := range stream {
		if t.IsAnnotation() {
			flagged = true
			break
		}
	}
	if !flagged && !s.emitAll {
		return
	}

	s.reports = append(s.reports, Report{Title: title, Body: formatBody(stream)})
}
