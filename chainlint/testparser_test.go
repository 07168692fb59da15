package chainlint

import (
	"strings"
	"testing"
)

func runTestParser(t *testing.T, body string) string {
	t.Helper()
	stream := NewTestParser(body).Run()
	return strings.Join(stream.Strings(), " ")
}

func TestTestParserNoAnnotationWhenChained(t *testing.T) {
	got := runTestParser(t, "foo &&\nbar\n")
	if strings.Contains(got, "?!AMP?!") {
		t.Errorf("got %q, expected no annotation since foo && bar is chained", got)
	}
}

func TestTestParserAnnotatesBrokenChain(t *testing.T) {
	got := runTestParser(t, "foo\nbar\n")
	if !strings.Contains(got, "?!AMP?!") {
		t.Errorf("got %q, expected an ?!AMP?! annotation between unchained foo and bar", got)
	}
}

func TestTestParserNoAnnotationBeforeFirstCommand(t *testing.T) {
	got := runTestParser(t, "\nfoo\n")
	// Leading blank line must not trigger a spurious annotation before the
	// very first real command.
	idx := strings.Index(got, "foo")
	before := got[:idx]
	if strings.Contains(before, "?!AMP?!") {
		t.Errorf("got %q, annotation injected before the first command", got)
	}
}

func TestTestParserNoDoubleAnnotation(t *testing.T) {
	// A command already ending the chain with "||" should not also get an
	// annotation spliced in after it.
	got := runTestParser(t, "foo ||\nbar\nbaz\n")
	count := strings.Count(got, "?!AMP?!")
	if count != 1 {
		t.Errorf("got %d annotations in %q, wanted exactly 1 (between bar and baz)", count, got)
	}
}

func TestTestParserPipeChains(t *testing.T) {
	got := runTestParser(t, "foo |\nbar\n")
	if strings.Contains(got, "?!AMP?!") {
		t.Errorf("got %q, expected no annotation since foo | bar is chained", got)
	}
}

func TestTestParserNestedIfNoFalsePositive(t *testing.T) {
	got := runTestParser(t, "if true; then\n\tfoo &&\n\tbar\nfi\n")
	if strings.Contains(got, "?!AMP?!") {
		t.Errorf("got %q, expected no annotation inside a fully chained if body", got)
	}
}
