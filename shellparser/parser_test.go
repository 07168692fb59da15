package shellparser

import (
	"testing"

	"github.com/FollowTheProcess/chainlint/token"
)

func streamStrings(s token.Stream) []string {
	return s.Strings()
}

func assertStrings(t *testing.T, got []string, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, wanted %d tokens %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, wanted %q", i, got[i], want[i])
		}
	}
}

func TestParseSimpleCommand(t *testing.T) {
	p := New("echo hi\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{"echo", "hi", "\n"})
}

func TestParseGroup(t *testing.T) {
	p := New("{ echo hi; }\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{"{", "echo", "hi", ";", "}", "\n"})
}

func TestParseSubshell(t *testing.T) {
	p := New("( echo hi )\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{"(", "echo", "hi", ")", "\n"})
}

func TestParseIf(t *testing.T) {
	p := New("if true; then echo a; fi\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"if", "true", ";", "then", "echo", "a", ";", "fi", "\n",
	})
}

func TestParseIfElse(t *testing.T) {
	p := New("if true; then echo a; else echo b; fi\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"if", "true", ";", "then", "echo", "a", ";", "else", "echo", "b", ";", "fi", "\n",
	})
}

func TestParseFor(t *testing.T) {
	p := New("for x in a b; do echo $x; done\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"for", "x", "in", "a", "b", ";", "do", "echo", "$x", ";", "done", "\n",
	})
}

func TestParseWhile(t *testing.T) {
	p := New("while true; do echo a; done\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"while", "true", ";", "do", "echo", "a", ";", "done", "\n",
	})
}

func TestParseCase(t *testing.T) {
	p := New("case $x in a) echo a ;; b) echo b ;; esac\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"case", "$x", "in", "a", ")", "echo", "a", ";;", "b", ")", "echo", "b", ";;", "esac", "\n",
	})
}

func TestParseFunctionDef(t *testing.T) {
	p := New("foo() { echo hi; }\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"foo", "(", ")", "{", "echo", "hi", ";", "}", "\n",
	})
}

func TestParseArrayAssign(t *testing.T) {
	p := New("arr=(a b c)\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{"arr=(a b c)", "\n"})
}

func TestExpectMismatchInjectsErrAnnotation(t *testing.T) {
	p := New("if true; then echo a\n") // missing "fi"
	got := p.ParseAll()
	found := false
	for _, tok := range got {
		if tok.IsAnnotation() {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ?!ERR?! annotation for unterminated if, got %v", got)
	}
}

func TestNestedGroupStopStackBalance(t *testing.T) {
	p := New("{ { echo a; }; echo b; }\n")
	got := p.ParseAll()
	assertStrings(t, streamStrings(got), []string{
		"{", "{", "echo", "a", ";", "}", ";", "echo", "b", ";", "}", "\n",
	})
}
