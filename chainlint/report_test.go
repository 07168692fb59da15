package chainlint

import (
	"testing"

	"github.com/FollowTheProcess/chainlint/token"
)

func TestUnwrapSingleQuoted(t *testing.T) {
	got := unwrap(`'hello world'`)
	want := "hello world"
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestUnwrapDoubleQuotedEscape(t *testing.T) {
	got := unwrap(`"a\"b"`)
	want := `a"b`
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestUnwrapBareBackslashEscape(t *testing.T) {
	got := unwrap(`a\ b`)
	want := "a b"
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestUnwrapCompositeToken(t *testing.T) {
	// word"a b"42'c d' -> worda b42c d
	got := unwrap(`word"a b"42'c d'`)
	want := "worda b42c d"
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestUnwrapBackslashNewlineSplice(t *testing.T) {
	got := unwrap("a\\\nb")
	want := "a\\b"
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestUnwrapSingleQuotedIgnoresBackslash(t *testing.T) {
	got := unwrap(`'a\nb'`)
	want := `a\nb`
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestFormatBodyTrimsAndEnsuresTrailingNewline(t *testing.T) {
	stream := token.Stream{token.Newline, token.Token("foo"), token.Amp(), token.Token("bar")}
	got := formatBody(stream)
	want := "foo ?!AMP?! bar\n"
	if got != want {
		t.Errorf("got %q, wanted %q", got, want)
	}
}

func TestFormatBodyEmptyStreamIsJustNewline(t *testing.T) {
	got := formatBody(nil)
	if got != "\n" {
		t.Errorf("got %q, wanted %q", got, "\n")
	}
}
