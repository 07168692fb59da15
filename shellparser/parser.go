// Package shellparser implements chainlint's recursive-descent shell
// parser, the base ShellParser described in spec.md §4.2.
//
// ShellParser recognizes the compound constructs of POSIX shell (groups,
// subshells, case, for, if, while/until, function definitions, and Bash
// array assignment) and accumulates everything it reads into a flat token
// stream. Two seams let more specialised parsers change its behaviour
// without duplicating the grammar: Accumulator controls how a freshly
// parsed command is merged into the growing stream, and CommandRecognizer
// is given a look at every parsed command as a post-processing hook. This
// mirrors the design note in spec.md §9 ("Model via a capability interface:
// Accumulator... and CommandRecognizer...").
package shellparser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FollowTheProcess/chainlint/lexer"
	"github.com/FollowTheProcess/chainlint/token"
)

// EOF is the sentinel zero-value token returned once the underlying lexer
// is exhausted. No token the lexer scans is ever empty, so the empty string
// is a safe sentinel.
const EOF = token.Token("")

// neverStop never matches any real token text (tokens cannot contain NUL),
// used as the stop pattern for a top-level parse that should only halt at
// end of input.
var neverStop = regexp.MustCompile("\x00")

// Accumulator decides how a freshly parsed command is merged into the
// stream built up so far. The base ShellParser implements it as a plain
// append; chainlint.TestParser overrides it to insert &&-chain annotations.
type Accumulator interface {
	Accumulate(stream, cmd token.Stream) token.Stream
}

// CommandRecognizer is given every command ShellParser parses, after
// parsing, purely for inspection/side effects (it does not change what was
// parsed). chainlint.ScriptParser uses it to spot test_expect_success /
// test_expect_failure invocations.
type CommandRecognizer interface {
	Recognize(cmd token.Stream)
}

// ShellParser is chainlint's base recursive-descent shell parser.
type ShellParser struct {
	lex      *lexer.Lexer
	src      string
	pushback []token.Token    // LIFO buffer, enables peek()/backup()
	stops    []*regexp.Regexp // stack of stop patterns, top is the active one

	acc Accumulator
	rec CommandRecognizer
}

// New creates a ShellParser over src.
func New(src string) *ShellParser {
	p := &ShellParser{src: src}
	p.acc = p
	p.rec = p
	p.lex = lexer.New(src, p)
	return p
}

// SetAccumulator overrides how parsed commands are merged into the stream.
func (p *ShellParser) SetAccumulator(a Accumulator) { p.acc = a }

// SetRecognizer overrides the post-parse command inspection hook.
func (p *ShellParser) SetRecognizer(r CommandRecognizer) { p.rec = r }

// Accumulate is the default Accumulator: plain concatenation.
func (p *ShellParser) Accumulate(stream, cmd token.Stream) token.Stream {
	return append(stream, cmd...)
}

// Recognize is the default CommandRecognizer: a no-op.
func (p *ShellParser) Recognize(cmd token.Stream) {}

// ParseAll parses the entire input to end of input.
func (p *ShellParser) ParseAll() token.Stream {
	return p.Parse(neverStop)
}

// Parse parses commands until stop matches the next token (not consuming
// it) or input is exhausted, pushing stop onto the stop-stack for the
// duration. This is also the lexer.ParseCallback implementation invoked
// recursively for $(...) command substitution.
func (p *ShellParser) Parse(stop *regexp.Regexp) token.Stream {
	p.stops = append(p.stops, stop)
	defer func() { p.stops = p.stops[:len(p.stops)-1] }()

	var stream token.Stream
	for {
		pk := p.peek()
		if pk == EOF || stop.MatchString(string(pk)) {
			return stream
		}
		cmd := p.ParseCmd()
		stream = p.acc.Accumulate(stream, cmd)
	}
}

// ParseCmd parses exactly one command, including the handling of compound
// constructs described in spec.md §4.2's table, then runs it through the
// CommandRecognizer hook before returning it.
func (p *ShellParser) ParseCmd() token.Stream {
	cmd := p.parseCmdRaw()
	p.rec.Recognize(cmd)
	return cmd
}

// next returns, and consumes, the next token, preferring anything sitting
// in the pushback buffer.
func (p *ShellParser) next() token.Token {
	if n := len(p.pushback); n > 0 {
		t := p.pushback[n-1]
		p.pushback = p.pushback[:n-1]
		return t
	}
	t, ok := p.lex.Scan()
	if !ok {
		return EOF
	}
	return t
}

// backup pushes t back onto the pushback buffer.
func (p *ShellParser) backup(t token.Token) {
	p.pushback = append(p.pushback, t)
}

// peek returns, but does not consume, the next token.
func (p *ShellParser) peek() token.Token {
	t := p.next()
	p.backup(t)
	return t
}

// atStop reports whether t matches the innermost active stop pattern.
func (p *ShellParser) atStop(t token.Token) bool {
	if len(p.stops) == 0 {
		return false
	}
	return p.stops[len(p.stops)-1].MatchString(string(t))
}

// expect consumes the next token if it equals want, returning it. If it
// does not, an "?!ERR?! expected 'X' but found 'Y'" annotation token is
// returned in its place and the unexpected token is pushed back so parsing
// can continue.
func (p *ShellParser) expect(want token.Token) token.Token {
	got := p.next()
	if got == want {
		return got
	}
	display := string(got)
	if got == EOF {
		display = "EOF"
	}
	p.backup(got)
	return token.Err(fmt.Sprintf("expected '%s' but found '%s'", want, display))
}

var simpleTerminators = map[token.Token]bool{
	token.Semi:       true,
	token.Background: true,
	token.Newline:    true,
	token.Pipe:       true,
	token.AndAnd:     true,
	token.OrOr:       true,
}

// consumeTrailer absorbs tokens onto cmd up to and including a terminator
// (";", "&", "\n", "|", "&&", "||"), or up to (not including) whatever
// token satisfies the active stop pattern, or end of input. Used both for
// plain simple commands and after a compound construct's closing keyword,
// since either may be followed directly by a chaining operator.
func (p *ShellParser) consumeTrailer(cmd token.Stream) token.Stream {
	for {
		pk := p.peek()
		if pk == EOF || p.atStop(pk) {
			return cmd
		}
		t := p.next()
		cmd = append(cmd, t)
		if simpleTerminators[t] {
			return cmd
		}
	}
}

// parseCmdRaw dispatches on the first token of a command to recognise
// compound constructs, function definitions, and Bash array assignment,
// falling back to a plain simple command.
func (p *ShellParser) parseCmdRaw() token.Stream {
	first := p.next()
	switch first {
	case EOF:
		return nil
	case token.Newline:
		return token.Stream{token.Newline}
	}

	switch string(first) {
	case "!":
		inner := p.parseCmdRaw()
		return append(token.Stream{first}, inner...)
	case "{":
		return p.parseGroup(first)
	case "(":
		return p.parseSubshell(first)
	case "case":
		return p.parseCase(first)
	case "for":
		return p.parseFor(first)
	case "if":
		return p.parseIf(first)
	case "until", "while":
		return p.parseLoop(first)
	}

	if p.peek() == token.LParen {
		if strings.HasSuffix(string(first), "=") {
			return p.parseArrayAssign(first)
		}
		return p.parseFunctionDef(first)
	}

	return p.consumeTrailer(token.Stream{first})
}

var (
	rbraceStop     = regexp.MustCompile(`^\}$`)
	rparenStop     = regexp.MustCompile(`^\)$`)
	caseArmStop    = regexp.MustCompile(`^(;;|esac)$`)
	doStop         = regexp.MustCompile(`^do$`)
	doneStop       = regexp.MustCompile(`^done$`)
	thenStop       = regexp.MustCompile(`^then$`)
	elifElseFiStop = regexp.MustCompile(`^(elif|else|fi)$`)
	fiStop         = regexp.MustCompile(`^fi$`)
)

func (p *ShellParser) parseGroup(first token.Token) token.Stream {
	cmd := token.Stream{first}
	cmd = append(cmd, p.Parse(rbraceStop)...)
	cmd = append(cmd, p.expect(token.RBrace))
	return p.consumeTrailer(cmd)
}

func (p *ShellParser) parseSubshell(first token.Token) token.Stream {
	cmd := token.Stream{first}
	cmd = append(cmd, p.Parse(rparenStop)...)
	cmd = append(cmd, p.expect(token.RParen))
	return p.consumeTrailer(cmd)
}

func (p *ShellParser) parseFunctionDef(first token.Token) token.Stream {
	cmd := token.Stream{first}
	cmd = append(cmd, p.expect(token.LParen))
	cmd = append(cmd, p.expect(token.RParen))
	for p.peek() == token.Newline {
		cmd = append(cmd, p.next())
	}
	cmd = append(cmd, p.parseCmdRaw()...)
	return cmd
}

// parseArrayAssign consumes a Bash array assignment "name=(...)" verbatim,
// folding it into a single token, the opening '(' has been peeked but not
// consumed.
func (p *ShellParser) parseArrayAssign(first token.Token) token.Stream {
	p.next() // consume '('
	var inner []string
	for {
		t := p.next()
		if t == EOF || t == token.RParen {
			break
		}
		inner = append(inner, string(t))
	}
	combined := string(first) + "(" + strings.Join(inner, " ") + ")"
	return p.consumeTrailer(token.Stream{token.Token(combined)})
}

func (p *ShellParser) parseCase(first token.Token) token.Stream {
	cmd := token.Stream{first, p.next()} // subject
	cmd = append(cmd, p.expect(token.Token("in")))

	for {
		pk := p.peek()
		if pk == EOF || string(pk) == "esac" {
			break
		}
		for {
			t := p.next()
			cmd = append(cmd, t)
			if t == EOF || t == token.RParen {
				break
			}
		}
		cmd = append(cmd, p.Parse(caseArmStop)...)
		if string(p.peek()) == ";;" {
			cmd = append(cmd, p.next())
		}
	}
	cmd = append(cmd, p.expect(token.Token("esac")))
	return p.consumeTrailer(cmd)
}

func (p *ShellParser) parseFor(first token.Token) token.Stream {
	cmd := token.Stream{first, p.next()} // loop variable

	if string(p.peek()) == "in" {
		cmd = append(cmd, p.next())
		for string(p.peek()) != "do" && p.peek() != EOF {
			cmd = append(cmd, p.next())
		}
	}
	for p.peek() == token.Semi || p.peek() == token.Newline {
		cmd = append(cmd, p.next())
	}
	cmd = append(cmd, p.expect(token.Token("do")))
	cmd = append(cmd, p.Parse(doneStop)...)
	cmd = append(cmd, p.expect(token.Token("done")))
	return p.consumeTrailer(cmd)
}

func (p *ShellParser) parseLoop(first token.Token) token.Stream {
	cmd := token.Stream{first}
	cmd = append(cmd, p.Parse(doStop)...)
	cmd = append(cmd, p.expect(token.Token("do")))
	cmd = append(cmd, p.Parse(doneStop)...)
	cmd = append(cmd, p.expect(token.Token("done")))
	return p.consumeTrailer(cmd)
}

func (p *ShellParser) parseIf(first token.Token) token.Stream {
	cmd := token.Stream{first}
	for {
		cmd = append(cmd, p.Parse(thenStop)...)
		cmd = append(cmd, p.expect(token.Token("then")))
		cmd = append(cmd, p.Parse(elifElseFiStop)...)

		switch string(p.peek()) {
		case "elif":
			cmd = append(cmd, p.next())
			continue
		case "else":
			cmd = append(cmd, p.next())
			cmd = append(cmd, p.Parse(fiStop)...)
		}
		break
	}
	cmd = append(cmd, p.expect(token.Token("fi")))
	return p.consumeTrailer(cmd)
}
