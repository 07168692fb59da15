// Package lexer implements chainlint's shell lexer.
//
// Unlike spok's own lexer (a goroutine-driven state machine communicating
// over a channel, see https://github.com/FollowTheProcess/spok/lexer), this
// lexer is a plain synchronous scanner: command substitution (`$(...)`)
// requires the lexer to call back into the owning parser mid-scan and have
// the parser resume lexing recursively, which a channel handoff to a
// separate goroutine cannot do without deadlocking on itself. What survives
// from spok's lexer is the cursor-peeking helpers (eof/current/byteAt), a
// whitespace skip (skipBlanks) and the general "lexer owns a cursor into a
// string" design, just driven directly by method calls instead of a run loop
// over a channel.
package lexer

import (
	"regexp"
	"strings"

	"github.com/FollowTheProcess/chainlint/token"
)

// ParseCallback is the capability a Lexer needs from its owning parser in
// order to recurse into $(...) command substitution: parse until a stop
// pattern matches, and hand back the flat token stream that was parsed.
//
// shellparser.ShellParser satisfies this interface.
type ParseCallback interface {
	Parse(stop *regexp.Regexp) token.Stream
}

// cmdSubStop is the stop pattern passed to the owning parser when recursing
// into a $(...) command substitution: parsing stops just before the
// closing paren, which the Lexer (not the parser) then consumes.
var cmdSubStop = regexp.MustCompile(`^\)$`)

// hereDocTag is a single pending here-document terminator, recorded in the
// order its introducing "<<[-]TAG" operator was scanned.
type hereDocTag struct {
	tag      string
	indented bool // introduced with "<<-", permits leading whitespace on the terminator line
}

// Lexer is chainlint's shell tokenizer. It holds a cursor into a single
// source buffer and a FIFO queue of here-document tags still awaiting their
// bodies; both are private state specific to one Lexer instance and are
// never shared with, or visible to, anything outside it.
type Lexer struct {
	src      string
	pos      int
	hereDocs []hereDocTag
	parser   ParseCallback
}

// New creates a Lexer over src. parser is the owning parser, invoked
// recursively when the lexer encounters "$(".
func New(src string, parser ParseCallback) *Lexer {
	return &Lexer{src: src, parser: parser}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) byteAt(offset int) byte {
	if l.pos+offset >= len(l.src) || l.pos+offset < 0 {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) current() byte {
	return l.byteAt(0)
}

// Scan returns the next token, or ok=false at end of input.
func (l *Lexer) Scan() (token.Token, bool) {
restart:
	l.skipBlanks()
	if l.eof() {
		return "", false
	}

	if l.current() == '#' {
		for !l.eof() && l.current() != '\n' {
			l.pos++
		}
		if !l.eof() {
			l.pos++ // consume the newline itself, same as scanOperator's '\n' case
			l.consumeHereDocs()
		}
		return token.Newline, true
	}

	var buf strings.Builder
	for {
		if l.eof() {
			if buf.Len() == 0 {
				return "", false
			}
			return token.Token(buf.String()), true
		}

		c := l.current()
		switch {
		case c == ' ' || c == '\t':
			l.pos++
			if buf.Len() > 0 {
				return token.Token(buf.String()), true
			}
		case isBoundary(c):
			if buf.Len() > 0 {
				return token.Token(buf.String()), true
			}
			return l.scanOperator(), true
		case c == '\'':
			l.scanSingleQuoted(&buf)
		case c == '"':
			l.scanDoubleQuoted(&buf)
		case c == '$':
			l.scanDollar(&buf)
		case c == '\\':
			if l.byteAt(1) == '\n' {
				l.pos += 2
				if buf.Len() > 0 {
					// Swallow the splice, keep scanning this token.
					continue
				}
				// Empty token: the source restarts from the top, which can
				// skip over subsequent whitespace. Deliberate, see spec §9.
				goto restart
			}
			buf.WriteByte(c)
			l.pos++
			if !l.eof() {
				buf.WriteByte(l.current())
				l.pos++
			}
		default:
			buf.WriteByte(c)
			l.pos++
		}
	}
}

// skipBlanks consumes spaces and tabs, not newlines.
func (l *Lexer) skipBlanks() {
	for !l.eof() && (l.current() == ' ' || l.current() == '\t') {
		l.pos++
	}
}

func isBoundary(c byte) bool {
	switch c {
	case ';', '&', '|', '<', '>', '\n', '(', ')', '{', '}':
		return true
	}
	return false
}

// scanOperator scans a boundary character into the appropriate operator
// token, fusing two-character operators and deferring to here-doc tag
// scanning / here-doc body consumption where relevant. The cursor sits on
// the boundary character when this is called.
func (l *Lexer) scanOperator() token.Token {
	c := l.current()
	l.pos++

	switch c {
	case '\n':
		l.consumeHereDocs()
		return token.Newline
	case '(', ')', '{', '}':
		return token.Token(c)
	}

	// c is one of ; & | < >
	pair := string(c) + string(l.current())
	switch pair {
	case "&&", "||", ">>", ";;", "<&", ">&", "<>", ">|":
		l.pos++
		return token.Token(pair)
	case "<<":
		l.pos++
		indented := false
		if l.current() == '-' {
			indented = true
			l.pos++
		}
		tag := l.scanHereDocTag()
		l.hereDocs = append(l.hereDocs, hereDocTag{tag: tag, indented: indented})
		prefix := "<<"
		if indented {
			prefix = "<<-"
		}
		return token.Token(prefix + tag)
	default:
		return token.Token(c)
	}
}

// scanHereDocTag scans the here-doc terminator word following "<<" or
// "<<-" (already consumed) and strips quote/backslash characters from it.
func (l *Lexer) scanHereDocTag() string {
	tagTok, ok := l.Scan()
	if !ok {
		return ""
	}
	return stripQuotesAndBackslashes(string(tagTok))
}

func stripQuotesAndBackslashes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '\\':
			// drop
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// consumeHereDocs drains every pending here-doc tag's body, in the FIFO
// order the "<<TAG" operators were scanned in, regardless of how deeply the
// parser was recursed when those operators were scanned. The cursor sits
// just past the newline that introduced the body lines when this is called.
func (l *Lexer) consumeHereDocs() {
	for len(l.hereDocs) > 0 {
		h := l.hereDocs[0]
		l.hereDocs = l.hereDocs[1:]

		for {
			lineStart := l.pos
			nl := strings.IndexByte(l.src[lineStart:], '\n')
			var line string
			if nl == -1 {
				line = l.src[lineStart:]
				l.pos = len(l.src)
			} else {
				line = l.src[lineStart : lineStart+nl]
				l.pos = lineStart + nl + 1
			}

			terminator := line
			if h.indented {
				terminator = strings.TrimLeft(line, " \t")
			}
			if terminator == h.tag || nl == -1 {
				break
			}
		}
	}
}

// scanSingleQuoted copies a '...' region verbatim (including both quote
// characters) into buf. Single quotes never process backslashes.
func (l *Lexer) scanSingleQuoted(buf *strings.Builder) {
	buf.WriteByte('\'')
	l.pos++
	for !l.eof() {
		c := l.current()
		buf.WriteByte(c)
		l.pos++
		if c == '\'' {
			return
		}
	}
}

// scanDoubleQuoted copies a "..." region into buf. This is a raw,
// boundary-aware copy-through: backslash only changes whether the following
// character terminates the region or triggers a nested expansion, it does
// not delete or rewrite bytes (that happens later, at unwrap time, see
// SPEC_FULL.md §9). This is what lets the Token Faithfulness property hold.
func (l *Lexer) scanDoubleQuoted(buf *strings.Builder) {
	buf.WriteByte('"')
	l.pos++
	for !l.eof() {
		c := l.current()
		switch c {
		case '"':
			buf.WriteByte(c)
			l.pos++
			return
		case '$':
			l.scanDollar(buf)
		case '\\':
			buf.WriteByte(c)
			l.pos++
			if !l.eof() {
				buf.WriteByte(l.current())
				l.pos++
			}
		default:
			buf.WriteByte(c)
			l.pos++
		}
	}
}

const dollarSpecials = "@*#?$!-"

// scanDollar consumes a '$' expansion at the current position (cursor sits
// on '$') and appends its textual representation to buf.
func (l *Lexer) scanDollar(buf *strings.Builder) {
	buf.WriteByte('$')
	l.pos++
	if l.eof() {
		return
	}

	switch {
	case l.current() == '(' && l.byteAt(1) == '(':
		start := l.pos
		l.pos += 2
		depth := 2
		for !l.eof() && depth > 0 {
			switch l.current() {
			case '(':
				depth++
			case ')':
				depth--
			}
			l.pos++
		}
		buf.WriteString(l.src[start:l.pos])
	case l.current() == '(':
		l.pos++
		// Drop the leading '$' already written: command substitution renders
		// as the parenthesised, recursively-parsed body, not "$(...)".
		s := buf.String()
		buf.Reset()
		buf.WriteString(s[:len(s)-1])

		inner := l.parser.Parse(cmdSubStop)
		buf.WriteString("(")
		buf.WriteString(strings.Join(inner.Strings(), " "))
		buf.WriteString(")")

		if !l.eof() && l.current() == ')' {
			l.pos++
		}
	case l.current() == '{':
		start := l.pos
		l.pos++
		depth := 1
		for !l.eof() && depth > 0 {
			switch l.current() {
			case '{':
				depth++
			case '}':
				depth--
			}
			l.pos++
		}
		buf.WriteString(l.src[start:l.pos])
	case isIdentByte(l.current()):
		start := l.pos
		for !l.eof() && isIdentByte(l.current()) {
			l.pos++
		}
		buf.WriteString(l.src[start:l.pos])
	case strings.IndexByte(dollarSpecials, l.current()) >= 0, l.current() >= '0' && l.current() <= '9':
		buf.WriteByte(l.current())
		l.pos++
	default:
		// Expansion does not match any recognised form; nothing further.
	}
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
