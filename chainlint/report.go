package chainlint

import (
	"fmt"
	"strings"

	"github.com/FollowTheProcess/chainlint/token"
)

// CheckScript parses the full contents of a shell script and returns its
// chainlint reports. This is the single core operation spec.md §1
// describes: "given the textual contents of a shell script, produce a list
// of annotated test reports."
func CheckScript(src string, emitAll bool) []Report {
	sp := NewScriptParser(src, emitAll)
	sp.ParseAll()
	return sp.Reports()
}

// FormatScriptReport renders every report gathered for one script, path
// first, in spec.md §6's output format. Returns "" if reports is empty.
func FormatScriptReport(path string, reports []Report) string {
	if len(reports) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# chainlint: %s\n", path)
	for _, r := range reports {
		fmt.Fprintf(&b, "# chainlint: %s\n", r.Title)
		b.WriteString(r.Body)
	}
	return b.String()
}

// formatBody turns an annotated token stream into the printable body text
// per spec.md §4.4's check_test steps 1-4: space-join every token, strip a
// leading newline, trim one leading and one trailing space from each line,
// and ensure a trailing newline.
func formatBody(stream token.Stream) string {
	joined := strings.Join(stream.Strings(), " ")
	joined = strings.TrimPrefix(joined, "\n")

	lines := strings.Split(joined, "\n")
	for i, line := range lines {
		line = strings.TrimPrefix(line, " ")
		line = strings.TrimSuffix(line, " ")
		lines[i] = line
	}
	out := strings.Join(lines, "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// unwrap reduces a raw lexed token's surface syntax to its shell-visible
// content (spec.md §4.4): quote delimiters are stripped, the alternate
// quote character is literal inside either quote style, and a backslash
// outside single quotes escapes the next character — except a
// backslash-newline, which is a line splice: the newline is dropped but a
// literal backslash is kept as a marker (spec.md §9's Open Question,
// resolved in SPEC_FULL.md §9).
func unwrap(raw string) string {
	var b strings.Builder
	i, n := 0, len(raw)

	for i < n {
		switch raw[i] {
		case '\'':
			i++
			for i < n && raw[i] != '\'' {
				b.WriteByte(raw[i])
				i++
			}
			if i < n {
				i++ // closing quote
			}
		case '"':
			i++
			for i < n && raw[i] != '"' {
				if raw[i] == '\\' && i+1 < n {
					unwrapEscape(&b, raw[i+1])
					i += 2
					continue
				}
				b.WriteByte(raw[i])
				i++
			}
			if i < n {
				i++ // closing quote
			}
		case '\\':
			if i+1 < n {
				unwrapEscape(&b, raw[i+1])
				i += 2
				continue
			}
			i++
		default:
			b.WriteByte(raw[i])
			i++
		}
	}
	return b.String()
}

// unwrapEscape writes the result of one backslash-escape to b, where c is
// the byte immediately following the backslash.
func unwrapEscape(b *strings.Builder, c byte) {
	if c == '\n' {
		b.WriteByte('\\')
	} else {
		b.WriteByte(c)
	}
}
