package parse

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokLBrace
	tokRBrace
	tokComma
	tokDot
	tokDependsOn
	tokIllegal
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of file"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokComma:
		return "','"
	case tokDot:
		return "'.'"
	case tokDependsOn:
		return "@depends-on"
	}
	return "illegal token"
}

type token struct {
	kind tokenKind
	// text is the identifier, the unquoted string value, or the offending
	// input for illegal tokens
	text string
	line int
	col  int
	// endLine/endCol are exclusive, in UTF-16 code units like LSP positions
	endLine int
	endCol  int
	// err is set for illegal tokens
	err string
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	case tokString:
		return "string"
	case tokIllegal:
		return fmt.Sprintf("%q", t.text)
	}
	return t.kind.String()
}

const dependsKeyword = "@depends-on"

type lexer struct {
	src  string
	off  int
	line int
	col  int
	toks []token
}

// lex splits src into tokens. Comments and whitespace are dropped; malformed
// input becomes tokIllegal so the parser can report it in place.
func lex(src string) []token {
	l := &lexer{src: src}
	for {
		l.skipSpaceAndComments()
		if l.off >= len(l.src) {
			l.toks = append(l.toks, token{kind: tokEOF, line: l.line, col: l.col, endLine: l.line, endCol: l.col})
			return l.toks
		}
		l.next()
	}
}

func (l *lexer) peek() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col += utf16.RuneLen(r)
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for l.off < len(l.src) {
		r := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '#' || strings.HasPrefix(l.src[l.off:], "//"):
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) emit(kind tokenKind, text string, line, col int) {
	l.toks = append(l.toks, token{kind: kind, text: text, line: line, col: col, endLine: l.line, endCol: l.col})
}

func (l *lexer) next() {
	line, col := l.line, l.col
	r := l.peek()
	switch {
	case isIdentStart(r):
		start := l.off
		for l.off < len(l.src) && isIdentPart(l.peek()) {
			l.advance()
		}
		l.emit(tokIdent, l.src[start:l.off], line, col)
	case r == '"':
		l.lexString(line, col)
	case r == '@':
		start := l.off
		l.advance()
		for l.off < len(l.src) && isIdentPart(l.peek()) {
			l.advance()
		}
		text := l.src[start:l.off]
		if text == dependsKeyword {
			l.emit(tokDependsOn, text, line, col)
			return
		}
		l.emit(tokIllegal, text, line, col)
		l.toks[len(l.toks)-1].err = fmt.Sprintf("unknown directive %q", text)
	case r == '{':
		l.advance()
		l.emit(tokLBrace, "{", line, col)
	case r == '}':
		l.advance()
		l.emit(tokRBrace, "}", line, col)
	case r == ',':
		l.advance()
		l.emit(tokComma, ",", line, col)
	case r == '.':
		l.advance()
		l.emit(tokDot, ".", line, col)
	default:
		l.advance()
		l.emit(tokIllegal, string(r), line, col)
		l.toks[len(l.toks)-1].err = fmt.Sprintf("unexpected character %q", r)
	}
}

// lexString reads a double-quoted string. Strings may not span lines.
func (l *lexer) lexString(line, col int) {
	l.advance()
	var b strings.Builder
	for {
		if l.off >= len(l.src) || l.peek() == '\n' {
			l.emit(tokIllegal, b.String(), line, col)
			l.toks[len(l.toks)-1].err = "unterminated string"
			return
		}
		r := l.advance()
		switch r {
		case '"':
			l.emit(tokString, b.String(), line, col)
			return
		case '\\':
			if l.off < len(l.src) && l.peek() != '\n' {
				esc := l.advance()
				switch esc {
				case 'n':
					b.WriteRune('\n')
				case 't':
					b.WriteRune('\t')
				default:
					b.WriteRune(esc)
				}
			}
		default:
			b.WriteRune(r)
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || r == '-' || (r >= '0' && r <= '9')
}
