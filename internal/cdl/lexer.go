package cdl

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokSection
	tokPunct
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokSection:
		return "section"
	}
	return "punctuation"
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

// SyntaxError reports malformed CDL at a 1-based line and column.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string { return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg) }

var sections = map[string]bool{"dimensions": true, "variables": true, "data": true}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer { return &lexer{src: []rune(src), line: 1, col: 1} }

func (l *lexer) peekRune(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekRune(1) == '/':
			for l.pos < len(l.src) && l.peekRune(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) tokens() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}

	r := l.peekRune(0)
	switch {
	case strings.ContainsRune("{}(),;:=", r):
		l.advance()
		return token{kind: tokPunct, text: string(r), line: line, col: col}, nil
	case r == '"':
		text, err := l.readString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text, line: line, col: col}, nil
	case isIdentStart(r):
		text := l.readIdent()
		if sections[text] && l.colonFollows() {
			return token{kind: tokSection, text: text, line: line, col: col}, nil
		}
		return token{kind: tokIdent, text: text, line: line, col: col}, nil
	case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
		return token{kind: tokNumber, text: l.readNumber(), line: line, col: col}, nil
	}
	return token{}, l.errorf(line, col, "unexpected character %q", r)
}

// colonFollows consumes optional blanks and a colon after a section keyword.
func (l *lexer) colonFollows() bool {
	i := 0
	for l.peekRune(i) == ' ' || l.peekRune(i) == '\t' {
		i++
	}
	if l.peekRune(i) != ':' {
		return false
	}
	for range i + 1 {
		l.advance()
	}
	return true
}

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == '.' || r == '@' || r == '+' || r == '-'
}

func (l *lexer) readIdent() string {
	start := l.pos
	l.advance()
	for l.pos < len(l.src) && isIdentPart(l.peekRune(0)) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) readString() (string, error) {
	line, col := l.line, l.col
	l.advance()

	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string")
		}
		r := l.advance()
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			if l.pos >= len(l.src) {
				return "", l.errorf(line, col, "unterminated string")
			}
			switch e := l.advance(); e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '0':
				b.WriteRune(0)
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
}

// readNumber consumes a numeric literal including sign, exponent and type
// suffix. Signed NaN/Infinity spellings are accepted as well.
func (l *lexer) readNumber() string {
	start := l.pos
	if r := l.peekRune(0); r == '-' || r == '+' {
		l.advance()
	}
	if isIdentStart(l.peekRune(0)) {
		for l.pos < len(l.src) && unicode.IsLetter(l.peekRune(0)) {
			l.advance()
		}
		return string(l.src[start:l.pos])
	}
	for l.pos < len(l.src) {
		r := l.peekRune(0)
		switch {
		case unicode.IsDigit(r) || r == '.':
			l.advance()
		case r == 'e' || r == 'E':
			l.advance()
			if s := l.peekRune(0); s == '-' || s == '+' {
				l.advance()
			}
		default:
			if strings.ContainsRune("bBsSlLfFdDuU", r) {
				l.advance()
				for strings.ContainsRune("lLsSbB", l.peekRune(0)) && l.pos < len(l.src) {
					l.advance()
				}
			}
			return string(l.src[start:l.pos])
		}
	}
	return string(l.src[start:l.pos])
}
