package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokPunct
	tokString
	tokNumber
	tokChar
	tokLifetime
	tokDoc
)

type token struct {
	kind tokenKind
	text string // identifier, punctuation, literal value (strings unquoted) or doc line
	line int
	col  int
}

// SyntaxError reports source text the scanner cannot tokenize or parse.
type SyntaxError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

type lexer struct {
	file string
	src  string
	off  int
	line int
	col  int
	toks []token
}

func tokenize(file, src string) ([]token, error) {
	l := &lexer{file: file, src: src, line: 1, col: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.toks, nil
}

func (l *lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{File: l.file, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peekRune(ahead int) rune {
	off := l.off
	for i := 0; ; i++ {
		if off >= len(l.src) {
			return 0
		}
		r, size := utf8.DecodeRuneInString(l.src[off:])
		if i == ahead {
			return r
		}
		off += size
	}
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) emit(kind tokenKind, text string, line, col int) {
	l.toks = append(l.toks, token{kind: kind, text: text, line: line, col: col})
}

func (l *lexer) run() error {
	for l.off < len(l.src) {
		r := l.peekRune(0)
		line, col := l.line, l.col
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekRune(1) == '/':
			l.lineComment()
		case r == '/' && l.peekRune(1) == '*':
			if err := l.blockComment(); err != nil {
				return err
			}
		case r == '"':
			s, err := l.quoted()
			if err != nil {
				return err
			}
			l.emit(tokString, s, line, col)
		case (r == 'r' || r == 'b' || r == 'c') && l.isRawOrByteString():
			s, err := l.prefixedString()
			if err != nil {
				return err
			}
			l.emit(tokString, s, line, col)
		case r == 'b' && l.peekRune(1) == '\'':
			l.advance()
			s, err := l.charLiteral()
			if err != nil {
				return err
			}
			l.emit(tokChar, s, line, col)
		case r == 'r' && l.peekRune(1) == '#' && isIdentStart(l.peekRune(2)):
			l.advance()
			l.advance()
			l.emit(tokIdent, l.ident(), line, col)
		case r == '\'':
			if err := l.quote(line, col); err != nil {
				return err
			}
		case isIdentStart(r):
			l.emit(tokIdent, l.ident(), line, col)
		case r >= '0' && r <= '9':
			l.emit(tokNumber, l.number(), line, col)
		case r == '-' && l.peekRune(1) == '>':
			l.advance()
			l.advance()
			l.emit(tokPunct, "->", line, col)
		case r == ':' && l.peekRune(1) == ':':
			l.advance()
			l.advance()
			l.emit(tokPunct, "::", line, col)
		default:
			l.advance()
			l.emit(tokPunct, string(r), line, col)
		}
	}
	l.emit(tokEOF, "", l.line, l.col)
	return nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) ident() string {
	start := l.off
	for l.off < len(l.src) && isIdentPart(l.peekRune(0)) {
		l.advance()
	}
	return l.src[start:l.off]
}

func (l *lexer) number() string {
	start := l.off
	for l.off < len(l.src) {
		r := l.peekRune(0)
		if isIdentPart(r) {
			l.advance()
			continue
		}
		// 1.5 is a float, 1..2 is a range
		if r == '.' && l.peekRune(1) >= '0' && l.peekRune(1) <= '9' {
			l.advance()
			continue
		}
		break
	}
	return l.src[start:l.off]
}

func (l *lexer) lineComment() {
	line, col := l.line, l.col
	start := l.off
	for l.off < len(l.src) && l.peekRune(0) != '\n' {
		l.advance()
	}
	text := l.src[start:l.off]
	// "///" is an outer doc comment, "////" is a plain comment
	if strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////") {
		doc := strings.TrimPrefix(text, "///")
		doc = strings.TrimPrefix(doc, " ")
		l.emit(tokDoc, strings.TrimRight(doc, " \t\r"), line, col)
	}
}

func (l *lexer) blockComment() error {
	line, col := l.line, l.col
	l.advance()
	l.advance()
	depth := 1
	for depth > 0 {
		if l.off >= len(l.src) {
			return l.errorf(line, col, "unterminated block comment")
		}
		r := l.advance()
		switch {
		case r == '/' && l.peekRune(0) == '*':
			l.advance()
			depth++
		case r == '*' && l.peekRune(0) == '/':
			l.advance()
			depth--
		}
	}
	return nil
}

// quoted consumes a "..." literal and returns its decoded value.
func (l *lexer) quoted() (string, error) {
	line, col := l.line, l.col
	l.advance()
	var b strings.Builder
	for {
		if l.off >= len(l.src) {
			return "", l.errorf(line, col, "unterminated string literal")
		}
		r := l.advance()
		switch r {
		case '"':
			return b.String(), nil
		case '\\':
			if l.off >= len(l.src) {
				return "", l.errorf(line, col, "unterminated string literal")
			}
			if err := l.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteRune(r)
		}
	}
}

// escape decodes the escape sequence following a backslash.
func (l *lexer) escape(b *strings.Builder) error {
	line, col := l.line, l.col
	r := l.advance()
	switch r {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case '0':
		b.WriteByte(0)
	case '\\', '\'', '"':
		b.WriteRune(r)
	case '\n':
		// line continuation skips the newline and leading whitespace
		for l.off < len(l.src) && unicode.IsSpace(l.peekRune(0)) {
			l.advance()
		}
	case 'x':
		hex := string(l.advance()) + string(l.advance())
		v, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return l.errorf(line, col, "invalid escape \\x%s", hex)
		}
		b.WriteRune(rune(v))
	case 'u':
		if l.advance() != '{' {
			return l.errorf(line, col, "invalid unicode escape")
		}
		var hex strings.Builder
		for l.off < len(l.src) && l.peekRune(0) != '}' {
			if c := l.advance(); c != '_' {
				hex.WriteRune(c)
			}
		}
		l.advance()
		v, err := strconv.ParseUint(hex.String(), 16, 32)
		if err != nil {
			return l.errorf(line, col, "invalid unicode escape \\u{%s}", hex.String())
		}
		b.WriteRune(rune(v))
	default:
		return l.errorf(line, col, "unknown escape \\%c", r)
	}
	return nil
}

func (l *lexer) isRawOrByteString() bool {
	i := 0
	if l.peekRune(i) == 'b' || l.peekRune(i) == 'c' {
		i++
		if l.peekRune(i) == '"' {
			return true
		}
	}
	if l.peekRune(i) != 'r' {
		return false
	}
	i++
	for l.peekRune(i) == '#' {
		i++
	}
	return l.peekRune(i) == '"'
}

func (l *lexer) prefixedString() (string, error) {
	if r := l.peekRune(0); r == 'b' || r == 'c' {
		l.advance()
	}
	if l.peekRune(0) == '"' {
		return l.quoted()
	}
	line, col := l.line, l.col
	l.advance() // r
	hashes := 0
	for l.peekRune(0) == '#' {
		l.advance()
		hashes++
	}
	l.advance() // opening quote
	closing := "\"" + strings.Repeat("#", hashes)
	end := strings.Index(l.src[l.off:], closing)
	if end < 0 {
		return "", l.errorf(line, col, "unterminated raw string literal")
	}
	body := l.src[l.off : l.off+end]
	target := l.off + end + len(closing)
	for l.off < target {
		l.advance()
	}
	return body, nil
}

// charLiteral consumes 'x' or '\n' after the optional b prefix.
func (l *lexer) charLiteral() (string, error) {
	line, col := l.line, l.col
	l.advance()
	var b strings.Builder
	for {
		if l.off >= len(l.src) || l.peekRune(0) == '\n' {
			return "", l.errorf(line, col, "unterminated character literal")
		}
		r := l.advance()
		if r == '\'' {
			return b.String(), nil
		}
		b.WriteRune(r)
		if r == '\\' {
			b.WriteRune(l.advance())
		}
	}
}

// quote disambiguates a character literal from a lifetime or loop label.
func (l *lexer) quote(line, col int) error {
	next := l.peekRune(1)
	if next == '\\' || l.peekRune(2) == '\'' {
		s, err := l.charLiteral()
		if err != nil {
			return err
		}
		l.emit(tokChar, s, line, col)
		return nil
	}
	if !isIdentStart(next) {
		return l.errorf(line, col, "unexpected character %q", next)
	}
	l.advance()
	l.emit(tokLifetime, "'"+l.ident(), line, col)
	return nil
}
