// Package lexer converts a preprocessed source.Unit into a token stream.
package lexer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/oxide-computer/x4c/internal/source"
	"github.com/oxide-computer/x4c/internal/token"
)

// Error is a lexical-phase finding: an illegal character, an unterminated
// string, a malformed width-integer literal, or (warning-severity) a
// width-specified literal whose value doesn't fit its declared width. It
// carries its own Span rather than a diagnostics.Diagnostic so this
// package stays independent of the diagnostics package.
type Error struct {
	Span     source.Span
	Message  string
	Warning  bool // true for advisory findings (e.g. truncation); false is a hard error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Span, e.Message) }

// Lexer scans the rune stream of a source.Unit into token.Tokens.
type Lexer struct {
	unit *source.Unit
	runes []rune
	pos   int // index into runes / unit.Spans
	errs  []*Error
}

// New creates a Lexer over the fully preprocessed unit u.
func New(u *source.Unit) *Lexer {
	return &Lexer{unit: u, runes: []rune(u.Text)}
}

// Tokenize scans the entire stream and returns the resulting tokens (always
// terminated by a single EOF token) along with any lexical errors.
func (l *Lexer) Tokenize() ([]token.Token, []*Error) {
	var toks []token.Token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return toks, l.errs
}

func (l *Lexer) spanAt(i int) source.Span { return l.unit.SpanAt(i) }

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.runes) {
		return 0
	}
	return l.runes[l.pos]
}

func (l *Lexer) peekRuneAt(off int) rune {
	if l.pos+off >= len(l.runes) {
		return 0
	}
	return l.runes[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.peekRune()
	l.pos++
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.runes) {
		r := l.peekRune()
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			l.advance()
		case r == '/' && l.peekRuneAt(1) == '/':
			for l.pos < len(l.runes) && l.peekRune() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekRuneAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.runes) && !(l.peekRune() == '*' && l.peekRuneAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.runes) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) next() token.Token {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.runes) {
		span := source.Span{}
		if len(l.unit.Spans) > 0 {
			span = l.unit.Spans[len(l.unit.Spans)-1]
		}
		return token.Token{Kind: token.EOF, Span: span}
	}

	start := l.pos
	span := l.spanAt(start)
	r := l.peekRune()

	switch {
	case isIdentStart(r):
		return l.readIdent(start, span)
	case isDigit(r):
		return l.readNumber(start, span)
	case r == '"':
		return l.readString(start, span)
	}

	l.advance()
	switch r {
	case '(':
		return l.tok(token.LParen, "(", span)
	case ')':
		return l.tok(token.RParen, ")", span)
	case '{':
		return l.tok(token.LBrace, "{", span)
	case '}':
		return l.tok(token.RBrace, "}", span)
	case '[':
		return l.tok(token.LBracket, "[", span)
	case ']':
		return l.tok(token.RBracket, "]", span)
	case ';':
		return l.tok(token.Semi, ";", span)
	case ',':
		return l.tok(token.Comma, ",", span)
	case '.':
		if l.peekRune() == '.' {
			l.advance()
			return l.tok(token.DotDot, "..", span)
		}
		return l.tok(token.Dot, ".", span)
	case ':':
		if l.peekRune() == ':' {
			l.advance()
			return l.tok(token.ColonColon, "::", span)
		}
		return l.tok(token.Colon, ":", span)
	case '=':
		if l.peekRune() == '=' {
			l.advance()
			return l.tok(token.EqEq, "==", span)
		}
		return l.tok(token.Assign, "=", span)
	case '!':
		if l.peekRune() == '=' {
			l.advance()
			return l.tok(token.NotEq, "!=", span)
		}
		return l.tok(token.Bang, "!", span)
	case '+':
		return l.tok(token.Plus, "+", span)
	case '-':
		if l.peekRune() == '>' {
			l.advance()
			return l.tok(token.Arrow, "->", span)
		}
		return l.tok(token.Minus, "-", span)
	case '^':
		return l.tok(token.Caret, "^", span)
	case '&':
		if l.peekRune() == '&' && l.peekRuneAt(1) == '&' {
			l.advance()
			l.advance()
			return l.tok(token.TripAmp, "&&&", span)
		}
		if l.peekRune() == '&' {
			l.advance()
			return l.tok(token.AndAnd, "&&", span)
		}
		return l.tok(token.Amp, "&", span)
	case '|':
		if l.peekRune() == '|' {
			l.advance()
			return l.tok(token.OrOr, "||", span)
		}
		return l.tok(token.Pipe, "|", span)
	case '<':
		if l.peekRune() == '<' {
			l.advance()
			return l.tok(token.Shl, "<<", span)
		}
		if l.peekRune() == '=' {
			l.advance()
			return l.tok(token.LtEq, "<=", span)
		}
		return l.tok(token.LAngle, "<", span)
	case '>':
		if l.peekRune() == '>' {
			l.advance()
			return l.tok(token.Shr, ">>", span)
		}
		if l.peekRune() == '=' {
			l.advance()
			return l.tok(token.GtEq, ">=", span)
		}
		return l.tok(token.RAngle, ">", span)
	}

	l.errs = append(l.errs, &Error{Span: span, Message: fmt.Sprintf("illegal character %q", r)})
	return l.tok(token.ILLEGAL, string(r), span)
}

func (l *Lexer) tok(kind token.Kind, lexeme string, span source.Span) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: span}
}

func (l *Lexer) readIdent(start int, span source.Span) token.Token {
	for l.pos < len(l.runes) && isIdentPart(l.peekRune()) {
		l.advance()
	}
	lexeme := string(l.runes[start:l.pos])
	kind := token.LookupIdent(lexeme)
	t := l.tok(kind, lexeme, span)
	if kind == token.Ident {
		t.Literal = lexeme
	}
	return t
}

// readNumber scans P4's integer literal forms:
//
//	123                 (decimal, untyped)
//	0x1A, 0b101, 0o17   (base-prefixed, untyped)
//	16w0x0800           (width-specified hex)
//	9w0b101010101       (width-specified binary)
//	32w42               (width-specified decimal)
//
// Values wider than an int64 are retained as *big.Int so bit<128>-class
// constants never lose precision.
func (l *Lexer) readNumber(start int, span source.Span) token.Token {
	origStart := start
	for l.pos < len(l.runes) && isDigit(l.peekRune()) {
		l.advance()
	}

	width := 0
	digitsStart := start
	if l.peekRune() == 'w' || l.peekRune() == 's' {
		// width prefix: the digits just scanned are the width, not the value
		widthStr := string(l.runes[start:l.pos])
		w := 0
		for _, c := range widthStr {
			w = w*10 + int(c-'0')
		}
		width = w
		l.advance() // consume 'w' or 's'
		digitsStart = l.pos
		if l.peekRune() == '0' && (l.peekRuneAt(1) == 'x' || l.peekRuneAt(1) == 'b' || l.peekRuneAt(1) == 'o') {
			l.advance()
			l.advance()
		}
		for l.pos < len(l.runes) && isBaseDigit(l.peekRune()) {
			l.advance()
		}
	} else if l.peekRune() == 'x' || l.peekRune() == 'b' || l.peekRune() == 'o' {
		// 0x../0b../0o.. unsized base literal
		if l.runes[start] == '0' && l.pos == start+1 {
			l.advance()
			for l.pos < len(l.runes) && isBaseDigit(l.peekRune()) {
				l.advance()
			}
		}
	}

	lexeme := string(l.runes[origStart:l.pos])
	digits := string(l.runes[digitsStart:l.pos])
	val, ok := parseIntLiteral(digits)
	if !ok {
		l.errs = append(l.errs, &Error{Span: span, Message: fmt.Sprintf("malformed integer literal %q", lexeme)})
	} else if width > 0 {
		val = l.checkWidthTruncation(val, width, lexeme, span)
	}

	t := l.tok(token.IntLit, lexeme, span)
	t.Width = width
	t.Literal = val
	return t
}

// checkWidthTruncation enforces V < 2^W for a WwV-style literal: if the
// parsed value doesn't fit its declared width, it reports a warning and
// returns the value truncated (wrapped mod 2^W) to what the width can
// actually hold; otherwise it returns val unchanged.
func (l *Lexer) checkWidthTruncation(val interface{}, width int, lexeme string, span source.Span) interface{} {
	var v *big.Int
	switch x := val.(type) {
	case int64:
		v = big.NewInt(x)
	case *big.Int:
		v = x
	default:
		return val
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(width))
	if v.Cmp(limit) < 0 {
		return val
	}
	truncated := new(big.Int).Mod(v, limit)
	l.errs = append(l.errs, &Error{
		Span:    span,
		Message: fmt.Sprintf("value %s does not fit in %d bits (max %s); %s truncated to %s", v, width, new(big.Int).Sub(limit, big.NewInt(1)), lexeme, truncated),
		Warning: true,
	})
	if truncated.IsInt64() {
		return truncated.Int64()
	}
	return truncated
}

// parseIntLiteral decodes a plain decimal or 0x/0b/0o-prefixed integer
// into either an int64 or, when it overflows one, a *big.Int.
func parseIntLiteral(digits string) (interface{}, bool) {
	base := 10
	body := digits
	switch {
	case strings.HasPrefix(digits, "0x"), strings.HasPrefix(digits, "0X"):
		base = 16
		body = digits[2:]
	case strings.HasPrefix(digits, "0b"), strings.HasPrefix(digits, "0B"):
		base = 2
		body = digits[2:]
	case strings.HasPrefix(digits, "0o"), strings.HasPrefix(digits, "0O"):
		base = 8
		body = digits[2:]
	}
	if body == "" {
		return int64(0), false
	}
	bi, ok := new(big.Int).SetString(body, base)
	if !ok {
		return int64(0), false
	}
	if bi.IsInt64() {
		return bi.Int64(), true
	}
	return bi, true
}

func (l *Lexer) readString(start int, span source.Span) token.Token {
	l.advance() // consume opening quote
	var sb strings.Builder
	for l.pos < len(l.runes) && l.peekRune() != '"' {
		r := l.advance()
		if r == '\\' && l.pos < len(l.runes) {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
	if l.pos >= len(l.runes) {
		l.errs = append(l.errs, &Error{Span: span, Message: "unterminated string literal"})
	} else {
		l.advance() // consume closing quote
	}
	lexeme := string(l.runes[start:l.pos])
	t := l.tok(token.StringLit, lexeme, span)
	t.Literal = sb.String()
	return t
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isBaseDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
