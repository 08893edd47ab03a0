package lexer

import (
	"errors"
	"strconv"
	"strings"

	"github.com/xplshn/toycc/pkg/diag"
	"github.com/xplshn/toycc/pkg/token"
)

type Lexer struct {
	source string
	pos    int
}

func NewLexer(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize scans the whole source. The result always ends with exactly one
// EOF token; the first unrecognized character aborts with a *diag.Error.
func Tokenize(source string) ([]token.Token, error) {
	l := NewLexer(source)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	startPos := l.pos

	if l.isAtEnd() {
		return l.makeToken(token.EOF, startPos), nil
	}

	// A keyword must end at an identifier boundary, so at most one matches.
	for kw, typ := range token.KeywordMap {
		if l.keyword(kw) {
			return l.makeToken(typ, startPos), nil
		}
	}

	for _, p := range token.Punctuators {
		if strings.HasPrefix(l.source[l.pos:], p.Text) {
			l.pos += len(p.Text)
			return l.makeToken(p.Type, startPos), nil
		}
	}

	ch := l.peek()
	if isLower(ch) {
		for isLower(l.peek()) {
			l.advance()
		}
		return l.makeToken(token.Ident, startPos), nil
	}
	if isDigit(ch) {
		return l.numberLiteral(startPos)
	}

	tok := token.Token{Type: token.EOF, Pos: startPos, Len: 1}
	return tok, diag.At(tok, diag.Tokenization, "Unable to tokenize: unexpected character %q", ch)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) advance() {
	if !l.isAtEnd() {
		l.pos++
	}
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, startPos int) token.Token {
	return token.Token{Type: tokType, Pos: startPos, Len: l.pos - startPos}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			l.advance()
		default:
			return
		}
	}
}

// keyword consumes kw when it is not the prefix of a longer word, so that
// "returns" stays an identifier.
func (l *Lexer) keyword(kw string) bool {
	if !strings.HasPrefix(l.source[l.pos:], kw) || isIdentCont(l.peekAt(len(kw))) {
		return false
	}
	l.pos += len(kw)
	return true
}

func (l *Lexer) numberLiteral(startPos int) (token.Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}
	tok := l.makeToken(token.Number, startPos)
	valueStr := l.source[startPos:l.pos]
	val, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return tok, diag.At(tok, diag.LiteralTooLarge, "Integer literal too large: %s", valueStr)
		}
		return tok, diag.At(tok, diag.Tokenization, "Invalid number literal: %s", valueStr)
	}
	tok.Value = val
	return tok, nil
}

func isLower(c byte) bool { return 'a' <= c && c <= 'z' }
func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdentCont(c byte) bool {
	return isLower(c) || ('A' <= c && c <= 'Z') || isDigit(c) || c == '_'
}
