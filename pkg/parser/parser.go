package parser

import (
	"fmt"

	"github.com/xplshn/toycc/pkg/ast"
	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/diag"
	"github.com/xplshn/toycc/pkg/symtab"
	"github.com/xplshn/toycc/pkg/token"
)

// Parser holds the state for the parsing process
type Parser struct {
	source   string
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	locals   *symtab.Table
}

// bailout carries the first fatal error up to Parse.
type bailout struct{ err *diag.Error }

// NewParser creates a parser over tokens produced from source. The token
// slice must end with an EOF token.
func NewParser(source string, tokens []token.Token, cfg *config.Config) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF, Pos: len(source)})
	}
	p := &Parser{
		source:  source,
		tokens:  tokens,
		current: tokens[0],
		locals:  symtab.NewTable(cfg.WordSize),
	}
	return p
}

// Locals exposes the symbol table built while parsing.
func (p *Parser) Locals() *symtab.Table { return p.locals }

// Parse consumes every token and returns one tree per statement.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	prog = &ast.Program{}
	for !p.check(token.EOF) {
		prog.Stmts = append(prog.Stmts, p.parseStmt())
	}
	prog.NumLocals = p.locals.Len()
	return prog, nil
}

// Parse is a convenience wrapper around NewParser(...).Parse().
func Parse(source string, tokens []token.Token, cfg *config.Config) (*ast.Program, error) {
	return NewParser(source, tokens, cfg).Parse()
}

// Parser helpers
func (p *Parser) errorAt(tok token.Token, kind diag.Kind, format string, args ...any) {
	panic(bailout{diag.At(tok, kind, format, args...)})
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.previous = p.current
		p.pos++
		p.current = p.tokens[p.pos]
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) {
	if p.check(tokType) {
		p.advance()
		return
	}
	p.errorAt(p.current, diag.UnexpectedToken, "%s, got %s", message, p.describe(p.current))
}

func (p *Parser) describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.Ident, token.Number:
		return fmt.Sprintf("%s '%s'", tok.Type, tok.Text(p.source))
	default:
		return tok.Type.String()
	}
}

// Statement Parsing
func (p *Parser) parseStmt() ast.Node {
	tok := p.current
	if p.match(token.Return) {
		expr := p.parseExpr()
		p.expect(token.Semi, "Expected ';' after return value")
		return ast.NewReturn(tok, expr)
	}

	expr := p.parseExpr()
	p.expect(token.Semi, "Expected ';' after expression")
	return expr
}

// Expression Parsing
func (p *Parser) parseExpr() ast.Node {
	return p.parseAssign()
}

// parseAssign is right associative. The target is not validated here; the
// code generator rejects anything that is not a variable.
func (p *Parser) parseAssign() ast.Node {
	left := p.parseEquality()
	if p.match(token.Eq) {
		tok := p.previous
		right := p.parseAssign()
		return ast.NewAssign(tok, left, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Node {
	return p.parseBinaryLevel(p.parseRelational, token.EqEq, token.Neq)
}

func (p *Parser) parseRelational() ast.Node {
	return p.parseBinaryLevel(p.parseAdd, token.Lt, token.Lte, token.Gt, token.Gte)
}

func (p *Parser) parseAdd() ast.Node {
	return p.parseBinaryLevel(p.parseMul, token.Plus, token.Minus)
}

func (p *Parser) parseMul() ast.Node {
	return p.parseBinaryLevel(p.parseUnary, token.Star, token.Slash)
}

// parseBinaryLevel parses a left-associative chain of the given operators
// whose operands come from next.
func (p *Parser) parseBinaryLevel(next func() ast.Node, ops ...token.Type) ast.Node {
	left := next()
	for {
		opTok := p.current
		matched := false
		for _, op := range ops {
			if p.match(op) {
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
		right := next()
		left = ast.NewBinary(opTok, ast.BinaryOps[opTok.Type], left, right)
	}
}

func (p *Parser) parseUnary() ast.Node {
	tok := p.current
	if p.match(token.Plus) {
		return p.parsePrimary()
	}
	if p.match(token.Minus) {
		return ast.NewBinary(tok, ast.Sub, ast.NewNum(tok, 0), p.parsePrimary())
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.current
	if p.match(token.LParen) {
		expr := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression")
		return expr
	}
	if p.match(token.Ident) {
		name := tok.Text(p.source)
		local := p.locals.Resolve(name)
		return ast.NewVar(tok, name, local.Offset)
	}
	if p.match(token.Number) {
		return ast.NewNum(tok, tok.Value)
	}
	p.errorAt(tok, diag.UnexpectedToken, "Expected a number, got %s", p.describe(tok))
	return nil
}
