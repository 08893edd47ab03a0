package token

import "fmt"

type Type int

const (
	EOF Type = iota
	Ident
	Number
	Return
	LParen
	RParen
	Semi
	Eq
	Plus
	Minus
	Star
	Slash
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
)

var KeywordMap = map[string]Type{
	"return": Return,
}

// Punctuators, longest first. The lexer relies on this order so that "<="
// is never split into "<" "=".
var Punctuators = []struct {
	Text string
	Type Type
}{
	{"==", EqEq},
	{"!=", Neq},
	{"<=", Lte},
	{">=", Gte},
	{"+", Plus},
	{"-", Minus},
	{"*", Star},
	{"/", Slash},
	{"(", LParen},
	{")", RParen},
	{"<", Lt},
	{">", Gt},
	{";", Semi},
	{"=", Eq},
}

var typeNames = map[Type]string{
	EOF:    "end of input",
	Ident:  "identifier",
	Number: "number",
	Return: "'return'",
}

// TypeStrings maps every punctuator type back to its spelling.
var TypeStrings = make(map[Type]string)

func init() {
	for _, p := range Punctuators {
		TypeStrings[p.Type] = p.Text
	}
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	if s, ok := TypeStrings[t]; ok {
		return "'" + s + "'"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Token is a classified span of the source. Pos and Len are byte offsets, so
// src[Pos:Pos+Len] is the spelling of the token. Value is only meaningful for
// Number tokens.
type Token struct {
	Type  Type
	Pos   int
	Len   int
	Value int64
}

// Text returns the spelling of tok within src.
func (tok Token) Text(src string) string {
	if tok.Pos < 0 || tok.Pos+tok.Len > len(src) {
		return ""
	}
	return src[tok.Pos : tok.Pos+tok.Len]
}

// End is the offset one past the last byte of tok.
func (tok Token) End() int { return tok.Pos + tok.Len }
