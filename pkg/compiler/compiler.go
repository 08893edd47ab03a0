// Package compiler chains the lexer, parser and code generator.
package compiler

import (
	"bytes"
	"fmt"

	"github.com/xplshn/toycc/pkg/ast"
	"github.com/xplshn/toycc/pkg/codegen"
	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/diag"
	"github.com/xplshn/toycc/pkg/ir"
	"github.com/xplshn/toycc/pkg/lexer"
	"github.com/xplshn/toycc/pkg/parser"
	"github.com/xplshn/toycc/pkg/token"
	"github.com/xplshn/toycc/pkg/vm"
)

// Result holds every intermediate form of one compilation.
type Result struct {
	Source   string
	Tokens   []token.Token
	AST      *ast.Program
	IR       *ir.Program
	Warnings []diag.Warning
}

// Compile runs source through the front end and the code generator. The
// returned error is a *diag.Error when the program itself is at fault.
func Compile(source string, cfg *config.Config) (*Result, error) {
	res := &Result{Source: source}

	cfg.Infof("tokenizing %d bytes", len(source))
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	res.Tokens = toks

	cfg.Infof("parsing %d tokens", len(toks))
	p := parser.NewParser(source, toks, cfg)
	root, err := p.Parse()
	if err != nil {
		return nil, err
	}
	res.AST = root

	cfg.Infof("generating IR for %d statements, %d locals", len(root.Stmts), root.NumLocals)
	ctx := codegen.NewContext(cfg)
	prog, err := ctx.Generate(root)
	if err != nil {
		return nil, err
	}
	res.IR = prog
	res.Warnings = ctx.Warnings()
	return res, nil
}

// Emit renders the IR with the backend named by cfg.BackendName.
func (r *Result) Emit(cfg *config.Config) (*bytes.Buffer, error) {
	backend, err := codegen.NewBackend(cfg.BackendName)
	if err != nil {
		return nil, err
	}
	cfg.Infof("generating code with '%s' backend", cfg.BackendName)
	out, err := backend.Generate(r.IR, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", cfg.BackendName, err)
	}
	return out, nil
}

// BackendIR returns the backend's own intermediate text, e.g. QBE SSA.
func (r *Result) BackendIR(cfg *config.Config) (string, error) {
	backend, err := codegen.NewBackend(cfg.BackendName)
	if err != nil {
		return "", err
	}
	return backend.GenerateIR(r.IR, cfg)
}

// Run executes the program on the IR interpreter.
func (r *Result) Run() (int64, error) {
	return vm.Exec(r.IR)
}
