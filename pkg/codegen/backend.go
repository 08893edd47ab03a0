package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/ir"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes an IR program and a configuration, and produces the target
	// assembly as a byte buffer.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
	// GenerateIR produces the backend's own textual form before any external
	// assembly step. For x86_64 that is the assembly itself.
	GenerateIR(prog *ir.Program, cfg *config.Config) (string, error)
}

// NewBackend selects a backend by the name stored in config.BackendName.
func NewBackend(name string) (Backend, error) {
	switch name {
	case "x86_64":
		return NewX86Backend(), nil
	case "qbe":
		return NewQBEBackend(), nil
	default:
		return nil, fmt.Errorf("unknown backend '%s'", name)
	}
}
