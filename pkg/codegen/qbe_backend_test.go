package codegen

import (
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/ir"
)

func TestQBEIR(t *testing.T) {
	prog := mustGenerate(t, "a=3; return a;")
	got, err := NewQBEBackend().GenerateIR(prog, config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	want := "export function l $main() {\n" +
		"@start\n" +
		"\t%fp =l alloc16 16\n" +
		"\t%t1 =l copy 3\n" +
		"\t%t2 =l add %fp, 8\n" +
		"\tstorel %t1, %t2\n" +
		"\t%t3 =l add %fp, 8\n" +
		"\t%t4 =l loadl %t3\n" +
		"\tret %t4\n" +
		"}\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("QBE IR mismatch (-want +got):\n%s", diff)
	}
}

func TestQBEComparisonOrder(t *testing.T) {
	got, err := NewQBEBackend().GenerateIR(mustGenerate(t, "2>1;"), config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "%t3 =l csgtl %t1, %t2\n") {
		t.Errorf("expected lhs before rhs in\n%s", got)
	}
	if strings.Contains(got, "alloc") {
		t.Errorf("no locals should mean no frame allocation:\n%s", got)
	}
}

func TestQBEEmptyProgram(t *testing.T) {
	got, err := NewQBEBackend().GenerateIR(mustGenerate(t, ""), config.NewConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "\tret %t1\n") {
		t.Errorf("expected the pushed zero to be returned:\n%s", got)
	}
}

func TestQBEUnderflow(t *testing.T) {
	prog := &ir.Program{Funcs: []*ir.Func{{Name: "main", Code: []ir.Instruction{{Op: ir.OpAdd}}}}}
	if _, err := NewQBEBackend().GenerateIR(prog, config.NewConfig()); err == nil {
		t.Error("expected an underflow error")
	}
}

func TestQBEAssemble(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("libqbe is not built on windows")
	}
	cfg := config.NewConfig()
	if err := cfg.SetTarget("linux", "amd64", "qbe/amd64_sysv"); err != nil {
		t.Fatal(err)
	}
	buf, err := NewQBEBackend().Generate(mustGenerate(t, "a=3; b=5; return a+b;"), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "main") {
		t.Errorf("expected a main symbol in\n%s", buf.String())
	}
}
