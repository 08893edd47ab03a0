package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type options struct {
	output, target string
	run, verbose   bool
	warnings       []string
}

func newTestFlagSet(o *options) *FlagSet {
	fs := NewFlagSet("toycc")
	fs.String(&o.output, "output", "o", "-", "Output file", "file")
	fs.String(&o.target, "target", "t", "x86_64", "Target", "name")
	fs.Bool(&o.run, "run", "r", false, "Run")
	fs.Bool(&o.verbose, "verbose", "v", false, "Verbose")
	fs.Special(&o.warnings, "W", "Warnings", "warning")
	return fs
}

func TestParse(t *testing.T) {
	tests := []struct {
		args []string
		want options
		pos  []string
	}{
		{[]string{"1;"}, options{output: "-", target: "x86_64", warnings: []string{}}, []string{"1;"}},
		{[]string{"-o", "out.s", "1;"}, options{output: "out.s", target: "x86_64", warnings: []string{}}, []string{"1;"}},
		{[]string{"-oout.s", "--target=qbe", "x;"}, options{output: "out.s", target: "qbe", warnings: []string{}}, []string{"x;"}},
		{[]string{"--target", "qbe/arm64", "-r", "-v"}, options{output: "-", target: "qbe/arm64", run: true, verbose: true, warnings: []string{}}, []string{}},
		{[]string{"-Wall", "-Wno-extra", "a;"}, options{output: "-", target: "x86_64", warnings: []string{"all", "no-extra"}}, []string{"a;"}},
		{[]string{"--run=false", "-", "--", "-1;"}, options{output: "-", target: "x86_64", warnings: []string{}}, []string{"-", "-1;"}},
	}
	for _, tt := range tests {
		var got options
		fs := newTestFlagSet(&got)
		if err := fs.Parse(tt.args); err != nil {
			t.Errorf("Parse(%q): %v", tt.args, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(options{})); diff != "" {
			t.Errorf("Parse(%q) options mismatch (-want +got):\n%s", tt.args, diff)
		}
		if diff := cmp.Diff(tt.pos, fs.Args()); diff != "" {
			t.Errorf("Parse(%q) args mismatch (-want +got):\n%s", tt.args, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--nope"},
		{"-x"},
		{"-o"},
		{"--target"},
		{"--run=maybe"},
		{"--=x"},
	} {
		var o options
		if err := newTestFlagSet(&o).Parse(args); err == nil {
			t.Errorf("Parse(%q): expected an error", args)
		}
	}
}

func TestAppHelp(t *testing.T) {
	var o options
	var stdout, stderr bytes.Buffer
	app := NewApp("toycc")
	app.FlagSet = newTestFlagSet(&o)
	app.Synopsis = "[options] <program>"
	app.Stdout, app.Stderr = &stdout, &stderr
	app.FlagSet.AddFlagGroup("Warning Flags", "W", "warning", []FlagGroupEntry{
		{Name: "unreachable-code", Usage: "Statements after return", Enabled: true},
		{Name: "unused-value", Usage: "Discarded values"},
	})
	called := false
	app.Action = func([]string) error { called = true; return nil }

	if err := app.Run([]string{"--help"}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("Action must not run when help is requested")
	}
	help := stdout.String()
	for _, want := range []string{"Synopsis", "-o, --output <file>", "|x86_64|", "-W<warning>", "-Wno-<warning>", "unreachable-code", "|x|", "|-|"} {
		if !strings.Contains(help, want) {
			t.Errorf("help page lacks %q:\n%s", want, help)
		}
	}
}

func TestAppUsageOnError(t *testing.T) {
	var o options
	var stdout, stderr bytes.Buffer
	app := NewApp("toycc")
	app.FlagSet = newTestFlagSet(&o)
	app.Stdout, app.Stderr = &stdout, &stderr
	if err := app.Run([]string{"--bogus"}); err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(stderr.String(), "unknown flag: --bogus") || !strings.Contains(stderr.String(), "Usage: toycc") {
		t.Errorf("unexpected stderr:\n%s", stderr.String())
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrapText mismatch (-want +got):\n%s", diff)
	}
}
