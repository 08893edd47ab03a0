package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/xplshn/toycc/pkg/cli"
	"github.com/xplshn/toycc/pkg/compiler"
	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/diag"
)

const sourceName = "<program>"

func main() {
	app := cli.NewApp("toycc")
	app.Synopsis = "[options] <program-text>"
	app.Description = "A compiler for a tiny expression language of integer arithmetic, comparisons, local variables and return. Pass the whole program as one argument; use '--' before programs that start with '-'."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/toycc>"

	var (
		outFile   string
		target    string
		warnFlags []string
		dumpIR    bool
		dumpAST   bool
		run       bool
		link      bool
		verbose   bool
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "-", "Place the output into <file>, '-' for stdout.", "file")
	fs.String(&target, "target", "t", "x86_64", "Set the backend and target ABI (x86_64, qbe, qbe/<target>).", "backend/target")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Dump the stack IR and exit.")
	fs.Bool(&dumpAST, "dump-ast", "a", false, "Dump one tree per statement and exit.")
	fs.Bool(&run, "run", "r", false, "Execute the program on the IR interpreter and print its result.")
	fs.Bool(&link, "link", "l", false, "Assemble and link the output into an executable with 'cc'.")
	fs.Bool(&verbose, "verbose", "v", false, "Report pipeline progress on stderr.")
	fs.Special(&warnFlags, "W", "Enable or disable a warning (-Wall, -Wno-<warning>).", "warning")

	cfg := config.NewConfig()
	fs.AddFlagGroup("Warning Flags", "W", "warning", warningEntries(cfg))

	app.Action = func(args []string) error {
		if len(args) != 1 {
			return fail("expected exactly one program argument, got %d", len(args))
		}
		src := args[0]

		if verbose {
			cfg.Log = os.Stderr
		}
		for _, w := range warnFlags {
			if err := cfg.ApplyFlag("-W" + w); err != nil {
				return fail("%v", err)
			}
		}
		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
			return fail("%v", err)
		}

		printer := diag.NewStderrPrinter(diag.Source{Name: sourceName, Text: src})
		res, err := compiler.Compile(src, cfg)
		if err != nil {
			var d *diag.Error
			if errors.As(err, &d) {
				printer.Error(d)
				return err
			}
			return fail("%v", err)
		}
		for _, w := range res.Warnings {
			printer.Warning(w, cfg)
		}

		switch {
		case dumpAST:
			return writeOutput(outFile, []byte(res.AST.Dump()))
		case dumpIR:
			return writeOutput(outFile, []byte(res.IR.String()))
		case run:
			cfg.Infof("running on the IR interpreter")
			v, err := res.Run()
			if err != nil {
				return fail("%v", err)
			}
			return writeOutput(outFile, []byte(fmt.Sprintf("%d\n", v)))
		}

		asm, err := res.Emit(cfg)
		if err != nil {
			return fail("%v", err)
		}
		if link {
			if outFile == "-" {
				outFile = "a.out"
			}
			cfg.Infof("linking to create '%s'", outFile)
			if err := assembleAndLink(outFile, asm.String()); err != nil {
				return fail("assembler/linker failed: %v", err)
			}
			return nil
		}
		return writeOutput(outFile, asm.Bytes())
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func fail(format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "toycc: error: %v\n", err)
	return err
}

func warningEntries(cfg *config.Config) []cli.FlagGroupEntry {
	var entries []cli.FlagGroupEntry
	for i := config.Warning(0); i < config.WarnCount; i++ {
		info := cfg.Warnings[i]
		entries = append(entries, cli.FlagGroupEntry{Name: info.Name, Usage: info.Description, Enabled: info.Enabled})
	}
	return entries
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fail("could not write '%s': %v", path, err)
	}
	return nil
}

func assembleAndLink(outFile, asm string) error {
	asmFile, err := os.CreateTemp("", "toycc-main-*.s")
	if err != nil {
		return fmt.Errorf("failed to create temp file for asm: %w", err)
	}
	defer os.Remove(asmFile.Name())
	if _, err := asmFile.WriteString(asm); err != nil {
		asmFile.Close()
		return fmt.Errorf("failed to write temp file for asm: %w", err)
	}
	asmFile.Close()

	cmd := exec.Command("cc", "-no-pie", "-o", outFile, asmFile.Name())
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc command failed: %w\nOutput:\n%s", err, string(output))
	}
	return nil
}
