// Package maincmd implements the flag surfaces of the two CLI binaries
// (spec.md section 6): compiler and emulator. Each is a standalone
// mainer.Cmd with its own flags, following the teacher's
// internal/maincmd.Cmd shape but without its subcommand-dispatch layer,
// since section 6 specifies two independent single-purpose binaries rather
// than a multi-verb tool.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/barracuda-lang/barracuda/lang/compiler"
	"github.com/barracuda-lang/barracuda/lang/parser"
	"github.com/barracuda-lang/barracuda/lang/resolver"
)

const compilerBinName = "compiler"

var compilerUsage = fmt.Sprintf(`usage: %s <path> [--output <path>] [--env id:addr:type...] [--env-file <path>] [--stdout] [--debug]
       %[1]s -h|--help
       %[1]s -v|--version

Compiles one source file into bytecode text (spec section 6).

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --output <path>           Write the bytecode text to <path> (default:
                                 <path without extension>.bct).
       --env <spec>              Register one extern binding
                                 (identifier(*)*:address(:datatype)?(=value)?),
                                 repeatable.
       --env-file <path>         Register a YAML manifest of extern bindings.
       --stdout                  Write the bytecode text to stdout instead
                                 of a file, ignoring --output.
       --debug                   Print the resolved builtin-function table
                                 before compiling.
`, compilerBinName)

// CompilerCmd is the `compiler` binary's flag surface.
type CompilerCmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Output  string   `flag:"output"`
	Env     []string `flag:"env"`
	EnvFile string   `flag:"env-file"`
	Stdout  bool     `flag:"stdout"`
	Debug   bool     `flag:"debug"`

	args []string
}

func (c *CompilerCmd) SetArgs(args []string) { c.args = args }
func (c *CompilerCmd) SetFlags(map[string]bool) {}

func (c *CompilerCmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("exactly one source path is required, got %d", len(c.args))
	}
	return nil
}

func (c *CompilerCmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvPrefix: compilerBinName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, compilerUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, compilerUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", compilerBinName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.run(ctx, stdio); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}
	return mainer.Success
}

func (c *CompilerCmd) run(ctx context.Context, stdio mainer.Stdio) error {
	path := c.args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	externs, err := c.loadExterns()
	if err != nil {
		return err
	}

	chunk, err := parser.Parse(path, src)
	if err != nil {
		return err
	}

	res, err := resolver.Analyze(chunk, externs)
	if err != nil {
		return err
	}

	if c.Debug {
		fmt.Fprintf(stdio.Stdout, "# %d extern binding(s), %d top-level expression(s) typed\n", len(externs), len(res.TopLevel))
		for _, name := range compiler.BuiltinNames() {
			op, _ := compiler.BuiltinOp(name)
			fmt.Fprintf(stdio.Stdout, "# builtin %s -> %s\n", name, op)
		}
	}

	prog, err := compiler.Generate(chunk, res, len(externs))
	if err != nil {
		return err
	}

	text := compiler.WriteText(prog, compiler.WriteOptions{})
	if c.Stdout {
		_, err := stdio.Stdout.Write(text)
		return err
	}

	out := c.Output
	if out == "" {
		out = outputPathFor(path)
	}
	return os.WriteFile(out, text, 0o644)
}

func (c *CompilerCmd) loadExterns() (map[string]resolver.ExternBinding, error) {
	externs := make(map[string]resolver.ExternBinding)
	if c.EnvFile != "" {
		fileExterns, err := compiler.ParseExternFile(c.EnvFile)
		if err != nil {
			return nil, err
		}
		for name, b := range fileExterns {
			externs[name] = b
		}
	}
	if len(c.Env) > 0 {
		cliExterns, err := compiler.ParseExternSpecs(c.Env)
		if err != nil {
			return nil, err
		}
		for name, b := range cliExterns {
			externs[name] = b
		}
	}
	return externs, nil
}

// outputPathFor derives the default `.bct` output path from a source path by
// replacing its extension, or appending one if it has none.
func outputPathFor(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ".bct"
		}
	}
	return path + ".bct"
}
