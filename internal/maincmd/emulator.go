package maincmd

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/barracuda-lang/barracuda/lang/compiler"
	"github.com/barracuda-lang/barracuda/lang/machine"
)

const emulatorBinName = "emulator"

var emulatorUsage = fmt.Sprintf(`usage: %s <path> [--stack-size N] [--debug]
       %[1]s -h|--help
       %[1]s -v|--version

Runs a compiled bytecode text file to completion (spec section 6).

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --stack-size N            Override the program's recommended max
                                 operand-stack depth (default: the
                                 RECOMMENDED_STACKSIZE header, unbounded if
                                 that header is absent or zero).
       --debug                   After execution, print the final operand
                                 stack, environment variables and live heap
                                 regions (the out-of-scope terminal UI's
                                 snapshot-based substitute, see
                                 Thread.StackSnapshot/EnvVarSnapshot/
                                 HeapSnapshot).
`, emulatorBinName)

// EmulatorCmd is the `emulator` binary's flag surface.
type EmulatorCmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	StackSize int  `flag:"stack-size"`
	Debug     bool `flag:"debug"`

	args []string
}

func (c *EmulatorCmd) SetArgs(args []string)    { c.args = args }
func (c *EmulatorCmd) SetFlags(map[string]bool) {}

func (c *EmulatorCmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) != 1 {
		return fmt.Errorf("exactly one bytecode path is required, got %d", len(c.args))
	}
	return nil
}

func (c *EmulatorCmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvPrefix: emulatorBinName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, emulatorUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, emulatorUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", emulatorBinName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	if err := c.run(stdio); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return mainer.Failure
	}
	return mainer.Success
}

func (c *EmulatorCmd) run(stdio mainer.Stdio) error {
	path := c.args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	prog, err := compiler.ReadText(data, compiler.ReadOptions{})
	if err != nil {
		return err
	}

	maxStack := c.StackSize
	if maxStack == 0 {
		maxStack = prog.MaxStackSize
	}

	th := machine.NewThread(prog, nil, nil, maxStack)
	th.Out = stdio.Stdout
	if err := th.Run(); err != nil {
		return err
	}

	if c.Debug {
		printDebugSnapshot(stdio, th)
	}
	return nil
}

func printDebugSnapshot(stdio mainer.Stdio, th *machine.Thread) {
	fmt.Fprintf(stdio.Stdout, "# stack (%d entries)\n", th.StackDepth())
	for i, v := range th.StackSnapshot() {
		fmt.Fprintf(stdio.Stdout, "%d: %v\n", i, v)
	}
	fmt.Fprintln(stdio.Stdout, "# env vars")
	for _, ev := range th.EnvVarSnapshot() {
		fmt.Fprintf(stdio.Stdout, "%s @ %d = %v\n", ev.Name, ev.Address, ev.Value)
	}
	fmt.Fprintln(stdio.Stdout, "# heap regions")
	for region, buf := range th.HeapSnapshot() {
		fmt.Fprintf(stdio.Stdout, "region %d: %d byte(s)\n", region, len(buf))
	}
}
