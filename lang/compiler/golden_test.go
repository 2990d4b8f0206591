package compiler

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/barracuda-lang/barracuda/internal/filetest"
	"github.com/stretchr/testify/require"
)

var testUpdateBytecodeTests = flag.Bool("test.update-bytecode-tests", false, "If set, replace expected bytecode text results with actual results.")

// TestReadWriteTextGolden parses each testdata bytecode file and checks that
// re-serializing it yields the canonical form stored in the golden file:
// indentation and blank lines are dropped, comments reattach to the token
// they precede, and value literals print in their shortest form.
func TestReadWriteTextGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, name := range filetest.SourceFiles(t, srcDir, ".bct") {
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(srcDir, name))
			require.NoError(t, err)

			p, err := ReadText(data, ReadOptions{})
			require.NoError(t, err)

			out := WriteText(p, WriteOptions{})
			filetest.DiffGolden(t, filepath.Join(resultDir, name+".want"), string(out), testUpdateBytecodeTests)
		})
	}
}
