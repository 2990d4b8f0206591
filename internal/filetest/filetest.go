// Package filetest compares multi-line test output against golden files
// stored under a package's testdata directory. Each comparison helper takes
// an update flag so that running the tests with the corresponding
// -test.update-*-tests flag regenerates the golden files from the current
// output; SourceFiles only lists input files and takes none.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var updateAllTests = flag.Bool("test.update-all-tests", false, "If set, update every golden file with the actual test output.")

// SourceFiles returns the names of the regular files in dir with the
// specified extension.
func SourceFiles(t *testing.T, dir, ext string) []string {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	names := make([]string, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		names = append(names, dent.Name())
	}
	return names
}

// DiffGolden fails t with a line diff when output differs from the contents
// of goldFile. A missing golden file is treated as empty. If updateFlag or
// the package-wide update-all flag is set, it rewrites the golden file with
// output instead.
func DiffGolden(t *testing.T, goldFile, output string, updateFlag *bool) {
	t.Helper()

	if *updateFlag || *updateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if testing.Verbose() {
		t.Logf("got output:\n%s\n", output)
	}
	if patch := diff.Diff(string(wantb), output); patch != "" {
		t.Errorf("diff %s:\n%s\n", goldFile, patch)
	}
}
