// Package filetest runs golden-file tests: each source file of a directory
// is processed and the printed output is compared with the expected results
// stored alongside.
package filetest

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/mna/mainer"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// Golden describes a directory of source files and the directory of their
// expected results. For a source file "a.srcfn", the expected standard output
// is in "a.srcfn.want" and the expected standard error in "a.srcfn.err". A
// missing result file is the same as an empty one.
type Golden struct {
	SrcDir    string
	ResultDir string
	Ext       string // extension of the source files, all files if empty

	// Update, if set and true, rewrites the result files with the actual
	// output instead of comparing them.
	Update *bool
}

// Run runs fn as a subtest for each source file of g.SrcDir, with the path of
// the file and a Stdio that captures its output. The output is then compared
// with the result files.
func (g Golden) Run(t *testing.T, fn func(t *testing.T, stdio mainer.Stdio, file string)) {
	t.Helper()

	for _, name := range g.files(t) {
		t.Run(name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			file := filepath.Join(g.SrcDir, name)
			fn(t, mainer.Stdio{Stdout: &out, Stderr: &errOut}, file)

			g.compare(t, "output", filepath.Join(g.ResultDir, name+".want"), out.String())
			g.compare(t, "errors", filepath.Join(g.ResultDir, name+".err"), errOut.String())

			if t.Failed() && testing.Verbose() {
				if b, err := os.ReadFile(file); err == nil {
					t.Logf("source file:\n%s\n", b)
				}
			}
		})
	}
}

func (g Golden) files(t *testing.T) []string {
	t.Helper()

	ext := g.Ext
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	dents, err := os.ReadDir(g.SrcDir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, dent := range dents {
		if !dent.Type().IsRegular() || (ext != "" && filepath.Ext(dent.Name()) != ext) {
			continue
		}
		names = append(names, dent.Name())
	}
	sort.Strings(names)
	return names
}

func (g Golden) compare(t *testing.T, label, goldFile, got string) {
	t.Helper()

	if *testUpdateAllTests || (g.Update != nil && *g.Update) {
		if got == "" {
			if err := os.Remove(goldFile); err != nil && !os.IsNotExist(err) {
				t.Fatal(err)
			}
			return
		}
		if err := os.WriteFile(goldFile, []byte(got), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	b, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, got)
	}
	if patch := diff.Diff(string(b), got); patch != "" {
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
