package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// goldenTest runs testdata/<name>.lox and compares its output, line by line,
// to testdata/<name>.expected.
func goldenTest(t *testing.T, name string) {
	t.Helper()
	dir := filepath.Join("..", "..", "testdata")

	source, err := os.ReadFile(filepath.Join(dir, name+".lox"))
	if err != nil {
		t.Fatal(err)
	}
	expected, err := os.ReadFile(filepath.Join(dir, name+".expected"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := runSource(t, string(source))
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	if diff := cmp.Diff(lines(string(expected)), lines(got)); diff != "" {
		t.Errorf("%s: output mismatch (-want +got):\n%s", name, diff)
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestGolden(t *testing.T) {
	for _, name := range []string{"golden_closures", "golden_classes", "golden_control"} {
		t.Run(name, func(t *testing.T) {
			goldenTest(t, name)
		})
	}
}
