//go:build unix

package testfs

import "testing"

// Harness wraps the common fixture lifecycle: build a FileTree fixture
// under a fresh t.TempDir(), then let the test run the pipeline against
// Root() and assert on the result.
type Harness struct {
	t    *testing.T
	root string
}

// New creates a Harness and materializes given under a fresh temp
// directory.
func New(t *testing.T, given FileTree) *Harness {
	t.Helper()
	root := t.TempDir()
	if err := Sow(root, given); err != nil {
		t.Fatalf("sow fixture: %v", err)
	}
	return &Harness{t: t, root: root}
}

// Root returns the fixture's temporary root directory.
func (h *Harness) Root() string { return h.root }
