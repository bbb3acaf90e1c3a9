package provenance

import "testing"

func TestRunIDUnique(t *testing.T) {
	a, b := RunID(), RunID()
	if a == "" || b == "" {
		t.Fatal("empty run ID")
	}
	if a == b {
		t.Errorf("run IDs collide: %s", a)
	}
}

func TestRevisionOrEmptyNeverPanics(t *testing.T) {
	// Inside or outside a git checkout this must degrade, not fail.
	_ = RevisionOrEmpty()
}
