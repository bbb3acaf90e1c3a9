// Package provenance stamps output tables with a best-effort origin: the
// git revision of the working tree, if any, and a unique run identifier.
// A missing revision never fails a run; headers simply omit it.
package provenance

import (
	"os/exec"
	"strings"

	"github.com/google/uuid"
)

// Revision returns the git revision of the current working tree, or an
// error if none can be determined. Callers treat the error as degradable.
func Revision() (string, error) {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RevisionOrEmpty returns the git revision, or "" when unavailable.
func RevisionOrEmpty() string {
	rev, err := Revision()
	if err != nil {
		return ""
	}
	return rev
}

// RunID returns a unique identifier for one pipeline invocation.
func RunID() string {
	return uuid.NewString()
}
