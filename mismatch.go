package envelope

import (
	"fmt"
	"sort"
	"strings"
)

// VersionPair holds the version recorded at dump time next to the version
// found by the loading environment. Missing marks distributions the loading
// environment does not have at all.
type VersionPair struct {
	Recorded string
	Current  string
	Missing  bool
}

func (p VersionPair) describe() string {
	if p.Missing {
		return fmt.Sprintf("recorded %s, missing", p.Recorded)
	}
	return fmt.Sprintf("recorded %s, current %s", p.Recorded, p.Current)
}

// Mismatch maps distribution names to their diverging version pairs. A nil
// Mismatch means the environments agree on every recorded package.
type Mismatch map[string]VersionPair

// Distributions returns the mismatched distribution names sorted
// alphabetically.
func (m Mismatch) Distributions() []string {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	mismatchMessage = "envelope: packages from the dump and load environments do not match"

	mismatchDecodeMessage = "envelope: decoding the payload failed; packages from the dump " +
		"and load environments do not match and may explain the failure"
)

// MismatchError carries a populated Mismatch. After a successful load it is
// delivered to the configured WarningHandler; after a failed decode it is
// returned with the decode failure as its cause.
type MismatchError struct {
	Mismatches Mismatch

	msg   string
	cause error
}

func newMismatchWarning(m Mismatch) *MismatchError {
	return &MismatchError{Mismatches: m, msg: mismatchMessage}
}

func newMismatchFailure(m Mismatch, cause error) *MismatchError {
	return &MismatchError{Mismatches: m, msg: mismatchDecodeMessage, cause: cause}
}

func (e *MismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.msg)
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	if len(e.Mismatches) > 0 {
		b.WriteString("\ndetails of recorded, current versions:")
		for _, name := range e.Mismatches.Distributions() {
			fmt.Fprintf(&b, "\n%s: %s", name, e.Mismatches[name].describe())
		}
	}
	return b.String()
}

func (e *MismatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}
