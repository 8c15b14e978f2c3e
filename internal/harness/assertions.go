package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/vrymel/serverless-python-requirements/internal/canonical"
	"github.com/vrymel/serverless-python-requirements/internal/fixture"
)

// Assertion types.
const (
	AssertEntryPresent = "entry_present"
	AssertEntryAbsent  = "entry_absent"
	AssertGlobEmpty    = "glob_empty"
)

// Assertion is one check over the extracted artifact directory.
type Assertion struct {
	Type string `yaml:"type"`

	// Entry is the top-level name for entry_present and entry_absent.
	Entry string `yaml:"entry,omitempty"`

	// Pattern is the doublestar pattern for glob_empty.
	Pattern string `yaml:"pattern,omitempty"`

	// Message replaces the default failure headline.
	Message string `yaml:"message,omitempty"`
}

// Listing is the top-level content of a directory.
type Listing struct {
	Dir     string
	Entries []string
}

// ListDir lists dir's immediate entries in name order. Names are NFC
// normalized so listings compare equally across filesystems.
func ListDir(dir string) (Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, canonical.Name(e.Name()))
	}
	return Listing{Dir: dir, Entries: names}, nil
}

// Contains reports whether name is one of the entries.
func (l Listing) Contains(name string) bool {
	name = canonical.Name(name)
	for _, e := range l.Entries {
		if e == name {
			return true
		}
	}
	return false
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Message  string
	Expected string
	Actual   string
	Entries  []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	if e.Message != "" {
		fmt.Fprintf(&buf, "%s\n", e.Message)
	} else {
		fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	}
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  listing: [%s]", strings.Join(e.Entries, ", "))

	return buf.String()
}

// EvaluateAssertions runs every assertion against listing and returns the
// failures. Evaluation never stops early.
func EvaluateAssertions(listing Listing, assertions []Assertion) []error {
	var failures []error
	for _, a := range assertions {
		if err := evaluate(listing, a); err != nil {
			failures = append(failures, err)
		}
	}
	return failures
}

func evaluate(listing Listing, a Assertion) error {
	switch a.Type {
	case AssertEntryPresent:
		if listing.Contains(a.Entry) {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Message:  a.Message,
			Expected: fmt.Sprintf("%s present in %s", a.Entry, listing.Dir),
			Actual:   "not listed",
			Entries:  listing.Entries,
		}
	case AssertEntryAbsent:
		if !listing.Contains(a.Entry) {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Message:  a.Message,
			Expected: fmt.Sprintf("%s absent from %s", a.Entry, listing.Dir),
			Actual:   "listed",
			Entries:  listing.Entries,
		}
	case AssertGlobEmpty:
		matches, err := fixture.Match(listing.Dir, a.Pattern)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Message:  a.Message,
			Expected: fmt.Sprintf("no paths under %s matching %s", listing.Dir, a.Pattern),
			Actual:   fmt.Sprintf("%d match(es): %s", len(matches), strings.Join(matches, ", ")),
			Entries:  listing.Entries,
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}
