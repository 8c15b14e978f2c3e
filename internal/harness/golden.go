package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/vrymel/serverless-python-requirements/internal/canonical"
)

// SnapshotListing renders a listing as canonical JSON, the golden file
// format.
func SnapshotListing(name string, entries []string) ([]byte, error) {
	list := make([]string, len(entries))
	copy(list, entries)
	return canonical.Marshal(map[string]any{
		"scenario": name,
		"entries":  list,
	})
}

// AssertListingGolden compares entries against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertListingGolden(t *testing.T, name string, entries []string) error {
	t.Helper()

	snapshot, err := SnapshotListing(name, entries)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)

	return nil
}
