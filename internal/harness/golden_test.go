package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotListing_Canonical(t *testing.T) {
	snapshot, err := SnapshotListing("py3-zip", []string{".requirements.zip", "handler.py", "unzip_requirements.py"})
	require.NoError(t, err)
	assert.Equal(t,
		`{"entries":[".requirements.zip","handler.py","unzip_requirements.py"],"scenario":"py3-zip"}`,
		string(snapshot))
}

func TestSnapshotListing_EmptyListing(t *testing.T) {
	snapshot, err := SnapshotListing("empty", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"entries":[],"scenario":"empty"}`, string(snapshot))
}

func TestSnapshotListing_Deterministic(t *testing.T) {
	entries := []string{"flask", "handler.py"}
	first, err := SnapshotListing("default-options", entries)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SnapshotListing("default-options", entries)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
