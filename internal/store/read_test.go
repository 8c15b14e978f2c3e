package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetRun(context.Background(), "run-9999")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunCases_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.RunCases(context.Background(), "run-9999")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunCases_EmptyRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "")
	require.NoError(t, err)

	results, err := s.RunCases(ctx, run.ID)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.BeginRun(ctx, "")
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-0003", runs[0].ID)
	assert.Equal(t, "run-0001", runs[2].ID)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-0003", limited[0].ID)
	assert.Equal(t, "run-0002", limited[1].ID)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
