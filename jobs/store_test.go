// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package jobs

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJobs() []*Job {
	started := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	completed := started.Add(time.Minute)
	return []*Job{
		{
			ID:           "job-1",
			Kind:         "stock",
			Status:       StatusCompleted,
			Progress:     ProgressCompleted,
			Symbol:       "AAPL",
			AnalysisType: "quick",
			StartedAt:    started,
			CompletedAt:  &completed,
			Result:       json.RawMessage(`"report"`),
		},
		{
			ID:        "job-2",
			Kind:      "stock",
			Status:    StatusProcessing,
			Progress:  ProgressProcessing,
			Symbol:    "MSFT",
			StartedAt: started.Add(time.Second),
		},
	}
}

// testStore runs the behavior shared by every Store implementation.
func testStore(t *testing.T, s Store) {
	ctx := t.Context()
	jobs := sampleJobs()
	for _, job := range jobs {
		require.NoError(t, s.Save(ctx, job))
	}

	got, err := s.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.JSONEq(t, `"report"`, string(got.Result))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, jobs[0].CompletedAt.Equal(*got.CompletedAt))

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Saving again replaces the job in place.
	jobs[1].Status = StatusFailed
	jobs[1].Error = "timeout"
	require.NoError(t, s.Save(ctx, jobs[1]))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "job-1", list[0].ID)
	assert.Equal(t, "job-2", list[1].ID)
	assert.Equal(t, StatusFailed, list[1].Status)
	assert.Equal(t, "timeout", list[1].Error)

	require.NoError(t, s.Delete(ctx, "job-1"))
	require.NoError(t, s.Delete(ctx, "job-1"))
	_, err = s.Load(ctx, "job-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	job := sampleJobs()[0]
	require.NoError(t, s.Save(t.Context(), job))

	job.Status = StatusFailed
	got, err := s.Load(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	got.Result[1] = 'X'
	again, err := s.Load(t.Context(), job.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `"report"`, string(again.Result))
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(t.Context(), SQLiteStoreParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "jobs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })

	testStore(t, s)
}

func TestSQLiteStore_Persists(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "jobs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(ctx, SQLiteStoreParams{DBDataSourceName: dsn, Table: "custom_jobs"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleJobs()[0]))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, SQLiteStoreParams{DBDataSourceName: dsn, Table: "custom_jobs"})
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	got, err := s.Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "quick", got.AnalysisType)
}

func TestManager_WithSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(t.Context(), SQLiteStoreParams{
		DBDataSourceName: filepath.Join(t.TempDir(), "jobs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })

	m := NewManager(ManagerParams{Store: s})
	t.Cleanup(m.Close)

	job, err := m.Start(t.Context(), Spec{Kind: "stock", Symbol: "NVDA"}, func(ctx context.Context) (any, error) {
		return map[string]string{"final_report": "buy"}, nil
	})
	require.NoError(t, err)

	done, err := m.Wait(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.JSONEq(t, `{"final_report":"buy"}`, string(done.Result))
}
