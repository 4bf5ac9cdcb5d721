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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m := NewManager(ManagerParams{Now: clock.Now})
	t.Cleanup(m.Close)
	return m
}

func TestManager_Completed(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, clock)

	job, err := m.Start(t.Context(), Spec{Kind: "stock", Symbol: "AAPL", AnalysisType: "quick"}, func(ctx context.Context) (any, error) {
		return "# AAPL report", nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusStarted, job.Status)
	assert.Equal(t, ProgressStarted, job.Progress)
	assert.NotEmpty(t, job.ID)

	done, err := m.Wait(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, ProgressCompleted, done.Progress)
	assert.Equal(t, "AAPL", done.Symbol)
	assert.Equal(t, "quick", done.AnalysisType)
	assert.JSONEq(t, `"# AAPL report"`, string(done.Result))
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, clock.Now(), done.CompletedAt.UTC())
	assert.Nil(t, done.FailedAt)
	assert.Empty(t, done.Error)
}

func TestManager_Failed(t *testing.T) {
	m := newTestManager(t, newFakeClock())

	job, err := m.Start(t.Context(), Spec{Kind: "stock"}, func(ctx context.Context) (any, error) {
		return nil, errors.New("model unavailable")
	})
	require.NoError(t, err)

	done, err := m.Wait(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, ProgressProcessing, done.Progress)
	assert.Equal(t, "model unavailable", done.Error)
	assert.NotNil(t, done.FailedAt)
	assert.Nil(t, done.Result)
}

func TestManager_RecoversPanics(t *testing.T) {
	m := newTestManager(t, newFakeClock())

	job, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) {
		panic("boom")
	})
	require.NoError(t, err)

	done, err := m.Wait(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, done.Status)
	assert.Equal(t, "job panicked: boom", done.Error)
}

func TestManager_StatusNotFound(t *testing.T) {
	m := newTestManager(t, newFakeClock())
	_, err := m.Status(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_StatusPurgesExpiredJobs(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, clock)

	job, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	_, err = m.Wait(t.Context(), job.ID)
	require.NoError(t, err)

	clock.Advance(DefaultTTL)
	got, err := m.Status(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	clock.Advance(time.Second)
	got, err = m.Status(t.Context(), job.ID)
	require.NoError(t, err, "an expired job is returned one last time")
	assert.Equal(t, StatusCompleted, got.Status)

	_, err = m.Status(t.Context(), job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_Purge(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, clock)

	finished, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) { return nil, nil })
	require.NoError(t, err)
	_, err = m.Wait(t.Context(), finished.ID)
	require.NoError(t, err)

	release := make(chan struct{})
	running, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	require.NoError(t, err)

	clock.Advance(2 * DefaultTTL)
	n, err := m.Purge(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	jobs, err := m.Store().List(t.Context())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, running.ID, jobs[0].ID)

	close(release)
	_, err = m.Wait(t.Context(), running.ID)
	require.NoError(t, err)
}

func TestManager_Subscribe(t *testing.T) {
	m := newTestManager(t, newFakeClock())

	release := make(chan struct{})
	job, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) {
		<-release
		return "done", nil
	})
	require.NoError(t, err)

	sub, err := m.Subscribe(t.Context(), job.ID)
	require.NoError(t, err)
	defer sub.Close()
	close(release)

	var statuses []Status
	for {
		update, ok := sub.Next(t.Context())
		if !ok {
			break
		}
		assert.Equal(t, job.ID, update.ID)
		statuses = append(statuses, update.Status)
	}

	require.NotEmpty(t, statuses)
	assert.Equal(t, StatusCompleted, statuses[len(statuses)-1])
	for _, s := range statuses[:len(statuses)-1] {
		assert.Contains(t, []Status{StatusStarted, StatusProcessing}, s)
	}
}

func TestManager_SubscribeFinishedJob(t *testing.T) {
	m := newTestManager(t, newFakeClock())

	job, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) { return nil, nil })
	require.NoError(t, err)
	_, err = m.Wait(t.Context(), job.ID)
	require.NoError(t, err)

	sub, err := m.Subscribe(t.Context(), job.ID)
	require.NoError(t, err)

	update, ok := sub.Next(t.Context())
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, update.Status)

	_, ok = sub.Next(t.Context())
	assert.False(t, ok)

	_, err = m.Subscribe(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscription_NextHonorsContext(t *testing.T) {
	sub := newSubscription()
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, ok := sub.Next(ctx)
	assert.False(t, ok)
}

func TestManager_CloseCancelsRunningJobs(t *testing.T) {
	m := NewManager(ManagerParams{})

	started := make(chan struct{})
	job, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	m.Close()

	got, err := m.Store().Load(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, context.Canceled.Error(), got.Error)

	_, err = m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManager_PurgeInterval(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(ManagerParams{Now: clock.Now, TTL: time.Minute, PurgeInterval: time.Millisecond})
	defer m.Close()

	job, err := m.Start(t.Context(), Spec{}, func(ctx context.Context) (any, error) { return nil, nil })
	require.NoError(t, err)
	_, err = m.Wait(t.Context(), job.ID)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool {
		_, err := m.Store().Load(t.Context(), job.ID)
		return errors.Is(err, ErrNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestJob_Expired(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	finished := now.Add(-2 * time.Hour)

	assert.True(t, (&Job{Status: StatusCompleted, CompletedAt: &finished}).Expired(now, time.Hour))
	assert.True(t, (&Job{Status: StatusFailed, FailedAt: &finished}).Expired(now, time.Hour))
	assert.False(t, (&Job{Status: StatusCompleted, CompletedAt: &finished}).Expired(now, -1))
	assert.False(t, (&Job{Status: StatusProcessing}).Expired(now, time.Hour))
}
