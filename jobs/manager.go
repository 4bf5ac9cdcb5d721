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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long finished jobs are kept.
const DefaultTTL = time.Hour

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("job manager is closed")

// Func is the work of a job. Its result is stored as JSON.
type Func func(ctx context.Context) (any, error)

type ManagerParams struct {
	// Optional job store. Defaults to a new MemoryStore.
	Store Store

	// Optional retention of finished jobs. Defaults to DefaultTTL;
	// a negative value keeps jobs forever.
	TTL time.Duration

	// Optional interval between sweeps of expired jobs. Zero disables
	// sweeping; expired jobs are then only removed when their status is read.
	PurgeInterval time.Duration

	// Optional clock. Defaults to time.Now.
	Now func() time.Time
}

// Manager runs jobs in background goroutines and records each transition
// in its store.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	done   map[string]chan struct{}
	subs   map[string]map[*Subscription]struct{}
}

func NewManager(params ManagerParams) *Manager {
	m := &Manager{
		store: params.Store,
		ttl:   params.TTL,
		now:   params.Now,
		done:  make(map[string]chan struct{}),
		subs:  make(map[string]map[*Subscription]struct{}),
	}
	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.ttl == 0 {
		m.ttl = DefaultTTL
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	if params.PurgeInterval > 0 {
		m.wg.Add(1)
		go m.sweep(params.PurgeInterval)
	}
	return m
}

// Store returns the store of m.
func (m *Manager) Store() Store {
	return m.store
}

// Start records a new job and runs fn in the background. The context only
// bounds the initial save: fn runs until it returns or the manager closes.
func (m *Manager) Start(ctx context.Context, spec Spec, fn Func) (*Job, error) {
	job := &Job{
		ID:           uuid.NewString(),
		Kind:         spec.Kind,
		Status:       StatusStarted,
		Progress:     ProgressStarted,
		Symbol:       spec.Symbol,
		AnalysisType: spec.AnalysisType,
		StartedAt:    m.now(),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	done := make(chan struct{})
	m.done[job.ID] = done
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.store.Save(ctx, job); err != nil {
		m.finish(job.ID, done)
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	Logger().Info("job started", "task_id", job.ID, "kind", job.Kind, "symbol", job.Symbol)
	go m.run(job.Clone(), fn, done)
	return job, nil
}

func (m *Manager) finish(id string, done chan struct{}) {
	m.mu.Lock()
	delete(m.done, id)
	m.mu.Unlock()
	close(done)
	m.wg.Done()
}

func (m *Manager) run(job *Job, fn Func, done chan struct{}) {
	defer m.finish(job.ID, done)

	job.Status = StatusProcessing
	job.Progress = ProgressProcessing
	m.update(m.ctx, job)

	result, err := call(m.ctx, fn)
	if err == nil {
		job.Result, err = json.Marshal(result)
	}

	now := m.now()
	if err != nil {
		Logger().Error("job failed", "task_id", job.ID, "error", err)
		job.Status = StatusFailed
		job.Error = err.Error()
		job.Result = nil
		job.FailedAt = &now
	} else {
		Logger().Info("job completed", "task_id", job.ID)
		job.Status = StatusCompleted
		job.Progress = ProgressCompleted
		job.CompletedAt = &now
	}
	m.update(context.WithoutCancel(m.ctx), job)
}

func call(ctx context.Context, fn Func) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (m *Manager) update(ctx context.Context, job *Job) {
	if err := m.store.Save(ctx, job); err != nil {
		Logger().Error("failed to save job", "task_id", job.ID, "error", err)
	}
	m.publish(job)
}

func (m *Manager) publish(job *Job) {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs[job.ID]))
	for s := range m.subs[job.ID] {
		subs = append(subs, s)
	}
	if job.Status.Terminal() {
		delete(m.subs, job.ID)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s.put(job)
		if job.Status.Terminal() {
			s.close()
		}
	}
}

// Status returns the job with the given ID, or ErrNotFound. A job that
// finished more than the TTL ago is returned one last time and removed.
func (m *Manager) Status(ctx context.Context, id string) (*Job, error) {
	job, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Expired(m.now(), m.ttl) {
		Logger().Debug("removing expired job", "task_id", id)
		if err := m.store.Delete(ctx, id); err != nil {
			Logger().Warn("failed to remove expired job", "task_id", id, "error", err)
		}
	}
	return job, nil
}

// Subscribe returns a subscription to the transitions of a job. The current
// state is delivered first, so the next transition may repeat it.
func (m *Manager) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	sub := newSubscription()
	sub.put(job)
	if job.Status.Terminal() || m.closed {
		sub.close()
		return sub, nil
	}

	if m.subs[id] == nil {
		m.subs[id] = make(map[*Subscription]struct{})
	}
	m.subs[id][sub] = struct{}{}
	sub.unsubscribe = func() {
		m.mu.Lock()
		delete(m.subs[id], sub)
		m.mu.Unlock()
	}
	return sub, nil
}

// Wait blocks until the job is finished and returns it.
func (m *Manager) Wait(ctx context.Context, id string) (*Job, error) {
	m.mu.Lock()
	done, running := m.done[id]
	m.mu.Unlock()

	if running {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.store.Load(ctx, id)
}

// Purge removes every expired job and returns how many were removed.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	jobs, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	now := m.now()
	var n int
	var errs []error
	for _, job := range jobs {
		if !job.Expired(now, m.ttl) {
			continue
		}
		if err := m.store.Delete(ctx, job.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func (m *Manager) sweep(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Purge(m.ctx)
			if err != nil {
				Logger().Warn("job purge failed", "error", err)
			}
			if n > 0 {
				Logger().Debug("purged expired jobs", "count", n)
			}
		}
	}
}

// Close cancels the running jobs and waits for them to record their final
// state. Remaining subscriptions are closed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	var subs []*Subscription
	for _, set := range m.subs {
		for s := range set {
			subs = append(subs, s)
		}
	}
	clear(m.subs)
	m.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}

var jobsLogger atomic.Pointer[slog.Logger]

func init() {
	jobsLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func Logger() *slog.Logger {
	return jobsLogger.Load()
}

// SetLogger replaces the package logger. A nil value is ignored.
func SetLogger(l *slog.Logger) {
	if l != nil {
		jobsLogger.Store(l)
	}
}
