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
	"sync"
)

// A Subscription delivers the transitions of one job, in order. It is
// closed after the terminal transition, or when the manager closes.
type Subscription struct {
	cond    *sync.Cond
	updates []*Job
	closed  bool

	unsubscribe func()
}

func newSubscription() *Subscription {
	return &Subscription{cond: sync.NewCond(&sync.Mutex{})}
}

func (s *Subscription) put(job *Job) {
	s.cond.L.Lock()
	if !s.closed {
		s.updates = append(s.updates, job.Clone())
	}
	s.cond.L.Unlock()
	s.cond.Broadcast()
}

func (s *Subscription) close() {
	s.cond.L.Lock()
	s.closed = true
	s.cond.L.Unlock()
	s.cond.Broadcast()
}

// Next blocks until the next transition is available. It returns false
// once the subscription is closed and drained, or when ctx is done.
func (s *Subscription) Next(ctx context.Context) (*Job, bool) {
	stop := context.AfterFunc(ctx, func() {
		s.cond.L.Lock()
		s.cond.L.Unlock()
		s.cond.Broadcast()
	})
	defer stop()

	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for len(s.updates) == 0 && !s.closed && ctx.Err() == nil {
		s.cond.Wait()
	}
	if len(s.updates) == 0 {
		return nil, false
	}
	job := s.updates[0]
	s.updates[0] = nil
	s.updates = s.updates[1:]
	return job, true
}

// Close stops the delivery of further transitions.
func (s *Subscription) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.close()
}
