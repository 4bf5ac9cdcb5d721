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
// Package jobs runs long analyses in the background and tracks their
// status, so that clients can poll or stream it.
package jobs

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned for unknown job IDs.
var ErrNotFound = errors.New("job not found")

type Status string

const (
	StatusStarted    Status = "started"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress percentages reported for each stage.
const (
	ProgressStarted    = 0
	ProgressProcessing = 25
	ProgressCompleted  = 100
)

// Spec describes the work of a job.
type Spec struct {
	Kind         string
	Symbol       string
	AnalysisType string
}

// A Job is a snapshot of a background analysis.
type Job struct {
	ID           string          `json:"task_id"`
	Kind         string          `json:"kind,omitempty"`
	Status       Status          `json:"status"`
	Progress     int             `json:"progress"`
	Symbol       string          `json:"symbol,omitempty"`
	AnalysisType string          `json:"analysis_type,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	FailedAt     *time.Time      `json:"failed_at,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// FinishedAt returns when the job completed or failed.
func (j *Job) FinishedAt() (time.Time, bool) {
	switch {
	case j.CompletedAt != nil:
		return *j.CompletedAt, true
	case j.FailedAt != nil:
		return *j.FailedAt, true
	default:
		return time.Time{}, false
	}
}

// Expired reports whether j finished more than ttl before now.
func (j *Job) Expired(now time.Time, ttl time.Duration) bool {
	if !j.Status.Terminal() || ttl <= 0 {
		return false
	}
	at, ok := j.FinishedAt()
	return ok && now.Sub(at) > ttl
}

// Clone returns a deep copy of j.
func (j *Job) Clone() *Job {
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.FailedAt != nil {
		t := *j.FailedAt
		c.FailedAt = &t
	}
	if j.Result != nil {
		c.Result = append(json.RawMessage(nil), j.Result...)
	}
	return &c
}

func marshalJob(j *Job) (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJob(data string) (*Job, error) {
	var j Job
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, err
	}
	return &j, nil
}
