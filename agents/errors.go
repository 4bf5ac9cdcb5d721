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

package agents

import (
	"errors"
	"fmt"
)

// MaxTurnsExceededError is returned when the maximum number of turns is exceeded.
type MaxTurnsExceededError struct {
	MaxTurns int
}

func (err MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("max turns (%d) exceeded", err.MaxTurns)
}

// ModelBehaviorError is returned when the model does something unexpected,
// e.g. calling a tool that doesn't exist, or providing malformed JSON.
type ModelBehaviorError struct {
	err error
}

func (err ModelBehaviorError) Error() string { return err.err.Error() }
func (err ModelBehaviorError) Unwrap() error { return err.err }

func NewModelBehaviorError(message string) ModelBehaviorError {
	return ModelBehaviorError{err: errors.New(message)}
}

func ModelBehaviorErrorf(format string, a ...any) ModelBehaviorError {
	return ModelBehaviorError{err: fmt.Errorf(format, a...)}
}

// UserError is returned when the runtime is misconfigured,
// e.g. an agent without a model.
type UserError struct {
	err error
}

func (err UserError) Error() string { return err.err.Error() }
func (err UserError) Unwrap() error { return err.err }

func NewUserError(message string) UserError {
	return UserError{err: errors.New(message)}
}

func UserErrorf(format string, a ...any) UserError {
	return UserError{err: fmt.Errorf(format, a...)}
}

// ToolError reports the failure of a single tool invocation.
// The runner feeds its message back to the model instead of aborting the run.
type ToolError struct {
	ToolName string
	Err      error
}

func (err ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", err.ToolName, err.Err)
}

func (err ToolError) Unwrap() error { return err.Err }
