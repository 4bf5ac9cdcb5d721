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

import "context"

// A Prompter turns a prompt into a text answer. It is the only thing the
// application layer needs from an agent.
type Prompter interface {
	Prompt(ctx context.Context, text string) (string, error)
}

// AgentPrompter answers prompts by running an Agent.
type AgentPrompter struct {
	Agent  *Agent
	Runner Runner
}

func (p AgentPrompter) Prompt(ctx context.Context, text string) (string, error) {
	result, err := p.Runner.Run(ctx, p.Agent, text)
	if err != nil {
		return "", err
	}
	return result.FinalOutput, nil
}

// PrompterFunc adapts a plain function to the Prompter interface.
type PrompterFunc func(ctx context.Context, text string) (string, error)

func (f PrompterFunc) Prompt(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}
