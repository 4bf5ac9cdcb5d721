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
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// FunctionTool is a tool that wraps a function.
type FunctionTool struct {
	// The name of the tool, as shown to the LLM.
	Name string

	// A description of the tool, as shown to the LLM.
	Description string

	// The JSON schema for the tool's parameters.
	ParamsJSONSchema map[string]any

	// A function that invokes the tool with the given context and parameters.
	//
	// The arguments are already repaired and validated against
	// ParamsJSONSchema. The returned value is sent back to the model:
	// strings verbatim, anything else JSON-encoded.
	OnInvokeTool func(ctx context.Context, arguments string) (any, error)

	// Compiled form of ParamsJSONSchema, when available.
	schema *gojsonschema.Schema
}

// NewFunctionTool creates a FunctionTool whose parameter schema is reflected
// from the Args struct. Field descriptions come from `jsonschema` tags, and
// fields without `omitempty` are required.
func NewFunctionTool[Args, Out any](
	name, description string,
	handler func(ctx context.Context, args Args) (Out, error),
) FunctionTool {
	schemaMap := reflectSchema(reflect.TypeFor[Args](), name)
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		// Reflected schemas are always loadable.
		panic(fmt.Errorf("tool %s: invalid parameters schema: %w", name, err))
	}
	return FunctionTool{
		Name:             name,
		Description:      description,
		ParamsJSONSchema: schemaMap,
		OnInvokeTool: func(ctx context.Context, arguments string) (any, error) {
			var args Args
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to parse arguments: %w", err)
			}
			return handler(ctx, args)
		},
		schema: compiled,
	}
}

func reflectSchema(t reflect.Type, name string) map[string]any {
	if t.Kind() != reflect.Struct || t.NumField() == 0 {
		return map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		}
	}

	reflector := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: false,
		AllowAdditionalProperties:  false,
	}
	reflector.Namer = func(rt reflect.Type) string {
		if rt == t {
			return name + "Params"
		}
		return rt.Name()
	}

	schemaBytes, _ := json.Marshal(reflector.ReflectFromType(t))
	var schemaMap map[string]any
	_ = json.Unmarshal(schemaBytes, &schemaMap)

	// Model providers reject meta keywords in function parameters.
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap
}

// Invoke repairs and validates the raw model arguments, runs the tool and
// returns its output as text.
//
// Malformed or invalid arguments give a ModelBehaviorError; a failure of the
// function itself gives a ToolError.
func (t FunctionTool) Invoke(ctx context.Context, arguments string) (string, error) {
	args, err := RepairJSON(arguments)
	if err != nil {
		return "", ModelBehaviorErrorf("invalid JSON input for tool %s: %w", t.Name, err)
	}

	schema := t.schema
	if schema == nil && t.ParamsJSONSchema != nil {
		schema, err = gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.ParamsJSONSchema))
		if err != nil {
			return "", UserErrorf("tool %s has an invalid parameters schema: %w", t.Name, err)
		}
	}
	if schema != nil {
		if err := ValidateJSON(schema, args); err != nil {
			return "", err
		}
	}

	if t.OnInvokeTool == nil {
		return "", UserErrorf("tool %s has no implementation", t.Name)
	}
	out, err := t.OnInvokeTool(ctx, args)
	if err != nil {
		return "", ToolError{ToolName: t.Name, Err: err}
	}
	return stringifyOutput(out)
}

func stringifyOutput(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to JSON-marshal tool output: %w", err)
	}
	return string(b), nil
}

// toolErrorOutput is the text handed back to the model when a tool fails.
func toolErrorOutput(err error) string {
	b, _ := json.Marshal(map[string]string{"error": strings.TrimSpace(err.Error())})
	return string(b)
}
