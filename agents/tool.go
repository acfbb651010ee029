// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"encoding/json"
	"strings"
)

// NameSeparator joins a plugin name and a function name into the qualified
// name exposed to the model.
const NameSeparator = "-"

// QualifiedName joins a plugin name and function name ("plugin-function").
// An empty plugin yields the bare function name.
func QualifiedName(plugin, name string) string {
	if plugin == "" {
		return name
	}
	return plugin + NameSeparator + name
}

// ParseQualifiedName splits a qualified tool name into its plugin and
// function parts. Names without a separator have an empty plugin.
func ParseQualifiedName(qualified string) (plugin, name string) {
	if i := strings.Index(qualified, NameSeparator); i >= 0 {
		return qualified[:i], qualified[i+1:]
	}
	return "", qualified
}

// Tool defines a callable function that can be exposed to a remote run.
type Tool interface {
	// Name returns the qualified function name as exposed to the model.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the JSON Schema describing the function's input.
	Parameters() json.RawMessage

	// Invoke calls the function with the given JSON arguments.
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// FunctionTool is a concrete [Tool] backed by a Go function.
type FunctionTool struct {
	plugin      string
	name        string
	description string
	parameters  json.RawMessage
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolOption configures a [FunctionTool].
type ToolOption func(*FunctionTool)

// WithPlugin sets the plugin the tool belongs to. The tool is exposed to the
// model under its plugin-qualified name.
func WithPlugin(plugin string) ToolOption {
	return func(t *FunctionTool) { t.plugin = plugin }
}

// NewTool creates a [FunctionTool] with raw JSON schema and handler.
func NewTool(name, description string, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error), opts ...ToolOption) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTypedTool creates a [FunctionTool] that automatically generates JSON
// Schema from the Args type parameter and handles JSON deserialization.
//
// The Args type should be a struct with json tags. Use the `jsonschema`
// struct tag for additional schema metadata:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit"     jsonschema:"enum=celsius|fahrenheit"`
//	}
func NewTypedTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error), opts ...ToolOption) *FunctionTool {
	schema := GenerateSchema[Args]()

	wrapped := func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args Args
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, &ToolError{
				ToolName: name,
				Message:  "invalid arguments: " + err.Error(),
				Err:      ErrToolExecution,
			}
		}
		return fn(ctx, args)
	}

	return NewTool(name, description, schema, wrapped, opts...)
}

// Name returns the plugin-qualified function name.
func (t *FunctionTool) Name() string { return QualifiedName(t.plugin, t.name) }

// Plugin returns the plugin the tool belongs to, if any.
func (t *FunctionTool) Plugin() string { return t.plugin }

func (t *FunctionTool) Description() string         { return t.description }
func (t *FunctionTool) Parameters() json.RawMessage { return t.parameters }

// Invoke calls the tool's backing function.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, &ToolError{
			ToolName: t.Name(),
			Message:  "tool has no handler",
			Err:      ErrToolExecution,
		}
	}
	return t.fn(ctx, args)
}

// ToolSet is a registry of tools keyed by qualified name, used to resolve
// pending tool calls during run reconciliation.
type ToolSet struct {
	byName map[string]Tool
	order  []Tool
}

// NewToolSet creates a ToolSet containing the given tools.
func NewToolSet(tools ...Tool) *ToolSet {
	s := &ToolSet{byName: make(map[string]Tool, len(tools))}
	s.Add(tools...)
	return s
}

// Add registers tools. A tool with an already-registered name replaces
// the earlier registration.
func (s *ToolSet) Add(tools ...Tool) {
	for _, t := range tools {
		if _, exists := s.byName[t.Name()]; exists {
			for i, prev := range s.order {
				if prev.Name() == t.Name() {
					s.order[i] = t
					break
				}
			}
		} else {
			s.order = append(s.order, t)
		}
		s.byName[t.Name()] = t
	}
}

// Resolve looks up a tool by its qualified name. When no exact match exists,
// the bare function name is tried, so a call qualified by the remote service
// still resolves a tool registered without a plugin.
func (s *ToolSet) Resolve(qualified string) (Tool, bool) {
	if t, ok := s.byName[qualified]; ok {
		return t, true
	}
	if _, name := ParseQualifiedName(qualified); name != qualified {
		if t, ok := s.byName[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Tools returns the registered tools in registration order.
func (s *ToolSet) Tools() []Tool {
	out := make([]Tool, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of registered tools.
func (s *ToolSet) Len() int { return len(s.byName) }
