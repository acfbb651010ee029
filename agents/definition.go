// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is a declarative agent description loaded from YAML. Provider
// packages turn a Definition into a configured agent.
//
//	name: menu-assistant
//	model: gpt-4o
//	instructions: |
//	  Answer questions about the menu.
//	tools:
//	  - type: code_interpreter
type Definition struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Model        string            `yaml:"model"`
	Instructions string            `yaml:"instructions"`
	Tools        []ToolDeclaration `yaml:"tools"`
}

// ToolDeclaration declares a tool in a [Definition]. Type is either a hosted
// tool type understood by the remote service (e.g. "code_interpreter") or
// "function" for a locally registered function tool.
type ToolDeclaration struct {
	Type        string         `yaml:"type"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters"`
}

// LoadDefinition reads a YAML agent definition from r.
func LoadDefinition(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: decode agent definition: %v", ErrAgent, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDefinitionFile reads a YAML agent definition from path.
func LoadDefinitionFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open agent definition: %v", ErrAgent, err)
	}
	defer f.Close()
	return LoadDefinition(f)
}

// Validate checks the definition for required fields.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: agent definition requires a name", ErrAgent)
	}
	if d.Model == "" {
		return fmt.Errorf("%w: agent definition requires a model", ErrAgent)
	}
	for i, t := range d.Tools {
		if t.Type == "" {
			return fmt.Errorf("%w: tool declaration %d requires a type", ErrAgent, i)
		}
		if t.Type == "function" && t.Name == "" {
			return fmt.Errorf("%w: function tool declaration %d requires a name", ErrAgent, i)
		}
	}
	return nil
}
