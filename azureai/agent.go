// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// Agent wraps a remote agent definition and drives runs against it.
// Create one with [CreateAgent] (provisions the remote definition),
// [NewAgent] (wraps an existing definition by id), or [FromDefinition]
// (provisions from a declarative [agents.Definition]).
type Agent struct {
	svc          service
	id           string
	name         string
	description  string
	model        string
	instructions string
	tools        *agents.ToolSet
	hostedTools  []toolSpec
	polling      RunPollingOptions
}

// AgentOption configures an [Agent].
type AgentOption func(*Agent)

// WithName sets the agent's display name, echoed as the author name on
// projected messages.
func WithName(name string) AgentOption {
	return func(a *Agent) { a.name = name }
}

// WithDescription sets the agent's description.
func WithDescription(desc string) AgentOption {
	return func(a *Agent) { a.description = desc }
}

// WithModel sets the model the remote agent runs on.
func WithModel(model string) AgentOption {
	return func(a *Agent) { a.model = model }
}

// WithInstructions sets the agent's system instructions.
func WithInstructions(instructions string) AgentOption {
	return func(a *Agent) { a.instructions = instructions }
}

// WithTools registers local function tools. Their declarations are exposed
// to the remote run and their calls reconciled locally.
func WithTools(tools ...agents.Tool) AgentOption {
	return func(a *Agent) { a.tools.Add(tools...) }
}

// WithCodeInterpreter enables the service-hosted code interpreter tool.
func WithCodeInterpreter() AgentOption {
	return func(a *Agent) {
		a.hostedTools = append(a.hostedTools, toolSpec{Type: "code_interpreter"})
	}
}

// WithPollingOptions overrides the default [RunPollingOptions].
func WithPollingOptions(opts RunPollingOptions) AgentOption {
	return func(a *Agent) { a.polling = opts }
}

// NewAgent wraps an existing remote agent definition by id.
func NewAgent(client *Client, agentID string, opts ...AgentOption) (*Agent, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id is required", agents.ErrAgent)
	}
	a := newAgent(client)
	a.id = agentID
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// CreateAgent provisions a remote agent definition and wraps it.
func CreateAgent(ctx context.Context, client *Client, opts ...AgentOption) (*Agent, error) {
	a := newAgent(client)
	for _, opt := range opts {
		opt(a)
	}
	if a.model == "" {
		return nil, fmt.Errorf("%w: model is required to create an agent", agents.ErrAgent)
	}

	info, err := client.CreateAgent(ctx, createAgentRequest{
		Name:         a.name,
		Description:  a.description,
		Model:        a.model,
		Instructions: a.instructions,
		Tools:        a.toolSpecs(nil),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create remote definition: %v", agents.ErrAgent, err)
	}
	a.id = info.ID
	if a.name == "" {
		a.name = info.Name
	}
	return a, nil
}

// FromDefinition provisions a remote agent from a declarative definition.
// Function tools declared in the definition must be supplied as tools with
// matching qualified names; hosted tool declarations (e.g. code_interpreter)
// pass through to the service.
func FromDefinition(ctx context.Context, client *Client, def *agents.Definition, tools ...agents.Tool) (*Agent, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	opts := []AgentOption{
		WithName(def.Name),
		WithDescription(def.Description),
		WithModel(def.Model),
		WithInstructions(def.Instructions),
		WithTools(tools...),
	}
	for _, decl := range def.Tools {
		if decl.Type == "code_interpreter" {
			opts = append(opts, WithCodeInterpreter())
		}
	}

	a, err := CreateAgent(ctx, client, opts...)
	if err != nil {
		return nil, err
	}

	for _, decl := range def.Tools {
		if decl.Type != "function" {
			continue
		}
		if _, ok := a.tools.Resolve(decl.Name); !ok {
			return nil, fmt.Errorf("%w: definition declares function %q but no matching tool was supplied",
				agents.ErrAgent, decl.Name)
		}
	}
	return a, nil
}

func newAgent(client *Client) *Agent {
	return &Agent{
		svc:     client,
		tools:   agents.NewToolSet(),
		polling: DefaultRunPollingOptions(),
	}
}

// ID returns the remote agent definition id.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Delete removes the remote agent definition.
func (a *Agent) Delete(ctx context.Context) error {
	if err := a.svc.DeleteAgent(ctx, a.id); err != nil {
		return fmt.Errorf("%w: delete remote definition: %v", agents.ErrAgent, err)
	}
	return nil
}

// NewThread creates a new conversation thread.
func (a *Agent) NewThread(ctx context.Context) (*Thread, error) {
	thread, err := a.svc.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create: %v", agents.ErrThread, err)
	}
	return thread, nil
}

// RestoreThread validates and returns an existing thread by id.
func (a *Agent) RestoreThread(ctx context.Context, threadID string) (*Thread, error) {
	thread, err := a.svc.GetThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: restore %s: %v", agents.ErrThread, threadID, err)
	}
	return thread, nil
}

// DeleteThread deletes a conversation thread.
func (a *Agent) DeleteThread(ctx context.Context, threadID string) error {
	if err := a.svc.DeleteThread(ctx, threadID); err != nil {
		return fmt.Errorf("%w: delete %s: %v", agents.ErrThread, threadID, err)
	}
	return nil
}

// AppendMessage appends a message to a thread ahead of the next invocation.
func (a *Agent) AppendMessage(ctx context.Context, threadID string, msg agents.Message) (*ThreadMessage, error) {
	role := string(msg.Role)
	if role == "" {
		role = string(agents.RoleUser)
	}
	created, err := a.svc.CreateMessage(ctx, threadID, role, msg.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: append message: %v", agents.ErrThread, err)
	}
	return created, nil
}

// InvokeOption configures a single invocation.
type InvokeOption func(*invokeConfig)

type invokeConfig struct {
	model                  string
	instructions           string
	additionalInstructions string
	tools                  []agents.Tool
}

// WithRunModel overrides the model for this invocation only.
func WithRunModel(model string) InvokeOption {
	return func(c *invokeConfig) { c.model = model }
}

// WithRunInstructions replaces the agent's instructions for this invocation.
func WithRunInstructions(instructions string) InvokeOption {
	return func(c *invokeConfig) { c.instructions = instructions }
}

// WithAdditionalInstructions appends instructions for this invocation.
func WithAdditionalInstructions(instructions string) InvokeOption {
	return func(c *invokeConfig) { c.additionalInstructions = instructions }
}

// WithRunTools adds per-invocation tools on top of the agent's defaults.
func WithRunTools(tools ...agents.Tool) InvokeOption {
	return func(c *invokeConfig) { c.tools = append(c.tools, tools...) }
}

// Invoke runs the agent against a thread and returns a stream of projected
// messages. Function-call request messages carry Visible=false.
func (a *Agent) Invoke(ctx context.Context, threadID string, opts ...InvokeOption) *agents.Stream[InvokeResult] {
	cfg := buildInvokeConfig(opts)
	driver := a.newDriver(cfg)
	req := a.runRequest(cfg)
	invocationID := uuid.NewString()

	return agents.NewStream(ctx, func(ctx context.Context, ch chan<- InvokeResult) error {
		slog.DebugContext(ctx, "agent invocation started",
			"invocation_id", invocationID,
			"agent_id", a.id,
			"thread_id", threadID,
		)
		emit := func(item InvokeResult) error {
			select {
			case ch <- item:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := driver.run(ctx, threadID, req, emit)
		if err != nil {
			slog.ErrorContext(ctx, "agent invocation failed",
				"invocation_id", invocationID,
				"thread_id", threadID,
				"error", err,
			)
		}
		return err
	})
}

// InvokeStreaming runs the agent against a thread and returns a stream of
// incremental content updates as they arrive from the service.
func (a *Agent) InvokeStreaming(ctx context.Context, threadID string, opts ...InvokeOption) *agents.Stream[agents.MessageUpdate] {
	cfg := buildInvokeConfig(opts)
	driver := a.newDriver(cfg)
	req := a.runRequest(cfg)
	invocationID := uuid.NewString()

	return agents.NewStream(ctx, func(ctx context.Context, ch chan<- agents.MessageUpdate) error {
		slog.DebugContext(ctx, "agent streaming invocation started",
			"invocation_id", invocationID,
			"agent_id", a.id,
			"thread_id", threadID,
		)
		emit := func(update agents.MessageUpdate) error {
			select {
			case ch <- update:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := driver.runStreaming(ctx, threadID, req, emit)
		if err != nil {
			slog.ErrorContext(ctx, "agent streaming invocation failed",
				"invocation_id", invocationID,
				"thread_id", threadID,
				"error", err,
			)
		}
		return err
	})
}

func buildInvokeConfig(opts []InvokeOption) *invokeConfig {
	cfg := &invokeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// newDriver builds a run driver over the agent's tools merged with any
// per-invocation additions.
func (a *Agent) newDriver(cfg *invokeConfig) *runDriver {
	tools := agents.NewToolSet(a.tools.Tools()...)
	tools.Add(cfg.tools...)
	return newRunDriver(a.svc, tools, a.polling, a.name)
}

func (a *Agent) runRequest(cfg *invokeConfig) createRunRequest {
	return createRunRequest{
		AgentID:                a.id,
		Model:                  cfg.model,
		Instructions:           cfg.instructions,
		AdditionalInstructions: cfg.additionalInstructions,
		Tools:                  a.toolSpecs(cfg.tools),
	}
}

// toolSpecs declares the agent's tools (plus any extras) to the service.
func (a *Agent) toolSpecs(extra []agents.Tool) []toolSpec {
	all := a.tools.Tools()
	all = append(all, extra...)

	specs := make([]toolSpec, 0, len(all)+len(a.hostedTools))
	specs = append(specs, a.hostedTools...)
	for _, t := range all {
		specs = append(specs, toolSpec{
			Type: "function",
			Function: &functionSpec{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  json.RawMessage(t.Parameters()),
			},
		})
	}
	return specs
}
