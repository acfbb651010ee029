// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// reconcileToolCalls handles a requires_action run: it extracts the pending
// function calls, invokes them against the local tool set, and submits all
// outputs back in one batched call. The function-call request message is
// emitted invisible. Code-interpreter calls are never invoked locally; the
// remote already executed them and only their output is projected.
func (d *runDriver) reconcileToolCalls(ctx context.Context, run *Run, steps []RunStep, proj *stepProjector, emit func(InvokeResult) error) error {
	calls := pendingFunctionCalls(steps)
	if len(calls) == 0 {
		calls = requiredActionCalls(run)
	}
	if len(calls) == 0 {
		return fmt.Errorf("%w: run %s requires action but has no pending tool calls", agents.ErrRun, run.ID)
	}

	if err := emit(InvokeResult{Message: functionCallMessage(d.agentName, run, calls)}); err != nil {
		return err
	}

	outputs, results := invokeFunctionCalls(ctx, d.tools, calls)
	proj.cacheResults(results)

	if _, err := d.svc.SubmitToolOutputs(ctx, run.ThreadID, run.ID, outputs); err != nil {
		return fmt.Errorf("%w: submit tool outputs: %v", agents.ErrRun, err)
	}
	return nil
}

// pendingFunctionCalls extracts function tool calls still awaiting output
// from the run's in-progress steps.
func pendingFunctionCalls(steps []RunStep) []ToolCall {
	var calls []ToolCall
	for _, step := range steps {
		if step.Status != StepStatusInProgress || step.Type != StepTypeToolCalls {
			continue
		}
		for _, tc := range step.StepDetails.ToolCalls {
			if tc.Type == "function" && tc.Function != nil && tc.Function.Output == "" {
				calls = append(calls, tc)
			}
		}
	}
	return calls
}

// requiredActionCalls extracts function tool calls from the run's required
// action. The streaming path relies on this; the polling path uses it as a
// fallback when step listing lags the status transition.
func requiredActionCalls(run *Run) []ToolCall {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}
	var calls []ToolCall
	for _, tc := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		if tc.Type == "function" && tc.Function != nil {
			calls = append(calls, tc)
		}
	}
	return calls
}

// invokeFunctionCalls fans out all pending calls concurrently, joining
// before returning. Outputs are keyed by call id and preserve call order.
// Invocation failures become error-text outputs rather than aborting the
// batch; the remote run decides how to proceed with them.
func invokeFunctionCalls(ctx context.Context, tools *agents.ToolSet, calls []ToolCall) ([]ToolOutput, map[string]*agents.FunctionResultContent) {
	outputs := make([]ToolOutput, len(calls))
	results := make(map[string]*agents.FunctionResultContent, len(calls))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call ToolCall) {
			defer wg.Done()

			name := call.Function.Name
			var result any
			if tool, ok := tools.Resolve(name); ok {
				r, err := tool.Invoke(ctx, json.RawMessage(call.Function.Arguments))
				if err != nil {
					slog.WarnContext(ctx, "tool invocation error",
						"tool", name,
						"call_id", call.ID,
						"error", err,
					)
					result = "error: " + err.Error()
				} else {
					result = r
				}
			} else {
				slog.WarnContext(ctx, "unknown tool called", "tool", name, "call_id", call.ID)
				result = fmt.Sprintf("error: unknown tool %q", name)
			}

			outputs[i] = ToolOutput{ToolCallID: call.ID, Output: stringifyResult(result)}

			mu.Lock()
			results[call.ID] = &agents.FunctionResultContent{
				CallID: call.ID,
				Name:   name,
				Result: result,
			}
			mu.Unlock()
		}(i, call)
	}
	wg.Wait()

	return outputs, results
}

// functionCallMessage assembles the internal assistant message describing
// the pending function calls.
func functionCallMessage(agentName string, run *Run, calls []ToolCall) agents.Message {
	contents := make(agents.Contents, 0, len(calls))
	for _, call := range calls {
		contents = append(contents, &agents.FunctionCallContent{
			CallID:    call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return agents.Message{
		Role:       agents.RoleAssistant,
		AuthorName: agentName,
		Contents:   contents,
		Metadata:   runMetadata(run, ""),
	}
}

func stringifyResult(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
