// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// runStreaming submits a streaming run and emits incremental updates as
// server-sent events arrive. Message deltas yield text fragments, run-step
// deltas yield partial function-call updates, and requires_action pauses
// the event loop to reconcile tool calls before continuing with the stream
// returned by the streaming tool-output submission.
func (d *runDriver) runStreaming(ctx context.Context, threadID string, req createRunRequest, emit func(agents.MessageUpdate) error) error {
	events, err := d.svc.CreateRunStream(ctx, threadID, req)
	if err != nil {
		return fmt.Errorf("%w: create stream: %v", agents.ErrRun, err)
	}
	defer func() { events.Close() }()

	proj := newStepProjector(d.svc, d.polling, d.agentName)
	var run *Run

	for {
		ev, ok, err := events.Next(ctx)
		if err != nil {
			return fmt.Errorf("%w: event stream: %v", agents.ErrRun, err)
		}
		if !ok {
			break
		}

		switch ev.Event {
		case eventThreadRunCreated, eventThreadRunQueued, eventThreadRunInProgress:
			if r, err := decodeEvent[Run](ev); err == nil {
				run = r
			}

		case eventThreadMessageDelta:
			update, err := d.messageDeltaUpdate(ev.Data, run)
			if err != nil {
				slog.WarnContext(ctx, "skipping malformed message delta", "error", err)
				continue
			}
			if len(update.Contents) > 0 {
				if err := emit(update); err != nil {
					return err
				}
			}

		case eventThreadRunStepDelta:
			update, err := d.stepDeltaUpdate(ctx, ev.Data, run)
			if err != nil {
				slog.WarnContext(ctx, "skipping malformed step delta", "error", err)
				continue
			}
			if len(update.Contents) > 0 {
				if err := emit(update); err != nil {
					return err
				}
			}

		case eventThreadRunRequiresAction:
			r, err := decodeEvent[Run](ev)
			if err != nil {
				return fmt.Errorf("%w: decode requires_action: %v", agents.ErrRun, err)
			}
			run = r

			calls := requiredActionCalls(run)
			if len(calls) == 0 {
				return fmt.Errorf("%w: run %s requires action but has no pending tool calls", agents.ErrRun, run.ID)
			}

			outputs, results := invokeFunctionCalls(ctx, d.tools, calls)
			proj.cacheResults(results)

			next, err := d.svc.SubmitToolOutputsStream(ctx, run.ThreadID, run.ID, outputs)
			if err != nil {
				return fmt.Errorf("%w: submit tool outputs: %v", agents.ErrRun, err)
			}
			events.Close()
			events = next

		case eventThreadRunStepCompleted:
			step, err := decodeEvent[RunStep](ev)
			if err != nil {
				slog.WarnContext(ctx, "skipping malformed step completion", "error", err)
				continue
			}
			if err := d.emitCompletedStep(ctx, run, *step, proj, emit); err != nil {
				return err
			}

		case eventThreadRunCompleted:
			r, err := decodeEvent[Run](ev)
			if err != nil {
				return fmt.Errorf("%w: decode completion: %v", agents.ErrRun, err)
			}
			run = r
			if run.Usage != nil {
				usage := usageMessage(run)
				if err := emit(agents.MessageUpdate{
					Role:     usage.Role,
					Contents: usage.Contents,
					Metadata: usage.Metadata,
				}); err != nil {
					return err
				}
			}

		case eventThreadRunFailed, eventThreadRunCancelled, eventThreadRunExpired:
			r, err := decodeEvent[Run](ev)
			if err != nil {
				return fmt.Errorf("%w: run reached %s", agents.ErrRunFailed, ev.Event)
			}
			return runFailure(r)

		case eventThreadMessageCreated, eventThreadMessageCompleted:
			// Content already arrives through deltas.

		default:
			slog.DebugContext(ctx, "ignoring unrecognized stream event", "event", ev.Event)
		}
	}

	if run == nil || run.Status != RunStatusCompleted {
		return fmt.Errorf("%w: event stream ended before run completion", agents.ErrRun)
	}
	return nil
}

// messageDeltaUpdate converts a thread.message.delta payload into an
// incremental update of text and annotation fragments.
func (d *runDriver) messageDeltaUpdate(data json.RawMessage, run *Run) (agents.MessageUpdate, error) {
	var obj messageDeltaObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return agents.MessageUpdate{}, err
	}

	update := agents.MessageUpdate{
		Role:       agents.RoleAssistant,
		AuthorName: d.agentName,
		MessageID:  obj.ID,
	}
	if obj.Delta.Role != "" {
		update.Role = agents.Role(obj.Delta.Role)
	}
	if run != nil {
		update.Metadata = runMetadata(run, "")
	}

	for _, part := range obj.Delta.Content {
		switch part.Type {
		case "text":
			if part.Text == nil {
				continue
			}
			if part.Text.Value != "" {
				update.Contents = append(update.Contents, &agents.TextContent{Text: part.Text.Value})
			}
			for _, a := range part.Text.Annotations {
				if ann, ok := annotationContent(a); ok {
					update.Contents = append(update.Contents, ann)
				}
			}
		case "image_file":
			if part.ImageFile != nil {
				update.Contents = append(update.Contents, &agents.FileReferenceContent{FileID: part.ImageFile.FileID})
			}
		}
	}
	return update, nil
}

// stepDeltaUpdate converts a thread.run.step.delta payload into partial
// function-call updates and incremental code-interpreter input.
func (d *runDriver) stepDeltaUpdate(ctx context.Context, data json.RawMessage, run *Run) (agents.MessageUpdate, error) {
	var obj runStepDeltaObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return agents.MessageUpdate{}, err
	}

	update := agents.MessageUpdate{
		Role:       agents.RoleAssistant,
		AuthorName: d.agentName,
	}
	if run != nil {
		update.Metadata = runMetadata(run, obj.ID)
	}

	if obj.Delta.StepDetails == nil {
		return update, nil
	}
	for _, tc := range obj.Delta.StepDetails.ToolCalls {
		switch {
		case tc.Function != nil:
			update.Contents = append(update.Contents, &agents.FunctionCallUpdateContent{
				Index:          tc.Index,
				CallID:         tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			})
		case tc.CodeInterpreter != nil:
			if tc.CodeInterpreter.Input != "" {
				if update.Metadata == nil {
					update.Metadata = map[string]any{}
				}
				update.Metadata[agents.MetadataKeyCode] = true
				update.Contents = append(update.Contents, &agents.TextContent{Text: tc.CodeInterpreter.Input})
			}
		default:
			slog.DebugContext(ctx, "ignoring unrecognized tool call delta", "type", tc.Type)
		}
	}
	return update, nil
}

// emitCompletedStep reconciles a completed step against the streamed
// fragments: function results and code-interpreter outputs are emitted as
// complete updates; message text was already streamed through deltas.
// The processed-step set keeps re-delivered completions idempotent.
func (d *runDriver) emitCompletedStep(ctx context.Context, run *Run, step RunStep, proj *stepProjector, emit func(agents.MessageUpdate) error) error {
	if proj.seen(step.ID) {
		return nil
	}
	if step.Type != StepTypeToolCalls || run == nil {
		return nil
	}

	for _, call := range step.StepDetails.ToolCalls {
		switch call.Type {
		case "function":
			m, ok := proj.functionResultMessage(run, step, call)
			if !ok {
				continue
			}
			if err := emit(agents.MessageUpdate{
				Role:       m.Role,
				AuthorName: m.AuthorName,
				Contents:   m.Contents,
				Metadata:   m.Metadata,
			}); err != nil {
				return err
			}
		case "code_interpreter":
			if call.CodeInterpreter == nil || len(call.CodeInterpreter.Outputs) == 0 {
				continue
			}
			var contents agents.Contents
			for _, out := range call.CodeInterpreter.Outputs {
				switch out.Type {
				case "logs":
					contents = append(contents, &agents.TextContent{Text: out.Logs})
				case "image":
					if out.Image != nil {
						contents = append(contents, &agents.FileReferenceContent{FileID: out.Image.FileID})
					}
				}
			}
			if len(contents) == 0 {
				continue
			}
			if err := emit(agents.MessageUpdate{
				Role:       agents.RoleAssistant,
				AuthorName: d.agentName,
				Contents:   contents,
				Metadata:   runMetadata(run, step.ID),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeEvent unmarshals an event payload into the given wire type.
func decodeEvent[T any](ev streamEvent) (*T, error) {
	var v T
	if err := json.Unmarshal(ev.Data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
