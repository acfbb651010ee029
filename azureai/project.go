// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// stepProjector converts completed run steps into chat messages exactly
// once. Both the processed-step set and the function-result cache live for
// a single invocation.
type stepProjector struct {
	svc       service
	polling   RunPollingOptions
	agentName string
	processed map[string]struct{}
	results   map[string]*agents.FunctionResultContent
}

func newStepProjector(svc service, polling RunPollingOptions, agentName string) *stepProjector {
	return &stepProjector{
		svc:       svc,
		polling:   polling.withDefaults(),
		agentName: agentName,
		processed: make(map[string]struct{}),
		results:   make(map[string]*agents.FunctionResultContent),
	}
}

// cacheResults records function results captured during reconciliation so
// the completed tool-call step can re-emit them.
func (p *stepProjector) cacheResults(results map[string]*agents.FunctionResultContent) {
	for id, r := range results {
		p.results[id] = r
	}
}

// seen reports whether a step was already projected, marking it if not.
func (p *stepProjector) seen(stepID string) bool {
	if _, ok := p.processed[stepID]; ok {
		return true
	}
	p.processed[stepID] = struct{}{}
	return false
}

// projectCompleted emits messages for every completed step not yet
// processed, in completion order.
func (p *stepProjector) projectCompleted(ctx context.Context, run *Run, steps []RunStep, emit func(InvokeResult) error) error {
	completed := make([]RunStep, 0, len(steps))
	for _, s := range steps {
		if s.Status == StepStatusCompleted {
			completed = append(completed, s)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		if completed[i].CompletedAt != completed[j].CompletedAt {
			return completed[i].CompletedAt < completed[j].CompletedAt
		}
		return completed[i].CreatedAt < completed[j].CreatedAt
	})

	for _, step := range completed {
		if p.seen(step.ID) {
			continue
		}
		msgs, err := p.projectStep(ctx, run, step)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			if err := emit(InvokeResult{Visible: true, Message: m}); err != nil {
				return err
			}
		}
	}
	return nil
}

// projectStep converts one completed step into zero or more messages.
func (p *stepProjector) projectStep(ctx context.Context, run *Run, step RunStep) ([]agents.Message, error) {
	switch step.Type {
	case StepTypeMessageCreation:
		if step.StepDetails.MessageCreation == nil {
			slog.WarnContext(ctx, "message_creation step without message reference", "step_id", step.ID)
			return nil, nil
		}
		msg, err := p.retrieveMessage(ctx, run.ThreadID, step.StepDetails.MessageCreation.MessageID)
		if err != nil {
			return nil, err
		}
		projected := p.projectThreadMessage(ctx, run, step, msg)
		if len(projected.Contents) == 0 {
			return nil, nil
		}
		return []agents.Message{projected}, nil

	case StepTypeToolCalls:
		var msgs []agents.Message
		for _, call := range step.StepDetails.ToolCalls {
			switch call.Type {
			case "code_interpreter":
				msgs = append(msgs, p.codeInterpreterMessages(ctx, run, step, call)...)
			case "function":
				if m, ok := p.functionResultMessage(run, step, call); ok {
					msgs = append(msgs, m)
				}
			default:
				slog.WarnContext(ctx, "skipping unrecognized tool call type",
					"type", call.Type,
					"step_id", step.ID,
				)
			}
		}
		return msgs, nil

	default:
		slog.WarnContext(ctx, "skipping unrecognized step type",
			"type", step.Type,
			"step_id", step.ID,
		)
		return nil, nil
	}
}

// retrieveMessage fetches a message referenced by a completed step. A
// not-found immediately after step completion is eventual-consistency lag,
// absorbed by a small fixed number of retries with a fixed delay.
func (p *stepProjector) retrieveMessage(ctx context.Context, threadID, messageID string) (*ThreadMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= p.polling.MaximumRetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.polling.MessageSynchronizationDelay):
			}
		}

		msg, err := p.svc.GetMessage(ctx, threadID, messageID)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, agents.ErrNotFound) {
			return nil, fmt.Errorf("%w: retrieve message %s: %v", agents.ErrRun, messageID, err)
		}
		lastErr = err
		slog.DebugContext(ctx, "message not yet visible, retrying",
			"message_id", messageID,
			"attempt", attempt+1,
		)
	}
	return nil, fmt.Errorf("%w: message %s not visible after %d retries: %v",
		agents.ErrRun, messageID, p.polling.MaximumRetryCount, lastErr)
}

// projectThreadMessage maps a remote message's content parts into a typed
// message. Unrecognized content or annotation shapes are logged and dropped.
func (p *stepProjector) projectThreadMessage(ctx context.Context, run *Run, step RunStep, msg *ThreadMessage) agents.Message {
	out := agents.Message{
		Role:      agents.Role(msg.Role),
		MessageID: msg.ID,
		Metadata:  runMetadata(run, step.ID),
	}
	if out.Role == agents.RoleAssistant {
		out.AuthorName = p.agentName
	}

	for _, part := range msg.Content {
		switch part.Type {
		case "text":
			if part.Text == nil {
				continue
			}
			out.Contents = append(out.Contents, &agents.TextContent{Text: part.Text.Value})
			for _, a := range part.Text.Annotations {
				ann, ok := annotationContent(a)
				if !ok {
					slog.WarnContext(ctx, "skipping unrecognized annotation type",
						"type", a.Type,
						"message_id", msg.ID,
					)
					continue
				}
				out.Contents = append(out.Contents, ann)
			}
		case "image_file":
			if part.ImageFile == nil {
				continue
			}
			out.Contents = append(out.Contents, &agents.FileReferenceContent{FileID: part.ImageFile.FileID})
		default:
			slog.WarnContext(ctx, "skipping unrecognized message content type",
				"type", part.Type,
				"message_id", msg.ID,
			)
		}
	}
	return out
}

// annotationContent translates a wire annotation into typed content.
// ok is false for unrecognized annotation types.
func annotationContent(a Annotation) (*agents.AnnotationContent, bool) {
	ann := &agents.AnnotationContent{
		Label:      a.Text,
		StartIndex: a.StartIndex,
		EndIndex:   a.EndIndex,
	}
	switch a.Type {
	case "file_citation":
		ann.Kind = agents.AnnotationKindFileCitation
		if a.FileCitation != nil {
			ann.ReferenceID = a.FileCitation.FileID
			if a.FileCitation.Quote != "" {
				ann.Label = a.FileCitation.Quote
			}
		}
	case "file_path":
		ann.Kind = agents.AnnotationKindFilePath
		if a.FilePath != nil {
			ann.ReferenceID = a.FilePath.FileID
		}
	case "url_citation":
		ann.Kind = agents.AnnotationKindURLCitation
		if a.URLCitation != nil {
			ann.ReferenceID = a.URLCitation.URL
			if a.URLCitation.Title != "" {
				ann.Label = a.URLCitation.Title
			}
		}
	default:
		return nil, false
	}
	return ann, true
}

// codeInterpreterMessages projects a code-interpreter call: the executed
// code becomes a message flagged with the code metadata key, and its
// outputs (logs, images) become a separate message.
func (p *stepProjector) codeInterpreterMessages(ctx context.Context, run *Run, step RunStep, call ToolCall) []agents.Message {
	if call.CodeInterpreter == nil {
		return nil
	}

	var msgs []agents.Message
	if call.CodeInterpreter.Input != "" {
		md := runMetadata(run, step.ID)
		md[agents.MetadataKeyCode] = true
		msgs = append(msgs, agents.Message{
			Role:       agents.RoleAssistant,
			AuthorName: p.agentName,
			Contents:   agents.Contents{&agents.TextContent{Text: call.CodeInterpreter.Input}},
			Metadata:   md,
		})
	}

	var outContents agents.Contents
	for _, out := range call.CodeInterpreter.Outputs {
		switch out.Type {
		case "logs":
			outContents = append(outContents, &agents.TextContent{Text: out.Logs})
		case "image":
			if out.Image != nil {
				outContents = append(outContents, &agents.FileReferenceContent{FileID: out.Image.FileID})
			}
		default:
			slog.WarnContext(ctx, "skipping unrecognized code interpreter output type",
				"type", out.Type,
				"step_id", step.ID,
			)
		}
	}
	if len(outContents) > 0 {
		msgs = append(msgs, agents.Message{
			Role:       agents.RoleAssistant,
			AuthorName: p.agentName,
			Contents:   outContents,
			Metadata:   runMetadata(run, step.ID),
		})
	}
	return msgs
}

// functionResultMessage re-emits the result captured during reconciliation.
// When the cache has no entry (e.g. outputs were submitted by another
// client), the output recorded on the step is used instead.
func (p *stepProjector) functionResultMessage(run *Run, step RunStep, call ToolCall) (agents.Message, bool) {
	if call.Function == nil {
		return agents.Message{}, false
	}
	result, ok := p.results[call.ID]
	if !ok {
		if call.Function.Output == "" {
			return agents.Message{}, false
		}
		result = &agents.FunctionResultContent{
			CallID: call.ID,
			Name:   call.Function.Name,
			Result: call.Function.Output,
		}
	}
	return agents.Message{
		Role:       agents.RoleTool,
		AuthorName: p.agentName,
		Contents:   agents.Contents{result},
		Metadata:   runMetadata(run, step.ID),
	}, true
}
