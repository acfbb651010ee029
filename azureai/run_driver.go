// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// InvokeResult pairs a projected message with its visibility. Invisible
// messages represent automatic tool execution (function-call requests)
// rather than user-facing content.
type InvokeResult struct {
	Visible bool
	Message agents.Message
}

// runDriver owns the poll-until-terminal loop for a single run. All state
// (processed step ids, cached function results) is scoped to one invocation.
type runDriver struct {
	svc       service
	tools     *agents.ToolSet
	polling   RunPollingOptions
	agentName string
}

func newRunDriver(svc service, tools *agents.ToolSet, polling RunPollingOptions, agentName string) *runDriver {
	if tools == nil {
		tools = agents.NewToolSet()
	}
	return &runDriver{
		svc:       svc,
		tools:     tools,
		polling:   polling.withDefaults(),
		agentName: agentName,
	}
}

// run submits a run against threadID and drives it to a terminal status,
// emitting projected messages as steps complete. Tool calls surfaced through
// requires_action are invoked locally and their outputs submitted back
// before polling resumes.
func (d *runDriver) run(ctx context.Context, threadID string, req createRunRequest, emit func(InvokeResult) error) error {
	run, err := d.svc.CreateRun(ctx, threadID, req)
	if err != nil {
		return fmt.Errorf("%w: create: %v", agents.ErrRun, err)
	}
	slog.DebugContext(ctx, "run created",
		"run_id", run.ID,
		"thread_id", threadID,
		"agent_id", run.AgentID,
	)

	proj := newStepProjector(d.svc, d.polling, d.agentName)

	for {
		run, err = d.pollRun(ctx, threadID, run.ID)
		if err != nil {
			return err
		}

		steps, err := d.svc.ListRunSteps(ctx, threadID, run.ID)
		if err != nil {
			return fmt.Errorf("%w: list steps: %v", agents.ErrRun, err)
		}
		if err := proj.projectCompleted(ctx, run, steps, emit); err != nil {
			return err
		}

		if run.Status == RunStatusRequiresAction {
			if err := d.reconcileToolCalls(ctx, run, steps, proj, emit); err != nil {
				return err
			}
			continue
		}
		break
	}

	if run.Status != RunStatusCompleted {
		return runFailure(run)
	}

	if run.Usage != nil {
		usage := usageMessage(run)
		if err := emit(InvokeResult{Visible: false, Message: usage}); err != nil {
			return err
		}
	}

	slog.DebugContext(ctx, "run completed", "run_id", run.ID, "thread_id", threadID)
	return nil
}

// pollRun polls until the run leaves the pollable statuses. Transient
// client-level failures are retried up to the configured cap; explicit
// service errors fail immediately.
func (d *runDriver) pollRun(ctx context.Context, threadID, runID string) (*Run, error) {
	retries := 0
	for iteration := 0; ; iteration++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.polling.Interval(iteration)):
		}

		run, err := d.svc.GetRun(ctx, threadID, runID)
		if err != nil {
			if agents.IsTransient(err) && retries < d.polling.MaximumRetryCount {
				retries++
				slog.WarnContext(ctx, "transient failure polling run",
					"run_id", runID,
					"retry", retries,
					"error", err,
				)
				continue
			}
			return nil, fmt.Errorf("%w: poll: %v", agents.ErrRun, err)
		}
		retries = 0

		if run.Status.IsPollable() {
			continue
		}
		return run, nil
	}
}

// runFailure converts a terminally failed run into an error carrying the
// remote error message.
func runFailure(run *Run) error {
	msg := string(run.Status)
	if run.LastError != nil && run.LastError.Message != "" {
		msg = run.LastError.Message
	}
	return fmt.Errorf("%w: run %s (%s): %s", agents.ErrRunFailed, run.ID, run.Status, msg)
}

// usageMessage wraps a completed run's token usage in an internal message.
func usageMessage(run *Run) agents.Message {
	usage := agents.UsageDetails{
		InputTokens:  run.Usage.PromptTokens,
		OutputTokens: run.Usage.CompletionTokens,
		TotalTokens:  run.Usage.TotalTokens,
	}
	md := runMetadata(run, "")
	md[agents.MetadataKeyUsage] = usage
	return agents.Message{
		Role:     agents.RoleAssistant,
		Contents: agents.Contents{&agents.UsageContent{Usage: usage}},
		Metadata: md,
	}
}

// runMetadata builds the metadata echoed onto every projected message.
func runMetadata(run *Run, stepID string) map[string]any {
	md := map[string]any{
		agents.MetadataKeyThreadID: run.ThreadID,
		agents.MetadataKeyRunID:    run.ID,
	}
	if stepID != "" {
		md[agents.MetadataKeyStepID] = stepID
	}
	return md
}
