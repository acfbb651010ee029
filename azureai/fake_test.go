// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"errors"
	"time"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// fakeService scripts the remote API for state machine tests. Methods with
// no configured function report an unexpected call.
type fakeService struct {
	createThreadFn            func(ctx context.Context) (*Thread, error)
	getThreadFn               func(ctx context.Context, threadID string) (*Thread, error)
	deleteThreadFn            func(ctx context.Context, threadID string) error
	createMessageFn           func(ctx context.Context, threadID, role, content string) (*ThreadMessage, error)
	deleteAgentFn             func(ctx context.Context, agentID string) error
	createRunFn               func(ctx context.Context, threadID string, req createRunRequest) (*Run, error)
	getRunFn                  func(ctx context.Context, threadID, runID string) (*Run, error)
	cancelRunFn               func(ctx context.Context, threadID, runID string) (*Run, error)
	listRunStepsFn            func(ctx context.Context, threadID, runID string) ([]RunStep, error)
	getMessageFn              func(ctx context.Context, threadID, messageID string) (*ThreadMessage, error)
	submitToolOutputsFn       func(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
	createRunStreamFn         func(ctx context.Context, threadID string, req createRunRequest) (*agents.Stream[streamEvent], error)
	submitToolOutputsStreamFn func(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*agents.Stream[streamEvent], error)
}

var errUnexpectedCall = errors.New("unexpected service call")

func (f *fakeService) CreateThread(ctx context.Context) (*Thread, error) {
	if f.createThreadFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createThreadFn(ctx)
}

func (f *fakeService) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	if f.getThreadFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getThreadFn(ctx, threadID)
}

func (f *fakeService) DeleteThread(ctx context.Context, threadID string) error {
	if f.deleteThreadFn == nil {
		return errUnexpectedCall
	}
	return f.deleteThreadFn(ctx, threadID)
}

func (f *fakeService) CreateMessage(ctx context.Context, threadID, role, content string) (*ThreadMessage, error) {
	if f.createMessageFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createMessageFn(ctx, threadID, role, content)
}

func (f *fakeService) DeleteAgent(ctx context.Context, agentID string) error {
	if f.deleteAgentFn == nil {
		return errUnexpectedCall
	}
	return f.deleteAgentFn(ctx, agentID)
}

func (f *fakeService) CreateRun(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
	if f.createRunFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createRunFn(ctx, threadID, req)
}

func (f *fakeService) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	if f.getRunFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getRunFn(ctx, threadID, runID)
}

func (f *fakeService) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	if f.cancelRunFn == nil {
		return nil, errUnexpectedCall
	}
	return f.cancelRunFn(ctx, threadID, runID)
}

func (f *fakeService) ListRunSteps(ctx context.Context, threadID, runID string) ([]RunStep, error) {
	if f.listRunStepsFn == nil {
		return nil, errUnexpectedCall
	}
	return f.listRunStepsFn(ctx, threadID, runID)
}

func (f *fakeService) GetMessage(ctx context.Context, threadID, messageID string) (*ThreadMessage, error) {
	if f.getMessageFn == nil {
		return nil, errUnexpectedCall
	}
	return f.getMessageFn(ctx, threadID, messageID)
}

func (f *fakeService) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	if f.submitToolOutputsFn == nil {
		return nil, errUnexpectedCall
	}
	return f.submitToolOutputsFn(ctx, threadID, runID, outputs)
}

func (f *fakeService) CreateRunStream(ctx context.Context, threadID string, req createRunRequest) (*agents.Stream[streamEvent], error) {
	if f.createRunStreamFn == nil {
		return nil, errUnexpectedCall
	}
	return f.createRunStreamFn(ctx, threadID, req)
}

func (f *fakeService) SubmitToolOutputsStream(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*agents.Stream[streamEvent], error) {
	if f.submitToolOutputsStreamFn == nil {
		return nil, errUnexpectedCall
	}
	return f.submitToolOutputsStreamFn(ctx, threadID, runID, outputs)
}

// fastPolling keeps state machine tests quick.
func fastPolling() RunPollingOptions {
	return RunPollingOptions{
		RunPollingInterval:          time.Millisecond,
		RunPollingBackoff:           time.Millisecond,
		RunPollingBackoffThreshold:  1,
		MessageSynchronizationDelay: time.Millisecond,
		MaximumRetryCount:           2,
	}
}

// collectResults adapts a slice into a driver emit callback.
func collectResults(results *[]InvokeResult) func(InvokeResult) error {
	return func(r InvokeResult) error {
		*results = append(*results, r)
		return nil
	}
}

// collectUpdates adapts a slice into a streaming emit callback.
func collectUpdates(updates *[]agents.MessageUpdate) func(agents.MessageUpdate) error {
	return func(u agents.MessageUpdate) error {
		*updates = append(*updates, u)
		return nil
	}
}
