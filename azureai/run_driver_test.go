// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

func TestRunDriver_CompletedRun(t *testing.T) {
	getRunCalls := 0
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			if threadID != "t1" {
				t.Errorf("threadID = %q", threadID)
			}
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			getRunCalls++
			if getRunCalls == 1 {
				return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusInProgress}, nil
			}
			return &Run{
				ID: "r1", ThreadID: "t1", Status: RunStatusCompleted,
				Usage: &RunUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
		listRunStepsFn: func(ctx context.Context, threadID, runID string) ([]RunStep, error) {
			return []RunStep{{
				ID: "step_1", Type: StepTypeMessageCreation, Status: StepStatusCompleted,
				CompletedAt: 100,
				StepDetails: StepDetails{MessageCreation: &MessageCreation{MessageID: "msg_1"}},
			}}, nil
		},
		getMessageFn: func(ctx context.Context, threadID, messageID string) (*ThreadMessage, error) {
			return &ThreadMessage{
				ID: "msg_1", Role: "assistant",
				Content: []MessageContent{{Type: "text", Text: &TextValue{Value: "answer"}}},
			}, nil
		},
	}

	var results []InvokeResult
	d := newRunDriver(svc, nil, fastPolling(), "helper")
	if err := d.run(context.Background(), "t1", createRunRequest{AgentID: "a1"}, collectResults(&results)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want message + usage", len(results))
	}
	msg := results[0]
	if !msg.Visible {
		t.Error("projected message should be visible")
	}
	if msg.Message.Text() != "answer" {
		t.Errorf("Text = %q", msg.Message.Text())
	}
	if msg.Message.AuthorName != "helper" {
		t.Errorf("AuthorName = %q", msg.Message.AuthorName)
	}
	if msg.Message.Metadata[agents.MetadataKeyStepID] != "step_1" {
		t.Errorf("step metadata = %v", msg.Message.Metadata)
	}
	if msg.Message.Metadata[agents.MetadataKeyRunID] != "r1" {
		t.Errorf("run metadata = %v", msg.Message.Metadata)
	}

	usage := results[1]
	if usage.Visible {
		t.Error("usage message should be invisible")
	}
	uc, ok := usage.Message.Contents[0].(*agents.UsageContent)
	if !ok || uc.Usage.TotalTokens != 15 {
		t.Errorf("usage content = %#v", usage.Message.Contents[0])
	}
}

func TestRunDriver_RequiresAction(t *testing.T) {
	pollCalls := 0
	listCalls := 0
	var submitted []ToolOutput

	pendingStep := RunStep{
		ID: "step_tc", Type: StepTypeToolCalls, Status: StepStatusInProgress,
		StepDetails: StepDetails{ToolCalls: []ToolCall{{
			ID: "call_1", Type: "function",
			Function: &FunctionCall{Name: "menu-item_price", Arguments: `{"item":"soup"}`},
		}}},
	}
	completedStep := RunStep{
		ID: "step_tc", Type: StepTypeToolCalls, Status: StepStatusCompleted,
		CompletedAt: 200,
		StepDetails: StepDetails{ToolCalls: []ToolCall{{
			ID: "call_1", Type: "function",
			Function: &FunctionCall{Name: "menu-item_price", Arguments: `{"item":"soup"}`},
		}}},
	}

	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			pollCalls++
			if pollCalls == 1 {
				return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusRequiresAction}, nil
			}
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusCompleted}, nil
		},
		listRunStepsFn: func(ctx context.Context, threadID, runID string) ([]RunStep, error) {
			listCalls++
			if listCalls == 1 {
				return []RunStep{pendingStep}, nil
			}
			return []RunStep{completedStep}, nil
		},
		submitToolOutputsFn: func(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
			submitted = outputs
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusInProgress}, nil
		},
	}

	tools := agents.NewToolSet(agents.NewTypedTool("item_price", "",
		func(ctx context.Context, args struct {
			Item string `json:"item"`
		}) (any, error) {
			return "$9.99", nil
		},
		agents.WithPlugin("menu")))

	var results []InvokeResult
	d := newRunDriver(svc, tools, fastPolling(), "helper")
	if err := d.run(context.Background(), "t1", createRunRequest{AgentID: "a1"}, collectResults(&results)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(submitted) != 1 || submitted[0].ToolCallID != "call_1" || submitted[0].Output != "$9.99" {
		t.Errorf("submitted = %+v", submitted)
	}

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want call request + result", len(results))
	}
	callMsg := results[0]
	if callMsg.Visible {
		t.Error("function-call message should be invisible")
	}
	fc, ok := callMsg.Message.Contents[0].(*agents.FunctionCallContent)
	if !ok || fc.CallID != "call_1" || fc.Name != "menu-item_price" {
		t.Errorf("call content = %#v", callMsg.Message.Contents[0])
	}

	resultMsg := results[1]
	if !resultMsg.Visible {
		t.Error("function-result message should be visible")
	}
	if resultMsg.Message.Role != agents.RoleTool {
		t.Errorf("Role = %q", resultMsg.Message.Role)
	}
	fr, ok := resultMsg.Message.Contents[0].(*agents.FunctionResultContent)
	if !ok || fr.Result != "$9.99" {
		t.Errorf("result content = %#v", resultMsg.Message.Contents[0])
	}
}

func TestRunDriver_RequiredActionFallback(t *testing.T) {
	pollCalls := 0
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			pollCalls++
			if pollCalls == 1 {
				// Step listing lags; calls only exist on the required action.
				return &Run{
					ID: "r1", ThreadID: "t1", Status: RunStatusRequiresAction,
					RequiredAction: &RequiredAction{
						Type: "submit_tool_outputs",
						SubmitToolOutputs: &SubmitToolOutputs{ToolCalls: []ToolCall{{
							ID: "call_1", Type: "function",
							Function: &FunctionCall{Name: "lookup", Arguments: "{}"},
						}}},
					},
				}, nil
			}
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusCompleted}, nil
		},
		listRunStepsFn: func(ctx context.Context, threadID, runID string) ([]RunStep, error) {
			return nil, nil
		},
		submitToolOutputsFn: func(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
			if len(outputs) != 1 || outputs[0].ToolCallID != "call_1" {
				t.Errorf("outputs = %+v", outputs)
			}
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusInProgress}, nil
		},
	}

	tools := agents.NewToolSet(agents.NewTool("lookup", "", nil,
		func(ctx context.Context, args json.RawMessage) (any, error) { return "found", nil }))

	var results []InvokeResult
	d := newRunDriver(svc, tools, fastPolling(), "")
	if err := d.run(context.Background(), "t1", createRunRequest{}, collectResults(&results)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want the invisible call request", len(results))
	}
}

func TestRunDriver_RequiresActionWithoutCalls(t *testing.T) {
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusRequiresAction}, nil
		},
		listRunStepsFn: func(ctx context.Context, threadID, runID string) ([]RunStep, error) {
			return nil, nil
		},
	}

	d := newRunDriver(svc, nil, fastPolling(), "")
	err := d.run(context.Background(), "t1", createRunRequest{}, collectResults(&[]InvokeResult{}))
	if !errors.Is(err, agents.ErrRun) {
		t.Errorf("err = %v, want ErrRun", err)
	}
}

func TestRunDriver_TerminalFailure(t *testing.T) {
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			return &Run{
				ID: "r1", ThreadID: "t1", Status: RunStatusFailed,
				LastError: &RunError{Code: "rate_limit_exceeded", Message: "quota exhausted"},
			}, nil
		},
		listRunStepsFn: func(ctx context.Context, threadID, runID string) ([]RunStep, error) {
			return nil, nil
		},
	}

	d := newRunDriver(svc, nil, fastPolling(), "")
	err := d.run(context.Background(), "t1", createRunRequest{}, collectResults(&[]InvokeResult{}))
	if !errors.Is(err, agents.ErrRunFailed) {
		t.Fatalf("err = %v, want ErrRunFailed", err)
	}
	if !strings.Contains(err.Error(), "quota exhausted") {
		t.Errorf("err = %v, want remote message included", err)
	}
}

func TestRunDriver_TransientPollRetry(t *testing.T) {
	getRunCalls := 0
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			getRunCalls++
			if getRunCalls <= 2 {
				return nil, errors.New("connection reset")
			}
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusCompleted}, nil
		},
		listRunStepsFn: func(ctx context.Context, threadID, runID string) ([]RunStep, error) {
			return nil, nil
		},
	}

	d := newRunDriver(svc, nil, fastPolling(), "")
	if err := d.run(context.Background(), "t1", createRunRequest{}, collectResults(&[]InvokeResult{})); err != nil {
		t.Fatalf("run: %v", err)
	}
	if getRunCalls != 3 {
		t.Errorf("getRunCalls = %d, want 3", getRunCalls)
	}
}

func TestRunDriver_TransientRetriesExhausted(t *testing.T) {
	getRunCalls := 0
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			getRunCalls++
			return nil, errors.New("connection reset")
		},
	}

	d := newRunDriver(svc, nil, fastPolling(), "")
	err := d.run(context.Background(), "t1", createRunRequest{}, collectResults(&[]InvokeResult{}))
	if !errors.Is(err, agents.ErrRun) {
		t.Fatalf("err = %v, want ErrRun", err)
	}
	// Initial attempt plus MaximumRetryCount retries.
	if getRunCalls != 3 {
		t.Errorf("getRunCalls = %d, want 3", getRunCalls)
	}
}

func TestRunDriver_ServiceErrorFailsFast(t *testing.T) {
	getRunCalls := 0
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			getRunCalls++
			return nil, &agents.ServiceError{StatusCode: 500, Message: "boom", Err: agents.ErrService}
		},
	}

	d := newRunDriver(svc, nil, fastPolling(), "")
	err := d.run(context.Background(), "t1", createRunRequest{}, collectResults(&[]InvokeResult{}))
	if !errors.Is(err, agents.ErrRun) {
		t.Fatalf("err = %v, want ErrRun", err)
	}
	if getRunCalls != 1 {
		t.Errorf("getRunCalls = %d, explicit service errors must not be retried", getRunCalls)
	}
}

func TestRunDriver_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{
		createRunFn: func(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusQueued}, nil
		},
		getRunFn: func(ctx context.Context, threadID, runID string) (*Run, error) {
			cancel()
			return &Run{ID: "r1", ThreadID: "t1", Status: RunStatusInProgress}, nil
		},
	}

	d := newRunDriver(svc, nil, fastPolling(), "")
	err := d.run(ctx, "t1", createRunRequest{}, collectResults(&[]InvokeResult{}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPollingInterval(t *testing.T) {
	opts := RunPollingOptions{
		RunPollingInterval:         100 * time.Millisecond,
		RunPollingBackoff:          time.Second,
		RunPollingBackoffThreshold: 2,
	}

	tests := []struct {
		iteration int
		want      time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{6, 16 * time.Second},
		{10, 16 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := opts.Interval(tt.iteration); got != tt.want {
			t.Errorf("Interval(%d) = %v, want %v", tt.iteration, got, tt.want)
		}
	}
}

func TestPollingWithDefaults(t *testing.T) {
	opts := RunPollingOptions{RunPollingInterval: time.Millisecond}.withDefaults()
	def := DefaultRunPollingOptions()

	if opts.RunPollingInterval != time.Millisecond {
		t.Errorf("RunPollingInterval = %v, explicit value must be kept", opts.RunPollingInterval)
	}
	if opts.RunPollingBackoff != def.RunPollingBackoff {
		t.Errorf("RunPollingBackoff = %v, want default", opts.RunPollingBackoff)
	}
	if opts.MaximumRetryCount != def.MaximumRetryCount {
		t.Errorf("MaximumRetryCount = %v, want default", opts.MaximumRetryCount)
	}
}
