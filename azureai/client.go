// Copyright (c) Microsoft. All rights reserved.

package azureai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

// service is the narrow surface of the remote Agents API that the run
// orchestration consumes. *Client implements it; tests inject a fake to
// exercise the state machine without live service calls.
type service interface {
	CreateThread(ctx context.Context) (*Thread, error)
	GetThread(ctx context.Context, threadID string) (*Thread, error)
	DeleteThread(ctx context.Context, threadID string) error
	CreateMessage(ctx context.Context, threadID, role, content string) (*ThreadMessage, error)
	DeleteAgent(ctx context.Context, agentID string) error
	CreateRun(ctx context.Context, threadID string, req createRunRequest) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	CancelRun(ctx context.Context, threadID, runID string) (*Run, error)
	ListRunSteps(ctx context.Context, threadID, runID string) ([]RunStep, error)
	GetMessage(ctx context.Context, threadID, messageID string) (*ThreadMessage, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
	CreateRunStream(ctx context.Context, threadID string, req createRunRequest) (*agents.Stream[streamEvent], error)
	SubmitToolOutputsStream(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*agents.Stream[streamEvent], error)
}

// Client is a thin wrapper over the Azure AI Agents REST API. Use [NewClient]
// to create one. The wire protocol is owned and versioned by the service;
// Client only mirrors the subset the run orchestration needs.
type Client struct {
	tp transport
}

var _ service = (*Client)(nil)

// NewClient creates a Client for the given project endpoint, authenticating
// with the provided credential.
//
//	cred, err := azidentity.NewDefaultAzureCredential(nil)
//	client, err := azureai.NewClient("https://example.services.ai.azure.com/api/projects/demo", cred)
func NewClient(endpoint string, credential azcore.TokenCredential, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint is required", agents.ErrInvalidRequest)
	}
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return &Client{tp: newHTTPTransport(endpoint, credential, cfg)}, nil
}

// newWithTransport creates a Client with a custom transport (for testing).
func newWithTransport(tp transport) *Client {
	return &Client{tp: tp}
}

// CreateAgent creates a remote agent definition.
func (c *Client) CreateAgent(ctx context.Context, req createAgentRequest) (*AgentInfo, error) {
	var info AgentInfo
	if err := c.doJSON(ctx, "POST", "/assistants", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetAgent retrieves a remote agent definition.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*AgentInfo, error) {
	var info AgentInfo
	if err := c.doJSON(ctx, "GET", "/assistants/"+url.PathEscape(agentID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteAgent deletes a remote agent definition.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	var status deletionStatus
	return c.doJSON(ctx, "DELETE", "/assistants/"+url.PathEscape(agentID), nil, &status)
}

// CreateThread creates a new conversation thread.
func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.doJSON(ctx, "POST", "/threads", struct{}{}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// GetThread retrieves an existing conversation thread.
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	var thread Thread
	if err := c.doJSON(ctx, "GET", "/threads/"+url.PathEscape(threadID), nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// DeleteThread deletes a conversation thread.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	var status deletionStatus
	return c.doJSON(ctx, "DELETE", "/threads/"+url.PathEscape(threadID), nil, &status)
}

// CreateMessage appends a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*ThreadMessage, error) {
	var msg ThreadMessage
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.doJSON(ctx, "POST", path, createMessageRequest{Role: role, Content: content}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessage retrieves a single message from a thread.
func (c *Client) GetMessage(ctx context.Context, threadID, messageID string) (*ThreadMessage, error) {
	var msg ThreadMessage
	path := "/threads/" + url.PathEscape(threadID) + "/messages/" + url.PathEscape(messageID)
	if err := c.doJSON(ctx, "GET", path, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateRun submits a new run against a thread.
func (c *Client) CreateRun(ctx context.Context, threadID string, req createRunRequest) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs"
	if err := c.doJSON(ctx, "POST", path, req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.doJSON(ctx, "GET", path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// CancelRun requests cancellation of an in-flight run.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/cancel"
	if err := c.doJSON(ctx, "POST", path, struct{}{}, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRunSteps lists all steps recorded for a run, following pagination.
func (c *Client) ListRunSteps(ctx context.Context, threadID, runID string) ([]RunStep, error) {
	base := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/steps"

	var steps []RunStep
	after := ""
	for {
		path := base
		if after != "" {
			path += "?after=" + url.QueryEscape(after)
		}
		var page listEnvelope[RunStep]
		if err := c.doJSON(ctx, "GET", path, nil, &page); err != nil {
			return nil, err
		}
		steps = append(steps, page.Data...)
		if !page.HasMore || page.LastID == "" {
			return steps, nil
		}
		after = page.LastID
	}
}

// SubmitToolOutputs submits locally produced tool outputs back to a run
// awaiting them.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/submit_tool_outputs"
	if err := c.doJSON(ctx, "POST", path, submitToolOutputsRequest{ToolOutputs: outputs}, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// CreateRunStream submits a new run and returns its server-sent event stream.
func (c *Client) CreateRunStream(ctx context.Context, threadID string, req createRunRequest) (*agents.Stream[streamEvent], error) {
	req.Stream = true
	path := "/threads/" + url.PathEscape(threadID) + "/runs"
	resp, err := c.tp.do(ctx, "POST", path, req)
	if err != nil {
		return nil, err
	}
	return agents.NewStream(ctx, func(ctx context.Context, ch chan<- streamEvent) error {
		defer resp.Body.Close()
		return parseSSEStream(ctx, resp.Body, ch)
	}), nil
}

// SubmitToolOutputsStream submits tool outputs and returns the event stream
// that continues the run.
func (c *Client) SubmitToolOutputsStream(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*agents.Stream[streamEvent], error) {
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/submit_tool_outputs"
	resp, err := c.tp.do(ctx, "POST", path, submitToolOutputsRequest{ToolOutputs: outputs, Stream: true})
	if err != nil {
		return nil, err
	}
	return agents.NewStream(ctx, func(ctx context.Context, ch chan<- streamEvent) error {
		defer resp.Body.Close()
		return parseSSEStream(ctx, resp.Body, ch)
	}), nil
}

// doJSON performs a request and decodes a JSON response body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.tp.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", agents.ErrService, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: parse response: %v", agents.ErrService, err)
	}
	return nil
}

// parseSSEStream reads server-sent events from r and sends parsed events to
// ch. Events arrive as "event:"/"data:" line pairs; the stream terminates on
// the done event. Malformed payloads are skipped rather than aborting.
func parseSSEStream(ctx context.Context, r io.Reader, ch chan<- streamEvent) error {
	scanner := bufio.NewScanner(r)
	// Allow large SSE lines (message deltas can be substantial).
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	event := ""
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			continue

		case strings.HasPrefix(line, "data: "):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			if event == eventDone || data == "[DONE]" {
				return nil
			}
			if event == "" {
				continue
			}

			ev := streamEvent{Event: event, Data: json.RawMessage(data)}
			event = ""

			select {
			case ch <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			// Blank separator or comment line.
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read event stream: %v", agents.ErrService, err)
	}

	return nil
}
