// Copyright (c) Microsoft. All rights reserved.

package azureai

import "encoding/json"

// Wire-level mirrors of the Azure AI Agents REST resources. The service owns
// these shapes; they are mirrored locally only for the duration of a run and
// projected into [agents.Message] values before reaching callers.

// RunStatus is the remote-issued lifecycle status of a [Run].
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
)

// IsPollable reports whether the run is still making progress and should be
// polled again.
func (s RunStatus) IsPollable() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return true
	}
	return false
}

// IsTerminal reports whether the run has finished, successfully or not.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusExpired, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// AgentInfo is the remote agent definition a run executes against.
type AgentInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	CreatedAt    int64  `json:"created_at"`
}

// Thread is a remote conversation thread.
type Thread struct {
	ID        string            `json:"id"`
	CreatedAt int64             `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ThreadMessage is a message stored on a thread.
type ThreadMessage struct {
	ID        string           `json:"id"`
	ThreadID  string           `json:"thread_id"`
	RunID     string           `json:"run_id,omitempty"`
	Role      string           `json:"role"`
	CreatedAt int64            `json:"created_at"`
	Content   []MessageContent `json:"content"`
}

// MessageContent is one typed part of a [ThreadMessage].
type MessageContent struct {
	Type      string         `json:"type"`
	Text      *TextValue     `json:"text,omitempty"`
	ImageFile *FileReference `json:"image_file,omitempty"`
}

// TextValue is text content with its attached annotations.
type TextValue struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// FileReference points at a service-hosted file.
type FileReference struct {
	FileID string `json:"file_id"`
}

// Annotation is a citation attached to generated text. Exactly one of the
// variant fields is set, discriminated by Type.
type Annotation struct {
	Type         string         `json:"type"`
	Text         string         `json:"text,omitempty"`
	StartIndex   int            `json:"start_index,omitempty"`
	EndIndex     int            `json:"end_index,omitempty"`
	FileCitation *FileCitation  `json:"file_citation,omitempty"`
	FilePath     *FileReference `json:"file_path,omitempty"`
	URLCitation  *URLCitation   `json:"url_citation,omitempty"`
}

// FileCitation references a quoted passage in a hosted file.
type FileCitation struct {
	FileID string `json:"file_id"`
	Quote  string `json:"quote,omitempty"`
}

// URLCitation references an external web source.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Run is one invocation of an agent against a thread.
type Run struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	AgentID        string          `json:"assistant_id"`
	Status         RunStatus       `json:"status"`
	Model          string          `json:"model,omitempty"`
	LastError      *RunError       `json:"last_error,omitempty"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	Usage          *RunUsage       `json:"usage,omitempty"`
	CreatedAt      int64           `json:"created_at"`
	CompletedAt    int64           `json:"completed_at,omitempty"`
}

// RunError is the remote error recorded on a terminally failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunUsage is the token usage recorded on a completed run or step.
type RunUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RequiredAction is set while a run is requires_action.
type RequiredAction struct {
	Type              string             `json:"type"`
	SubmitToolOutputs *SubmitToolOutputs `json:"submit_tool_outputs,omitempty"`
}

// SubmitToolOutputs lists the tool calls awaiting local outputs.
type SubmitToolOutputs struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ToolCall is a pending or recorded tool invocation. Exactly one of the
// variant fields is set, discriminated by Type.
type ToolCall struct {
	ID              string               `json:"id"`
	Type            string               `json:"type"`
	Function        *FunctionCall        `json:"function,omitempty"`
	CodeInterpreter *CodeInterpreterCall `json:"code_interpreter,omitempty"`
}

// FunctionCall carries a function tool call's name, arguments, and (on
// completed steps) the submitted output.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Output    string `json:"output,omitempty"`
}

// CodeInterpreterCall carries code the remote interpreter executed and its
// outputs. It is informational; the code is never run locally.
type CodeInterpreterCall struct {
	Input   string                  `json:"input"`
	Outputs []CodeInterpreterOutput `json:"outputs,omitempty"`
}

// CodeInterpreterOutput is one output of a code interpreter invocation.
type CodeInterpreterOutput struct {
	Type  string         `json:"type"`
	Logs  string         `json:"logs,omitempty"`
	Image *FileReference `json:"image,omitempty"`
}

// RunStep is a remote-issued record of one action taken during a run.
type RunStep struct {
	ID          string      `json:"id"`
	RunID       string      `json:"run_id"`
	ThreadID    string      `json:"thread_id"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	CreatedAt   int64       `json:"created_at"`
	CompletedAt int64       `json:"completed_at,omitempty"`
	StepDetails StepDetails `json:"step_details"`
	Usage       *RunUsage   `json:"usage,omitempty"`
}

// Step types and statuses issued by the service.
const (
	StepTypeMessageCreation = "message_creation"
	StepTypeToolCalls       = "tool_calls"

	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
)

// StepDetails discriminates what a step did.
type StepDetails struct {
	Type            string           `json:"type"`
	MessageCreation *MessageCreation `json:"message_creation,omitempty"`
	ToolCalls       []ToolCall       `json:"tool_calls,omitempty"`
}

// MessageCreation references the message a message_creation step produced.
type MessageCreation struct {
	MessageID string `json:"message_id"`
}

// ToolOutput correlates a locally produced result back to its tool call.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Request payloads.

type createAgentRequest struct {
	Name         string     `json:"name,omitempty"`
	Description  string     `json:"description,omitempty"`
	Model        string     `json:"model"`
	Instructions string     `json:"instructions,omitempty"`
	Tools        []toolSpec `json:"tools,omitempty"`
}

type toolSpec struct {
	Type     string        `json:"type"`
	Function *functionSpec `json:"function,omitempty"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type createMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type createRunRequest struct {
	AgentID                string     `json:"assistant_id"`
	Model                  string     `json:"model,omitempty"`
	Instructions           string     `json:"instructions,omitempty"`
	AdditionalInstructions string     `json:"additional_instructions,omitempty"`
	Tools                  []toolSpec `json:"tools,omitempty"`
	Stream                 bool       `json:"stream,omitempty"`
}

type submitToolOutputsRequest struct {
	ToolOutputs []ToolOutput `json:"tool_outputs"`
	Stream      bool         `json:"stream,omitempty"`
}

type listEnvelope[T any] struct {
	Data    []T    `json:"data"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
	HasMore bool   `json:"has_more"`
}

type deletionStatus struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Streaming event payloads.

// streamEvent is one server-sent event from a streaming run.
type streamEvent struct {
	Event string
	Data  json.RawMessage
}

// Event names emitted by the service during a streaming run.
const (
	eventThreadRunCreated        = "thread.run.created"
	eventThreadRunQueued         = "thread.run.queued"
	eventThreadRunInProgress     = "thread.run.in_progress"
	eventThreadRunRequiresAction = "thread.run.requires_action"
	eventThreadRunCompleted      = "thread.run.completed"
	eventThreadRunFailed         = "thread.run.failed"
	eventThreadRunCancelled      = "thread.run.cancelled"
	eventThreadRunExpired        = "thread.run.expired"
	eventThreadRunStepDelta      = "thread.run.step.delta"
	eventThreadRunStepCompleted  = "thread.run.step.completed"
	eventThreadMessageCreated    = "thread.message.created"
	eventThreadMessageDelta      = "thread.message.delta"
	eventThreadMessageCompleted  = "thread.message.completed"
	eventDone                    = "done"
)

// messageDeltaObject is the payload of a thread.message.delta event.
type messageDeltaObject struct {
	ID    string       `json:"id"`
	Delta messageDelta `json:"delta"`
}

type messageDelta struct {
	Role    string                `json:"role,omitempty"`
	Content []messageDeltaContent `json:"content"`
}

type messageDeltaContent struct {
	Index     int            `json:"index"`
	Type      string         `json:"type"`
	Text      *TextValue     `json:"text,omitempty"`
	ImageFile *FileReference `json:"image_file,omitempty"`
}

// runStepDeltaObject is the payload of a thread.run.step.delta event.
type runStepDeltaObject struct {
	ID    string       `json:"id"`
	Delta runStepDelta `json:"delta"`
}

type runStepDelta struct {
	StepDetails *stepDeltaDetails `json:"step_details,omitempty"`
}

type stepDeltaDetails struct {
	Type      string          `json:"type"`
	ToolCalls []toolCallDelta `json:"tool_calls,omitempty"`
}

type toolCallDelta struct {
	Index           int                  `json:"index"`
	ID              string               `json:"id,omitempty"`
	Type            string               `json:"type,omitempty"`
	Function        *FunctionCall        `json:"function,omitempty"`
	CodeInterpreter *CodeInterpreterCall `json:"code_interpreter,omitempty"`
}
