// Copyright (c) Microsoft. All rights reserved.

package agents

import "strings"

// Role identifies the author of a [Message].
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Metadata keys echoed onto messages projected from a remote run. Values are
// the remote identifiers the message was assembled from.
const (
	// MetadataKeyThreadID is the remote conversation thread identifier.
	MetadataKeyThreadID = "thread_id"

	// MetadataKeyRunID is the identifier of the run that produced the message.
	MetadataKeyRunID = "run_id"

	// MetadataKeyStepID is the identifier of the run step the message was
	// projected from.
	MetadataKeyStepID = "step_id"

	// MetadataKeyCode flags a message whose text is code-interpreter input
	// rather than conversational content.
	MetadataKeyCode = "code"

	// MetadataKeyUsage carries the [UsageDetails] reported for a completed run.
	MetadataKeyUsage = "usage"
)

// Message is a single chat message assembled from one or more remote
// message or step fragments. Messages are synthesized fresh per observed
// fragment and are not mutated after emission.
type Message struct {
	Role       Role           `json:"role"`
	Contents   Contents       `json:"contents,omitempty"`
	AuthorName string         `json:"authorName,omitempty"`
	MessageID  string         `json:"messageId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Text returns the concatenated text of all [TextContent] items in this message.
func (m *Message) Text() string {
	var b strings.Builder
	for _, c := range m.Contents {
		if tc, ok := c.(*TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// Annotations returns all [AnnotationContent] items in this message.
func (m *Message) Annotations() []*AnnotationContent {
	var anns []*AnnotationContent
	for _, c := range m.Contents {
		if a, ok := c.(*AnnotationContent); ok {
			anns = append(anns, a)
		}
	}
	return anns
}

// NewUserMessage creates a user-role [Message] from a text string.
func NewUserMessage(text string) Message {
	return Message{
		Role:     RoleUser,
		Contents: Contents{&TextContent{Text: text}},
	}
}

// NewAssistantMessage creates an assistant-role [Message] from a text string.
func NewAssistantMessage(text string) Message {
	return Message{
		Role:     RoleAssistant,
		Contents: Contents{&TextContent{Text: text}},
	}
}

// MessageUpdate is a single incremental fragment emitted while streaming a
// run. Contents carry partial deltas (text pieces, annotation fragments,
// [FunctionCallUpdateContent] argument fragments) that are reconciled into
// complete messages once the originating step completes.
type MessageUpdate struct {
	Role       Role
	AuthorName string
	MessageID  string
	Contents   Contents
	Metadata   map[string]any
}

// Text returns the concatenated text of all [TextContent] items in this update.
func (u *MessageUpdate) Text() string {
	var b strings.Builder
	for _, c := range u.Contents {
		if tc, ok := c.(*TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
