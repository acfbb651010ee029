// Copyright (c) Microsoft. All rights reserved.

package agents

import "strings"

// ContentType identifies the kind of content within a message.
type ContentType string

const (
	ContentTypeText               ContentType = "text"
	ContentTypeAnnotation         ContentType = "annotation"
	ContentTypeFileReference      ContentType = "fileReference"
	ContentTypeFunctionCall       ContentType = "functionCall"
	ContentTypeFunctionCallUpdate ContentType = "functionCallUpdate"
	ContentTypeFunctionResult     ContentType = "functionResult"
	ContentTypeUsage              ContentType = "usage"
)

// Content is a sealed interface representing one part of a [Message].
// Each concrete type carries data specific to its [ContentType].
// Use a type switch to inspect the underlying type.
type Content interface {
	// Type returns the discriminator for this content item.
	Type() ContentType

	// sealed prevents external implementations.
	sealed()
}

// base is embedded by every concrete Content type to satisfy the sealed marker.
type base struct{}

func (base) sealed() {}

// TextContent holds plain text generated by the agent (or authored by the user).
type TextContent struct {
	base
	Text string
}

func (c *TextContent) Type() ContentType { return ContentTypeText }

// AnnotationKind identifies the citation variant attached to generated text.
type AnnotationKind string

const (
	AnnotationKindFileCitation AnnotationKind = "file_citation"
	AnnotationKindFilePath     AnnotationKind = "file_path"
	AnnotationKindURLCitation  AnnotationKind = "url_citation"
)

// AnnotationContent is a citation or reference attached to generated text.
// Label carries the quoted text (or page title for URL citations); ReferenceID
// carries the file id or URL the annotation points at. StartIndex/EndIndex
// locate the annotated span within the text.
type AnnotationContent struct {
	base
	Kind        AnnotationKind
	Label       string
	ReferenceID string
	StartIndex  int
	EndIndex    int
}

func (c *AnnotationContent) Type() ContentType { return ContentTypeAnnotation }

// FileReferenceContent references a service-hosted file, typically an image
// produced by the code interpreter.
type FileReferenceContent struct {
	base
	FileID string
}

func (c *FileReferenceContent) Type() ContentType { return ContentTypeFileReference }

// FunctionCallContent represents a tool call requested by the remote run.
// Name is the plugin-qualified function name; Arguments is the JSON-encoded
// argument payload exactly as the model produced it.
type FunctionCallContent struct {
	base
	CallID    string
	Name      string
	Arguments string
}

func (c *FunctionCallContent) Type() ContentType { return ContentTypeFunctionCall }

// FunctionCallUpdateContent is a streaming fragment of a function call.
// The remote stream delivers the call id and name once and the argument text
// in pieces; fragments sharing an Index belong to the same call.
type FunctionCallUpdateContent struct {
	base
	Index          int
	CallID         string
	Name           string
	ArgumentsDelta string
}

func (c *FunctionCallUpdateContent) Type() ContentType { return ContentTypeFunctionCallUpdate }

// FunctionResultContent represents the local result for a tool call.
type FunctionResultContent struct {
	base
	CallID string
	Name   string
	Result any
}

func (c *FunctionResultContent) Type() ContentType { return ContentTypeFunctionResult }

// UsageContent carries token usage reported by a completed run.
type UsageContent struct {
	base
	Usage UsageDetails
}

func (c *UsageContent) Type() ContentType { return ContentTypeUsage }

// MergeFunctionCallUpdates reconciles streamed function-call fragments into
// complete calls. Fragments are grouped by Index; within a group the first
// non-empty call id and name win and argument deltas concatenate in arrival
// order. Results are ordered by first appearance.
func MergeFunctionCallUpdates(updates []*FunctionCallUpdateContent) []*FunctionCallContent {
	if len(updates) == 0 {
		return nil
	}

	type partial struct {
		callID string
		name   string
		args   strings.Builder
	}

	byIndex := make(map[int]*partial)
	var order []int
	for _, u := range updates {
		p, ok := byIndex[u.Index]
		if !ok {
			p = &partial{}
			byIndex[u.Index] = p
			order = append(order, u.Index)
		}
		if p.callID == "" {
			p.callID = u.CallID
		}
		if p.name == "" {
			p.name = u.Name
		}
		p.args.WriteString(u.ArgumentsDelta)
	}

	calls := make([]*FunctionCallContent, 0, len(order))
	for _, idx := range order {
		p := byIndex[idx]
		calls = append(calls, &FunctionCallContent{
			CallID:    p.callID,
			Name:      p.name,
			Arguments: p.args.String(),
		})
	}
	return calls
}
