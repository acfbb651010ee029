// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"encoding/json"
	"fmt"
)

// MarshalContentJSON marshals a single Content value into its JSON envelope,
// using a $type discriminator.
func MarshalContentJSON(c Content) ([]byte, error) {
	switch v := c.(type) {
	case *TextContent:
		return json.Marshal(struct {
			Type string `json:"$type"`
			Text string `json:"text"`
		}{string(ContentTypeText), v.Text})

	case *AnnotationContent:
		return json.Marshal(struct {
			Type        string `json:"$type"`
			Kind        string `json:"kind"`
			Label       string `json:"label,omitempty"`
			ReferenceID string `json:"referenceId,omitempty"`
			StartIndex  int    `json:"startIndex,omitempty"`
			EndIndex    int    `json:"endIndex,omitempty"`
		}{string(ContentTypeAnnotation), string(v.Kind), v.Label, v.ReferenceID, v.StartIndex, v.EndIndex})

	case *FileReferenceContent:
		return json.Marshal(struct {
			Type   string `json:"$type"`
			FileID string `json:"fileId"`
		}{string(ContentTypeFileReference), v.FileID})

	case *FunctionCallContent:
		return json.Marshal(struct {
			Type      string `json:"$type"`
			CallID    string `json:"callId"`
			Name      string `json:"name"`
			Arguments string `json:"arguments,omitempty"`
		}{string(ContentTypeFunctionCall), v.CallID, v.Name, v.Arguments})

	case *FunctionCallUpdateContent:
		return json.Marshal(struct {
			Type           string `json:"$type"`
			Index          int    `json:"index"`
			CallID         string `json:"callId,omitempty"`
			Name           string `json:"name,omitempty"`
			ArgumentsDelta string `json:"argumentsDelta,omitempty"`
		}{string(ContentTypeFunctionCallUpdate), v.Index, v.CallID, v.Name, v.ArgumentsDelta})

	case *FunctionResultContent:
		return json.Marshal(struct {
			Type   string `json:"$type"`
			CallID string `json:"callId"`
			Name   string `json:"name,omitempty"`
			Result any    `json:"result,omitempty"`
		}{string(ContentTypeFunctionResult), v.CallID, v.Name, v.Result})

	case *UsageContent:
		return json.Marshal(struct {
			Type  string       `json:"$type"`
			Usage UsageDetails `json:"usage"`
		}{string(ContentTypeUsage), v.Usage})

	default:
		return nil, fmt.Errorf("unknown content type: %T", c)
	}
}

// UnmarshalContentJSON unmarshals a single Content value from its JSON envelope.
func UnmarshalContentJSON(data []byte) (Content, error) {
	var env struct {
		Type string `json:"$type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal content envelope: %w", err)
	}

	switch ContentType(env.Type) {
	case ContentTypeText:
		var v struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &TextContent{Text: v.Text}, nil

	case ContentTypeAnnotation:
		var v struct {
			Kind        string `json:"kind"`
			Label       string `json:"label"`
			ReferenceID string `json:"referenceId"`
			StartIndex  int    `json:"startIndex"`
			EndIndex    int    `json:"endIndex"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &AnnotationContent{
			Kind:        AnnotationKind(v.Kind),
			Label:       v.Label,
			ReferenceID: v.ReferenceID,
			StartIndex:  v.StartIndex,
			EndIndex:    v.EndIndex,
		}, nil

	case ContentTypeFileReference:
		var v struct {
			FileID string `json:"fileId"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &FileReferenceContent{FileID: v.FileID}, nil

	case ContentTypeFunctionCall:
		var v struct {
			CallID    string `json:"callId"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &FunctionCallContent{CallID: v.CallID, Name: v.Name, Arguments: v.Arguments}, nil

	case ContentTypeFunctionCallUpdate:
		var v struct {
			Index          int    `json:"index"`
			CallID         string `json:"callId"`
			Name           string `json:"name"`
			ArgumentsDelta string `json:"argumentsDelta"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &FunctionCallUpdateContent{Index: v.Index, CallID: v.CallID, Name: v.Name, ArgumentsDelta: v.ArgumentsDelta}, nil

	case ContentTypeFunctionResult:
		var v struct {
			CallID string `json:"callId"`
			Name   string `json:"name"`
			Result any    `json:"result"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &FunctionResultContent{CallID: v.CallID, Name: v.Name, Result: v.Result}, nil

	case ContentTypeUsage:
		var v struct {
			Usage UsageDetails `json:"usage"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &UsageContent{Usage: v.Usage}, nil

	default:
		return nil, fmt.Errorf("unknown content $type: %q", env.Type)
	}
}

// Contents is a typed slice enabling JSON marshal/unmarshal of polymorphic
// Content arrays.
type Contents []Content

// MarshalJSON serializes each Content item using its $type discriminator.
func (cs Contents) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(cs))
	for i, c := range cs {
		b, err := MarshalContentJSON(c)
		if err != nil {
			return nil, fmt.Errorf("marshal content[%d]: %w", i, err)
		}
		items[i] = b
	}
	return json.Marshal(items)
}

// UnmarshalJSON deserializes a JSON array of Content items using the $type
// discriminator.
func (cs *Contents) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]Content, len(raw))
	for i, r := range raw {
		c, err := UnmarshalContentJSON(r)
		if err != nil {
			return fmt.Errorf("unmarshal content[%d]: %w", i, err)
		}
		result[i] = c
	}
	*cs = result
	return nil
}
