// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"testing"

	"github.com/Bryan-Roe-ai/agents-go/agents"
)

func TestMergeFunctionCallUpdates_SingleCall(t *testing.T) {
	updates := []*agents.FunctionCallUpdateContent{
		{Index: 0, CallID: "call_1", Name: "menu-item_price", ArgumentsDelta: `{"item":`},
		{Index: 0, ArgumentsDelta: `"soup"}`},
	}

	calls := agents.MergeFunctionCallUpdates(updates)
	if len(calls) != 1 {
		t.Fatalf("len(calls) = %d, want 1", len(calls))
	}
	if calls[0].CallID != "call_1" {
		t.Errorf("CallID = %q, want call_1", calls[0].CallID)
	}
	if calls[0].Name != "menu-item_price" {
		t.Errorf("Name = %q", calls[0].Name)
	}
	if calls[0].Arguments != `{"item":"soup"}` {
		t.Errorf("Arguments = %q", calls[0].Arguments)
	}
}

func TestMergeFunctionCallUpdates_MultipleIndexes(t *testing.T) {
	updates := []*agents.FunctionCallUpdateContent{
		{Index: 1, CallID: "call_b", Name: "second", ArgumentsDelta: "{}"},
		{Index: 0, CallID: "call_a", Name: "first", ArgumentsDelta: `{"x":`},
		{Index: 0, ArgumentsDelta: "1}"},
	}

	calls := agents.MergeFunctionCallUpdates(updates)
	if len(calls) != 2 {
		t.Fatalf("len(calls) = %d, want 2", len(calls))
	}
	// Order follows first appearance, not index value.
	if calls[0].CallID != "call_b" {
		t.Errorf("calls[0].CallID = %q, want call_b", calls[0].CallID)
	}
	if calls[1].CallID != "call_a" {
		t.Errorf("calls[1].CallID = %q, want call_a", calls[1].CallID)
	}
	if calls[1].Arguments != `{"x":1}` {
		t.Errorf("calls[1].Arguments = %q", calls[1].Arguments)
	}
}

func TestMergeFunctionCallUpdates_FirstIdentityWins(t *testing.T) {
	updates := []*agents.FunctionCallUpdateContent{
		{Index: 0, ArgumentsDelta: "a"},
		{Index: 0, CallID: "call_1", Name: "tool", ArgumentsDelta: "b"},
		{Index: 0, CallID: "ignored", Name: "ignored", ArgumentsDelta: "c"},
	}

	calls := agents.MergeFunctionCallUpdates(updates)
	if len(calls) != 1 {
		t.Fatalf("len(calls) = %d, want 1", len(calls))
	}
	if calls[0].CallID != "call_1" || calls[0].Name != "tool" {
		t.Errorf("identity = %q/%q, want call_1/tool", calls[0].CallID, calls[0].Name)
	}
	if calls[0].Arguments != "abc" {
		t.Errorf("Arguments = %q, want abc", calls[0].Arguments)
	}
}

func TestMergeFunctionCallUpdates_Empty(t *testing.T) {
	if calls := agents.MergeFunctionCallUpdates(nil); len(calls) != 0 {
		t.Errorf("len(calls) = %d, want 0", len(calls))
	}
}

func TestMessageText(t *testing.T) {
	msg := agents.Message{
		Role: agents.RoleAssistant,
		Contents: []agents.Content{
			&agents.TextContent{Text: "Hello"},
			&agents.FunctionCallContent{CallID: "c1", Name: "tool"},
			&agents.TextContent{Text: " world"},
		},
	}
	if got := msg.Text(); got != "Hello world" {
		t.Errorf("Text() = %q", got)
	}
}

func TestMessageAnnotations(t *testing.T) {
	ann := &agents.AnnotationContent{
		Kind:        agents.AnnotationKindFileCitation,
		Label:       "source.txt",
		ReferenceID: "file_1",
	}
	msg := agents.Message{
		Role: agents.RoleAssistant,
		Contents: []agents.Content{
			&agents.TextContent{Text: "see source"},
			ann,
		},
	}
	got := msg.Annotations()
	if len(got) != 1 || got[0] != ann {
		t.Errorf("Annotations() = %v", got)
	}
}

func TestMessageUpdateText(t *testing.T) {
	update := agents.MessageUpdate{
		Contents: []agents.Content{
			&agents.TextContent{Text: "par"},
			&agents.TextContent{Text: "tial"},
		},
	}
	if got := update.Text(); got != "partial" {
		t.Errorf("Text() = %q", got)
	}
}
