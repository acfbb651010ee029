// Copyright (c) Microsoft. All rights reserved.

// Package agents provides the provider-independent model for driving remote
// agent runs: typed chat content, tools with plugin-qualified names, streaming
// primitives, and the shared error taxonomy.
//
// The package does not talk to any service itself. Provider packages (e.g.,
// azureai) submit runs against a remote conversation thread, reconcile tool
// calls against a local [ToolSet], and project the run's steps and messages
// into [Message] values built from the sealed [Content] union defined here.
//
// # Content
//
// [Content] is a sealed interface with one concrete type per [ContentType].
// Use a type switch to inspect message parts:
//
//	for _, c := range msg.Contents {
//	    switch v := c.(type) {
//	    case *agents.TextContent:
//	        fmt.Print(v.Text)
//	    case *agents.FunctionCallContent:
//	        fmt.Printf("call %s(%s)", v.Name, v.Arguments)
//	    }
//	}
//
// # Tools
//
// Tools are exposed to the model under plugin-qualified names
// ("plugin-function"). Use [NewTypedTool] for type-safe tools with automatic
// JSON Schema generation:
//
//	type MenuArgs struct {
//	    Item string `json:"item" jsonschema:"description=Menu item name,required"`
//	}
//
//	tool := agents.NewTypedTool("item_price", "Price of a menu item",
//	    func(ctx context.Context, args MenuArgs) (any, error) {
//	        return lookupPrice(args.Item)
//	    },
//	    agents.WithPlugin("menu"),
//	)
//
// # Streaming
//
// [Stream] is a generic pull-based iterator used for both blocking invocation
// results and incremental streaming updates. Callers must Close the stream or
// drain it fully.
package agents
