// Copyright (c) Microsoft. All rights reserved.

// Package azureai drives agent runs against the Azure AI Agents service.
//
// The package wraps the service's REST and event-stream endpoints behind a
// narrow [Client], and layers the run orchestration on top: submitting a run
// against a conversation thread, polling or streaming it to a terminal
// status, invoking pending tool calls against a local [agents.ToolSet],
// submitting tool outputs back to the run, and projecting the run's steps
// and messages into typed [agents.Message] values.
//
// Create a [Client] with an [azcore.TokenCredential], wrap a remote agent
// definition, and invoke it against a thread:
//
//	cred, _ := azidentity.NewDefaultAzureCredential(nil)
//	client, _ := azureai.NewClient(endpoint, cred)
//
//	agent, _ := azureai.CreateAgent(ctx, client,
//	    azureai.WithName("menu-assistant"),
//	    azureai.WithModel("gpt-4o"),
//	    azureai.WithInstructions("Answer questions about the menu."),
//	    azureai.WithTools(menuTool),
//	)
//
//	thread, _ := agent.NewThread(ctx)
//	agent.AppendMessage(ctx, thread.ID, agents.NewUserMessage("What is the special?"))
//
//	stream := agent.Invoke(ctx, thread.ID)
//	defer stream.Close()
//	for {
//	    item, ok, err := stream.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    if item.Visible {
//	        fmt.Println(item.Message.Text())
//	    }
//	}
//
// Function-call request messages are emitted with Visible=false since they
// represent automatic tool execution rather than user-facing content;
// function results and code-interpreter output are visible.
package azureai
