// Copyright (c) Microsoft. All rights reserved.

// Command assistant demonstrates driving an agent run against an Azure AI
// project, including local function tools reconciled through the run's
// requires_action phase.
//
// Usage:
//
//	export AZURE_AI_PROJECT_ENDPOINT=https://<resource>.services.ai.azure.com/api/projects/<project>
//	export AZURE_AI_MODEL=gpt-4o   # optional, defaults to gpt-4o
//	go run .
//
// Authentication uses DefaultAzureCredential (az login, managed identity,
// or environment variables).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"

	"github.com/Bryan-Roe-ai/agents-go/agents"
	"github.com/Bryan-Roe-ai/agents-go/azureai"
)

func main() {
	// Load .env file if present (ignored if missing).
	_ = godotenv.Load()

	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	endpoint := os.Getenv("AZURE_AI_PROJECT_ENDPOINT")
	if endpoint == "" {
		log.Fatal("AZURE_AI_PROJECT_ENDPOINT is required")
	}
	model := os.Getenv("AZURE_AI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		log.Fatalf("credential: %v", err)
	}

	client, err := azureai.NewClient(endpoint, cred)
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	ctx := context.Background()

	menuTool := agents.NewTypedTool("item_price",
		"Provides the price of the requested menu item.",
		func(ctx context.Context, args struct {
			Item string `json:"item" jsonschema:"description=The name of the menu item,required"`
		}) (any, error) {
			return "$9.99", nil
		},
		agents.WithPlugin("menu"),
	)

	agent, err := azureai.CreateAgent(ctx, client,
		azureai.WithName("menu-assistant"),
		azureai.WithModel(model),
		azureai.WithInstructions("Answer questions about the menu."),
		azureai.WithTools(menuTool),
	)
	if err != nil {
		log.Fatalf("create agent: %v", err)
	}
	defer func() {
		if err := agent.Delete(ctx); err != nil {
			log.Printf("delete agent: %v", err)
		}
	}()

	thread, err := agent.NewThread(ctx)
	if err != nil {
		log.Fatalf("create thread: %v", err)
	}
	defer func() {
		if err := agent.DeleteThread(ctx, thread.ID); err != nil {
			log.Printf("delete thread: %v", err)
		}
	}()

	if _, err := agent.AppendMessage(ctx, thread.ID,
		agents.NewUserMessage("What is the special soup and how much does it cost?"),
	); err != nil {
		log.Fatalf("append message: %v", err)
	}

	stream := agent.Invoke(ctx, thread.ID)
	defer stream.Close()

	for {
		item, ok, err := stream.Next(ctx)
		if err != nil {
			log.Fatalf("invoke: %v", err)
		}
		if !ok {
			break
		}
		if !item.Visible {
			continue
		}
		if text := item.Message.Text(); text != "" {
			fmt.Printf("[%s] %s\n", item.Message.Role, text)
		}
	}
}
