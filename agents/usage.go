// Copyright (c) Microsoft. All rights reserved.

package agents

// UsageDetails holds token consumption statistics for a completed run.
type UsageDetails struct {
	InputTokens  int `json:"inputTokenCount,omitempty"`
	OutputTokens int `json:"outputTokenCount,omitempty"`
	TotalTokens  int `json:"totalTokenCount,omitempty"`
}
