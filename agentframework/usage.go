// Copyright (c) Microsoft. All rights reserved.

package agentframework

// UsageDetails holds token consumption statistics for a model response or run.
type UsageDetails struct {
	InputTokens  int `json:"prompt_tokens,omitempty"`
	OutputTokens int `json:"completion_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

// Add returns the element-wise sum of u and o.
func (u UsageDetails) Add(o UsageDetails) UsageDetails {
	return UsageDetails{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}
