// Package llm implements the second-tier email classifier: an
// OpenAI-compatible chat completion call, used only when the rule
// classifier declines to match. A Transport abstracts the concrete HTTP
// backend so an AWS Bedrock implementation can stand in for the default
// OpenAI-compatible one without touching the orchestration logic.
package llm

import "context"

// Request is the input to a single classification attempt.
type Request struct {
	Subject string
	Sender  string
	Body    string
}

// Response is the parsed assistant JSON payload.
type Response struct {
	Category       string                 `json:"category"`
	SubCategory    string                 `json:"sub_category"`
	Summary        string                 `json:"summary"`
	Urgency        string                 `json:"urgency"`
	ActionRequired bool                   `json:"action_required"`
	KeyDetails     map[string]interface{} `json:"key_details,omitempty"`
	Confidence     float64                `json:"confidence,omitempty"`
	Raw            string                 `json:"-"`
}

// Transport sends one chat-completion request and returns the assistant's
// raw text content. Retries, timeouts, and JSON parsing are the caller's
// responsibility — Transport implementations just move bytes.
type Transport interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

const SystemPrompt = `You are an email analysis assistant for a Dasher account management platform.
Analyze the given email and classify it. Respond ONLY with valid JSON, no other text.

Categories and sub-categories:
- bgc: submitted, pending, clear, consider, identity_verified
- account: welcome, activation, deactivation, reactivation
- earnings: weekly_pay, direct_deposit, earnings_summary, tax_document
- operational: dash_opportunity, rating_update, policy_update, promotion
- warning: contract_violation, low_rating_warning
- unknown: unclassified

Urgency levels: critical, high, medium, low, info

JSON format:
{
  "category": "string",
  "sub_category": "string",
  "summary": "1-2 sentence summary",
  "urgency": "string",
  "action_required": true/false,
  "key_details": {"any": "relevant details"}
}`
