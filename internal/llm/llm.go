// Package llm drives the language model behind the bot. A Provider
// streams one response per turn; the conversation context that feeds it
// is accumulated from pipeline frames by the aggregator stages.
package llm

import "context"

// Roles for conversation messages.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// SystemPrompt is the persona instruction sent with every request.
const SystemPrompt = "You are Rosie, a friendly, helpful robot. " +
	"Your goal is to demonstrate your capabilities in a succinct way. " +
	"Respond to what the user said in a creative and helpful way, but keep " +
	"your responses brief and easy to read as plain text. " +
	"Start by introducing yourself."

type Message struct {
	Role string
	Text string
}

// GenerateRequest is the normalized request for one model turn.
type GenerateRequest struct {
	SessionID string
	TurnID    string
	System    string
	Messages  []Message
}

// GenerateResponse is the final response after streaming deltas.
type GenerateResponse struct {
	Text string
}

// DeltaHandler receives streaming text fragments.
type DeltaHandler func(delta string) error

// Provider streams one model response, invoking onDelta once per
// fragment as it arrives.
type Provider interface {
	StreamGenerate(ctx context.Context, req GenerateRequest, onDelta DeltaHandler) (GenerateResponse, error)
}
