package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider produces deterministic local replies when no model is
// configured.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) StreamGenerate(ctx context.Context, req GenerateRequest, onDelta DeltaHandler) (GenerateResponse, error) {
	select {
	case <-ctx.Done():
		return GenerateResponse{}, ctx.Err()
	default:
	}

	text := buildMockReply(req)
	if onDelta != nil {
		// Stream in two fragments so the delta path gets exercised.
		half := len(text) / 2
		for _, part := range []string{text[:half], text[half:]} {
			if part == "" {
				continue
			}
			if err := onDelta(part); err != nil {
				return GenerateResponse{}, err
			}
		}
	}
	return GenerateResponse{Text: text}, nil
}

func buildMockReply(req GenerateRequest) string {
	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			lastUser = strings.TrimSpace(req.Messages[i].Text)
			break
		}
	}
	if lastUser == "" {
		return "Hi, I'm Rosie. Say something and I'll answer."
	}
	return fmt.Sprintf("I heard you: %s", lastUser)
}
