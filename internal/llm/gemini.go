package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// GeminiProvider streams responses from the Gemini REST API using
// server-sent events.
type GeminiProvider struct {
	cfg    GeminiConfig
	client *http.Client
}

func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &GeminiProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiChunk struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *GeminiProvider) buildRequest(req GenerateRequest) geminiRequest {
	out := geminiRequest{
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     p.cfg.Temperature,
			MaxOutputTokens: p.cfg.MaxTokens,
		},
	}
	if strings.TrimSpace(req.System) != "" {
		out.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		out.Contents = append(out.Contents, geminiContent{
			Role:  m.Role,
			Parts: []geminiPart{{Text: m.Text}},
		})
	}
	// The API rejects empty contents. The opening turn has no user
	// messages yet, so seed a greeting to elicit the introduction.
	if len(out.Contents) == 0 {
		out.Contents = append(out.Contents, geminiContent{
			Role:  RoleUser,
			Parts: []geminiPart{{Text: "Hello!"}},
		})
	}
	return out
}

func (p *GeminiProvider) StreamGenerate(ctx context.Context, req GenerateRequest, onDelta DeltaHandler) (GenerateResponse, error) {
	payload, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	target := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse",
		strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return GenerateResponse{}, fmt.Errorf("gemini http status %d: %s", res.StatusCode, string(body))
	}

	text, err := consumeSSE(res.Body, onDelta)
	if err != nil {
		return GenerateResponse{}, err
	}
	return GenerateResponse{Text: text}, nil
}

// consumeSSE reads "data:" lines from an event stream, extracting the
// text fragment carried by each chunk.
func consumeSSE(body io.Reader, onDelta DeltaHandler) (string, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if line == "" {
			continue
		}

		var chunk geminiChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("gemini stream error %d: %s", chunk.Error.Code, chunk.Error.Message)
		}
		delta := chunkText(chunk)
		if delta == "" {
			continue
		}
		out.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return "", err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read: %w", err)
	}
	return out.String(), nil
}

func chunkText(chunk geminiChunk) string {
	if len(chunk.Candidates) == 0 {
		return ""
	}
	var out strings.Builder
	for _, part := range chunk.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String()
}
