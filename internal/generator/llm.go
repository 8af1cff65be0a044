package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LLMProvider generates lesson components by calling an OpenAI-compatible
// LLM endpoint (Ollama, LM Studio, vLLM, etc.).
type LLMProvider struct {
	url    string       // e.g. "http://localhost:1234"
	model  string       // e.g. "qwen3-8b"
	client *http.Client // reused across calls
}

// Compile-time check: *LLMProvider satisfies the Provider interface.
var _ Provider = (*LLMProvider)(nil)

// NewLLMProvider creates a provider that calls the given LLM endpoint.
func NewLLMProvider(url, model string) *LLMProvider {
	return &LLMProvider{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// GenerateComponents asks the LLM for a lesson on the seed topic and returns
// the raw component drafts. It makes exactly one attempt: retrying would
// produce a semantically different lesson, so retry policy belongs to the
// caller, where it is an explicit decision.
func (p *LLMProvider) GenerateComponents(ctx context.Context, seed string) ([]json.RawMessage, error) {
	result, err := p.callLLM(ctx, buildLessonPrompt(seed))
	if err != nil {
		return nil, err
	}

	jsonStr := extractJSONArray(result)
	if jsonStr == "" {
		return nil, &ProviderError{Reason: "no JSON array found in LLM response"}
	}

	var drafts []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &drafts); err != nil {
		return nil, &ProviderError{Reason: "invalid JSON from LLM", Wrapped: err}
	}
	if len(drafts) == 0 {
		return nil, &ProviderError{Reason: "LLM returned an empty component list"}
	}
	return drafts, nil
}

// ============================================================================
// LLM communication
// ============================================================================

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// callLLM sends a single request to the LLM and returns the raw text response.
func (p *LLMProvider) callLLM(ctx context.Context, prompt string) (string, error) {
	reqBody := llmRequest{
		Model: p.model,
		Messages: []llmMessage{
			{Role: "user", Content: prompt},
		},
		// Some creativity is wanted for lesson content, unlike grading.
		Temperature: 0.7,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &ProviderError{Reason: "failed to marshal request", Wrapped: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &ProviderError{Reason: "failed to create request", Wrapped: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{Reason: "LLM request failed", Wrapped: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Reason: fmt.Sprintf("LLM returned status %d", resp.StatusCode)}
	}

	var llmResp llmResponse
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return "", &ProviderError{Reason: "failed to decode LLM response", Wrapped: err}
	}

	if len(llmResp.Choices) == 0 {
		return "", &ProviderError{Reason: "LLM returned no choices"}
	}

	content := llmResp.Choices[0].Message.Content
	if content == "" {
		return "", &ProviderError{Reason: "LLM returned empty content"}
	}

	return content, nil
}

// ============================================================================
// JSON extraction
// ============================================================================

// extractJSONArray finds the outermost JSON array in a string. It handles
// nested brackets correctly and skips brackets inside quoted strings, so a
// model that wraps its answer in prose or a markdown fence still parses.
func extractJSONArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if ch == '[' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == ']' {
			depth--
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// ============================================================================
// Prompt builder — kept short and directive for small (4-8B) models.
// The JSON shapes go last so they are the freshest thing the model sees.
// ============================================================================

func buildLessonPrompt(seed string) string {
	return fmt.Sprintf(`/no_think
You are writing an interactive micro-lesson. Build 4 to 6 lesson components
teaching the topic below.

RULES:
- Start with exactly one "intro" component, then alternate "info" cards with exercises.
- Exercises test only facts stated in the intro/info cards.
- "dnd" content is an array mixing text strings and integer gap numbers; every gap number must appear exactly once as a value in "draggable". Add 1-2 extra draggable words with value -1 as decoys.
- "matching" pairs terms with definitions through shared index numbers starting at 0.
- "mc" has exactly one option set to true.

TOPIC:
%s

Respond with ONLY a JSON array of components — no explanation, no markdown:
[
  {"type": "intro", "title": "...", "content": ["paragraph", ...], "fact": "optional trivia"},
  {"type": "info", "title": "...", "content": ["paragraph", ...], "fact": "optional trivia"},
  {"type": "dnd", "content": ["The Sun is made of ", 0, " and ", 1, "."], "draggable": {"hydrogen": 0, "helium": 1, "oxygen": -1}},
  {"type": "matching", "terms": {"term": 0, ...}, "definitions": {"definition": 0, ...}},
  {"type": "mc", "question": "...", "options": {"right": true, "wrong": false, ...}}
]`, seed)
}
