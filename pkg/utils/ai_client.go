package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
)

// DestinationBrief is what an AI provider tells us about a place that is not
// in the gazetteer.
type DestinationBrief struct {
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	Region      string   `json:"region"`
	Description string   `json:"description"`
	BestTime    string   `json:"best_time"`
	Highlights  []string `json:"highlights"`
}

type AIClient interface {
	DescribeDestination(ctx context.Context, name string) (*DestinationBrief, error)
	GetEmbedding(ctx context.Context, text string) (pgvector.Vector, error)
	Close() error
}

const describePrompt = `You are a travel guide. Describe the travel destination %q.
Return JSON only, matching exactly:
{"name":"string","country":"string","region":"one of Europe, Asia, Africa, North America, South America, Oceania, Middle East","description":"one sentence, max 25 words","best_time":"string","highlights":["string"]}
If the place is fictional or unknown, return the name with empty strings for the other fields.
No markdown, no comments.`

func buildDescribePrompt(name string) string {
	return fmt.Sprintf(describePrompt, strings.TrimSpace(name))
}

func parseBrief(content, fallbackName string) (*DestinationBrief, error) {
	content = cleanJSONResponse(content)
	var b DestinationBrief
	if err := json.Unmarshal([]byte(content), &b); err != nil {
		return nil, fmt.Errorf("decode destination brief: %w", err)
	}
	if strings.TrimSpace(b.Name) == "" {
		b.Name = fallbackName
	}
	return &b, nil
}

// cleanJSONResponse strips markdown fences and any prose around the first
// JSON object.
func cleanJSONResponse(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```JSON", "")
	response = strings.ReplaceAll(response, "```", "")
	response = strings.TrimSpace(response)

	if start := strings.Index(response, "{"); start != -1 {
		if end := findMatchingBrace(response, start); end != -1 {
			response = response[start : end+1]
		}
	}
	return strings.TrimSpace(response)
}

// findMatchingBrace finds the closing brace for the one at start, skipping
// braces inside strings.
func findMatchingBrace(s string, start int) int {
	if start >= len(s) || s[start] != '{' {
		return -1
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// NewAIClient picks a provider by name. "none" or an empty key yields nil,
// which callers treat as "no AI available".
func NewAIClient(provider, apiKey, model, embeddingModel string) (AIClient, error) {
	switch strings.ToLower(provider) {
	case "", "none":
		return nil, nil
	case "openai":
		if apiKey == "" {
			return nil, nil
		}
		return NewOpenAIClient(apiKey, model, embeddingModel), nil
	case "gemini":
		if apiKey == "" {
			return nil, nil
		}
		client, err := NewGeminiClient(apiKey, model, embeddingModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s. Use 'openai', 'gemini' or 'none'", provider)
	}
}
