package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are a geopolitical intelligence analyst writing for an editorial desk.
You receive a batch of news reports and produce one synthesized analysis.

Rules:
1. Base every claim on the supplied reports; do not invent events, numbers, or names
2. Lead with the most significant development, weighted by risk level
3. Name locations and actors precisely
4. Keep a neutral, analytical register; no speculation beyond clearly marked assessment
5. Write the analysis in the requested target language

Output as JSON only, no other text:
{
  "title": "headline for the analysis",
  "subtitle": "one-sentence standfirst",
  "content": "3-6 paragraphs of analysis"
}`

// buildUserPrompt renders the article batch for the model.
func buildUserPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysis type: %s\n", req.Type)
	if req.TargetLanguage != "" {
		fmt.Fprintf(&sb, "Target language: %s\n", req.TargetLanguage)
	}
	sb.WriteString("\n")

	for i, a := range req.Articles {
		fmt.Fprintf(&sb, "%d. Title: %s\n", i+1, a.Title)
		if a.Source != "" {
			fmt.Fprintf(&sb, "Source: %s\n", a.Source)
		}
		if a.RiskLevel != "" {
			fmt.Fprintf(&sb, "Risk level: %s\n", a.RiskLevel)
		}
		if a.Location != "" {
			fmt.Fprintf(&sb, "Location: %s\n", a.Location)
		}
		fmt.Fprintf(&sb, "Content: %s\n\n", a.Content)
	}
	return sb.String()
}

type analysisPayload struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
}

// parseAnalysis decodes the model's JSON answer into a result. A response
// without usable content is a malformed-provider failure for the caller to
// classify.
func parseAnalysis(raw string) (*Result, error) {
	cleaned := cleanJSONResponse(raw)

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w, content: %s", err, cleaned)
	}
	if payload.Content == "" {
		return nil, fmt.Errorf("analysis response has no content")
	}

	return &Result{
		Title:    payload.Title,
		Subtitle: payload.Subtitle,
		Content:  payload.Content,
	}, nil
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
