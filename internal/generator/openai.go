package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"doesitwork/internal/models"
	"doesitwork/internal/textutil"
)

const requestTimeout = 120 * time.Second

// OpenAIGenerator produces structured article content from a question
// prompt via the OpenAI Chat Completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API
func NewOpenAIGenerator(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// GenerateAnswer generates a full research-backed article for a proposed
// question. Any API or parse error is a generation failure; the caller
// decides whether to retry.
func (g *OpenAIGenerator) GenerateAnswer(ctx context.Context, question, categoryID string, tags []string, notes string) (*models.GeneratedContent, error) {
	prompt := buildAnswerPrompt(question, categoryID, tags, notes)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a research expert who provides accurate, well-sourced answers to questions. Always respond with valid JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	var generated models.GeneratedContent
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI response as JSON: %w", err)
	}

	generated.Question = strings.TrimSpace(generated.Question)
	if generated.Question == "" {
		generated.Question = question
	}
	if !models.IsValidVerdict(generated.Verdict) {
		return nil, fmt.Errorf("invalid verdict in OpenAI response: %q", generated.Verdict)
	}

	// The slug suggestion is advisory; always re-derive deterministically.
	generated.Slug = textutil.Slugify(generated.Question)
	if generated.Slug == "" {
		return nil, fmt.Errorf("generated question produced an empty slug")
	}

	return &generated, nil
}

func buildAnswerPrompt(question, categoryID string, tags []string, notes string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a research expert. Generate a comprehensive, research-backed answer to the following question.

Question: %s
Category: %s
`, question, categoryID)

	if len(tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
	}
	if notes != "" {
		fmt.Fprintf(&b, "Editor notes: %s\n", notes)
	}

	b.WriteString(`
Requirements:
1. Provide a refined "question" phrased as the final article title
2. Provide a short_answer (2-3 sentences)
3. Provide a verdict: 'works', 'doesnt_work', or 'mixed'
4. Provide a summary (2-3 paragraphs)
5. Provide a detailed body_markdown (600-900 words) with proper markdown headings
6. Provide an evidence array with at least 3-5 sources. Prioritize:
   - PubMed articles first
   - .gov sources
   - Major medical institutions (Mayo Clinic, Cleveland Clinic, etc.)
   - Smithsonian, National Geographic
   - BBC, NYT, Reuters
   - Consumer Reports
   - Other reputable sources
7. Provide a sources array of plain URLs
8. Provide a tags array of short topical tags

Format your response as JSON with this exact structure:
{
  "question": "...",
  "short_answer": "...",
  "verdict": "works|doesnt_work|mixed",
  "summary": "...",
  "body_markdown": "...",
  "evidence": [
    {
      "title": "...",
      "url": "...",
      "explanation": "..."
    }
  ],
  "sources": ["..."],
  "tags": ["..."]
}

Be thorough, accurate, and cite real sources when possible.`)

	return b.String()
}
