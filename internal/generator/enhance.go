package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"doesitwork/internal/models"
)

// EnhanceOptions carries the inputs for a body rewrite
type EnhanceOptions struct {
	Question     string
	BodyMarkdown string
	Evidence     []models.Evidence
	Sources      []string
}

// EnhanceMarkdown rewrites an article body with better structure, spacing
// and hyperlinks. Best effort, single attempt, formatting only; the
// factual content must not change.
func (g *OpenAIGenerator) EnhanceMarkdown(ctx context.Context, opts EnhanceOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a markdown formatting expert. Always return clean, well-formatted markdown with proper headings, spacing, and hyperlinks.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildEnhancePrompt(opts),
			},
		},
		// Lower temperature for consistent formatting
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return stripCodeFence(resp.Choices[0].Message.Content), nil
}

func buildEnhancePrompt(opts EnhanceOptions) string {
	var sources []string
	for _, e := range opts.Evidence {
		sources = append(sources, fmt.Sprintf("- %s: %s", e.Title, e.URL))
	}
	for _, url := range opts.Sources {
		sources = append(sources, "- "+url)
	}
	sourceList := strings.Join(sources, "\n")
	if sourceList == "" {
		sourceList = "No sources provided"
	}

	return fmt.Sprintf(`You are a markdown formatting expert. Enhance the following markdown content with better structure, spacing, and hyperlinks.

Question: %s

Current markdown content:
%s

Available sources to link (use these URLs when mentioning research):
%s

Requirements:
1. Improve heading structure - use proper H2 and H3 headings to organize content
2. Add proper spacing between sections (blank lines between paragraphs and sections)
3. Convert any plain text URLs to markdown links [text](url)
4. When mentioning research, studies, or sources, create hyperlinks using the available sources above
5. Use proper markdown formatting (bold, italic, bullet lists, numbered lists, blockquotes)
6. Ensure all research articles mentioned in the text are hyperlinked
7. Maintain the same factual content - only improve formatting and add links

Return ONLY the enhanced markdown content, nothing else.`, opts.Question, opts.BodyMarkdown, sourceList)
}

// stripCodeFence removes a wrapping markdown code fence if the model
// returned one despite instructions.
func stripCodeFence(content string) string {
	enhanced := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(enhanced, "```markdown"):
		enhanced = strings.TrimPrefix(enhanced, "```markdown")
	case strings.HasPrefix(enhanced, "```"):
		enhanced = strings.TrimPrefix(enhanced, "```")
	default:
		return enhanced
	}
	enhanced = strings.TrimSuffix(strings.TrimSpace(enhanced), "```")
	return strings.TrimSpace(enhanced)
}
