// Package enrich implements the optional LLM enrichment capability on the
// OpenAI chat completion API.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

// jsonArrayPattern pulls the first JSON array out of a completion that may
// be wrapped in prose or code fences.
var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client implements insights.Enricher. Construct it through New; a missing
// API key yields nil, which callers treat as "capability absent".
type Client struct {
	api    chatCompleter
	model  string
	logger *zap.Logger
}

// New returns nil when apiKey is empty.
func New(apiKey, model string, logger *zap.Logger) *Client {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:    openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// SummarizeText condenses about-page text into a short brand summary.
func (c *Client) SummarizeText(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Please extract and summarize the key brand information from the following text.
Focus on what the brand does or sells, its story and mission, key values, and target audience.
Keep the summary concise (2-3 paragraphs max) and professional.
Remove any navigation text, headers, or irrelevant content.

Text content:
%s`, truncate(text, 2000))

	content, err := c.complete(ctx,
		"You are a helpful assistant that extracts and summarizes brand information from website content.",
		prompt, 500, 0.3)
	if err != nil {
		return "", err
	}
	summary := strings.TrimSpace(content)
	if len(summary) <= 50 {
		return "", fmt.Errorf("summary too short (%d chars)", len(summary))
	}
	return summary, nil
}

// StructureFAQs cleans and categorizes a raw FAQ list. The completion must
// contain a JSON array; anything unparsable is an error so callers keep the
// raw list.
func (c *Client) StructureFAQs(ctx context.Context, faqs []insights.FAQ) ([]insights.FAQ, error) {
	if len(faqs) == 0 {
		return faqs, nil
	}

	var sb strings.Builder
	for i, faq := range faqs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s", faq.Question, faq.Answer)
	}

	prompt := fmt.Sprintf(`Please analyze and improve the following FAQ content. Your tasks:
1. Clean up the questions and answers (fix grammar, make them clearer)
2. Categorize each FAQ (e.g., "Shipping", "Returns", "Payment", "Product", "General")
3. Remove any duplicate or very similar questions
4. Ensure answers are complete and helpful

Return the result as a JSON array with this structure:
[{"question": "cleaned question", "answer": "improved answer", "category": "category name"}]

FAQ Content:
%s`, sb.String())

	content, err := c.complete(ctx,
		"You are a helpful assistant that structures and improves FAQ content for e-commerce websites.",
		prompt, 2000, 0.3)
	if err != nil {
		return nil, err
	}
	return ParseFAQArray(content)
}

// AnalyzeCompetitors produces a competitive-analysis summary plus bullet
// advantages pulled from the summary text.
func (c *Client) AnalyzeCompetitors(ctx context.Context, main insights.BrandInsights, competitors []insights.BrandInsights) (insights.CompetitorFindings, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Main Brand:\n%s\n\nCompetitors:\n", brandSummary(main))
	for i, comp := range competitors {
		if i >= 3 {
			break
		}
		sb.WriteString(brandSummary(comp))
		sb.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Analyze the following brand and its competitors. Provide insights on:
1. Competitive positioning
2. Unique advantages of the main brand
3. Areas for improvement
4. Market opportunities

%s
Provide a concise analysis (2-3 paragraphs).`, sb.String())

	content, err := c.complete(ctx,
		"You are a business analyst providing competitive analysis for e-commerce brands.",
		prompt, 800, 0.4)
	if err != nil {
		return insights.CompetitorFindings{}, err
	}

	summary := strings.TrimSpace(content)
	return insights.CompetitorFindings{
		Summary:    summary,
		Advantages: ExtractBulletPoints(summary),
	}, nil
}

func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseFAQArray extracts and decodes the JSON FAQ array from a completion.
func ParseFAQArray(content string) ([]insights.FAQ, error) {
	match := jsonArrayPattern.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in completion")
	}

	var items []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		return nil, fmt.Errorf("decode faq array: %w", err)
	}

	faqs := make([]insights.FAQ, 0, len(items))
	for _, item := range items {
		if item.Question == "" || item.Answer == "" {
			continue
		}
		faqs = append(faqs, insights.FAQ{
			Question: item.Question,
			Answer:   item.Answer,
			Category: item.Category,
		})
	}
	return faqs, nil
}

var bulletPrefix = regexp.MustCompile(`^([-•*]|\d+\.)\s*`)

// ExtractBulletPoints pulls bullet or numbered list items out of a block
// of analysis text.
func ExtractBulletPoints(text string) []string {
	var points []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !bulletPrefix.MatchString(line) {
			continue
		}
		point := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if point != "" {
			points = append(points, point)
		}
	}
	if len(points) == 0 {
		return []string{"No specific advantages mentioned"}
	}
	return points
}

func brandSummary(b insights.BrandInsights) string {
	name := b.BrandName
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("Brand: %s\nProducts: %d\nContext: %s",
		name, len(b.ProductCatalog), truncate(b.BrandContext, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
