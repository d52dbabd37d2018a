package indexer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/user/mindhub/internal/config"
)

// SummaryResult contains the LLM-generated summary and keywords
type SummaryResult struct {
	Summary  string
	Keywords string
}

// Tags returns the keywords in the comma-joined form stored on records.
func (r *SummaryResult) Tags() string {
	var tags []string
	for _, k := range strings.Split(r.Keywords, ",") {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			tags = append(tags, k)
		}
	}
	return strings.Join(tags, ",")
}

// Summarizer generates summaries using LLM
type Summarizer struct {
	cfg config.LLMConfig
}

// NewSummarizer returns nil when summaries are turned off with an empty or
// "none" provider.
func NewSummarizer(cfg config.LLMConfig) *Summarizer {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil
	}
	return &Summarizer{cfg: cfg}
}

const summaryPrompt = `Analyze this content and provide:
1. A concise 1-2 sentence summary of what this is about
2. 3-5 relevant keywords separated by commas

Format your response exactly as:
SUMMARY: <your summary>
KEYWORDS: <keyword1>, <keyword2>, <keyword3>

Content:
%s`

func (s *Summarizer) Summarize(ctx context.Context, content string) (*SummaryResult, error) {
	// Truncate content for LLM
	const maxContentLen = 10000
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}

	tmpl := summaryPrompt
	if s.cfg.SummaryPrompt != "" {
		tmpl = s.cfg.SummaryPrompt
	}
	prompt := fmt.Sprintf(tmpl, content)

	var response string
	var err error

	switch s.cfg.Provider {
	case "anthropic":
		response, err = s.summarizeWithAnthropic(ctx, prompt)
	case "openai", "openrouter":
		response, err = s.summarizeWithOpenAI(ctx, prompt)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.cfg.Provider)
	}

	if err != nil {
		return nil, err
	}

	return parseResponse(response), nil
}

func (s *Summarizer) apiKey(envVar string) string {
	if s.cfg.APIKey != "" {
		return s.cfg.APIKey
	}
	return os.Getenv(envVar)
}

func (s *Summarizer) summarizeWithAnthropic(ctx context.Context, prompt string) (string, error) {
	apiKey := s.apiKey("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	var opts []anthropic.ClientOption
	if s.cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(s.cfg.BaseURL))
	}
	client := anthropic.NewClient(apiKey, opts...)

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.cfg.Model),
		MaxTokens: 500,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{{Type: "text", Text: &prompt}},
			},
		},
	})

	if err != nil {
		return "", err
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	return resp.Content[0].GetText(), nil
}

func (s *Summarizer) summarizeWithOpenAI(ctx context.Context, prompt string) (string, error) {
	var apiKey string
	var baseURL string

	if s.cfg.Provider == "openrouter" {
		apiKey = s.apiKey("OPENROUTER_API_KEY")
		baseURL = s.cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://openrouter.ai/api/v1"
		}
	} else {
		apiKey = s.apiKey("OPENAI_API_KEY")
		baseURL = s.cfg.BaseURL
	}

	if apiKey == "" {
		return "", fmt.Errorf("API key not set for provider %s", s.cfg.Provider)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.cfg.Model,
		MaxTokens: 500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func parseResponse(response string) *SummaryResult {
	result := &SummaryResult{}

	lines := strings.Split(response, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "SUMMARY:") {
			result.Summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		} else if strings.HasPrefix(line, "KEYWORDS:") {
			result.Keywords = strings.TrimSpace(strings.TrimPrefix(line, "KEYWORDS:"))
		}
	}

	return result
}
