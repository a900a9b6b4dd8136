package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/playthelist/playtl/internal/shared"
	openai "github.com/sashabaranov/go-openai"
)

// OracleNone is the sentinel an oracle returns when no candidate fits.
const OracleNone = "NONE"

// Oracle picks the best candidate display string for a query, or returns
// [OracleNone]. Oracles may be unreliable: callers treat any error the same
// as OracleNone and never propagate it.
type Oracle func(ctx context.Context, query string, candidates []string) (string, error)

// NewOpenAIOracle builds an Oracle backed by the OpenAI chat completions
// API. The model answers with the exact display string of one candidate or
// the NONE sentinel.
func NewOpenAIOracle(cfg shared.OpenAIConfig, logger *log.Logger) Oracle {
	client := openai.NewClient(cfg.APIKey)
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return func(ctx context.Context, query string, candidates []string) (string, error) {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       model,
			Temperature: 0,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: selectionPrompt(query, candidates),
				},
			},
		})
		if err != nil {
			logger.Error("oracle completion failed", "query", query, "err", err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("oracle returned no choices")
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
}

func selectionPrompt(query string, candidates []string) string {
	var b strings.Builder
	b.WriteString("You are helping match songs across music platforms.\n")
	fmt.Fprintf(&b, "Original: %q\n", query)
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString(`Pick the candidate that best matches title and artist and answer with its exact text. If none fit, answer "NONE".`)
	return b.String()
}
