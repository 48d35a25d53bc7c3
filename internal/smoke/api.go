package smoke

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// APIGenerationCheck sends the prompt through the server's OpenAI-compatible
// chat endpoint. Ollama serves it under /v1.
func APIGenerationCheck(s Settings) Check {
	const name = "API generation"
	return Check{
		Name:     name,
		Announce: "Testing API generation...",
		Run: func(ctx context.Context) Result {
			cfg := openai.DefaultConfig(s.APIKey)
			if s.APIBaseURL != "" {
				cfg.BaseURL = strings.TrimRight(s.APIBaseURL, "/")
			}
			client := openai.NewClientWithConfig(cfg)

			if s.GenerateTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, s.GenerateTimeout)
				defer cancel()
			}

			resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: s.Model,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: s.Prompt},
				},
			})
			if err != nil {
				return fail(name, "API generation test failed: %v", err)
			}
			if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
				return fail(name, "API generation test failed: empty response content")
			}
			return pass(name, "API generation test passed")
		},
	}
}
