package agent

import (
	"context"
	"strings"

	"castpilot/internal/provider"
)

// Reply is the tagged result of the generation stage: either content to
// dispatch or an explicit ignore.
type Reply struct {
	Ignored bool
	Text    string
}

// GenerateReply runs the generation stage. A blank completion is an
// implicit ignore, identical in effect to a negative decision.
func GenerateReply(ctx context.Context, p provider.Provider, model string, maxTokens int, state *State) (*Reply, error) {
	prompt, err := renderTemplate(messageHandlerTmpl, state)
	if err != nil {
		return nil, err
	}

	resp, err := p.Chat(ctx, provider.ChatRequest{
		Model: model,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return &Reply{Ignored: true}, nil
	}

	return &Reply{Text: text}, nil
}
