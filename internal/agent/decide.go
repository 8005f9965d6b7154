package agent

import (
	"context"
	"strings"

	"castpilot/internal/provider"
	"castpilot/pkg/logger"
)

// ShouldRespond runs the decision stage: one classification call whose
// single-token answer gates whether a reply is attempted. Call failures
// are not retried here; they propagate to the per-event boundary.
func ShouldRespond(ctx context.Context, p provider.Provider, model string, state *State) (bool, error) {
	prompt, err := renderTemplate(shouldRespondTmpl, state)
	if err != nil {
		return false, err
	}

	resp, err := p.Chat(ctx, provider.ChatRequest{
		Model: model,
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return false, err
	}

	return parseShouldRespond(resp.Content), nil
}

// parseShouldRespond maps the model's answer to a boolean. Checked in
// order so that an answer like "IGNORE (do not RESPOND)" reads as the
// leading token intends. Anything unrecognized counts as ignore.
func parseShouldRespond(content string) bool {
	answer := strings.ToUpper(strings.TrimSpace(content))
	switch {
	case strings.HasPrefix(answer, "RESPOND"):
		return true
	case strings.HasPrefix(answer, "IGNORE"), strings.HasPrefix(answer, "STOP"):
		return false
	}

	// Fall back to containment for models that pad their answer.
	if strings.Contains(answer, "RESPOND") && !strings.Contains(answer, "IGNORE") && !strings.Contains(answer, "STOP") {
		return true
	}

	logger.Debug().Str("answer", content).Msg("unrecognized decision answer, treating as ignore")
	return false
}
