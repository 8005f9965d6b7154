package agent

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"castpilot/internal/farcaster"
)

// shouldRespondTemplate asks the classification model for a single-token
// verdict on whether the agent should reply at all.
const shouldRespondTemplate = `# INSTRUCTIONS: Determine if {{.AgentName}} (@{{.AgentUsername}}) should respond to the message below.

Response options are RESPOND, IGNORE and STOP.

{{.AgentName}} should RESPOND to messages that are directed at them, ask a question, or continue a conversation they are part of.
{{.AgentName}} should IGNORE messages that are irrelevant, spam, or where a reply would add nothing.
{{.AgentName}} should STOP if asked to stop or if the conversation is concluded.

About {{.AgentName}}:
{{.AgentBio}}

Thread of casts you are replying to:
{{.Thread}}

Current cast:
{{.CurrentPost}}

# INSTRUCTIONS: Respond with RESPOND, IGNORE, or STOP.`

// messageHandlerTemplate produces the actual reply text.
const messageHandlerTemplate = `# About {{.AgentName}} (@{{.AgentUsername}}):
{{.AgentBio}}

{{.Timeline}}

Thread of casts being replied to:
{{.Thread}}

Current cast:
{{.CurrentPost}}

# TASK: Write a reply to the current cast in the voice of {{.AgentName}}. Keep it short, under 280 characters. Do not use hashtags. Reply with the cast text only; reply with an empty message to ignore.`

var (
	shouldRespondTmpl  = template.Must(template.New("shouldRespond").Parse(shouldRespondTemplate))
	messageHandlerTmpl = template.Must(template.New("messageHandler").Parse(messageHandlerTemplate))
)

func renderTemplate(tmpl *template.Template, state *State) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("render %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// formatCast renders a single cast for prompt context.
func formatCast(cast *farcaster.Cast) string {
	return fmt.Sprintf("@%s (fid %d): %s", cast.Author.Username, cast.Author.FID, cast.Text)
}

// formatThread renders a conversation thread, oldest first.
func formatThread(thread []farcaster.Cast) string {
	if len(thread) == 0 {
		return "(no prior conversation)"
	}
	lines := make([]string, 0, len(thread))
	for i := range thread {
		lines = append(lines, formatCast(&thread[i]))
	}
	return strings.Join(lines, "\n")
}

// formatTimeline renders the agent's recent casts so the model keeps a
// consistent voice and avoids repeating itself.
func formatTimeline(agentName string, timeline []farcaster.Cast) string {
	if len(timeline) == 0 {
		return fmt.Sprintf("# %s has not cast recently.", agentName)
	}
	lines := make([]string, 0, len(timeline)+1)
	lines = append(lines, fmt.Sprintf("# %s's recent casts:", agentName))
	for i := range timeline {
		lines = append(lines, timeline[i].Text)
	}
	return strings.Join(lines, "\n")
}
