package agent

import (
	"context"
	"fmt"

	"castpilot/internal/farcaster"
)

// TimelineFetcher returns an agent's own recent casts.
type TimelineFetcher interface {
	GetTimeline(ctx context.Context, fid uint64, pageSize int) ([]farcaster.Cast, error)
}

// State is the ephemeral bundle consumed by the generation calls. It is
// recomputed for every processed cast and never persisted.
type State struct {
	AgentName     string
	AgentUsername string
	AgentBio      string
	Timeline      string
	Thread        string
	CurrentPost   string
}

// ComposeState merges the conversation thread, the agent profile, and a
// snapshot of the agent's recent timeline into a generation-ready
// state. A timeline fetch failure fails the compose; generation never
// runs on a partial state.
func ComposeState(ctx context.Context, fetcher TimelineFetcher, profile *farcaster.Profile, cast *farcaster.Cast, thread []farcaster.Cast, timelinePageSize int) (*State, error) {
	timeline, err := fetcher.GetTimeline(ctx, profile.FID, timelinePageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch recent timeline: %w", err)
	}

	name := profile.DisplayName
	if name == "" {
		name = profile.Username
	}

	return &State{
		AgentName:     name,
		AgentUsername: profile.Username,
		AgentBio:      profile.Bio,
		Timeline:      formatTimeline(name, timeline),
		Thread:        formatThread(thread),
		CurrentPost:   formatCast(cast),
	}, nil
}
