package agent

import (
	"context"

	"castpilot/internal/farcaster"
	"castpilot/pkg/logger"
)

// CastFetcher resolves a cast hash to its cast.
type CastFetcher interface {
	GetCast(ctx context.Context, hash string) (*farcaster.Cast, error)
}

// BuildConversationThread reconstructs the ancestor chain of leaf by
// walking parent links, returning the thread oldest first (leaf last).
//
// The walk stops at the root, at maxDepth ancestors, at an ancestor
// that cannot be fetched (deleted casts are common), or at a hash seen
// before (malformed parent links forming a loop). Truncation is never
// an error: a partial thread is better than aborting the event.
func BuildConversationThread(ctx context.Context, fetcher CastFetcher, leaf *farcaster.Cast, maxDepth int) []farcaster.Cast {
	thread := []farcaster.Cast{*leaf}
	visited := map[string]bool{leaf.Hash: true}

	parent := leaf.ParentHash
	for depth := 0; parent != "" && depth < maxDepth; depth++ {
		if visited[parent] {
			logger.Warn().Str("hash", parent).Msg("parent link cycle detected, truncating thread")
			break
		}

		cast, err := fetcher.GetCast(ctx, parent)
		if err != nil {
			logger.Warn().Err(err).Str("hash", parent).Msg("ancestor fetch failed, truncating thread")
			break
		}

		visited[cast.Hash] = true
		thread = append([]farcaster.Cast{*cast}, thread...)
		parent = cast.ParentHash
	}

	return thread
}
