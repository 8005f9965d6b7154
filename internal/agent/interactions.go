// Package agent implements the mention-reply pipeline: polling for
// mentions, deduplicating against the memory store, building
// conversation context, and running the two-stage decision/generation
// flow before dispatching a reply.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"castpilot/internal/config"
	"castpilot/internal/farcaster"
	"castpilot/internal/provider"
	"castpilot/internal/storage"
	"castpilot/pkg/logger"
)

// HubClient is the slice of the Farcaster client the pipeline needs.
type HubClient interface {
	CastFetcher
	TimelineFetcher
	Dispatcher
	GetMentions(ctx context.Context, fid uint64, pageSize int) ([]farcaster.Cast, error)
	GetProfile(ctx context.Context, fid uint64) (*farcaster.Profile, error)
}

// MemoryStore is the durable record store the pipeline deduplicates
// against. Append-only: records are never updated or deleted here.
type MemoryStore interface {
	GetMemory(id string) (*storage.Memory, error)
	CreateMemory(m *storage.Memory) error
}

// Compile-time checks that the real implementations satisfy the
// pipeline interfaces.
var (
	_ HubClient   = (*farcaster.Client)(nil)
	_ MemoryStore = (*storage.DB)(nil)
)

// InteractionManager processes one agent's mentions. One instance per
// agent; a single poll cycle runs its events strictly sequentially.
type InteractionManager struct {
	name     string
	cfg      config.AgentConfig
	provider provider.Provider
	models   config.ProviderConfig
	client   HubClient
	store    MemoryStore
	agentID  uuid.UUID
}

// NewInteractionManager creates the pipeline for one agent.
func NewInteractionManager(name string, cfg config.AgentConfig, models config.ProviderConfig, client HubClient, store MemoryStore, p provider.Provider) *InteractionManager {
	return &InteractionManager{
		name:     name,
		cfg:      cfg,
		provider: p,
		models:   models,
		client:   client,
		store:    store,
		agentID:  AgentID(cfg.FID),
	}
}

// AgentID returns the derived agent identity.
func (m *InteractionManager) AgentID() uuid.UUID {
	return m.agentID
}

// HandleInteractions runs one poll cycle: fetch the mention batch and
// process each mention inside its own failure boundary. Errors returned
// from here occurred before per-event iteration and abort the cycle;
// the scheduler logs them and rearms the timer either way.
func (m *InteractionManager) HandleInteractions(ctx context.Context) error {
	profile, err := m.client.GetProfile(ctx, m.cfg.FID)
	if err != nil {
		return fmt.Errorf("resolve agent profile: %w", err)
	}

	mentions, err := m.client.GetMentions(ctx, m.cfg.FID, m.cfg.GetMentionPageSize())
	if err != nil {
		return fmt.Errorf("fetch mentions: %w", err)
	}

	log := logger.With(map[string]any{"agent": m.name})
	log.Debug().Int("count", len(mentions)).Msg("fetched mentions")

	for i := range mentions {
		// Cooperative cancellation, checked between events only: a
		// stopped loop finishes its current event but starts no new one.
		if ctx.Err() != nil {
			log.Info().Msg("cycle cancelled, stopping before next mention")
			return nil
		}

		mention := &mentions[i]
		if err := m.processMention(ctx, profile, mention); err != nil {
			// One event's failure never aborts the batch. No record was
			// completed for it, so a later cycle that re-fetches the
			// same mention will retry it.
			log.Error().Err(err).Str("cast", mention.Hash).Msg("failed to process mention")
		}
	}

	return nil
}

// processMention runs the full pipeline for a single mention.
func (m *InteractionManager) processMention(ctx context.Context, profile *farcaster.Profile, mention *farcaster.Cast) error {
	log := logger.With(map[string]any{"agent": m.name, "cast": mention.Hash})

	memoryID := CastMemoryID(mention.Hash, m.agentID)

	// Dedup check: a hit means a previous cycle (or process) already
	// handled this cast.
	_, err := m.store.GetMemory(memoryID.String())
	if err == nil {
		log.Debug().Msg("cast already processed, skipping")
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("dedup lookup: %w", err)
	}

	if mention.Author.FID == profile.FID {
		log.Debug().Msg("skipping cast from the agent itself")
		return nil
	}
	if strings.TrimSpace(mention.Text) == "" {
		log.Debug().Msg("skipping cast with no text")
		return nil
	}

	thread := BuildConversationThread(ctx, m.client, mention, m.cfg.GetMaxThreadDepth())

	state, err := ComposeState(ctx, m.client, profile, mention, thread, m.cfg.GetTimelinePageSize())
	if err != nil {
		return err
	}

	respond, err := ShouldRespond(ctx, m.provider, m.models.DecisionModel, state)
	if err != nil {
		return fmt.Errorf("decision stage: %w", err)
	}
	if !respond {
		log.Info().Msg("not responding to cast")
		return nil
	}

	// Mark intent before generating. If this append fails, processing
	// stops here: later stages must not run without the record.
	received := &storage.Memory{
		ID:        memoryID.String(),
		RoomID:    RoomID(mention.Hash, m.agentID).String(),
		UserID:    UserID(mention.Author.FID).String(),
		AgentID:   m.agentID.String(),
		Kind:      storage.KindReceived,
		Text:      mention.Text,
		CreatedAt: mention.Timestamp,
	}
	if err := m.store.CreateMemory(received); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// An overlapping cycle won the race; it owns this cast now.
			log.Debug().Msg("received record already exists, skipping")
			return nil
		}
		return fmt.Errorf("append received record: %w", err)
	}

	reply, err := GenerateReply(ctx, m.provider, m.models.GenerationModel, m.models.MaxTokens, state)
	if err != nil {
		return fmt.Errorf("generation stage: %w", err)
	}
	if reply.Ignored {
		log.Info().Msg("generation returned ignore, not replying")
		return nil
	}

	if m.cfg.DryRun {
		log.Info().Str("reply", reply.Text).Msg("dry run: would have replied to cast")
		return nil
	}

	log.Info().Msg("replying to cast")

	parent := &farcaster.ParentRef{FID: mention.Author.FID, Hash: mention.Hash}
	sent, err := dispatchReply(ctx, m.client, m.cfg.SignerUUID, reply.Text, parent)
	if err != nil {
		// No responded record is written for unsent content. Chunks that
		// did go out before the failure are still recorded below.
		log.Error().Err(err).Msg("dispatch failed")
		if len(sent) == 0 {
			return fmt.Errorf("dispatch: %w", err)
		}
	}

	for _, chunk := range sent {
		responded := &storage.Memory{
			ID:        CastMemoryID(chunk.Ref.Hash, m.agentID).String(),
			RoomID:    received.RoomID,
			UserID:    m.agentID.String(),
			AgentID:   m.agentID.String(),
			Kind:      storage.KindResponded,
			Text:      chunk.Text,
			Action:    "reply",
			InReplyTo: memoryID.String(),
			CreatedAt: chunk.Ref.Timestamp,
		}
		if err := m.store.CreateMemory(responded); err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("append responded record: %w", err)
		}
	}

	return nil
}
