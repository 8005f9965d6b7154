package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"castpilot/internal/config"
	"castpilot/internal/farcaster"
	"castpilot/internal/provider"
	"castpilot/internal/storage"
)

// fakeHub is an in-memory HubClient.
type fakeHub struct {
	mu       sync.Mutex
	profile  farcaster.Profile
	mentions []farcaster.Cast
	casts    map[string]farcaster.Cast
	timeline []farcaster.Cast

	mentionsErr error
	timelineErr error
	castErrs    map[string]error
	sendErr     error

	sent     []sentCast
	nextHash int
}

type sentCast struct {
	Text   string
	Parent string
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		profile: farcaster.Profile{FID: 99, Username: "botty", DisplayName: "Botty", Bio: "a helpful bot"},
		casts:   make(map[string]farcaster.Cast),
	}
}

func (f *fakeHub) GetMentions(ctx context.Context, fid uint64, pageSize int) ([]farcaster.Cast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mentionsErr != nil {
		return nil, f.mentionsErr
	}
	return append([]farcaster.Cast(nil), f.mentions...), nil
}

func (f *fakeHub) GetCast(ctx context.Context, hash string) (*farcaster.Cast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.castErrs[hash]; ok {
		return nil, err
	}
	cast, ok := f.casts[hash]
	if !ok {
		return nil, farcaster.ErrCastNotFound
	}
	return &cast, nil
}

func (f *fakeHub) GetTimeline(ctx context.Context, fid uint64, pageSize int) ([]farcaster.Cast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timelineErr != nil {
		return nil, f.timelineErr
	}
	return append([]farcaster.Cast(nil), f.timeline...), nil
}

func (f *fakeHub) GetProfile(ctx context.Context, fid uint64) (*farcaster.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profile
	return &p, nil
}

func (f *fakeHub) SendCast(ctx context.Context, signerUUID, text string, parent *farcaster.ParentRef) (*farcaster.CastRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	parentHash := ""
	if parent != nil {
		parentHash = parent.Hash
	}
	f.sent = append(f.sent, sentCast{Text: text, Parent: parentHash})
	f.nextHash++
	return &farcaster.CastRef{Hash: fmt.Sprintf("0xsent%d", f.nextHash), Timestamp: time.Now().UTC()}, nil
}

func (f *fakeHub) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeProvider routes Chat calls by model name: the decision model
// answers with decision, the generation model with generation.
type fakeProvider struct {
	mu            sync.Mutex
	decision      string
	decisionErr   error
	generation    string
	generationErr error
	calls         []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.Model)

	switch req.Model {
	case "decider":
		if f.decisionErr != nil {
			return nil, f.decisionErr
		}
		return &provider.ChatResponse{Content: f.decision}, nil
	case "writer":
		if f.generationErr != nil {
			return nil, f.generationErr
		}
		return &provider.ChatResponse{Content: f.generation}, nil
	}
	return nil, errors.New("unknown model: " + req.Model)
}

func (f *fakeProvider) calledModels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// failingStore wraps a MemoryStore and fails CreateMemory for records
// whose kind matches failKind.
type failingStore struct {
	MemoryStore
	failKind string
}

func (s *failingStore) CreateMemory(m *storage.Memory) error {
	if m.Kind == s.failKind {
		return errors.New("disk full")
	}
	return s.MemoryStore.CreateMemory(m)
}

func openTestStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		FID:        99,
		SignerUUID: "signer-1",
	}
}

func testModels() config.ProviderConfig {
	return config.ProviderConfig{
		DecisionModel:   "decider",
		GenerationModel: "writer",
		MaxTokens:       256,
	}
}

func newTestManager(t *testing.T, hub *fakeHub, store MemoryStore, p provider.Provider) *InteractionManager {
	t.Helper()
	return NewInteractionManager("test", testAgentConfig(), testModels(), hub, store, p)
}

// mention builds a cast from an external author.
func mention(hash, text string) farcaster.Cast {
	return farcaster.Cast{
		Hash:      hash,
		Author:    farcaster.Profile{FID: 7, Username: "alice"},
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// countKinds tallies memories by kind for the test agent.
func countKinds(t *testing.T, db *storage.DB, agentID string) (received, responded int) {
	t.Helper()
	received, responded, err := db.CountMemories(agentID)
	if err != nil {
		t.Fatalf("count memories: %v", err)
	}
	return received, responded
}
