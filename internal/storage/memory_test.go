package storage

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCreateAndGetMemory(t *testing.T) {
	db := openTestDB(t)

	m := &Memory{
		ID:          "mem-1",
		RoomID:      "room-1",
		UserID:      "user-1",
		AgentID:     "agent-1",
		Kind:        KindReceived,
		Text:        "hello",
		Attachments: []string{"https://example.com/pic.png"},
	}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("CreateMemory failed: %v", err)
	}

	got, err := db.GetMemory("mem-1")
	if err != nil {
		t.Fatalf("GetMemory failed: %v", err)
	}
	if got.Text != "hello" {
		t.Errorf("text = %q, want hello", got.Text)
	}
	if got.Kind != KindReceived {
		t.Errorf("kind = %q, want %q", got.Kind, KindReceived)
	}
	if len(got.Attachments) != 1 || got.Attachments[0] != "https://example.com/pic.png" {
		t.Errorf("attachments = %v", got.Attachments)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestGetMemory_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetMemory("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateMemory_DuplicateID(t *testing.T) {
	db := openTestDB(t)

	m := &Memory{ID: "dup", RoomID: "r", UserID: "u", AgentID: "a", Kind: KindReceived}
	if err := db.CreateMemory(m); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := db.CreateMemory(&Memory{ID: "dup", RoomID: "r", UserID: "u", AgentID: "a", Kind: KindReceived})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestCreateMemory_InvalidKind(t *testing.T) {
	db := openTestDB(t)

	err := db.CreateMemory(&Memory{ID: "m", RoomID: "r", UserID: "u", AgentID: "a", Kind: "weird"})
	if err == nil {
		t.Error("expected CHECK constraint error for invalid kind")
	}
}

func TestListMemoriesByRoom_Ordering(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"one", "two", "three"} {
		m := &Memory{
			ID: id, RoomID: "room", UserID: "u", AgentID: "a",
			Kind: KindReceived, Text: id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.CreateMemory(m); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	memories, err := db.ListMemoriesByRoom("room", 0)
	if err != nil {
		t.Fatalf("ListMemoriesByRoom failed: %v", err)
	}
	if len(memories) != 3 {
		t.Fatalf("len = %d, want 3", len(memories))
	}
	if memories[0].ID != "one" || memories[2].ID != "three" {
		t.Errorf("order = %s..%s, want one..three", memories[0].ID, memories[2].ID)
	}
}

func TestCountMemories(t *testing.T) {
	db := openTestDB(t)

	records := []*Memory{
		{ID: "r1", RoomID: "r", UserID: "u", AgentID: "a", Kind: KindReceived},
		{ID: "r2", RoomID: "r", UserID: "u", AgentID: "a", Kind: KindReceived},
		{ID: "p1", RoomID: "r", UserID: "u", AgentID: "a", Kind: KindResponded},
		{ID: "x1", RoomID: "r", UserID: "u", AgentID: "other", Kind: KindReceived},
	}
	for _, m := range records {
		if err := db.CreateMemory(m); err != nil {
			t.Fatalf("insert %s: %v", m.ID, err)
		}
	}

	received, responded, err := db.CountMemories("a")
	if err != nil {
		t.Fatalf("CountMemories failed: %v", err)
	}
	if received != 2 || responded != 1 {
		t.Errorf("counts = %d/%d, want 2/1", received, responded)
	}
}

func TestCreateMemory_ConcurrentAppend(t *testing.T) {
	db := openTestDB(t)

	// Two agent loops writing concurrently must not corrupt uniqueness:
	// exactly one insert per id wins.
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = db.CreateMemory(&Memory{
				ID: "contended", RoomID: "r", UserID: "u", AgentID: "a", Kind: KindReceived,
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicate):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful inserts = %d, want exactly 1", ok)
	}
	if dup != 9 {
		t.Errorf("duplicate errors = %d, want 9", dup)
	}
}
