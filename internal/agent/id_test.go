package agent

import (
	"testing"

	"github.com/google/uuid"
)

func TestCastMemoryID_Deterministic(t *testing.T) {
	agentID := AgentID(42)

	a := CastMemoryID("0xabc", agentID)
	b := CastMemoryID("0xabc", agentID)
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestCastMemoryID_DistinctInputs(t *testing.T) {
	agentA := AgentID(1)
	agentB := AgentID(2)

	if CastMemoryID("0xabc", agentA) == CastMemoryID("0xabc", agentB) {
		t.Error("different agents produced the same id")
	}
	if CastMemoryID("0xabc", agentA) == CastMemoryID("0xdef", agentA) {
		t.Error("different casts produced the same id")
	}
}

func TestAgentID_Deterministic(t *testing.T) {
	if AgentID(42) != AgentID(42) {
		t.Error("AgentID not stable")
	}
	if AgentID(42) == AgentID(43) {
		t.Error("distinct fids produced the same agent id")
	}
}

func TestDerivedIDsAreValidUUIDs(t *testing.T) {
	ids := []uuid.UUID{
		AgentID(1),
		CastMemoryID("0xabc", AgentID(1)),
		RoomID("0xabc", AgentID(1)),
		UserID(7),
	}
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if id == uuid.Nil {
			t.Error("derived nil uuid")
		}
		if seen[id] {
			t.Errorf("id collision: %s", id)
		}
		seen[id] = true
	}
}

func TestRoomIDDiffersFromMemoryID(t *testing.T) {
	agentID := AgentID(42)
	if RoomID("0xabc", agentID) == CastMemoryID("0xabc", agentID) {
		t.Error("room id must not collide with the memory id for the same cast")
	}
}
