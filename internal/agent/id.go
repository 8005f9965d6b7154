package agent

import (
	"strconv"

	"github.com/google/uuid"
)

// idNamespace is the fixed namespace for all derived identifiers.
// Changing it would break deduplication against existing databases.
var idNamespace = uuid.MustParse("7b9f48c2-3a1d-5e06-9d74-f21b6c0a8e55")

// AgentID derives the stable identity of an agent from its fid.
func AgentID(fid uint64) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte("agent-"+strconv.FormatUint(fid, 10)))
}

// CastMemoryID derives the deterministic memory id for a (agent, cast)
// pair. It is pure and stable across restarts: the same inputs always
// produce the same id, which is what makes the memory table usable as
// an at-most-once guard.
func CastMemoryID(castHash string, agentID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(castHash+"-"+agentID.String()))
}

// RoomID derives the conversation room id for a cast seen by an agent.
func RoomID(castHash string, agentID uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte("room-"+castHash+"-"+agentID.String()))
}

// UserID derives the stable id for an external Farcaster user.
func UserID(fid uint64) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte("user-"+strconv.FormatUint(fid, 10)))
}
