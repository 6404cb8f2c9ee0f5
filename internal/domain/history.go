package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActorRole identifies the originator of a transition or history entry.
type ActorRole string

const (
	RolePassenger  ActorRole = "passenger"
	RoleDriver     ActorRole = "driver"
	RoleDispatcher ActorRole = "dispatcher"
	RoleSystem     ActorRole = "system"
)

// HistoryEntry is an append-only audit record of a booking status change.
// Entries are never mutated or deleted; duplicates from retries are kept
// here and absorbed at read time by the timeline projector.
type HistoryEntry struct {
	ID        int64          `json:"id"`
	BookingID uuid.UUID      `json:"booking_id"`
	Status    string         `json:"status"`
	Actor     ActorRole      `json:"actor"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
