package notify

import (
	"context"

	"github.com/google/uuid"

	"ridebooking/internal/domain"
)

// PreferenceRepository is the persistence slice the module needs.
type PreferenceRepository interface {
	GetByUserRole(ctx context.Context, userID uuid.UUID, role domain.ActorRole) (*Preference, error)
	Save(ctx context.Context, p *Preference) error
}

// Message is the payload handed to a transport.
type Message struct {
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	BookingID uuid.UUID    `json:"booking_id"`
	Phase     domain.Phase `json:"phase"`
}

// Transport delivers one message on one channel. Implementations live at
// the boundary (push gateway, mailer, the in-app feed); retry policy, if
// any, belongs to them, never to the dispatcher.
type Transport interface {
	Send(ctx context.Context, recipientID uuid.UUID, channel Channel, msg Message) error
}
