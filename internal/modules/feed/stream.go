package feed

import (
	"context"

	"go.uber.org/zap"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
)

// PhaseMessage is what connected clients receive when a booking they are
// party to moves to a new phase.
type PhaseMessage struct {
	Type          string       `json:"type"`
	BookingID     string       `json:"booking_id"`
	Code          string       `json:"code"`
	Phase         domain.Phase `json:"phase"`
	PreviousPhase domain.Phase `json:"previous_phase,omitempty"`
	Stage         string       `json:"stage,omitempty"`
}

// PhaseStream pushes phase changes to the booking's parties over the hub.
// It hangs off the store, so it fires only on actual phase movement.
type PhaseStream struct {
	hub *Hub
	log *zap.Logger
}

func NewPhaseStream(hub *Hub, log *zap.Logger) *PhaseStream {
	return &PhaseStream{
		hub: hub,
		log: log.With(zap.String("service", "feed")),
	}
}

func (s *PhaseStream) OnPhaseChanged(ctx context.Context, b *domain.Booking, previous domain.Phase) {
	msg := PhaseMessage{
		Type:          "phase_changed",
		BookingID:     b.ID.String(),
		Code:          b.Code,
		Phase:         lifecycle.Normalize(b.Raw()),
		PreviousPhase: previous,
	}
	if stage, ok := lifecycle.StageOf(b.Raw()); ok {
		msg.Stage = string(stage)
	}

	for _, party := range b.Parties() {
		if s.hub.SendToUser(party.UserID, msg) {
			s.log.Debug("phase pushed",
				zap.String("booking_id", msg.BookingID),
				zap.String("recipient", party.UserID.String()),
				zap.String("phase", string(msg.Phase)),
			)
		}
	}
}
