package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
)

func currentPhase(b *domain.Booking) domain.Phase {
	return lifecycle.Normalize(b.Raw())
}

// deliverableChannels is the set the dispatcher fans out over. Sound is a
// client-side rendering hint attached to in-app delivery, not a transport
// of its own.
var deliverableChannels = []Channel{ChannelInApp, ChannelEmail, ChannelPush}

// Dispatcher maps a detected phase transition to per-recipient,
// per-channel alerts. It is driven exclusively by the store's phase-change
// events, so every notification corresponds to an actually-applied
// transition. Dispatch is fire-and-forget: the transition is already
// durable before any send is attempted, and a transport outage can never
// roll it back.
type Dispatcher struct {
	prefs     *PreferenceService
	transport Transport
	log       *zap.Logger
}

func NewDispatcher(prefs *PreferenceService, transport Transport, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		prefs:     prefs,
		transport: transport,
		log:       log.With(zap.String("service", "notify")),
	}
}

type routedMessage struct {
	recipient domain.Party
	msg       Message
}

// route is the phase → recipients → message table.
func route(b *domain.Booking) []routedMessage {
	phase := currentPhase(b)
	passenger := domain.Party{Role: domain.RolePassenger, UserID: b.PassengerID}

	switch phase {
	case domain.PhaseOfferSent:
		return []routedMessage{{
			recipient: passenger,
			msg: Message{
				Title:     "Offer ready",
				Body:      fmt.Sprintf("A driver offer is ready for ride %s.", b.Code),
				BookingID: b.ID,
				Phase:     phase,
			},
		}}
	case domain.PhasePaymentPending:
		return []routedMessage{{
			recipient: passenger,
			msg: Message{
				Title:     "Payment required",
				Body:      fmt.Sprintf("Complete payment to confirm ride %s.", b.Code),
				BookingID: b.ID,
				Phase:     phase,
			},
		}}
	case domain.PhaseAllSet:
		out := []routedMessage{{
			recipient: passenger,
			msg: Message{
				Title:     "Ride confirmed",
				Body:      fmt.Sprintf("Ride %s is confirmed and a driver is assigned.", b.Code),
				BookingID: b.ID,
				Phase:     phase,
			},
		}}
		if b.HasDriver() {
			out = append(out, routedMessage{
				recipient: domain.Party{Role: domain.RoleDriver, UserID: *b.DriverID},
				msg: Message{
					Title:     "New ride assignment",
					Body:      fmt.Sprintf("You are assigned to ride %s.", b.Code),
					BookingID: b.ID,
					Phase:     phase,
				},
			})
		}
		return out
	case domain.PhaseCancelled:
		out := []routedMessage{{
			recipient: passenger,
			msg: Message{
				Title:     "Ride cancelled",
				Body:      fmt.Sprintf("Ride %s has been cancelled.", b.Code),
				BookingID: b.ID,
				Phase:     phase,
			},
		}}
		if b.HasDriver() {
			out = append(out, routedMessage{
				recipient: domain.Party{Role: domain.RoleDriver, UserID: *b.DriverID},
				msg: Message{
					Title:     "Ride cancelled",
					Body:      fmt.Sprintf("Ride %s has been cancelled.", b.Code),
					BookingID: b.ID,
					Phase:     phase,
				},
			})
		}
		return out
	}
	return nil
}

// OnPhaseChanged implements the store listener. Sends are gated per
// recipient by channel and category preferences; failures are logged and
// swallowed so delivery trouble never surfaces into the state transition.
func (d *Dispatcher) OnPhaseChanged(ctx context.Context, b *domain.Booking, previous domain.Phase) {
	for _, rm := range route(b) {
		prefs := d.prefs.Get(ctx, rm.recipient.UserID, rm.recipient.Role)
		if !prefs.CategoryEnabled(CategoryBookingUpdates) {
			continue
		}
		for _, ch := range deliverableChannels {
			if !prefs.ChannelEnabled(ch) {
				continue
			}
			if err := d.transport.Send(ctx, rm.recipient.UserID, ch, rm.msg); err != nil {
				d.log.Warn("notification send failed",
					zap.String("booking_id", b.ID.String()),
					zap.String("recipient", rm.recipient.UserID.String()),
					zap.String("channel", string(ch)),
					zap.Error(err),
				)
			}
		}
	}
}
