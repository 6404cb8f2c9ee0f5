package feed

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridebooking/internal/modules/notify"
)

// notificationMessage is the in-app notification frame sent over the hub.
type notificationMessage struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID string `json:"booking_id"`
	Phase     string `json:"phase"`
}

// Transport delivers notifications: in-app goes over the websocket hub,
// the other channels are handed to outbound gateways. Email and push
// gateways are not wired yet, those sends only leave a log line.
// TODO: plug the email gateway in once the provider account exists.
type Transport struct {
	hub *Hub
	log *zap.Logger
}

func NewTransport(hub *Hub, log *zap.Logger) *Transport {
	return &Transport{
		hub: hub,
		log: log.With(zap.String("service", "notify_transport")),
	}
}

func (t *Transport) Send(ctx context.Context, recipientID uuid.UUID, channel notify.Channel, msg notify.Message) error {
	switch channel {
	case notify.ChannelInApp:
		t.hub.SendToUser(recipientID, notificationMessage{
			Type:      "notification",
			Title:     msg.Title,
			Body:      msg.Body,
			BookingID: msg.BookingID.String(),
			Phase:     string(msg.Phase),
		})
		return nil
	default:
		t.log.Info("outbound notification",
			zap.String("recipient", recipientID.String()),
			zap.String("channel", string(channel)),
			zap.String("title", msg.Title),
			zap.String("booking_id", msg.BookingID.String()),
		)
		return nil
	}
}
