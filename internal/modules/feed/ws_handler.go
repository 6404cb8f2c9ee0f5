package feed

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ridebooking/internal/modules/store"
	"ridebooking/internal/pkg/jwt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Any origin is allowed in dev; tighten behind CORS in production.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientCommand is what a connected client sends to open or close a
// change-feed registration for a booking.
type clientCommand struct {
	Action    string `json:"action"`  // subscribe | unsubscribe
	Concern   string `json:"concern"` // booking | offers, default booking
	BookingID string `json:"booking_id"`
}

type WSHandler struct {
	hub        *Hub
	registry   *store.Registry
	jwtService *jwt.Service
	log        *zap.Logger
}

func NewWSHandler(hub *Hub, registry *store.Registry, jwtService *jwt.Service, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:        hub,
		registry:   registry,
		jwtService: jwtService,
		log:        log.With(zap.String("service", "feed_ws")),
	}
}

// HandleWebSocket upgrades the connection and serves the per-client command
// loop. Auth goes through a query parameter since websocket clients cannot
// set headers.
//
// Endpoint: GET /ws/feed?token=JWT_TOKEN
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required. Use ?token=YOUR_JWT_TOKEN",
		})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token subject",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Register(userID, conn)
	h.log.Info("client connected", zap.String("user_id", userID.String()))

	subscribed := make(map[uuid.UUID]struct{})
	defer func() {
		for id := range subscribed {
			h.registry.Unsubscribe(id)
		}
		h.hub.Unregister(userID)
		h.log.Info("client disconnected", zap.String("user_id", userID.String()))
	}()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	for {
		var cmd clientCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		bookingID, err := uuid.Parse(cmd.BookingID)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": "invalid booking_id"})
			continue
		}

		switch cmd.Action {
		case "subscribe":
			if cmd.Concern == string(store.ConcernOffers) {
				h.registry.SubscribeToOffers(bookingID)
			} else {
				h.registry.SubscribeToBooking(bookingID)
			}
			subscribed[bookingID] = struct{}{}
			_ = conn.WriteJSON(gin.H{"subscribed": bookingID.String()})
		case "unsubscribe":
			h.registry.Unsubscribe(bookingID)
			delete(subscribed, bookingID)
			_ = conn.WriteJSON(gin.H{"unsubscribed": bookingID.String()})
		default:
			_ = conn.WriteJSON(gin.H{"error": "unknown action"})
		}
	}
}
