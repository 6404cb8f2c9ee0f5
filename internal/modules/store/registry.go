package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridebooking/internal/domain"
)

// Concern separates the change-feed channels a caller can hold per booking.
type Concern string

const (
	ConcernBooking Concern = "booking"
	ConcernOffers  Concern = "offers"
)

// Change-feed event types (at-least-once, possibly duplicated, possibly
// out of order across bookings).
const (
	EventInsert = "insert"
	EventUpdate = "update"
)

// ChangeEvent is one record notification from the external change feed.
type ChangeEvent struct {
	Type    string          `json:"type"`
	Concern Concern         `json:"concern"`
	Booking *domain.Booking `json:"booking"`
}

type subKey struct {
	bookingID uuid.UUID
	concern   Concern
}

// Handle identifies one active registration. A late event delivered with a
// stale handle (after unsubscribe or replace) is dropped.
type Handle struct {
	key subKey
	gen uint64
}

// Registry is the keyed subscription arena: at most one active change-feed
// registration per (booking, concern). Subscribing again replaces the
// previous registration instead of stacking a second one.
type Registry struct {
	mu      sync.Mutex
	store   *Store
	subs    map[subKey]uint64
	nextGen uint64
	log     *zap.Logger
}

func NewRegistry(s *Store, log *zap.Logger) *Registry {
	return &Registry{
		store: s,
		subs:  make(map[subKey]uint64),
		log:   log.With(zap.String("service", "registry")),
	}
}

// SubscribeToBooking opens (or replaces) the booking-record channel for id.
func (r *Registry) SubscribeToBooking(id uuid.UUID) Handle {
	return r.subscribe(subKey{bookingID: id, concern: ConcernBooking})
}

// SubscribeToOffers opens (or replaces) the driver-offer channel for id.
func (r *Registry) SubscribeToOffers(id uuid.UUID) Handle {
	return r.subscribe(subKey{bookingID: id, concern: ConcernOffers})
}

func (r *Registry) subscribe(k subKey) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextGen++
	if old, ok := r.subs[k]; ok {
		r.log.Debug("replacing change-feed registration",
			zap.String("booking_id", k.bookingID.String()),
			zap.String("concern", string(k.concern)),
			zap.Uint64("old_gen", old),
		)
	}
	r.subs[k] = r.nextGen
	return Handle{key: k, gen: r.nextGen}
}

// Unsubscribe drops every registration for the booking. Safe to call when
// nothing is subscribed.
func (r *Registry) Unsubscribe(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, subKey{bookingID: id, concern: ConcernBooking})
	delete(r.subs, subKey{bookingID: id, concern: ConcernOffers})
}

// TeardownAll releases every registration. No-op when empty.
func (r *Registry) TeardownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[subKey]uint64)
}

// Size reports the number of active registrations.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// Deliver applies a change event received on the channel identified by h.
// The event is dropped unless h is still the current registration for its
// key, which shields the cache from late events on torn-down channels.
func (r *Registry) Deliver(ctx context.Context, h Handle, ev ChangeEvent) bool {
	r.mu.Lock()
	current, ok := r.subs[h.key]
	r.mu.Unlock()
	if !ok || current != h.gen {
		r.log.Debug("dropping event from stale channel",
			zap.String("booking_id", h.key.bookingID.String()),
			zap.String("concern", string(h.key.concern)),
		)
		return false
	}
	r.store.Upsert(ctx, ev.Booking)
	return true
}

// Dispatch routes a broker event to the cache if any registration holds the
// matching (booking, concern) key. Used by the shared feed consumer, which
// does not carry per-subscription handles.
func (r *Registry) Dispatch(ctx context.Context, ev ChangeEvent) bool {
	if ev.Booking == nil {
		return false
	}
	concern := ev.Concern
	if concern == "" {
		concern = ConcernBooking
	}
	k := subKey{bookingID: ev.Booking.ID, concern: concern}

	r.mu.Lock()
	gen, ok := r.subs[k]
	r.mu.Unlock()
	if !ok {
		return false
	}
	return r.Deliver(ctx, Handle{key: k, gen: gen}, ev)
}
