package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_SubscribeIsIdempotent(t *testing.T) {
	s := New(zap.NewNop())
	r := NewRegistry(s, zap.NewNop())
	id := uuid.New()

	r.SubscribeToBooking(id)
	r.SubscribeToBooking(id)

	assert.Equal(t, 1, r.Size(), "duplicate subscribe must replace, not stack")

	r.SubscribeToOffers(id)
	assert.Equal(t, 2, r.Size(), "offers channel is separate from the booking channel")
}

func TestRegistry_LateEventFromReplacedChannelIsDropped(t *testing.T) {
	s := New(zap.NewNop())
	r := NewRegistry(s, zap.NewNop())

	b := requestedBooking()
	old := r.SubscribeToBooking(b.ID)
	fresh := r.SubscribeToBooking(b.ID) // replaces old

	applied := r.Deliver(context.Background(), old, ChangeEvent{Type: EventInsert, Booking: b})
	assert.False(t, applied, "event on the replaced channel must not reach the cache")
	_, err := s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	applied = r.Deliver(context.Background(), fresh, ChangeEvent{Type: EventInsert, Booking: b})
	assert.True(t, applied)
	_, err = s.Get(b.ID)
	assert.NoError(t, err)
}

func TestRegistry_UnsubscribeGuardsCache(t *testing.T) {
	s := New(zap.NewNop())
	r := NewRegistry(s, zap.NewNop())

	b := requestedBooking()
	h := r.SubscribeToBooking(b.ID)
	r.Unsubscribe(b.ID)

	applied := r.Deliver(context.Background(), h, ChangeEvent{Type: EventUpdate, Booking: b})
	assert.False(t, applied)
	_, err := s.Get(b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, r.Size())

	// Unsubscribing with nothing registered is a no-op, not an error.
	r.Unsubscribe(uuid.New())
}

func TestRegistry_DispatchRoutesByMembership(t *testing.T) {
	s := New(zap.NewNop())
	r := NewRegistry(s, zap.NewNop())

	subscribed := requestedBooking()
	stranger := requestedBooking()
	r.SubscribeToBooking(subscribed.ID)

	assert.True(t, r.Dispatch(context.Background(), ChangeEvent{Type: EventInsert, Booking: subscribed}))
	assert.False(t, r.Dispatch(context.Background(), ChangeEvent{Type: EventInsert, Booking: stranger}))

	_, err := s.Get(subscribed.ID)
	require.NoError(t, err)
	_, err = s.Get(stranger.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_TeardownAll(t *testing.T) {
	s := New(zap.NewNop())
	r := NewRegistry(s, zap.NewNop())

	// Safe on an empty registry.
	r.TeardownAll()

	r.SubscribeToBooking(uuid.New())
	r.SubscribeToOffers(uuid.New())
	require.Equal(t, 2, r.Size())

	r.TeardownAll()
	assert.Equal(t, 0, r.Size())

	var ev ChangeEvent
	assert.False(t, r.Dispatch(context.Background(), ev), "nil booking events are ignored")
}
