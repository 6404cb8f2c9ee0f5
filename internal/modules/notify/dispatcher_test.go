package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ridebooking/internal/domain"
)

type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) GetByUserRole(ctx context.Context, userID uuid.UUID, role domain.ActorRole) (*Preference, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Preference), args.Error(1)
}

func (m *MockPreferenceRepository) Save(ctx context.Context, p *Preference) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, recipientID uuid.UUID, channel Channel, msg Message) error {
	args := m.Called(ctx, recipientID, channel, msg)
	return args.Error(0)
}

func offerSentBooking() *domain.Booking {
	return &domain.Booking{
		ID:                        uuid.New(),
		Code:                      "RIDE-20260301-0007",
		PassengerID:               uuid.New(),
		RideStatus:                domain.RideStatusOfferSent,
		PaymentConfirmationStatus: domain.PayStatusOfferSent,
	}
}

func TestDispatcher_ChannelGating(t *testing.T) {
	b := offerSentBooking()

	prefs := &Preference{
		UserID:         b.PassengerID,
		Role:           domain.RolePassenger,
		InAppEnabled:   true,
		PushEnabled:    false,
		EmailEnabled:   false,
		BookingUpdates: true,
	}
	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, b.PassengerID, domain.RolePassenger).Return(prefs, nil)

	transport := new(MockTransport)
	transport.On("Send", mock.Anything, b.PassengerID, ChannelInApp, mock.Anything).Return(nil)

	d := NewDispatcher(NewPreferenceService(repo, zap.NewNop()), transport, zap.NewNop())
	d.OnPhaseChanged(context.Background(), b, domain.PhaseRequested)

	transport.AssertNumberOfCalls(t, "Send", 1)
	transport.AssertNotCalled(t, "Send", mock.Anything, b.PassengerID, ChannelPush, mock.Anything)
}

func TestDispatcher_CategoryOptOutSilencesAllChannels(t *testing.T) {
	b := offerSentBooking()

	prefs := DefaultPreferences(b.PassengerID, domain.RolePassenger)
	prefs.BookingUpdates = false
	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, b.PassengerID, domain.RolePassenger).Return(prefs, nil)

	transport := new(MockTransport)
	d := NewDispatcher(NewPreferenceService(repo, zap.NewNop()), transport, zap.NewNop())
	d.OnPhaseChanged(context.Background(), b, domain.PhaseRequested)

	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_AllSetNotifiesDriverOnlyWhenAssigned(t *testing.T) {
	driverID := uuid.New()
	b := offerSentBooking()
	b.RideStatus = domain.RideStatusDriverAccepted
	b.PaymentConfirmationStatus = domain.PayStatusAllSet

	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(NewPreferenceService(repo, zap.NewNop()), transport, zap.NewNop())

	// No driver attached yet: passenger only, three default channels.
	d.OnPhaseChanged(context.Background(), b, domain.PhasePaidUnconfirmed)
	transport.AssertNumberOfCalls(t, "Send", 3)

	// Driver attached: both parties get notified.
	b.DriverID = &driverID
	d.OnPhaseChanged(context.Background(), b, domain.PhasePaidUnconfirmed)
	transport.AssertNumberOfCalls(t, "Send", 9)
}

func TestDispatcher_CancelledNotifiesCounterpart(t *testing.T) {
	driverID := uuid.New()
	b := offerSentBooking()
	b.DriverID = &driverID
	b.RideStatus = domain.RideStatusCancelled
	b.PaymentConfirmationStatus = domain.PayStatusCancelled

	passengerPrefs := &Preference{UserID: b.PassengerID, Role: domain.RolePassenger, InAppEnabled: true, BookingUpdates: true}
	driverPrefs := &Preference{UserID: driverID, Role: domain.RoleDriver, InAppEnabled: true, BookingUpdates: true}

	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, b.PassengerID, domain.RolePassenger).Return(passengerPrefs, nil)
	repo.On("GetByUserRole", mock.Anything, driverID, domain.RoleDriver).Return(driverPrefs, nil)

	transport := new(MockTransport)
	transport.On("Send", mock.Anything, b.PassengerID, ChannelInApp, mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, driverID, ChannelInApp, mock.Anything).Return(nil)

	d := NewDispatcher(NewPreferenceService(repo, zap.NewNop()), transport, zap.NewNop())
	d.OnPhaseChanged(context.Background(), b, domain.PhaseAllSet)

	transport.AssertExpectations(t)
	transport.AssertNumberOfCalls(t, "Send", 2)
}

func TestDispatcher_TransportFailureIsSwallowed(t *testing.T) {
	b := offerSentBooking()

	prefs := &Preference{UserID: b.PassengerID, Role: domain.RolePassenger, InAppEnabled: true, BookingUpdates: true}
	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, b.PassengerID, domain.RolePassenger).Return(prefs, nil)

	transport := new(MockTransport)
	transport.On("Send", mock.Anything, b.PassengerID, ChannelInApp, mock.Anything).
		Return(errors.New("gateway timeout"))

	d := NewDispatcher(NewPreferenceService(repo, zap.NewNop()), transport, zap.NewNop())

	assert.NotPanics(t, func() {
		d.OnPhaseChanged(context.Background(), b, domain.PhaseRequested)
	})
}

func TestDispatcher_NoRouteForQuietPhases(t *testing.T) {
	b := offerSentBooking()
	b.RideStatus = domain.RideStatusPendingDriver
	b.PaymentConfirmationStatus = domain.PayStatusWaitingForOffer

	repo := new(MockPreferenceRepository)
	transport := new(MockTransport)
	d := NewDispatcher(NewPreferenceService(repo, zap.NewNop()), transport, zap.NewNop())

	d.OnPhaseChanged(context.Background(), b, domain.Phase(""))

	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "GetByUserRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreferenceService_LoadFailureFallsBackConservatively(t *testing.T) {
	userID := uuid.New()
	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, userID, domain.RolePassenger).
		Return(nil, errors.New("connection refused"))

	svc := NewPreferenceService(repo, zap.NewNop())
	p := svc.Get(context.Background(), userID, domain.RolePassenger)

	require.NotNil(t, p)
	assert.True(t, p.InAppEnabled)
	assert.True(t, p.EmailEnabled)
	assert.False(t, p.PushEnabled)
	assert.True(t, p.BookingUpdates)
}

func TestPreferenceService_LazyDefaultsOnFirstAccess(t *testing.T) {
	userID := uuid.New()
	repo := new(MockPreferenceRepository)
	repo.On("GetByUserRole", mock.Anything, userID, domain.RoleDriver).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(p *Preference) bool {
		return p.UserID == userID && p.Role == domain.RoleDriver && p.PushEnabled
	})).Return(nil)

	svc := NewPreferenceService(repo, zap.NewNop())
	p := svc.Get(context.Background(), userID, domain.RoleDriver)

	require.NotNil(t, p)
	assert.False(t, p.Promotions)
	repo.AssertExpectations(t)
}

func TestPreferenceService_UpdateValidatesIdentity(t *testing.T) {
	repo := new(MockPreferenceRepository)
	svc := NewPreferenceService(repo, zap.NewNop())

	err := svc.Update(context.Background(), &Preference{})
	assert.ErrorIs(t, err, ErrPreferenceSave)
}
