package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridebooking/internal/domain"
)

func newRequestedBooking(t *testing.T) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		ID:          uuid.New(),
		PassengerID: uuid.New(),
		Currency:    "USD",
	}
	_, err := Apply(b, TransitionRequestSubmitted, Extra{Actor: domain.RolePassenger})
	require.NoError(t, err)
	return b
}

func ptrFloat(v float64) *float64 { return &v }

func TestApply_UnknownTransition(t *testing.T) {
	b := newRequestedBooking(t)
	_, err := Apply(b, TransitionName("warp_drive"), Extra{})
	assert.ErrorIs(t, err, ErrUnknownTransition)
}

func TestApply_RequestSubmitted(t *testing.T) {
	b := newRequestedBooking(t)
	assert.Equal(t, domain.RideStatusPendingDriver, b.RideStatus)
	assert.Equal(t, domain.PayStatusWaitingForOffer, b.PaymentConfirmationStatus)
	assert.Equal(t, domain.PhaseRequested, Normalize(b.Raw()))

	// Creation transition cannot run twice.
	_, err := Apply(b, TransitionRequestSubmitted, Extra{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApply_OfferSent_RequiresDriverAndPrice(t *testing.T) {
	driverID := uuid.New()

	b := newRequestedBooking(t)
	_, err := Apply(b, TransitionOfferSent, Extra{Actor: domain.RoleDispatcher, Price: ptrFloat(80)})
	assert.ErrorIs(t, err, ErrMissingDriver)

	_, err = Apply(b, TransitionOfferSent, Extra{Actor: domain.RoleDispatcher, DriverID: &driverID})
	assert.ErrorIs(t, err, ErrMissingPrice)

	res, err := Apply(b, TransitionOfferSent, Extra{
		Actor:    domain.RoleDispatcher,
		DriverID: &driverID,
		Price:    ptrFloat(80),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseRequested, res.Previous)
	assert.Equal(t, domain.PhaseOfferSent, res.Next)
	assert.True(t, b.HasDriver())
	assert.Equal(t, 80.0, *b.OfferPrice)
	assert.NotNil(t, b.OfferSentAt)
}

func TestApply_InvalidStateLeavesBookingUntouched(t *testing.T) {
	b := newRequestedBooking(t)
	before := *b

	_, err := Apply(b, TransitionPaymentConfirmed, Extra{Actor: domain.RoleDriver})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, before, *b)
}

func TestApply_FullHappyPath(t *testing.T) {
	driverID := uuid.New()
	b := newRequestedBooking(t)

	steps := []struct {
		name  TransitionName
		extra Extra
		want  domain.Phase
	}{
		{TransitionOfferSent, Extra{Actor: domain.RoleDispatcher, DriverID: &driverID, Price: ptrFloat(80)}, domain.PhaseOfferSent},
		{TransitionOfferAccepted, Extra{Actor: domain.RolePassenger}, domain.PhasePaymentPending},
		{TransitionPaymentSent, Extra{Actor: domain.RolePassenger}, domain.PhasePaidUnconfirmed},
		{TransitionPaymentConfirmed, Extra{Actor: domain.RoleSystem}, domain.PhaseAllSet},
	}
	for _, step := range steps {
		res, err := Apply(b, step.name, step.extra)
		require.NoErrorf(t, err, "transition %s", step.name)
		assert.Equal(t, step.want, res.Next)
		assert.Equal(t, string(step.want), res.History.Status)
	}
	assert.NotNil(t, b.PaymentConfirmedAt)
}

func TestApply_RideStageSequence(t *testing.T) {
	driverID := uuid.New()
	b := newRequestedBooking(t)
	mustApply(t, b, TransitionOfferSent, Extra{DriverID: &driverID, Price: ptrFloat(55)})
	mustApply(t, b, TransitionOfferAccepted, Extra{})
	mustApply(t, b, TransitionPaymentSent, Extra{})
	mustApply(t, b, TransitionPaymentConfirmed, Extra{})

	wantStages := []domain.RideStage{
		domain.StageHeading, domain.StageArrivedPickup, domain.StageOnboard,
		domain.StageInTransit, domain.StageArrivedDropoff,
	}
	for _, want := range wantStages {
		res, err := Apply(b, TransitionRideStageAdvance, Extra{Actor: domain.RoleDriver})
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseInProgress, res.Next)
		stage, ok := StageOf(b.Raw())
		require.True(t, ok)
		assert.Equal(t, want, stage)
	}
	assert.NotNil(t, b.RideStartedAt)

	// Advancing past the last stage completes the ride.
	res, err := Apply(b, TransitionRideStageAdvance, Extra{Actor: domain.RoleDriver})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, res.Next)
	assert.NotNil(t, b.RideCompletedAt)

	_, err = Apply(b, TransitionRideStageAdvance, Extra{Actor: domain.RoleDriver})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApply_CancelFromAnyNonTerminal(t *testing.T) {
	driverID := uuid.New()

	b := newRequestedBooking(t)
	mustApply(t, b, TransitionOfferSent, Extra{DriverID: &driverID, Price: ptrFloat(40)})
	mustApply(t, b, TransitionOfferAccepted, Extra{})

	res, err := Apply(b, TransitionCancelled, Extra{Actor: domain.RolePassenger, Reason: "change of plans"})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCancelled, res.Next)
	assert.Equal(t, "change of plans", b.CancellationReason)
	assert.Equal(t, "change of plans", res.History.Metadata["reason"])

	// Terminal: no further cancel, no further anything.
	_, err = Apply(b, TransitionCancelled, Extra{})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = Apply(b, TransitionOfferAccepted, Extra{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApply_OfferDeclined(t *testing.T) {
	driverID := uuid.New()
	b := newRequestedBooking(t)
	mustApply(t, b, TransitionOfferSent, Extra{DriverID: &driverID, Price: ptrFloat(40)})

	res, err := Apply(b, TransitionOfferDeclined, Extra{Actor: domain.RolePassenger})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseDeclined, res.Next)
	assert.True(t, res.Next.IsTerminal())
}

func TestApply_RequestTimedOut(t *testing.T) {
	b := newRequestedBooking(t)

	res, err := Apply(b, TransitionRequestTimedOut, Extra{Now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCancelled, res.Next)
	assert.Equal(t, domain.RoleSystem, res.History.Actor)
	assert.NotEmpty(t, b.CancellationReason)

	// Not applicable once payment is pending.
	b2 := newRequestedBooking(t)
	driverID := uuid.New()
	mustApply(t, b2, TransitionOfferSent, Extra{DriverID: &driverID, Price: ptrFloat(30)})
	mustApply(t, b2, TransitionOfferAccepted, Extra{})
	_, err = Apply(b2, TransitionRequestTimedOut, Extra{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApply_HistoryCarriesPriceAndStage(t *testing.T) {
	driverID := uuid.New()
	b := newRequestedBooking(t)

	res, err := Apply(b, TransitionOfferSent, Extra{DriverID: &driverID, Price: ptrFloat(99.5)})
	require.NoError(t, err)
	assert.Equal(t, 99.5, res.History.Metadata["price"])
	assert.Equal(t, string(TransitionOfferSent), res.History.Metadata["transition"])
	assert.Equal(t, string(domain.PhaseRequested), res.History.Metadata["previous_phase"])
}

func mustApply(t *testing.T, b *domain.Booking, name TransitionName, x Extra) {
	t.Helper()
	_, err := Apply(b, name, x)
	require.NoError(t, err)
}
