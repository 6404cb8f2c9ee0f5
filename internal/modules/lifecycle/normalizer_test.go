package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ridebooking/internal/domain"
)

func TestNormalize_PrecedenceOrder(t *testing.T) {
	cases := []struct {
		name string
		raw  domain.RawStatus
		want domain.Phase
	}{
		{
			name: "all_set with completed ride wins over everything",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusCompleted, PaymentConfirmationStatus: domain.PayStatusAllSet},
			want: domain.PhaseCompleted,
		},
		{
			name: "cancelled payment status is terminal",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusOfferSent, PaymentConfirmationStatus: domain.PayStatusCancelled},
			want: domain.PhaseCancelled,
		},
		{
			name: "all_set without ride progress",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusDriverAccepted, PaymentConfirmationStatus: domain.PayStatusAllSet},
			want: domain.PhaseAllSet,
		},
		{
			name: "all_set with ride stage is in_progress",
			raw:  domain.RawStatus{RideStatus: string(domain.StageOnboard), PaymentConfirmationStatus: domain.PayStatusAllSet},
			want: domain.PhaseInProgress,
		},
		{
			name: "passenger_paid awaits confirmation",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusDriverAccepted, PaymentConfirmationStatus: domain.PayStatusPassengerPaid},
			want: domain.PhasePaidUnconfirmed,
		},
		{
			name: "waiting_for_payment",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusDriverAccepted, PaymentConfirmationStatus: domain.PayStatusWaitingForPayment},
			want: domain.PhasePaymentPending,
		},
		{
			name: "offer_sent on payment field",
			raw:  domain.RawStatus{PaymentConfirmationStatus: domain.PayStatusOfferSent},
			want: domain.PhaseOfferSent,
		},
		{
			name: "offer_sent on ride field alone",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusOfferSent},
			want: domain.PhaseOfferSent,
		},
		{
			name: "waiting_for_offer",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusPendingDriver, PaymentConfirmationStatus: domain.PayStatusWaitingForOffer},
			want: domain.PhaseRequested,
		},
		{
			name: "legacy pending synonym",
			raw:  domain.RawStatus{PaymentConfirmationStatus: "pending"},
			want: domain.PhaseRequested,
		},
		{
			name: "legacy pending_driver synonym",
			raw:  domain.RawStatus{PaymentConfirmationStatus: "pending_driver"},
			want: domain.PhaseRequested,
		},
		{
			name: "declined",
			raw:  domain.RawStatus{RideStatus: domain.RideStatusDeclined, PaymentConfirmationStatus: domain.PayStatusDeclined},
			want: domain.PhaseDeclined,
		},
		{
			name: "empty record",
			raw:  domain.RawStatus{},
			want: domain.PhaseRequested,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}

// Every combination of known and garbled values must produce exactly one of
// the defined phases. The normalizer feeds views that must never crash.
func TestNormalize_Totality(t *testing.T) {
	rideValues := []string{
		"", domain.RideStatusPendingDriver, domain.RideStatusOfferSent,
		domain.RideStatusDriverAccepted, string(domain.StageHeading),
		string(domain.StageArrivedPickup), string(domain.StageOnboard),
		string(domain.StageInTransit), string(domain.StageArrivedDropoff),
		domain.RideStatusCompleted, domain.RideStatusCancelled,
		domain.RideStatusDeclined, "garbage", "ACCEPTED", "null",
	}
	payValues := []string{
		"", domain.PayStatusWaitingForOffer, domain.PayStatusOfferSent,
		domain.PayStatusWaitingForPayment, domain.PayStatusPassengerPaid,
		domain.PayStatusAllSet, domain.PayStatusCancelled, domain.PayStatusDeclined,
		"pending", "pending_driver", "garbage", "42", "\x00",
	}
	legacyValues := []string{"", "some free text", "CONFIRMED??"}

	known := map[domain.Phase]bool{
		domain.PhaseRequested: true, domain.PhaseOfferSent: true,
		domain.PhaseOfferAccepted: true, domain.PhasePaymentPending: true,
		domain.PhasePaidUnconfirmed: true, domain.PhaseAllSet: true,
		domain.PhaseInProgress: true, domain.PhaseCompleted: true,
		domain.PhaseCancelled: true, domain.PhaseDeclined: true,
	}

	for _, legacy := range legacyValues {
		for _, ride := range rideValues {
			for _, pay := range payValues {
				raw := domain.RawStatus{Status: legacy, RideStatus: ride, PaymentConfirmationStatus: pay}
				got := Normalize(raw)
				assert.Truef(t, known[got], "raw %+v produced unknown phase %q", raw, got)
			}
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := domain.RawStatus{RideStatus: "garbage", PaymentConfirmationStatus: "pending"}
	first := Normalize(raw)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Normalize(raw))
	}
}

func TestPhaseFromStatus(t *testing.T) {
	assert.Equal(t, domain.PhaseOfferSent, PhaseFromStatus("offer_sent"))
	assert.Equal(t, domain.PhasePaymentPending, PhaseFromStatus("waiting_for_payment"))
	assert.Equal(t, domain.PhasePaymentPending, PhaseFromStatus("driver_accepted"))
	assert.Equal(t, domain.PhasePaidUnconfirmed, PhaseFromStatus("passenger_paid"))
	assert.Equal(t, domain.PhaseInProgress, PhaseFromStatus("onboard"))
	assert.Equal(t, domain.PhaseRequested, PhaseFromStatus("pending_driver"))
	assert.Equal(t, domain.PhaseRequested, PhaseFromStatus("totally unknown"))
	assert.Equal(t, domain.PhaseAllSet, PhaseFromStatus("all_set"))
}
