package lifecycle

import "ridebooking/internal/domain"

// Normalize reconciles the three overlapping raw status fields into one
// canonical phase. It is pure, total and deterministic: rules are evaluated
// in precedence order and the first match wins; unknown or garbled strings
// fall through to requested instead of failing, because every consumer
// needs some phase rather than an error.
func Normalize(raw domain.RawStatus) domain.Phase {
	pay := canonicalPayStatus(raw.PaymentConfirmationStatus)
	ride := raw.RideStatus

	switch {
	case pay == domain.PayStatusAllSet && ride == domain.RideStatusCompleted:
		return domain.PhaseCompleted
	case pay == domain.PayStatusCancelled:
		return domain.PhaseCancelled
	case pay == domain.PayStatusDeclined || ride == domain.RideStatusDeclined:
		return domain.PhaseDeclined
	case pay == domain.PayStatusAllSet:
		if _, ok := StageOf(raw); ok {
			return domain.PhaseInProgress
		}
		return domain.PhaseAllSet
	case pay == domain.PayStatusPassengerPaid:
		return domain.PhasePaidUnconfirmed
	case pay == domain.PayStatusWaitingForPayment || ride == domain.RideStatusDriverAccepted:
		return domain.PhasePaymentPending
	case pay == domain.PayStatusOfferSent || ride == domain.RideStatusOfferSent:
		return domain.PhaseOfferSent
	case pay == domain.PayStatusWaitingForOffer:
		return domain.PhaseRequested
	default:
		return domain.PhaseRequested
	}
}

// StageOf extracts the driver sub-stage from the raw fields. ok is false
// outside the in_progress window.
func StageOf(raw domain.RawStatus) (domain.RideStage, bool) {
	switch domain.RideStage(raw.RideStatus) {
	case domain.StageHeading, domain.StageArrivedPickup, domain.StageOnboard,
		domain.StageInTransit, domain.StageArrivedDropoff:
		return domain.RideStage(raw.RideStatus), true
	}
	return "", false
}

// canonicalPayStatus folds the synonym set the legacy schema accumulated.
// "pending" and "pending_driver" were used interchangeably with
// waiting_for_offer across old call sites; waiting_for_offer is canonical.
func canonicalPayStatus(s string) string {
	switch s {
	case "pending", "pending_driver":
		return domain.PayStatusWaitingForOffer
	}
	return s
}

// PhaseFromStatus maps a single persisted status string, phase name or raw
// value alike, to its canonical phase. Used by the timeline projector to
// group audit entries that predate the normalizer. Unknown strings map to
// requested, mirroring Normalize.
func PhaseFromStatus(s string) domain.Phase {
	switch domain.Phase(s) {
	case domain.PhaseRequested, domain.PhaseOfferSent, domain.PhaseOfferAccepted,
		domain.PhasePaymentPending, domain.PhasePaidUnconfirmed, domain.PhaseAllSet,
		domain.PhaseInProgress, domain.PhaseCompleted, domain.PhaseCancelled,
		domain.PhaseDeclined:
		return domain.Phase(s)
	}

	switch canonicalPayStatus(s) {
	case domain.PayStatusAllSet:
		return domain.PhaseAllSet
	case domain.PayStatusCancelled:
		return domain.PhaseCancelled
	case domain.PayStatusDeclined:
		return domain.PhaseDeclined
	case domain.PayStatusPassengerPaid:
		return domain.PhasePaidUnconfirmed
	case domain.PayStatusWaitingForPayment, domain.RideStatusDriverAccepted:
		return domain.PhasePaymentPending
	case domain.PayStatusOfferSent:
		return domain.PhaseOfferSent
	case domain.PayStatusWaitingForOffer:
		return domain.PhaseRequested
	}

	if _, ok := StageOf(domain.RawStatus{RideStatus: s}); ok {
		return domain.PhaseInProgress
	}
	return domain.PhaseRequested
}
