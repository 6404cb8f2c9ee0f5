package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Oracle asks the external payment provider whether a booking has been
// paid. The provider is the single source of payment truth; nothing here
// is cached.
type Oracle struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewOracle(baseURL string, log *zap.Logger) *Oracle {
	return &Oracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log.With(zap.String("service", "payment_oracle")),
	}
}

type statusResponse struct {
	BookingID string `json:"booking_id"`
	Paid      bool   `json:"paid"`
}

func (o *Oracle) IsPaid(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/bookings/%s/status", o.baseURL, bookingID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode payment status: %w", err)
	}

	o.log.Debug("payment status checked",
		zap.String("booking_id", bookingID.String()),
		zap.Bool("paid", body.Paid),
	)
	return body.Paid, nil
}
