package timeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/lifecycle"
)

// Order selects how projected events are sorted. Most-recent-first feeds the
// booking detail header, oldest-first feeds the full audit view.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
)

// Event is one display-ready timeline row.
type Event struct {
	Phase     domain.Phase     `json:"phase"`
	Actor     domain.ActorRole `json:"actor"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// HistoryReader is the slice of persistence the projector needs.
type HistoryReader interface {
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.HistoryEntry, error)
}

// Projector derives an ordered, de-duplicated lifecycle timeline from the
// append-only audit log. Deduplication is a read-time view: the underlying
// log keeps every raw entry.
type Projector struct {
	history HistoryReader
	log     *zap.Logger
}

func NewProjector(history HistoryReader, log *zap.Logger) *Projector {
	return &Projector{
		history: history,
		log:     log.With(zap.String("service", "timeline")),
	}
}

// Project groups raw history entries by canonical phase, absorbing the
// legacy status synonyms, keeps only the most recent entry per phase and
// sorts by timestamp. Malformed entries never fail the projection; they
// fold into the requested phase like everywhere else.
func (p *Projector) Project(ctx context.Context, bookingID uuid.UUID, order Order) ([]Event, error) {
	entries, err := p.history.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	latest := make(map[domain.Phase]domain.HistoryEntry, len(entries))
	for _, e := range entries {
		ph := lifecycle.PhaseFromStatus(e.Status)
		if cur, ok := latest[ph]; ok && !e.CreatedAt.After(cur.CreatedAt) {
			continue
		}
		latest[ph] = e
	}

	out := make([]Event, 0, len(latest))
	for ph, e := range latest {
		out = append(out, Event{
			Phase:     ph,
			Actor:     e.Actor,
			Timestamp: e.CreatedAt,
			Metadata:  e.Metadata,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if order == OrderDescending {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}
