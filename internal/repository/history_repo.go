package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ridebooking/internal/domain"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

type historyModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BookingID string    `gorm:"column:booking_id;index"`
	Status    string    `gorm:"column:status"`
	Actor     string    `gorm:"column:actor"`
	Metadata  []byte    `gorm:"column:metadata"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (historyModel) TableName() string { return "booking_history" }

func toDomainHistory(m historyModel) domain.HistoryEntry {
	e := domain.HistoryEntry{
		ID:        m.ID,
		BookingID: uuid.MustParse(m.BookingID),
		Status:    m.Status,
		Actor:     domain.ActorRole(m.Actor),
		CreatedAt: m.CreatedAt,
	}
	if len(m.Metadata) > 0 {
		// Malformed metadata is tolerated, the entry still counts.
		_ = json.Unmarshal(m.Metadata, &e.Metadata)
	}
	return e
}

// Append writes one immutable audit row. History is insert-only.
func (r *HistoryRepository) Append(ctx context.Context, e *domain.HistoryEntry) error {
	m := historyModel{
		BookingID: e.BookingID.String(),
		Status:    e.Status,
		Actor:     string(e.Actor),
		CreatedAt: e.CreatedAt,
	}
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		m.Metadata = raw
	}

	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	e.ID = m.ID
	return nil
}

func (r *HistoryRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.HistoryEntry, error) {
	var models []historyModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID.String()).
		Order("created_at ASC, id ASC").
		Find(&models)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.HistoryEntry, 0, len(models))
	for _, m := range models {
		out = append(out, toDomainHistory(m))
	}
	return out, nil
}
