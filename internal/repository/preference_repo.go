package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ridebooking/internal/domain"
	"ridebooking/internal/modules/notify"
)

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) GetByUserRole(ctx context.Context, userID uuid.UUID, role domain.ActorRole) (*notify.Preference, error) {
	var p notify.Preference
	tx := r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		First(&p)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &p, nil
}

// Save upserts on the (user_id, role) pair so concurrent lazy creation
// cannot produce duplicates.
func (r *PreferenceRepository) Save(ctx context.Context, p *notify.Preference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
			UpdateAll: true,
		}).
		Create(p).Error
}
