package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jtorres-dev/storefront-backend/pkg/db/models"
)

// Repository is read-only from checkout's perspective; address edits live in
// the account screens and never touch historical orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID returns the address only when it belongs to the given user.
func (r *Repository) FindByID(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
