package repository

import (
	"context"

	"github.com/shareloop/shareloop-backend/internal/models"
	"gorm.io/gorm"
)

// ItemRepository is the item directory as seen by the booking service: the
// availability flag and owner reference are read-only facts here.
type ItemRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Item, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) FindByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
