package postgres

import (
	"context"
	"errors"

	"github.com/smitebuilds/backend/internal/domain"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *itemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) FindByIdentity(ctx context.Context, isRelic bool, name string, variant domain.NameVariant, imageName string, imageID *int64) (*domain.Item, error) {
	tx := r.db.WithContext(ctx).
		Where("is_relic = ? AND name = ? AND variant = ? AND image_name = ?",
			isRelic, name, variant, imageName)
	// image_id IS NULL never matches "= NULL", so the null case is explicit.
	if imageID == nil {
		tx = tx.Where("image_id IS NULL")
	} else {
		tx = tx.Where("image_id = ?", *imageID)
	}

	var item domain.Item
	err := tx.First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepository) DistinctNames(ctx context.Context, isRelic bool) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&domain.Item{}).
		Where("is_relic = ?", isRelic).
		Distinct("name").Order("name ASC").Pluck("name", &names).Error
	return names, err
}
