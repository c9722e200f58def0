package postgres

import (
	"context"

	"github.com/smitebuilds/backend/internal/domain"
	"gorm.io/gorm"
)

type buildItemRepository struct {
	db *gorm.DB
}

func NewBuildItemRepository(db *gorm.DB) *buildItemRepository {
	return &buildItemRepository{db: db}
}

func (r *buildItemRepository) Create(ctx context.Context, buildItem *domain.BuildItem) error {
	return r.db.WithContext(ctx).Create(buildItem).Error
}
