package postgres

import (
	"context"
	"errors"

	"github.com/smitebuilds/backend/internal/domain"
	"gorm.io/gorm"
)

type imageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *imageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) FindByData(ctx context.Context, data []byte) (*domain.Image, error) {
	var image domain.Image
	err := r.db.WithContext(ctx).Where("data = ?", data).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) Create(ctx context.Context, image *domain.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}
