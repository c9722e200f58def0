package postgres

import (
	"context"
	"errors"

	"github.com/smitebuilds/backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type metadataRepository struct {
	db *gorm.DB
}

func NewMetadataRepository(db *gorm.DB) *metadataRepository {
	return &metadataRepository{db: db}
}

func (r *metadataRepository) Get(ctx context.Context, key string) (string, error) {
	var row domain.Metadata
	err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (r *metadataRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&domain.Metadata{Key: key, Value: value}).Error
}
