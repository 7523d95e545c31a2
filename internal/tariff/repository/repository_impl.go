package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Create(tariff).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, key, schoolYear string) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).
		Where("rate_key = ? AND school_year = ? AND active = ?", key, schoolYear, true).
		Limit(1).
		Find(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Model(&domain.Tariff{}).
		Where("id = ?", tariff.ID).
		Updates(map[string]any{
			"amount":     tariff.Amount,
			"label":      tariff.Label,
			"category":   tariff.Category,
			"active":     tariff.Active,
			"updated_at": tariff.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Tariff{}).Error
}
