package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/reinscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Reinscription) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Reinscription, error) {
	var item domain.Reinscription
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) UpdateDecision(ctx context.Context, db *gorm.DB, item *domain.Reinscription) error {
	return db.WithContext(ctx).
		Model(&domain.Reinscription{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"status":     item.Status,
			"comment":    item.Comment,
			"decided_at": item.DecidedAt,
			"updated_at": item.UpdatedAt,
		}).Error
}
