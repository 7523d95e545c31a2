package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/preinscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Preinscription) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Preinscription, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Preinscription, error) {
	return r.findOne(ctx, db, "reference = ?", strings.ToUpper(strings.TrimSpace(reference)))
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.Preinscription, error) {
	var item domain.Preinscription
	err := db.WithContext(ctx).Where(query, arg).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.Preinscription) error {
	return db.WithContext(ctx).Save(item).Error
}
