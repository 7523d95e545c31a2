package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/justificatif/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertType(ctx context.Context, db *gorm.DB, item *domain.JustificatifType) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindTypeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.JustificatifType, error) {
	var item domain.JustificatifType
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindTypeByCode(ctx context.Context, db *gorm.DB, code string) (*domain.JustificatifType, error) {
	var item domain.JustificatifType
	err := db.WithContext(ctx).Where("code = ?", code).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListTypes(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.JustificatifType, error) {
	var items []*domain.JustificatifType
	stmt := db.WithContext(ctx).Model(&domain.JustificatifType{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("label asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateType(ctx context.Context, db *gorm.DB, item *domain.JustificatifType) error {
	return db.WithContext(ctx).
		Model(&domain.JustificatifType{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"label":       item.Label,
			"description": item.Description,
			"mandatory":   item.Mandatory,
			"active":      item.Active,
			"updated_at":  item.UpdatedAt,
		}).Error
}

func (r *repo) DeleteType(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.JustificatifType{}).Error
}

func (r *repo) CountByType(ctx context.Context, db *gorm.DB, typeID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Justificatif{}).Where("type_id = ?", typeID).Count(&count).Error
	return count, err
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Justificatif) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Justificatif, error) {
	var item domain.Justificatif
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindForChild(ctx context.Context, db *gorm.DB, childID, typeID snowflake.ID, schoolYear string) (*domain.Justificatif, error) {
	var item domain.Justificatif
	err := db.WithContext(ctx).
		Where("child_id = ? AND type_id = ? AND school_year = ?", childID, typeID, schoolYear).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListForChild(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string) ([]*domain.Justificatif, error) {
	var items []*domain.Justificatif
	stmt := db.WithContext(ctx).Where("child_id = ?", childID)
	if schoolYear != "" {
		stmt = stmt.Where("school_year = ?", schoolYear)
	}
	if err := stmt.Order("school_year desc, submitted_at asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.Justificatif) error {
	return db.WithContext(ctx).Save(item).Error
}
