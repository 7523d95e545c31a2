package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/montessori/ecole/internal/booking/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIgnoreExisting(ctx context.Context, db *gorm.DB, bookings []*domain.Booking) (int64, error) {
	if len(bookings) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(bookings)
	return res.RowsAffected, res.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, childID snowflake.ID, kind domain.Kind, date time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("child_id = ? AND kind = ? AND date = ?", childID, kind, date).
		Delete(&domain.Booking{})
	return res.RowsAffected, res.Error
}

func (r *repo) ListRange(ctx context.Context, db *gorm.DB, childID snowflake.ID, kind domain.Kind, from, to time.Time) ([]*domain.Booking, error) {
	var bookings []*domain.Booking
	stmt := db.WithContext(ctx).
		Where("child_id = ? AND date >= ? AND date < ?", childID, from, to)
	if kind != "" {
		stmt = stmt.Where("kind = ?", kind)
	}
	if err := stmt.Order("date asc, kind asc").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repo) CountRange(ctx context.Context, db *gorm.DB, childID snowflake.ID, kind domain.Kind, from, to time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Booking{}).
		Where("child_id = ? AND kind = ? AND date >= ? AND date < ?", childID, kind, from, to).
		Count(&count).Error
	return count, err
}
