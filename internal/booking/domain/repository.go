package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertIgnoreExisting stores bookings, skipping days already booked.
	InsertIgnoreExisting(ctx context.Context, db *gorm.DB, bookings []*Booking) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, childID snowflake.ID, kind Kind, date time.Time) (int64, error)
	ListRange(ctx context.Context, db *gorm.DB, childID snowflake.ID, kind Kind, from, to time.Time) ([]*Booking, error)
	CountRange(ctx context.Context, db *gorm.DB, childID snowflake.ID, kind Kind, from, to time.Time) (int64, error)
}
