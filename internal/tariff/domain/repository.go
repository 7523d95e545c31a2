package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	FindActive(ctx context.Context, db *gorm.DB, key, schoolYear string) (*Tariff, error)
	Update(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
