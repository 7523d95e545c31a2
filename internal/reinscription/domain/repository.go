package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Reinscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reinscription, error)
	UpdateDecision(ctx context.Context, db *gorm.DB, item *Reinscription) error
}
