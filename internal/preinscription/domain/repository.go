package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Preinscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Preinscription, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Preinscription, error)
	Update(ctx context.Context, db *gorm.DB, item *Preinscription) error
}
