package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertType(ctx context.Context, db *gorm.DB, item *JustificatifType) error
	FindTypeByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*JustificatifType, error)
	FindTypeByCode(ctx context.Context, db *gorm.DB, code string) (*JustificatifType, error)
	ListTypes(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*JustificatifType, error)
	UpdateType(ctx context.Context, db *gorm.DB, item *JustificatifType) error
	DeleteType(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	CountByType(ctx context.Context, db *gorm.DB, typeID snowflake.ID) (int64, error)

	Insert(ctx context.Context, db *gorm.DB, item *Justificatif) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Justificatif, error)
	FindForChild(ctx context.Context, db *gorm.DB, childID, typeID snowflake.ID, schoolYear string) (*Justificatif, error)
	ListForChild(ctx context.Context, db *gorm.DB, childID snowflake.ID, schoolYear string) ([]*Justificatif, error)
	Update(ctx context.Context, db *gorm.DB, item *Justificatif) error
}
