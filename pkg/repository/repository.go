// Package repository provides a generic gorm store for models whose queries
// are plain column filters plus query options.
package repository

import (
	"context"

	"github.com/montessori/ecole/pkg/db/option"
	"gorm.io/gorm"
)

// Repository reads a single model. Zero fields of a filter are ignored,
// following gorm struct conditions.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error)
	Exists(ctx context.Context, filter *T, opts ...option.QueryOption) (bool, error)
	Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error)
}
