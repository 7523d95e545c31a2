package repository

import (
	"context"

	"github.com/montessori/ecole/pkg/db/option"
	"gorm.io/gorm"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return store[T]{db: db}
}

func (s store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	if tx == nil {
		return s
	}
	return store[T]{db: tx}
}

func (s store[T]) Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error) {
	var out []*T
	if err := s.scope(ctx, filter, opts).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s store[T]) Exists(ctx context.Context, filter *T, opts ...option.QueryOption) (bool, error) {
	var found []*T
	if err := s.scope(ctx, filter, opts).Limit(1).Find(&found).Error; err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (s store[T]) Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error) {
	var n int64
	err := s.scope(ctx, filter, opts).Count(&n).Error
	return n, err
}

func (s store[T]) scope(ctx context.Context, filter *T, opts []option.QueryOption) *gorm.DB {
	q := s.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		q = q.Where(filter)
	}
	for _, opt := range opts {
		q = opt.Apply(q)
	}
	return q
}
