package repository

import (
	"context"
	"testing"
	"time"

	"github.com/montessori/ecole/pkg/db"
	"github.com/montessori/ecole/pkg/db/option"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fee struct {
	ID        int64 `gorm:"primaryKey"`
	Kind      string
	Amount    int
	CreatedAt time.Time
}

func seedFees(t *testing.T) *gorm.DB {
	t.Helper()
	conn := db.NewTest(t, &fee{})
	created := time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create([]*fee{
		{ID: 1, Kind: "repas", Amount: 545, CreatedAt: created},
		{ID: 2, Kind: "repas", Amount: 1090, CreatedAt: created},
		{ID: 3, Kind: "periscolaire", Amount: 300, CreatedAt: created},
	}).Error)
	return conn
}

func TestStoreFindPaginates(t *testing.T) {
	ctx := context.Background()
	store := ProvideStore[fee](seedFees(t))

	items, err := store.Find(ctx, &fee{Kind: "repas"}, option.ApplyPagination(pagination.Pagination{PageSize: 1}))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)

	items, err = store.Find(ctx, nil, option.ApplyOperator(option.Condition{Field: "kind", Operator: option.IN, Value: []string{"periscolaire"}}))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].ID)
}

func TestStoreExistsAndCount(t *testing.T) {
	ctx := context.Background()
	store := ProvideStore[fee](seedFees(t))

	ok, err := store.Exists(ctx, &fee{Kind: "periscolaire"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, &fee{Kind: "inscription"})
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := store.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = store.Count(ctx, &fee{Kind: "repas"}, option.AnyOf(
		option.Condition{Field: "amount", Value: 545},
		option.Condition{Field: "amount", Value: 300},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreWithTrxSeesUncommittedRows(t *testing.T) {
	ctx := context.Background()
	conn := seedFees(t)
	store := ProvideStore[fee](conn)

	err := conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&fee{ID: 7, Kind: "materiel", Amount: 100}).Error)
		ok, err := store.WithTrx(tx).Exists(ctx, &fee{ID: 7})
		require.NoError(t, err)
		assert.True(t, ok)
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	ok, err := store.Exists(ctx, &fee{ID: 7})
	require.NoError(t, err)
	assert.False(t, ok)
}
