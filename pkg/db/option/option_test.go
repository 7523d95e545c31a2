package option

import (
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/montessori/ecole/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type row struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	Team      string
	CreatedAt time.Time
}

type tag struct {
	ID    int64 `gorm:"primaryKey"`
	RowID int64
	Label string
}

var base = time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}, &tag{}))
	require.NoError(t, db.Create([]row{
		{ID: 4, Name: "Alice", Team: "a", CreatedAt: base},
		{ID: 2, Name: "Bob", Team: "b", CreatedAt: base},
		{ID: 3, Name: "Carol", Team: "a", CreatedAt: base.Add(time.Minute)},
		{ID: 1, Name: "Dave", Team: "c", CreatedAt: base.Add(-time.Minute)},
	}).Error)
	require.NoError(t, db.Create([]tag{{ID: 1, RowID: 3, Label: "x"}, {ID: 2, RowID: 1, Label: "y"}}).Error)
	return db
}

func ids(rows []row) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyPaginationWalksKeyset(t *testing.T) {
	db := setupDB(t)

	var rows []row
	stmt := ApplyPagination(pagination.Pagination{PageSize: 2}).Apply(db.Model(&row{}))
	require.NoError(t, stmt.Find(&rows).Error)
	assert.Equal(t, []int64{1, 2, 4}, ids(rows))

	last := rows[1]
	token, err := pagination.EncodeCursor(pagination.NewCursor(strconv.FormatInt(last.ID, 10), last.CreatedAt))
	require.NoError(t, err)

	rows = nil
	stmt = ApplyPagination(pagination.Pagination{PageSize: 2, PageToken: token}).Apply(db.Model(&row{}))
	require.NoError(t, stmt.Find(&rows).Error)
	assert.Equal(t, []int64{4, 3}, ids(rows))
}

func TestApplyPaginationRejectsBadToken(t *testing.T) {
	db := setupDB(t)

	var rows []row
	err := ApplyPagination(pagination.Pagination{PageToken: "not-a-token"}).Apply(db.Model(&row{})).Find(&rows).Error
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}

func TestAnyOfAndSearch(t *testing.T) {
	db := setupDB(t)

	var rows []row
	stmt := AnyOf(
		Condition{Field: "name", Operator: EQ, Value: "Bob"},
		Condition{Field: "name", Value: "Dave"},
	).Apply(db.Model(&row{}))
	stmt = ApplyOperator(Condition{Field: "team", Operator: IN, Value: []string{"b", "c"}}).Apply(stmt)
	require.NoError(t, stmt.Order("id asc").Find(&rows).Error)
	assert.Equal(t, []int64{1, 2}, ids(rows))

	rows = nil
	stmt = Search(" CAR ", "name").Apply(db.Model(&row{}))
	require.NoError(t, stmt.Find(&rows).Error)
	assert.Equal(t, []int64{3}, ids(rows))

	rows = nil
	require.NoError(t, Search("", "name").Apply(db.Model(&row{})).Find(&rows).Error)
	assert.Len(t, rows, 4)
}

func TestApplyOperatorWithSubquery(t *testing.T) {
	db := setupDB(t)

	var rows []row
	tagged := db.Model(&tag{}).Select("row_id").Where("label = ?", "x")
	stmt := ApplyOperator(Condition{Field: "id", Operator: IN, Value: tagged}).Apply(db.Model(&row{}))
	require.NoError(t, stmt.Find(&rows).Error)
	assert.Equal(t, []int64{3}, ids(rows))
}
