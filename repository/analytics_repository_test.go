package repository

import (
	"SmartRestaurant/models"
	"SmartRestaurant/testutil"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var base = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestOrderStampsFiltersBySince(t *testing.T) {
	db := testutil.NewDB(t)
	seed := testutil.NewSeeder(t, db)
	seed.OrderTotal("8.00", base.AddDate(0, 0, -10))
	seed.OrderTotal("12.50", base)
	seed.OrderTotal("4.25", base.Add(3*time.Hour))
	repo := NewAnalyticsRepository(db)

	all, err := repo.OrderStamps(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := repo.OrderStamps(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CreatedAt.Equal(base))
	assert.True(t, decimal.RequireFromString("12.5").Equal(recent[0].TotalAmount))
	assert.True(t, decimal.RequireFromString("4.25").Equal(recent[1].TotalAmount))
}

func TestSumOrderTotals(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAnalyticsRepository(db)

	total, err := repo.SumOrderTotals(context.Background())
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	seed := testutil.NewSeeder(t, db)
	seed.OrderTotal("10.00", base)
	seed.OrderTotal("2.50", base)
	total, err = repo.SumOrderTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12.50", total.StringFixed(2))
}

func TestUnsoldItemNamesIgnoresDeletedOrderItems(t *testing.T) {
	db := testutil.NewDB(t)
	seed := testutil.NewSeeder(t, db)
	category := seed.Category("Sides")
	fries := seed.MenuItem("Fries", category.ID, "3.00", true)
	slaw := seed.MenuItem("Slaw", category.ID, "2.00", true)
	order := seed.Order(nil, base, testutil.Line{Item: fries, Quantity: 1}, testutil.Line{Item: slaw, Quantity: 1})

	repo := NewAnalyticsRepository(db)
	names, err := repo.UnsoldItemNames(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, db.Where("order_id = ? AND menu_item_id = ?", order.ID, slaw.ID).Delete(&models.OrderItem{}).Error)
	names, err = repo.UnsoldItemNames(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Slaw"}, names)
}

func TestFavoriteCategoryWithoutOrders(t *testing.T) {
	repo := NewAnalyticsRepository(testutil.NewDB(t))
	_, found, err := repo.FavoriteCategory(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = repo.FavoriteCategory(context.Background(), []uint{404})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCustomerOrderIDs(t *testing.T) {
	db := testutil.NewDB(t)
	seed := testutil.NewSeeder(t, db)
	alice := seed.User("alice_customer", models.RoleCustomer)
	first := seed.Order(&alice.ID, base)
	seed.Order(nil, base)
	second := seed.Order(&alice.ID, base.Add(time.Hour))

	ids, err := NewAnalyticsRepository(db).CustomerOrderIDs(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID, second.ID}, ids)
}

func newMockRepository(t *testing.T) (*AnalyticsRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return NewAnalyticsRepository(db), mock
}

func TestQueryFailuresAreWrapped(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("server has gone away")

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders`").WillReturnError(boom)
	_, err := repo.CountOrders(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "count orders")

	mock.ExpectQuery("SELECT menu_items.id AS item_id").WillReturnError(boom)
	_, err = repo.TopSelling(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "top selling items")

	mock.ExpectQuery("SELECT created_at, total_amount FROM `orders`").WillReturnError(boom)
	_, err = repo.OrderStamps(context.Background(), time.Time{})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
