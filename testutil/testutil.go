// Package testutil 提供測試用的資料庫與假資料
package testutil

import (
	"SmartRestaurant/models"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 建立已完成migrate的記憶體SQLite資料庫
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	//每個連線都是獨立的記憶體資料庫，只保留一條連線
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

type Seeder struct {
	t  *testing.T
	db *gorm.DB
}

func NewSeeder(t *testing.T, db *gorm.DB) *Seeder {
	return &Seeder{t: t, db: db}
}

func (s *Seeder) Category(name string) models.Category {
	s.t.Helper()
	category := models.Category{Name: name}
	require.NoError(s.t, s.db.Create(&category).Error)
	return category
}

func (s *Seeder) MenuItem(name string, categoryID uint, price string, available bool) models.MenuItem {
	s.t.Helper()
	item := models.MenuItem{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		CategoryID:  categoryID,
		IsAvailable: available,
	}
	require.NoError(s.t, s.db.Create(&item).Error)
	return item
}

func (s *Seeder) User(username, role string) models.User {
	s.t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(s.t, s.db.Create(&user).Error)
	return user
}

type Line struct {
	Item     models.MenuItem
	Quantity uint
}

// 建立訂單，總金額依明細計算
func (s *Seeder) Order(customerID *uint, createdAt time.Time, lines ...Line) models.Order {
	s.t.Helper()
	order := models.Order{
		CustomerID:  customerID,
		TableNumber: "T1",
		Status:      models.StatusDelivered,
		CreatedAt:   createdAt,
		TotalAmount: decimal.Zero,
	}
	for _, line := range lines {
		orderItem := models.OrderItem{
			MenuItemID: line.Item.ID,
			Quantity:   line.Quantity,
			Price:      line.Item.Price,
		}
		order.OrderItems = append(order.OrderItems, orderItem)
		order.TotalAmount = order.TotalAmount.Add(orderItem.Subtotal())
	}
	require.NoError(s.t, s.db.Create(&order).Error)
	return order
}

// 建立沒有明細、只有總金額的訂單
func (s *Seeder) OrderTotal(total string, createdAt time.Time) models.Order {
	s.t.Helper()
	order := models.Order{
		TableNumber: "T1",
		Status:      models.StatusDelivered,
		CreatedAt:   createdAt,
		TotalAmount: decimal.RequireFromString(total),
	}
	require.NoError(s.t, s.db.Create(&order).Error)
	return order
}
