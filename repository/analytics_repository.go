// Package repository 封裝統計分析所需的唯讀彙總查詢
package repository

import (
	"SmartRestaurant/models"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 訂單的建立時間與總金額
type OrderStamp struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

// 單一菜色的銷售數量
type ItemTotal struct {
	ItemID uint
	Name   string
	Total  int64
}

type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

const liveOrderItems = "order_items.menu_item_id = menu_items.id AND order_items.deleted_at IS NULL"

func (r *AnalyticsRepository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *AnalyticsRepository) SumOrderTotals(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Revenue decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue").
		Scan(&result).
		Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum order totals: %w", err)
	}
	return result.Revenue, nil
}

func (r *AnalyticsRepository) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).
		Error
	if err != nil {
		return 0, fmt.Errorf("count %s users: %w", role, err)
	}
	return count, nil
}

// 查詢since之後(含)建立的訂單，since為零值時回傳全部
func (r *AnalyticsRepository) OrderStamps(ctx context.Context, since time.Time) ([]OrderStamp, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("created_at, total_amount")
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var stamps []OrderStamp
	if err := query.Order("created_at ASC").Scan(&stamps).Error; err != nil {
		return nil, fmt.Errorf("list order stamps: %w", err)
	}
	return stamps, nil
}

// 銷售數量最多的菜色，同數量依名稱排序
func (r *AnalyticsRepository) TopSelling(ctx context.Context, limit int) ([]ItemTotal, error) {
	var totals []ItemTotal
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("menu_items.id AS item_id, menu_items.name AS name, SUM(order_items.quantity) AS total").
		Joins("JOIN order_items ON " + liveOrderItems).
		Group("menu_items.id, menu_items.name").
		Order("total DESC, menu_items.name ASC").
		Limit(limit).
		Scan(&totals).
		Error
	if err != nil {
		return nil, fmt.Errorf("top selling items: %w", err)
	}
	return totals, nil
}

// 供應中且銷售數量最少的菜色，未售出視為0
func (r *AnalyticsRepository) LeastSelling(ctx context.Context, limit int) ([]ItemTotal, error) {
	sold := r.db.
		Model(&models.OrderItem{}).
		Select("menu_item_id, SUM(quantity) AS total_sold").
		Group("menu_item_id")

	var totals []ItemTotal
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("menu_items.id AS item_id, menu_items.name AS name, COALESCE(sold.total_sold, 0) AS total").
		Joins("LEFT JOIN (?) AS sold ON sold.menu_item_id = menu_items.id", sold).
		Where("menu_items.is_available = ?", true).
		Order("total ASC, menu_items.name ASC").
		Limit(limit).
		Scan(&totals).
		Error
	if err != nil {
		return nil, fmt.Errorf("least selling items: %w", err)
	}
	return totals, nil
}

// 從未被點過的菜色名稱
func (r *AnalyticsRepository) UnsoldItemNames(ctx context.Context, limit int) ([]string, error) {
	var rows []struct {
		Name string
	}
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("menu_items.id, menu_items.name AS name").
		Joins("LEFT JOIN order_items ON " + liveOrderItems).
		Group("menu_items.id, menu_items.name").
		Having("COUNT(order_items.id) = 0").
		Order("menu_items.id ASC").
		Limit(limit).
		Scan(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("unsold items: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

func (r *AnalyticsRepository) CustomerOrderIDs(ctx context.Context, customerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Order("id ASC").
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, fmt.Errorf("customer %d orders: %w", customerID, err)
	}
	return ids, nil
}

// 在指定訂單中出現次數最多的分類，同次數取較小的分類ID
func (r *AnalyticsRepository) FavoriteCategory(ctx context.Context, orderIDs []uint) (uint, bool, error) {
	if len(orderIDs) == 0 {
		return 0, false, nil
	}

	var rows []struct {
		CategoryID uint
		Hits       int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("menu_items.category_id AS category_id, COUNT(order_items.id) AS hits").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("order_items.order_id IN ?", orderIDs).
		Group("menu_items.category_id").
		Order("hits DESC, menu_items.category_id ASC").
		Limit(1).
		Scan(&rows).
		Error
	if err != nil {
		return 0, false, fmt.Errorf("favorite category: %w", err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].CategoryID, true, nil
}

func (r *AnalyticsRepository) AvailableInCategory(ctx context.Context, categoryID uint, limit int) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND is_available = ?", categoryID, true).
		Order("id ASC").
		Limit(limit).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("available items in category %d: %w", categoryID, err)
	}
	return items, nil
}

// 依訂單明細筆數排序的熱門菜色，不論是否供應中
func (r *AnalyticsRepository) MostOrdered(ctx context.Context, limit int) ([]models.MenuItem, error) {
	return r.rankItems(ctx, "COUNT(order_items.id) DESC", limit)
}

// 依總銷售數量排序的熱門菜色，不論是否供應中
func (r *AnalyticsRepository) BestSellers(ctx context.Context, limit int) ([]models.MenuItem, error) {
	return r.rankItems(ctx, "SUM(order_items.quantity) DESC", limit)
}

func (r *AnalyticsRepository) rankItems(ctx context.Context, order string, limit int) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("menu_items.*").
		Joins("JOIN order_items ON " + liveOrderItems).
		Group("menu_items.id").
		Order(order + ", menu_items.id ASC").
		Limit(limit).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("rank items: %w", err)
	}
	return items, nil
}

// 與itemID出現在同一張訂單中的其他菜色，依共同出現次數排序
func (r *AnalyticsRepository) BoughtWith(ctx context.Context, itemID uint, limit int) ([]models.MenuItem, error) {
	orders := r.db.
		Model(&models.OrderItem{}).
		Select("order_id").
		Where("menu_item_id = ?", itemID)

	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Select("menu_items.*").
		Joins("JOIN order_items ON "+liveOrderItems).
		Where("order_items.order_id IN (?) AND order_items.menu_item_id <> ?", orders, itemID).
		Group("menu_items.id").
		Order("COUNT(order_items.id) DESC, menu_items.id ASC").
		Limit(limit).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("items bought with %d: %w", itemID, err)
	}
	return items, nil
}
