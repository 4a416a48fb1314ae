package handlers

import (
	"SmartRestaurant/models"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Redis中的菜色列表，score為菜色ID，member為菜色JSON
const menuItemsKey = "menu_items"

func loadMenuItemsFromDB(ctx context.Context, db *gorm.DB) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := db.WithContext(ctx).
		Preload("Category").
		Order("id ASC").
		Find(&items).
		Error
	return items, err
}

// 從資料庫重建Redis菜色列表
func rebuildMenuCache(ctx context.Context, db *gorm.DB, rdb *redis.Client) ([]models.MenuItem, error) {
	items, err := loadMenuItemsFromDB(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := rdb.Del(ctx, menuItemsKey).Err(); err != nil {
		return nil, err
	}
	for i := range items {
		if err := putMenuItem(ctx, rdb, &items[i]); err != nil {
			zap.L().Warn("無法將菜色加入Redis", zap.Uint("item_id", items[i].ID), zap.Error(err))
		}
	}
	return items, nil
}

// 讀取全部菜色，優先使用Redis，快取為空或讀取失敗時改由資料庫讀取並重建
func listMenuItems(ctx context.Context, db *gorm.DB, rdb *redis.Client) ([]models.MenuItem, error) {
	if rdb == nil {
		return loadMenuItemsFromDB(ctx, db)
	}

	members, err := rdb.ZRange(ctx, menuItemsKey, 0, -1).Result()
	if err != nil || len(members) == 0 {
		if err != nil {
			zap.L().Warn("無法從Redis讀取菜色列表", zap.Error(err))
		}
		return rebuildMenuCache(ctx, db, rdb)
	}

	items := make([]models.MenuItem, 0, len(members))
	for _, member := range members {
		var item models.MenuItem
		if err := json.Unmarshal([]byte(member), &item); err != nil {
			zap.L().Warn("無法反序列化菜色資料", zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// 更新Redis中的單一菜色，列表尚未建立時留待下次讀取重建
func cacheMenuItem(ctx context.Context, rdb *redis.Client, item *models.MenuItem) error {
	if rdb == nil {
		return nil
	}

	exists, err := rdb.Exists(ctx, menuItemsKey).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return nil
	}
	return putMenuItem(ctx, rdb, item)
}

func putMenuItem(ctx context.Context, rdb *redis.Client, item *models.MenuItem) error {
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("無法序列化菜色資料: %w", err)
	}

	score := strconv.Itoa(int(item.ID))
	if err := rdb.ZRemRangeByScore(ctx, menuItemsKey, score, score).Err(); err != nil {
		return err
	}
	return rdb.ZAdd(ctx, menuItemsKey, redis.Z{
		Score:  float64(item.ID),
		Member: itemJSON,
	}).Err()
}

func uncacheMenuItem(ctx context.Context, rdb *redis.Client, itemID uint) error {
	if rdb == nil {
		return nil
	}
	score := strconv.Itoa(int(itemID))
	return rdb.ZRemRangeByScore(ctx, menuItemsKey, score, score).Err()
}
