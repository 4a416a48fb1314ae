package handlers

import (
	"SmartRestaurant/models"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultMenuLimit = 10
	maxMenuLimit     = 50
)

// 查詢菜單列表，可依分類及供應狀態篩選
func GetMenuItemListHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	limit, err := positiveQuery(c, "limit", defaultMenuLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "查詢數量輸入錯誤",
			"error":   err.Error(),
		})
		return
	}
	//限制最高查詢數量為50
	limit = capLimit(limit, maxMenuLimit)

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "offset輸入錯誤",
		})
		return
	}

	var categoryID uint64
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "分類ID輸入錯誤",
				"error":   err.Error(),
			})
			return
		}
	}
	onlyAvailable := c.Query("available") == "true"

	items, err := listMenuItems(c.Request.Context(), db, rdb)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "無法讀取菜單列表",
			"error":   err.Error(),
		})
		return
	}

	filtered := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if categoryID != 0 && uint64(item.CategoryID) != categoryID {
			continue
		}
		if onlyAvailable && !item.IsAvailable {
			continue
		}
		filtered = append(filtered, item)
	}

	totalCount := len(filtered)
	if offset > totalCount {
		offset = totalCount
	}
	end := offset + limit
	if end > totalCount {
		end = totalCount
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功讀取菜單列表",
		"items":      filtered[offset:end],
		"totalCount": totalCount,
	})
}

// 查詢菜色詳細資料
func GetMenuItemHandler(c *gin.Context, db *gorm.DB) {
	itemID, err := idParam(c, "itemID")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "菜色ID輸入錯誤",
			"error":   err.Error(),
		})
		return
	}

	var item models.MenuItem
	err = db.WithContext(c.Request.Context()).Preload("Category").First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "查無此菜色",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢菜色資料失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢菜色資料",
		"item":    item,
	})
}

func categoryExists(ctx context.Context, db *gorm.DB, categoryID uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error
	return count > 0, err
}

// 新增菜色
func CreateMenuItemHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	var newItem struct {
		Name        string          `json:"name" binding:"required"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		ImageURL    string          `json:"image_url"`
		IsAvailable *bool           `json:"is_available"`
		CategoryID  uint            `json:"category_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&newItem); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}
	if !newItem.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "價格必須大於0",
		})
		return
	}

	exists, err := categoryExists(c.Request.Context(), db, newItem.CategoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢分類失敗",
			"error":   err.Error(),
		})
		return
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "分類不存在",
		})
		return
	}

	item := models.MenuItem{
		Name:        newItem.Name,
		Description: newItem.Description,
		Price:       newItem.Price.Round(2),
		ImageURL:    newItem.ImageURL,
		IsAvailable: true,
		CategoryID:  newItem.CategoryID,
	}
	if newItem.IsAvailable != nil {
		item.IsAvailable = *newItem.IsAvailable
	}

	tx := db.WithContext(c.Request.Context()).Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "開啟資料庫事務失敗",
			"error":   tx.Error.Error(),
		})
		return
	}

	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "新增菜色失敗",
			"error":   err.Error(),
		})
		return
	}
	if err := tx.Preload("Category").First(&item, item.ID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢菜色資料失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := cacheMenuItem(c.Request.Context(), rdb, &item); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "無法將菜色資料加入Redis",
			"error":   err.Error(),
		})
		return
	}

	if err := tx.Commit().Error; err != nil {
		_ = uncacheMenuItem(c.Request.Context(), rdb, item.ID)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "提交事務失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "成功新增菜色",
		"item":    item,
	})
}

// 修改菜色，只更新有提供的欄位
func UpdateMenuItemHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	itemID, err := idParam(c, "itemID")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "菜色ID輸入錯誤",
			"error":   err.Error(),
		})
		return
	}

	var itemDataReq struct {
		Name        *string          `json:"name"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		ImageURL    *string          `json:"image_url"`
		IsAvailable *bool            `json:"is_available"`
		CategoryID  *uint            `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&itemDataReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	var item models.MenuItem
	if err := db.WithContext(c.Request.Context()).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "查無此菜色",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢菜色資料失敗",
			"error":   err.Error(),
		})
		return
	}

	if itemDataReq.Name != nil {
		item.Name = *itemDataReq.Name
	}
	if itemDataReq.Description != nil {
		item.Description = *itemDataReq.Description
	}
	if itemDataReq.Price != nil {
		if !itemDataReq.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "價格必須大於0",
			})
			return
		}
		item.Price = itemDataReq.Price.Round(2)
	}
	if itemDataReq.ImageURL != nil {
		item.ImageURL = *itemDataReq.ImageURL
	}
	if itemDataReq.IsAvailable != nil {
		item.IsAvailable = *itemDataReq.IsAvailable
	}
	if itemDataReq.CategoryID != nil {
		exists, err := categoryExists(c.Request.Context(), db, *itemDataReq.CategoryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "查詢分類失敗",
				"error":   err.Error(),
			})
			return
		}
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "分類不存在",
			})
			return
		}
		item.CategoryID = *itemDataReq.CategoryID
		item.Category = nil
	}

	tx := db.WithContext(c.Request.Context()).Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "開啟資料庫事務失敗",
			"error":   tx.Error.Error(),
		})
		return
	}

	if err := tx.Save(&item).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "修改菜色失敗",
			"error":   err.Error(),
		})
		return
	}
	if err := tx.Preload("Category").First(&item, item.ID).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢菜色資料失敗",
			"error":   err.Error(),
		})
		return
	}

	if err := cacheMenuItem(c.Request.Context(), rdb, &item); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "無法更新Redis中的菜色資料",
			"error":   err.Error(),
		})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "提交事務失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改菜色資料",
		"item":    item,
	})
}

// 刪除菜色，歷史訂單明細仍保留
func DeleteMenuItemHandler(c *gin.Context, db *gorm.DB, rdb *redis.Client) {
	itemID, err := idParam(c, "itemID")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "菜色ID輸入錯誤",
			"error":   err.Error(),
		})
		return
	}

	tx := db.WithContext(c.Request.Context()).Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "開啟資料庫事務失敗",
			"error":   tx.Error.Error(),
		})
		return
	}

	result := tx.Delete(&models.MenuItem{}, itemID)
	if result.Error != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "刪除菜色失敗",
			"error":   result.Error.Error(),
		})
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		c.JSON(http.StatusNotFound, gin.H{
			"message": "查無此菜色",
		})
		return
	}

	if err := uncacheMenuItem(c.Request.Context(), rdb, itemID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "無法將菜色資料從Redis刪除",
			"error":   err.Error(),
		})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "提交事務失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除菜色",
	})
}

// 查詢分類列表
func GetCategoryListHandler(c *gin.Context, db *gorm.DB) {
	var categories []models.Category
	err := db.WithContext(c.Request.Context()).
		Order("name ASC").
		Find(&categories).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "無法讀取分類列表",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功讀取分類列表",
		"categories": categories,
	})
}

// 新增分類
func CreateCategoryHandler(c *gin.Context, db *gorm.DB) {
	var newCategory struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&newCategory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}

	db = db.WithContext(c.Request.Context())

	//名稱有唯一索引，已刪除的同名分類直接還原
	var category models.Category
	err := db.Unscoped().Where("name = ?", newCategory.Name).First(&category).Error
	switch {
	case err == nil && !category.DeletedAt.Valid:
		c.JSON(http.StatusConflict, gin.H{
			"message": "分類名稱已存在",
		})
		return
	case err == nil:
		err = db.Unscoped().Model(&category).Update("deleted_at", nil).Error
		category.DeletedAt = gorm.DeletedAt{}
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = models.Category{Name: newCategory.Name}
		err = db.Create(&category).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "新增分類失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "成功新增分類",
		"category": category,
	})
}

// 刪除分類，仍有菜色使用時拒絕刪除
func DeleteCategoryHandler(c *gin.Context, db *gorm.DB) {
	categoryID, err := idParam(c, "categoryID")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "分類ID輸入錯誤",
			"error":   err.Error(),
		})
		return
	}

	db = db.WithContext(c.Request.Context())

	var category models.Category
	if err := db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "查無此分類",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢分類失敗",
			"error":   err.Error(),
		})
		return
	}

	var itemCount int64
	err = db.Model(&models.MenuItem{}).Where("category_id = ?", categoryID).Count(&itemCount).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢分類菜色失敗",
			"error":   err.Error(),
		})
		return
	}
	if itemCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"message": "分類仍有菜色，無法刪除",
		})
		return
	}

	if err := db.Delete(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "刪除分類失敗",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除分類",
	})
}
