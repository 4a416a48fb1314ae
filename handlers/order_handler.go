package handlers

import (
	"SmartRestaurant/events"
	"SmartRestaurant/models"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMenuItemUnavailable = errors.New("menu item unavailable")
	ErrCustomerNotFound    = errors.New("customer not found")
)

const eventPublishTimeout = 5 * time.Second

type orderLineRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

// 發送訂單事件，失敗只記錄，訂單已寫入
func publishOrderEvent(publisher events.Publisher, order *models.Order) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()

	event := events.NewOrderEvent(order, time.Now())
	if err := publisher.PublishOrderEvent(ctx, event); err != nil {
		zap.L().Warn("發送訂單事件失敗",
			zap.Uint("order_id", order.ID),
			zap.String("routing_key", event.RoutingKey()),
			zap.Error(err))
	}
}

// 建立訂單，單價取自目前菜單
func PlaceOrderHandler(c *gin.Context, db *gorm.DB, publisher events.Publisher) {
	var orderReq struct {
		CustomerID  *uint              `json:"customer_id"`
		TableNumber string             `json:"table_number"`
		Items       []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&orderReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "取得訂單資料錯誤",
			"error":   err.Error(),
		})
		return
	}
	for _, line := range orderReq.Items {
		if line.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "數量必須大於0",
			})
			return
		}
	}

	newOrder := models.Order{
		CustomerID:  orderReq.CustomerID,
		TableNumber: orderReq.TableNumber,
		Status:      models.StatusPlaced,
		TotalAmount: decimal.Zero,
	}

	err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if newOrder.CustomerID != nil {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", *newOrder.CustomerID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrCustomerNotFound
			}
		}

		for _, line := range orderReq.Items {
			var item models.MenuItem
			if err := tx.First(&item, line.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrMenuItemUnavailable, line.MenuItemID)
				}
				return err
			}
			if !item.IsAvailable {
				return fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Name)
			}

			orderItem := models.OrderItem{
				MenuItemID: item.ID,
				Quantity:   uint(line.Quantity),
				Price:      item.Price,
			}
			newOrder.OrderItems = append(newOrder.OrderItems, orderItem)
			newOrder.TotalAmount = newOrder.TotalAmount.Add(orderItem.Subtotal())
		}

		return tx.Create(&newOrder).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMenuItemUnavailable), errors.Is(err, ErrCustomerNotFound):
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "無法建立訂單",
				"error":   err.Error(),
			})
		default:
			zap.L().Error("提交訂單失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "提交訂單失敗",
				"error":   err.Error(),
			})
		}
		return
	}

	publishOrderEvent(publisher, &newOrder)

	c.JSON(http.StatusCreated, gin.H{
		"message": "訂單已送出",
		"order":   newOrder,
	})
}

// 查詢訂單列表，可依顧客及狀態篩選
func GetOrderListHandler(c *gin.Context, db *gorm.DB) {
	query := db.WithContext(c.Request.Context()).Model(&models.Order{})

	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "顧客ID輸入錯誤",
				"error":   err.Error(),
			})
			return
		}
		query = query.Where("customer_id = ?", customerID)
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "訂單狀態輸入錯誤",
			})
			return
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢訂單列表失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "成功查詢訂單列表",
		"orderList": orders,
	})
}

func findOrder(db *gorm.DB, orderID uint) (models.Order, error) {
	var order models.Order
	err := db.
		Preload("OrderItems").
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		First(&order, orderID).
		Error
	return order, err
}

// 查詢訂單詳細資料
func GetOrderDataHandler(c *gin.Context, db *gorm.DB) {
	orderID, err := idParam(c, "orderID")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "訂單ID輸入錯誤",
			"error":   err.Error(),
		})
		return
	}

	order, err := findOrder(db.WithContext(c.Request.Context()), orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "查無此訂單",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "查詢訂單失敗",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢訂單",
		"order":   order,
	})
}

// 更新訂單狀態
func UpdateOrderStatusHandler(c *gin.Context, db *gorm.DB, publisher events.Publisher) {
	orderID, err := idParam(c, "orderID")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "訂單ID輸入錯誤",
			"error":   err.Error(),
		})
		return
	}

	var statusReq struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&statusReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "綁定請求資料錯誤",
			"error":   err.Error(),
		})
		return
	}
	if !models.IsValidStatus(statusReq.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "訂單狀態輸入錯誤",
		})
		return
	}

	var order models.Order
	err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if err := order.TransitionTo(statusReq.Status); err != nil {
			return err
		}
		return tx.Model(&order).Update("status", order.Status).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"message": "查無此訂單",
			})
		case errors.Is(err, models.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{
				"message": fmt.Sprintf("訂單狀態無法從%s變更為%s", order.Status, statusReq.Status),
				"error":   err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": "更新訂單狀態失敗",
				"error":   err.Error(),
			})
		}
		return
	}

	publishOrderEvent(publisher, &order)

	c.JSON(http.StatusOK, gin.H{
		"message": "成功更新訂單狀態",
		"order":   order,
	})
}
