package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPlaced    = "placed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// 訂單狀態可前往的下一個狀態
var orderTransitions = map[string][]string{
	StatusPlaced:    {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered},
}

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  *uint           `gorm:"index" json:"customer_id"`
	Customer    *User           `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	TableNumber string          `gorm:"type:varchar(20)" json:"table_number"`
	Status      string          `gorm:"type:varchar(20);index;not null" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	OrderItems  []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPlaced, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// 檢查訂單是否可從目前狀態轉換到next
func (o *Order) TransitionTo(next string) error {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == next {
			o.Status = next
			return nil
		}
	}
	return ErrInvalidTransition
}
