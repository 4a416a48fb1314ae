package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	//金額以數字而非字串輸出
	decimal.MarshalJSONWithoutQuotes = true
}

// 建立或更新所有資料表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&MenuItem{},
		&Order{},
		&OrderItem{},
	)
}
