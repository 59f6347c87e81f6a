package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense 消费记录模型
type Expense struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"index;not null"`
	CategoryID  uint            `json:"category_id" gorm:"index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Date        time.Time       `json:"date" gorm:"type:date;index;not null"`
	Description string          `json:"description" gorm:"size:255;not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Category    Category        `json:"category" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	User        User            `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// DateKey 按自然日分组使用的键，如 2024-03-15
func (e Expense) DateKey() string {
	return e.Date.Format(DateLayout)
}
