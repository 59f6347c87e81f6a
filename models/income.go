package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income 收入记录模型
type Income struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	UserID      uint            `json:"user_id" gorm:"index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	Date        time.Time       `json:"date" gorm:"type:date;index;not null"`
	Source      string          `json:"source" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"size:255"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	User        User            `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Income) TableName() string {
	return "incomes"
}
