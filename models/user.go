package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User 用户模型，所有记录都通过 user_id 归属到用户
type User struct {
	ID        uint                `json:"id" gorm:"primaryKey"`
	Username  string              `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Password  string              `json:"-" gorm:"size:255;not null"`
	Email     string              `json:"email" gorm:"size:254"`
	Budget    decimal.NullDecimal `json:"budget" gorm:"type:decimal(10,2)"` // 个人预算，为空时使用全局配置
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// EffectiveBudget 返回用户个人预算，未设置时返回 fallback
func (u *User) EffectiveBudget(fallback decimal.Decimal) decimal.Decimal {
	if u != nil && u.Budget.Valid {
		return u.Budget.Decimal
	}
	return fallback
}
