package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// GroupStatusActive 进行中
	GroupStatusActive = "active"
	// GroupStatusSettled 已结清
	GroupStatusSettled = "settled"
)

// GroupExpense 群组消费：由 creator 创建，advanced_by 垫付 advance_amount
type GroupExpense struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Title         string          `json:"title" gorm:"size:255;not null"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Date          time.Time       `json:"date" gorm:"type:date;index;not null"`
	CreatorID     uint            `json:"creator_id" gorm:"index;not null"`
	AdvancedByID  uint            `json:"advanced_by_id" gorm:"index;not null"`
	AdvanceAmount decimal.Decimal `json:"advance_amount" gorm:"type:decimal(10,2);not null"`
	Status        string          `json:"status" gorm:"size:10;not null;default:active;index"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Creator    User          `json:"-" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	AdvancedBy User          `json:"advanced_by" gorm:"foreignKey:AdvancedByID;constraint:OnDelete:CASCADE"`
	Members    []GroupMember `json:"members,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

// TableName 设置表名
func (GroupExpense) TableName() string {
	return "group_expenses"
}

// IsActive 是否仍在进行中
func (g GroupExpense) IsActive() bool {
	return g.Status == GroupStatusActive
}

// SharesTotal 成员分摊金额之和
func (g GroupExpense) SharesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, m := range g.Members {
		total = total.Add(m.ShareAmount)
	}
	return total
}

// Unallocated 总额中尚未分摊给成员的部分，仅用于展示，不做一致性校验
func (g GroupExpense) Unallocated() decimal.Decimal {
	return g.TotalAmount.Sub(g.SharesTotal())
}

// Outstanding 未付款成员的分摊金额之和
func (g GroupExpense) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, m := range g.Members {
		if !m.HasPaid {
			total = total.Add(m.ShareAmount)
		}
	}
	return total
}

// GroupMember 群组成员及其分摊金额
type GroupMember struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	GroupID     uint            `json:"group_id" gorm:"uniqueIndex:idx_group_member;not null"`
	UserID      uint            `json:"user_id" gorm:"uniqueIndex:idx_group_member;not null"`
	ShareAmount decimal.Decimal `json:"share_amount" gorm:"type:decimal(10,2);not null"`
	HasPaid     bool            `json:"has_paid" gorm:"not null;default:false"`
	CreatedAt   time.Time       `json:"created_at"`

	User User `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (GroupMember) TableName() string {
	return "group_members"
}
