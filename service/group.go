package service

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/forms"
	"expensetracker/models"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrGroupSettled 已结清的群组不能再添加成员
var ErrGroupSettled = errors.New("group expense is already settled")

// mysqlDuplicateEntry MySQL 唯一键冲突错误码
const mysqlDuplicateEntry = 1062

// ListGroupExpenses 当前用户创建的群组消费（日期倒序）及汇总
func (l *Ledger) ListGroupExpenses(ctx context.Context, userID uint) ([]models.GroupExpense, GroupSummary, error) {
	var groups []models.GroupExpense
	if err := l.db.WithContext(ctx).
		Where("creator_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&groups).Error; err != nil {
		return nil, GroupSummary{}, fmt.Errorf("list group expenses: %w", err)
	}

	ids := make([]uint, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.AdvancedByID)
	}
	users, err := l.usersByID(ctx, uniq(ids))
	if err != nil {
		return nil, GroupSummary{}, err
	}
	for i := range groups {
		groups[i].AdvancedBy = users[groups[i].AdvancedByID]
	}
	return groups, SummarizeGroups(groups), nil
}

// CreateGroupExpense 新增群组消费，创建人取自 userID，状态固定为 active
func (l *Ledger) CreateGroupExpense(ctx context.Context, userID uint, data forms.GroupExpenseData) (*models.GroupExpense, error) {
	var advancer models.User
	if err := l.db.WithContext(ctx).First(&advancer, data.AdvancedByID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forms.FieldErrors{"advanced_by": "Select a valid choice."}
		}
		return nil, fmt.Errorf("load advancer: %w", err)
	}

	group := models.GroupExpense{
		Title:         data.Title,
		TotalAmount:   data.TotalAmount,
		Date:          data.Date,
		CreatorID:     userID,
		AdvancedByID:  advancer.ID,
		AdvanceAmount: data.AdvanceAmount,
		Status:        models.GroupStatusActive,
	}
	if err := l.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, fmt.Errorf("create group expense: %w", err)
	}
	group.AdvancedBy = advancer
	return &group, nil
}

// GroupExpense 群组详情（含成员），仅创建人可见
func (l *Ledger) GroupExpense(ctx context.Context, userID, groupID uint) (*models.GroupExpense, error) {
	group, err := l.ownGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	if err := l.db.WithContext(ctx).
		Where("group_id = ?", group.ID).
		Order("id").
		Find(&group.Members).Error; err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}

	ids := []uint{group.AdvancedByID}
	for _, m := range group.Members {
		ids = append(ids, m.UserID)
	}
	users, err := l.usersByID(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	group.AdvancedBy = users[group.AdvancedByID]
	for i := range group.Members {
		group.Members[i].User = users[group.Members[i].UserID]
	}
	return group, nil
}

// AddGroupMember 添加成员：仅创建人、群组进行中、用户存在且未加入
func (l *Ledger) AddGroupMember(ctx context.Context, userID, groupID uint, data forms.GroupMemberData) (*models.GroupMember, error) {
	group, err := l.ownGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsActive() {
		return nil, ErrGroupSettled
	}
	if data.ShareAmount.IsNegative() {
		return nil, forms.FieldErrors{"share_amount": "Ensure this value is greater than or equal to 0."}
	}

	var user models.User
	if err := l.db.WithContext(ctx).First(&user, data.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forms.FieldErrors{"user": "Select a valid choice."}
		}
		return nil, fmt.Errorf("load member user: %w", err)
	}

	var count int64
	if err := l.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", group.ID, user.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check group member: %w", err)
	}
	if count > 0 {
		return nil, alreadyMember()
	}

	member := models.GroupMember{
		GroupID:     group.ID,
		UserID:      user.ID,
		ShareAmount: data.ShareAmount,
	}
	if err := l.db.WithContext(ctx).Create(&member).Error; err != nil {
		// 并发添加时由唯一索引兜底
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return nil, alreadyMember()
		}
		return nil, fmt.Errorf("add group member: %w", err)
	}
	member.User = user
	return &member, nil
}

// MarkMemberPaid 标记成员已付款，仅创建人可操作
func (l *Ledger) MarkMemberPaid(ctx context.Context, userID, groupID, memberID uint) error {
	group, err := l.ownGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}

	var member models.GroupMember
	if err := l.db.WithContext(ctx).
		Where("id = ? AND group_id = ?", memberID, group.ID).
		First(&member).Error; err != nil {
		return notFound(err)
	}
	if member.HasPaid {
		return nil
	}
	if err := l.db.WithContext(ctx).Model(&member).Update("has_paid", true).Error; err != nil {
		return fmt.Errorf("mark member paid: %w", err)
	}
	return nil
}

// SettleGroupExpense 结清群组，重复结清不报错
func (l *Ledger) SettleGroupExpense(ctx context.Context, userID, groupID uint) error {
	group, err := l.ownGroup(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !group.IsActive() {
		return nil
	}
	if err := l.db.WithContext(ctx).Model(group).Update("status", models.GroupStatusSettled).Error; err != nil {
		return fmt.Errorf("settle group expense: %w", err)
	}
	return nil
}

// ShareReminder 一条待提醒的欠款
type ShareReminder struct {
	Group   models.GroupExpense
	Member  models.GroupMember
	Debtor  models.User
	Creator models.User
}

// UnpaidShares 所有进行中群组里尚未付款的成员，供定时提醒使用
func (l *Ledger) UnpaidShares(ctx context.Context) ([]ShareReminder, error) {
	var members []models.GroupMember
	if err := l.db.WithContext(ctx).
		Joins("JOIN group_expenses ON group_expenses.id = group_members.group_id").
		Where("group_members.has_paid = ? AND group_expenses.status = ?", false, models.GroupStatusActive).
		Order("group_members.id").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("load unpaid members: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	groupIDs := make([]uint, 0, len(members))
	for _, m := range members {
		groupIDs = append(groupIDs, m.GroupID)
	}
	var groups []models.GroupExpense
	if err := l.db.WithContext(ctx).Where("id IN ?", uniq(groupIDs)).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	byID := make(map[uint]models.GroupExpense, len(groups))
	userIDs := make([]uint, 0, len(members)+len(groups))
	for _, g := range groups {
		byID[g.ID] = g
		userIDs = append(userIDs, g.CreatorID)
	}
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := l.usersByID(ctx, uniq(userIDs))
	if err != nil {
		return nil, err
	}

	out := make([]ShareReminder, 0, len(members))
	for _, m := range members {
		g := byID[m.GroupID]
		out = append(out, ShareReminder{
			Group:   g,
			Member:  m,
			Debtor:  users[m.UserID],
			Creator: users[g.CreatorID],
		})
	}
	return out, nil
}

// ownGroup 加载 userID 创建的群组，不属于该用户时视为不存在
func (l *Ledger) ownGroup(ctx context.Context, userID, groupID uint) (*models.GroupExpense, error) {
	var group models.GroupExpense
	if err := l.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", groupID, userID).
		First(&group).Error; err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

func alreadyMember() forms.FieldErrors {
	return forms.FieldErrors{"user": "This user is already a member of the group."}
}

// OutstandingTotal 未付款分摊合计
func OutstandingTotal(reminders []ShareReminder) decimal.Decimal {
	total := decimal.Zero
	for _, r := range reminders {
		total = total.Add(r.Member.ShareAmount)
	}
	return total
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
