package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/config"
	"expensetracker/forms"
	"expensetracker/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在，或不属于当前用户
var ErrNotFound = fmt.Errorf("record not found: %w", gorm.ErrRecordNotFound)

// Settings 统计口径
type Settings struct {
	Budget          decimal.Decimal
	WindowDays      int
	RecentLimit     int
	DashboardRecent int
	PDFFont         string
}

// SettingsFrom 从配置构造统计口径
func SettingsFrom(cfg config.ReportConfig) Settings {
	return Settings{
		Budget:          decimal.NewFromFloat(cfg.Budget),
		WindowDays:      cfg.WindowDays,
		RecentLimit:     cfg.RecentLimit,
		DashboardRecent: cfg.DashboardRecent,
		PDFFont:         cfg.PDFFont,
	}
}

// Ledger 记账数据访问，所有查询都显式接收 userID
type Ledger struct {
	db       *gorm.DB
	settings Settings
	now      func() time.Time
}

// NewLedger 创建 Ledger
func NewLedger(db *gorm.DB, settings Settings) *Ledger {
	return &Ledger{db: db, settings: settings, now: time.Now}
}

// WithClock 替换时间来源，测试中固定"今天"
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Settings 当前统计口径
func (l *Ledger) Settings() Settings {
	return l.settings
}

// Today 当前日期（本地零点）
func (l *Ledger) Today() time.Time {
	return models.DateOf(l.now())
}

// DefaultWindow 默认报表区间
func (l *Ledger) DefaultWindow() Window {
	return TrailingWindow(l.now(), l.settings.WindowDays)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// User 按 ID 查询用户
func (l *Ledger) User(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Users 全部用户，用于选择垫付人与群组成员
func (l *Ledger) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := l.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Dashboard 首页概览；预算优先使用用户个人设置
func (l *Ledger) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	user, err := l.User(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	window := TrailingWindow(now, l.settings.WindowDays)
	expenses, err := l.expensesIn(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	incomes, err := l.incomesIn(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	var groups []models.GroupExpense
	if err := l.db.WithContext(ctx).
		Where("creator_id = ?", userID).
		Order("date DESC, id DESC").
		Limit(l.settings.DashboardRecent).
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("load group expenses: %w", err)
	}

	opts := DashboardOptions{
		Budget:      user.EffectiveBudget(l.settings.Budget),
		WindowDays:  l.settings.WindowDays,
		RecentLimit: l.settings.DashboardRecent,
	}
	d := BuildDashboard(userID, now, opts, expenses, incomes, groups)
	if err := l.attachCategories(ctx, d.RecentExpenses); err != nil {
		return nil, err
	}
	return d, nil
}

// Report 区间报表，三类数据并行加载
func (l *Ledger) Report(ctx context.Context, userID uint, window Window) (*Report, error) {
	if window.Start.After(window.End) {
		return nil, ErrInvertedWindow
	}

	var (
		categories []models.Category
		expenses   []models.Expense
		incomes    []models.Income
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = l.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = l.expensesIn(gctx, userID, window)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = l.incomesIn(gctx, userID, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[uint]models.Category, len(categories))
	for _, c := range categories {
		names[c.ID] = c
	}
	for i := range expenses {
		expenses[i].Category = names[expenses[i].CategoryID]
	}
	return BuildReport(userID, window, categories, expenses, incomes, l.settings.RecentLimit), nil
}

// ListExpenses 用户全部消费（日期倒序）及合计
func (l *Ledger) ListExpenses(ctx context.Context, userID uint) ([]models.Expense, decimal.Decimal, error) {
	var expenses []models.Expense
	if err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, decimal.Zero, fmt.Errorf("list expenses: %w", err)
	}
	if err := l.attachCategories(ctx, expenses); err != nil {
		return nil, decimal.Zero, err
	}
	return expenses, sumExpenses(expenses), nil
}

// ListIncomes 用户全部收入（日期倒序）及合计
func (l *Ledger) ListIncomes(ctx context.Context, userID uint) ([]models.Income, decimal.Decimal, error) {
	var incomes []models.Income
	if err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&incomes).Error; err != nil {
		return nil, decimal.Zero, fmt.Errorf("list incomes: %w", err)
	}
	return incomes, sumIncomes(incomes), nil
}

// CreateExpense 新增消费，归属用户只取自 userID
func (l *Ledger) CreateExpense(ctx context.Context, userID uint, data forms.ExpenseData) (*models.Expense, error) {
	var category models.Category
	if err := l.db.WithContext(ctx).First(&category, data.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forms.FieldErrors{"category": "Select a valid choice."}
		}
		return nil, fmt.Errorf("load category: %w", err)
	}

	expense := models.Expense{
		UserID:      userID,
		CategoryID:  category.ID,
		Amount:      data.Amount,
		Date:        data.Date,
		Description: data.Description,
	}
	if err := l.db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	expense.Category = category
	return &expense, nil
}

// CreateIncome 新增收入
func (l *Ledger) CreateIncome(ctx context.Context, userID uint, data forms.IncomeData) (*models.Income, error) {
	income := models.Income{
		UserID:      userID,
		Amount:      data.Amount,
		Date:        data.Date,
		Source:      data.Source,
		Description: data.Description,
	}
	if err := l.db.WithContext(ctx).Create(&income).Error; err != nil {
		return nil, fmt.Errorf("create income: %w", err)
	}
	return &income, nil
}

// ListCategories 全部类别（类别为全局共享）
func (l *Ledger) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := l.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory 新增类别
func (l *Ledger) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := models.Category{Name: name}
	if err := l.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

func (l *Ledger) expensesIn(ctx context.Context, userID uint, w Window) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := l.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, w.Start, w.End).
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return expenses, nil
}

func (l *Ledger) incomesIn(ctx context.Context, userID uint, w Window) ([]models.Income, error) {
	var incomes []models.Income
	if err := l.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, w.Start, w.End).
		Order("date DESC, id DESC").
		Find(&incomes).Error; err != nil {
		return nil, fmt.Errorf("load incomes: %w", err)
	}
	return incomes, nil
}

// attachCategories 为消费填充类别，避免逐条查询
func (l *Ledger) attachCategories(ctx context.Context, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	categories, err := l.ListCategories(ctx)
	if err != nil {
		return err
	}
	byID := make(map[uint]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	for i := range expenses {
		expenses[i].Category = byID[expenses[i].CategoryID]
	}
	return nil
}

// usersByID 批量加载用户
func (l *Ledger) usersByID(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := l.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
