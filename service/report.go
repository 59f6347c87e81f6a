package service

import (
	"sort"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
)

const (
	StatusUnderBudget = "Under Budget"
	StatusOverBudget  = "Over Budget"
)

var hundred = decimal.NewFromInt(100)

const percentScale = 2

// CategoryTotal 某类别在区间内的消费合计与占比
type CategoryTotal struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
	Percentage decimal.Decimal `json:"percentage"`
}

// DailyTotal 某日消费合计
type DailyTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// Report 区间报表
type Report struct {
	Window             Window                     `json:"window"`
	TotalExpense       decimal.Decimal            `json:"total_expense"`
	TotalIncome        decimal.Decimal            `json:"total_income"`
	Balance            decimal.Decimal            `json:"balance"`
	CategoryData       []CategoryTotal            `json:"category_data"`
	DailyData          map[string]decimal.Decimal `json:"daily_data"`
	RecentTransactions []models.Expense           `json:"recent_transactions"`
}

// Days 按日期升序排列的每日合计
func (r *Report) Days() []DailyTotal {
	days := make([]DailyTotal, 0, len(r.DailyData))
	for k, v := range r.DailyData {
		days = append(days, DailyTotal{Date: k, Total: v})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// DashboardOptions 首页统计参数，由调用方按用户与配置决定
type DashboardOptions struct {
	Budget      decimal.Decimal
	WindowDays  int
	RecentLimit int
}

// GroupSummary 群组消费汇总
type GroupSummary struct {
	TotalAdvanced decimal.Decimal `json:"total_advanced"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ActiveCount   int             `json:"active_groups"`
}

// Dashboard 首页概览
type Dashboard struct {
	Window         Window                `json:"window"`
	TotalExpense   decimal.Decimal       `json:"total_expense"`
	TotalIncome    decimal.Decimal       `json:"total_income"`
	Balance        decimal.Decimal       `json:"balance"`
	Budget         decimal.Decimal       `json:"budget"`
	BudgetStatus   string                `json:"budget_status"`
	RecentExpenses []models.Expense      `json:"recent_expenses"`
	GroupExpenses  []models.GroupExpense `json:"group_expenses"`
}

// BuildReport 计算 userID 在 window 内的报表。
// 输入记录会再次按用户与区间过滤，调用方可以传入超集。
func BuildReport(userID uint, window Window, categories []models.Category, expenses []models.Expense, incomes []models.Income, recentLimit int) *Report {
	exps := filterExpenses(userID, window, expenses)
	incs := filterIncomes(userID, window, incomes)

	r := &Report{
		Window:       window,
		TotalExpense: sumExpenses(exps),
		TotalIncome:  sumIncomes(incs),
		DailyData:    DailyBreakdown(exps),
	}
	r.Balance = r.TotalIncome.Sub(r.TotalExpense)
	r.CategoryData = CategoryBreakdown(categories, exps, r.TotalExpense)
	r.RecentTransactions = MostRecent(exps, recentLimit)
	return r
}

// BuildDashboard 计算首页概览：最近 WindowDays 天的收支、预算状态、最近消费与群组
func BuildDashboard(userID uint, now time.Time, opts DashboardOptions, expenses []models.Expense, incomes []models.Income, groups []models.GroupExpense) *Dashboard {
	window := TrailingWindow(now, opts.WindowDays)
	exps := filterExpenses(userID, window, expenses)
	incs := filterIncomes(userID, window, incomes)

	d := &Dashboard{
		Window:       window,
		TotalExpense: sumExpenses(exps),
		TotalIncome:  sumIncomes(incs),
		Budget:       opts.Budget,
	}
	d.Balance = d.TotalIncome.Sub(d.TotalExpense)
	d.BudgetStatus = StatusFor(d.TotalExpense, opts.Budget)
	d.RecentExpenses = MostRecent(exps, opts.RecentLimit)

	var own []models.GroupExpense
	for _, g := range groups {
		if g.CreatorID == userID {
			own = append(own, g)
		}
	}
	d.GroupExpenses = MostRecentGroups(own, opts.RecentLimit)
	return d
}

// StatusFor 消费严格小于预算为 Under Budget，否则 Over Budget
func StatusFor(totalExpense, budget decimal.Decimal) string {
	if totalExpense.LessThan(budget) {
		return StatusUnderBudget
	}
	return StatusOverBudget
}

// CategoryBreakdown 遍历全部类别，只保留合计大于 0 的类别；total 为 0 时占比为 0。
// 占比截断到两位小数，各类别之和不超过 100
func CategoryBreakdown(categories []models.Category, expenses []models.Expense, total decimal.Decimal) []CategoryTotal {
	sums := make(map[uint]decimal.Decimal)
	for _, e := range expenses {
		sums[e.CategoryID] = sums[e.CategoryID].Add(e.Amount)
	}

	out := make([]CategoryTotal, 0)
	for _, c := range categories {
		sum, ok := sums[c.ID]
		if !ok || !sum.IsPositive() {
			continue
		}
		ct := CategoryTotal{CategoryID: c.ID, Name: c.Name, Total: sum}
		if total.IsPositive() {
			q, _ := sum.Mul(hundred).QuoRem(total, percentScale)
			ct.Percentage = q
		}
		out = append(out, ct)
	}
	return out
}

// DailyBreakdown 按自然日汇总消费，没有消费的日期不出现
func DailyBreakdown(expenses []models.Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		k := e.DateKey()
		out[k] = out[k].Add(e.Amount)
	}
	return out
}

// MostRecent 按日期降序、ID 降序取前 limit 条，不修改入参
func MostRecent(expenses []models.Expense, limit int) []models.Expense {
	sorted := make([]models.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// MostRecentGroups 与 MostRecent 相同的排序规则
func MostRecentGroups(groups []models.GroupExpense, limit int) []models.GroupExpense {
	sorted := make([]models.GroupExpense, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// SummarizeGroups 垫付合计、总额合计与进行中的群组数
func SummarizeGroups(groups []models.GroupExpense) GroupSummary {
	s := GroupSummary{TotalAdvanced: decimal.Zero, TotalAmount: decimal.Zero}
	for _, g := range groups {
		s.TotalAdvanced = s.TotalAdvanced.Add(g.AdvanceAmount)
		s.TotalAmount = s.TotalAmount.Add(g.TotalAmount)
		if g.IsActive() {
			s.ActiveCount++
		}
	}
	return s
}

func filterExpenses(userID uint, w Window, expenses []models.Expense) []models.Expense {
	var out []models.Expense
	for _, e := range expenses {
		if e.UserID == userID && w.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

func filterIncomes(userID uint, w Window, incomes []models.Income) []models.Income {
	var out []models.Income
	for _, i := range incomes {
		if i.UserID == userID && w.Contains(i.Date) {
			out = append(out, i)
		}
	}
	return out
}

func sumExpenses(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func sumIncomes(incomes []models.Income) decimal.Decimal {
	total := decimal.Zero
	for _, i := range incomes {
		total = total.Add(i.Amount)
	}
	return total
}
