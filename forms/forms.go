// Package forms 定义每种记录允许提交的字段白名单，并负责绑定、校验与清洗。
// 归属用户等字段从不出现在表单中，只能由处理器根据会话写入。
package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"expensetracker/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NonFieldKey 非字段级错误的键
const NonFieldKey = "form"

// maxMoney decimal(10,2) 可表示的上限
var maxMoney = decimal.New(1, 8)

// FieldErrors 字段级错误（字段名 -> 提示）
type FieldErrors map[string]string

// Add 记录错误，同一字段只保留第一条
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

func (e FieldErrors) orNil() FieldErrors {
	if len(e) == 0 {
		return nil
	}
	return e
}

var registerOnce sync.Once

// RegisterValidations 在 gin 默认校验器上注册 money 规则，并让错误使用表单字段名
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := ParseMoney(s)
			return err == nil
		})
	})
}

// ParseMoney 解析金额：非负、最多两位小数、整数部分最多 8 位
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("amount %q has more than 2 decimal places", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", s)
	}
	if d.GreaterThanOrEqual(maxMoney) {
		return decimal.Zero, fmt.Errorf("amount %q is too large", s)
	}
	return d, nil
}

// bind 按 Content-Type 绑定（表单或 JSON），并把校验错误转换成 FieldErrors
func bind(c *gin.Context, obj interface{}) FieldErrors {
	RegisterValidations()
	if err := c.ShouldBind(obj); err != nil {
		return Translate(err)
	}
	return nil
}

// Translate 将绑定/校验错误转换为字段级提示
func Translate(err error) FieldErrors {
	errs := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonFieldKey, "Malformed submission.")
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "money":
		return "Enter a valid amount with at most 2 decimal places."
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "numeric":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

func parseID(n json.Number) (uint, bool) {
	id, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// cleanDate 解析日期，空值默认为 today
func cleanDate(errs FieldErrors, field, s string, today time.Time) time.Time {
	if strings.TrimSpace(s) == "" {
		return models.DateOf(today)
	}
	d, err := models.ParseDate(strings.TrimSpace(s))
	if err != nil {
		errs.Add(field, "Enter a valid date (YYYY-MM-DD).")
	}
	return d
}

func cleanMoney(errs FieldErrors, field string, n json.Number, positive bool) decimal.Decimal {
	d, err := ParseMoney(n.String())
	if err != nil {
		errs.Add(field, "Enter a valid amount with at most 2 decimal places.")
		return decimal.Zero
	}
	if positive && !d.IsPositive() {
		errs.Add(field, "Ensure this value is greater than 0.")
	}
	return d
}

func cleanText(errs FieldErrors, field, s string, required bool) string {
	s = strings.TrimSpace(s)
	if required && s == "" {
		errs.Add(field, "This field is required.")
	}
	return s
}

// ExpenseForm 消费表单：amount, date, description, category
type ExpenseForm struct {
	Amount      json.Number `form:"amount" json:"amount" binding:"required,money"`
	Date        string      `form:"date" json:"date" binding:"omitempty,datetime=2006-01-02"`
	Description string      `form:"description" json:"description" binding:"required,max=255"`
	Category    json.Number `form:"category" json:"category" binding:"required,numeric"`
}

// ExpenseData 清洗后的消费数据
type ExpenseData struct {
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	CategoryID  uint
}

// Bind 绑定并校验；category 是否存在由 service 校验
func (f *ExpenseForm) Bind(c *gin.Context, today time.Time) (ExpenseData, FieldErrors) {
	if errs := bind(c, f); errs != nil {
		return ExpenseData{}, errs
	}
	return f.Clean(today)
}

// Clean 将已通过规则校验的字段转换为领域类型
func (f *ExpenseForm) Clean(today time.Time) (ExpenseData, FieldErrors) {
	errs := FieldErrors{}
	data := ExpenseData{
		Amount:      cleanMoney(errs, "amount", f.Amount, true),
		Date:        cleanDate(errs, "date", f.Date, today),
		Description: cleanText(errs, "description", f.Description, true),
	}
	id, ok := parseID(f.Category)
	if !ok {
		errs.Add("category", "Select a valid choice.")
	}
	data.CategoryID = id
	return data, errs.orNil()
}

// IncomeForm 收入表单：amount, date, source, description
type IncomeForm struct {
	Amount      json.Number `form:"amount" json:"amount" binding:"required,money"`
	Date        string      `form:"date" json:"date" binding:"omitempty,datetime=2006-01-02"`
	Source      string      `form:"source" json:"source" binding:"required,max=255"`
	Description string      `form:"description" json:"description" binding:"max=255"`
}

// IncomeData 清洗后的收入数据
type IncomeData struct {
	Amount      decimal.Decimal
	Date        time.Time
	Source      string
	Description string
}

func (f *IncomeForm) Bind(c *gin.Context, today time.Time) (IncomeData, FieldErrors) {
	if errs := bind(c, f); errs != nil {
		return IncomeData{}, errs
	}
	return f.Clean(today)
}

func (f *IncomeForm) Clean(today time.Time) (IncomeData, FieldErrors) {
	errs := FieldErrors{}
	data := IncomeData{
		Amount:      cleanMoney(errs, "amount", f.Amount, true),
		Date:        cleanDate(errs, "date", f.Date, today),
		Source:      cleanText(errs, "source", f.Source, true),
		Description: cleanText(errs, "description", f.Description, false),
	}
	return data, errs.orNil()
}

// GroupExpenseForm 群组消费表单：title, total_amount, date, advanced_by, advance_amount
type GroupExpenseForm struct {
	Title         string      `form:"title" json:"title" binding:"required,max=255"`
	TotalAmount   json.Number `form:"total_amount" json:"total_amount" binding:"required,money"`
	Date          string      `form:"date" json:"date" binding:"omitempty,datetime=2006-01-02"`
	AdvancedBy    json.Number `form:"advanced_by" json:"advanced_by" binding:"required,numeric"`
	AdvanceAmount json.Number `form:"advance_amount" json:"advance_amount" binding:"required,money"`
}

// GroupExpenseData 清洗后的群组消费数据
type GroupExpenseData struct {
	Title         string
	TotalAmount   decimal.Decimal
	Date          time.Time
	AdvancedByID  uint
	AdvanceAmount decimal.Decimal
}

func (f *GroupExpenseForm) Bind(c *gin.Context, today time.Time) (GroupExpenseData, FieldErrors) {
	if errs := bind(c, f); errs != nil {
		return GroupExpenseData{}, errs
	}
	return f.Clean(today)
}

func (f *GroupExpenseForm) Clean(today time.Time) (GroupExpenseData, FieldErrors) {
	errs := FieldErrors{}
	data := GroupExpenseData{
		Title:         cleanText(errs, "title", f.Title, true),
		TotalAmount:   cleanMoney(errs, "total_amount", f.TotalAmount, true),
		Date:          cleanDate(errs, "date", f.Date, today),
		AdvanceAmount: cleanMoney(errs, "advance_amount", f.AdvanceAmount, false),
	}
	id, ok := parseID(f.AdvancedBy)
	if !ok {
		errs.Add("advanced_by", "Select a valid choice.")
	}
	data.AdvancedByID = id
	return data, errs.orNil()
}

// GroupMemberForm 添加群组成员：user, share_amount
type GroupMemberForm struct {
	User        json.Number `form:"user" json:"user" binding:"required,numeric"`
	ShareAmount json.Number `form:"share_amount" json:"share_amount" binding:"required,money"`
}

// GroupMemberData 清洗后的成员数据
type GroupMemberData struct {
	UserID      uint
	ShareAmount decimal.Decimal
}

func (f *GroupMemberForm) Bind(c *gin.Context) (GroupMemberData, FieldErrors) {
	if errs := bind(c, f); errs != nil {
		return GroupMemberData{}, errs
	}
	return f.Clean()
}

func (f *GroupMemberForm) Clean() (GroupMemberData, FieldErrors) {
	errs := FieldErrors{}
	data := GroupMemberData{ShareAmount: cleanMoney(errs, "share_amount", f.ShareAmount, false)}
	id, ok := parseID(f.User)
	if !ok {
		errs.Add("user", "Select a valid choice.")
	}
	data.UserID = id
	return data, errs.orNil()
}

// CategoryForm 类别表单
type CategoryForm struct {
	Name string `form:"name" json:"name" binding:"required,max=100"`
}

func (f *CategoryForm) Bind(c *gin.Context) (string, FieldErrors) {
	if errs := bind(c, f); errs != nil {
		return "", errs
	}
	errs := FieldErrors{}
	name := cleanText(errs, "name", f.Name, true)
	return name, errs.orNil()
}

// DateRangeForm 报表日期区间
type DateRangeForm struct {
	StartDate string `form:"start_date" json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date" json:"end_date" binding:"required,datetime=2006-01-02"`
}

// Bind 绑定区间；start_date 晚于 end_date 时在 end_date 上报错
func (f *DateRangeForm) Bind(c *gin.Context) (time.Time, time.Time, FieldErrors) {
	if errs := bind(c, f); errs != nil {
		return time.Time{}, time.Time{}, errs
	}
	return f.Clean()
}

func (f *DateRangeForm) Clean() (time.Time, time.Time, FieldErrors) {
	errs := FieldErrors{}
	start, err := models.ParseDate(strings.TrimSpace(f.StartDate))
	if err != nil {
		errs.Add("start_date", "Enter a valid date (YYYY-MM-DD).")
	}
	end, err := models.ParseDate(strings.TrimSpace(f.EndDate))
	if err != nil {
		errs.Add("end_date", "Enter a valid date (YYYY-MM-DD).")
	}
	if len(errs) == 0 && start.After(end) {
		errs.Add("end_date", "End date must be on or after the start date.")
	}
	return start, end, errs.orNil()
}

// LoginForm 登录表单
type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// Bind 绑定登录表单，用户名去除首尾空白后不能为空
func (f *LoginForm) Bind(c *gin.Context) FieldErrors {
	if errs := bind(c, f); errs != nil {
		return errs
	}
	errs := FieldErrors{}
	f.Username = cleanText(errs, "username", f.Username, true)
	if len(errs) > 0 {
		return errs
	}
	return nil
}
