package service

import (
	"errors"
	"time"

	"expensetracker/models"
)

// ErrInvertedWindow 起始日期晚于结束日期
var ErrInvertedWindow = errors.New("start date is after end date")

// Window 统计区间，两端均包含，按自然日比较
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewWindow 构造区间，start 晚于 end 时返回 ErrInvertedWindow
func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: models.DateOf(start), End: models.DateOf(end)}
	if w.Start.After(w.End) {
		return Window{}, ErrInvertedWindow
	}
	return w, nil
}

// TrailingWindow 以 now 所在日期为结束、向前 days 天的区间
func TrailingWindow(now time.Time, days int) Window {
	end := models.DateOf(now)
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// Contains t 所在日期是否落在区间内
func (w Window) Contains(t time.Time) bool {
	d := models.DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// StartKey 起始日期 YYYY-MM-DD
func (w Window) StartKey() string { return w.Start.Format(models.DateLayout) }

// EndKey 结束日期 YYYY-MM-DD
func (w Window) EndKey() string { return w.End.Format(models.DateLayout) }
