package models

import "time"

// DateLayout 日期字段的文本格式
const DateLayout = "2006-01-02"

// DateOf 截取到本地时区当天零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// ParseDate 按 DateLayout 解析本地日期
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
