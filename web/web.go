// Package web 内嵌页面模板与静态资源
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs 模板函数
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(models.DateLayout)
		},
		"pct":   func(d decimal.Decimal) string { return d.StringFixed(2) },
	}
}

// Templates 解析全部页面模板，模板名为文件名（如 dashboard.html）
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html"))
}

// Static 静态资源根目录
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
