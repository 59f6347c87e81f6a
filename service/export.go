package service

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary      = "Summary"
	sheetCategories   = "Categories"
	sheetDaily        = "Daily"
	sheetTransactions = "Transactions"
)

// ReportFilename 导出文件名，如 report_2024-03-01_2024-03-31.xlsx
func ReportFilename(w Window, ext string) string {
	return fmt.Sprintf("report_%s_%s.%s", w.StartKey(), w.EndKey(), ext)
}

// ReportWorkbook 将报表导出为 Excel
func ReportWorkbook(r *Report, username string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return nil, fmt.Errorf("create data style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"User", username},
		{"Start date", r.Window.StartKey()},
		{"End date", r.Window.EndKey()},
		{"Total income", r.TotalIncome.InexactFloat64()},
		{"Total expense", r.TotalExpense.InexactFloat64()},
		{"Balance", r.Balance.InexactFloat64()},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(sheetSummary, "A", "A", 16)
	f.SetColWidth(sheetSummary, "B", "B", 20)

	categoryRows := make([][]interface{}, 0, len(r.CategoryData))
	for _, c := range r.CategoryData {
		categoryRows = append(categoryRows, []interface{}{c.Name, c.Total.InexactFloat64(), c.Percentage.InexactFloat64()})
	}
	dailyRows := make([][]interface{}, 0, len(r.DailyData))
	for _, d := range r.Days() {
		dailyRows = append(dailyRows, []interface{}{d.Date, d.Total.InexactFloat64()})
	}
	txRows := make([][]interface{}, 0, len(r.RecentTransactions))
	for _, e := range r.RecentTransactions {
		txRows = append(txRows, []interface{}{e.ID, e.DateKey(), e.Category.Name, e.Description, e.Amount.InexactFloat64()})
	}

	tables := []struct {
		name    string
		headers []interface{}
		rows    [][]interface{}
	}{
		{sheetCategories, []interface{}{"Category", "Total", "Percentage"}, categoryRows},
		{sheetDaily, []interface{}{"Date", "Total"}, dailyRows},
		{sheetTransactions, []interface{}{"ID", "Date", "Category", "Description", "Amount"}, txRows},
	}
	for _, t := range tables {
		if _, err := f.NewSheet(t.name); err != nil {
			return nil, err
		}
		if err := writeTable(f, t.name, t.headers, t.rows, headerStyle, dataStyle); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}, headerStyle, dataStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		end, _ := excelize.CoordinatesToCellName(len(headers), i+2)
		if err := f.SetSheetRow(sheet, start, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, start, end, dataStyle); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

const pdfUTF8Family = "ReportUTF8"

// pdfFont 选择 PDF 字体：配置了 TTF 时注册为 UTF-8 字体，
// 否则使用核心字体 Helvetica，文本按 cp1252 转码，无法表示的字符输出为 .
func pdfFont(pdf *gofpdf.Fpdf, fontPath string) (string, func(string) string, error) {
	if fontPath == "" {
		return "Helvetica", pdf.UnicodeTranslatorFromDescriptor(""), nil
	}
	pdf.AddUTF8Font(pdfUTF8Family, "", fontPath)
	pdf.AddUTF8Font(pdfUTF8Family, "B", fontPath)
	if err := pdf.Error(); err != nil {
		return "", nil, fmt.Errorf("load pdf font %s: %w", fontPath, err)
	}
	return pdfUTF8Family, func(s string) string { return s }, nil
}

// ReportPDF 将报表导出为 PDF；fontPath 为可选的 UTF-8 TTF 字体（如中文字体）
func ReportPDF(r *Report, username, fontPath string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family, text, err := pdfFont(pdf, fontPath)
	if err != nil {
		return nil, err
	}
	pdf.SetTitle("Finance Report", true)
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.Cell(0, 10, "Finance Report")
	pdf.Ln(10)

	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", r.Window.StartKey(), r.Window.EndKey()))
	pdf.Ln(5)
	pdf.Cell(0, 6, text("User: "+username))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont(family, "B", 11)
	sumW := []float64{60, 60, 60}
	pdf.CellFormat(sumW[0], 10, "Income", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Expense", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Balance", "1", 1, "C", true, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(sumW[0], 10, r.TotalIncome.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, r.TotalExpense.StringFixed(2), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, r.Balance.StringFixed(2), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(family, "B", 13)
	pdf.Cell(0, 8, "Category Breakdown")
	pdf.Ln(8)
	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(90, 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 8, "Total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "%", "1", 1, "R", true, 0, "")
	pdf.SetFont(family, "", 10)
	for _, c := range r.CategoryData {
		pdf.CellFormat(90, 8, text(c.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 8, c.Total.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, c.Percentage.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont(family, "B", 13)
	pdf.Cell(0, 8, "Recent Transactions")
	pdf.Ln(8)
	colW := []float64{26, 40, 84, 30}
	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(colW[0], 8, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colW[1], 8, "Category", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colW[2], 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colW[3], 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont(family, "", 9)
	for _, e := range r.RecentTransactions {
		pdf.CellFormat(colW[0], 8, e.DateKey(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, text(e.Category.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[2], 8, text(trimTo(e.Description, 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 8, e.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func trimTo(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
