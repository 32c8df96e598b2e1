package dataset

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"placement-portal/internal/apperr"

	"github.com/xuri/excelize/v2"
)

// 支持上传的文件扩展名。
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// FromDelimitedText 按行和逗号切分文本，忽略空行并去掉单元格首尾空白。
// 不处理引号转义，含逗号的单元格会被拆开。
func FromDelimitedText(text string) *Dataset {
	var grid [][]any
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ",")
		row := make([]any, len(parts))
		for i, p := range parts {
			row[i] = strings.TrimSpace(p)
		}
		grid = append(grid, row)
	}
	return FromGrid(grid)
}

// FromSpreadsheet 读取 xlsx 第一个工作表，第一行为表头。
func FromSpreadsheet(data []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	grid := make([][]any, 0, len(rows))
	for _, r := range rows {
		row := make([]any, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		grid = append(grid, row)
	}
	return FromGrid(grid), nil
}

// Decode 根据文件扩展名解析上传内容。不支持的格式或空文件返回 invalid input。
func Decode(fileName string, data []byte) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ExtCSV:
		ds = FromDelimitedText(string(data))
	case ExtXLSX:
		ds, err = FromSpreadsheet(data)
		if err != nil {
			return nil, apperr.InvalidInput("Could not read the spreadsheet", err)
		}
	default:
		return nil, apperr.InvalidInput("Please select an XLSX or CSV file", nil)
	}
	if ds == nil || len(ds.Headers) == 0 {
		return nil, apperr.InvalidInput("No data found in the uploaded file", nil)
	}
	return ds, nil
}

// ToDelimitedText 导出为逗号分隔文本（含表头）。包含逗号、引号或换行的单元格加引号，内部引号加倍。
func (d *Dataset) ToDelimitedText() string {
	if d == nil {
		return ""
	}
	lines := make([]string, 0, len(d.Rows)+1)
	header := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		header[i] = quoteCell(h)
	}
	lines = append(lines, strings.Join(header, ","))
	for _, row := range d.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = quoteCell(CellString(c))
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func quoteCell(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
