package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Dataset 表头加行组成的二维表，每行长度与表头一致。
// nil *Dataset 表示“没有数据”，零行的 Dataset 表示“只有表头”。
type Dataset struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// New 创建数据集，行会按表头长度补齐或截断。
func New(headers []string, rows ...[]any) *Dataset {
	d := &Dataset{Headers: append([]string(nil), headers...), Rows: make([][]any, 0, len(rows))}
	d.Append(rows...)
	return d
}

// FromGrid 从持久化使用的二维数组构造数据集，第一行为表头；空数组返回 nil。
func FromGrid(grid [][]any) *Dataset {
	if len(grid) == 0 {
		return nil
	}
	headers := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		headers[i] = CellString(cell)
	}
	return New(headers, grid[1:]...)
}

// Grid 返回表头在首行的二维数组形式。
func (d *Dataset) Grid() [][]any {
	if d == nil {
		return [][]any{}
	}
	grid := make([][]any, 0, len(d.Rows)+1)
	header := make([]any, len(d.Headers))
	for i, h := range d.Headers {
		header[i] = h
	}
	grid = append(grid, header)
	for _, row := range d.Rows {
		grid = append(grid, append([]any(nil), row...))
	}
	return grid
}

// Append 追加行。
func (d *Dataset) Append(rows ...[]any) {
	width := len(d.Headers)
	for _, row := range rows {
		normalized := make([]any, width)
		copy(normalized, row)
		d.Rows = append(d.Rows, normalized)
	}
}

// Len 返回数据行数（不含表头）。
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// IsEmpty 表示数据集存在但没有数据行。
func (d *Dataset) IsEmpty() bool {
	return d != nil && len(d.Rows) == 0
}

// Clone 深拷贝。
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	return New(d.Headers, d.Rows...)
}

// Filter 保留表头以及 keep 返回 true 的行。
func (d *Dataset) Filter(keep func(row []any) bool) *Dataset {
	if d == nil {
		return nil
	}
	out := New(d.Headers)
	for _, row := range d.Rows {
		if keep(row) {
			out.Append(row)
		}
	}
	return out
}

// ColumnIndex 返回第一个小写表头包含任一关键字的列下标，找不到返回 -1。
func (d *Dataset) ColumnIndex(keywords ...string) int {
	if d == nil {
		return -1
	}
	for i, h := range d.Headers {
		lower := strings.ToLower(h)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return i
			}
		}
	}
	return -1
}

// CellString 把单元格转换为字符串，空单元格为 ""。
func CellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
