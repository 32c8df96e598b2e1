package dataset

import "strings"

// Search 返回表头以及任一单元格（小写、去空白后）包含 term 的行。
// term 为空时原样返回，空单元格不参与匹配。
func Search(d *Dataset, term string) *Dataset {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" || d == nil {
		return d
	}
	return d.Filter(func(row []any) bool {
		for _, cell := range row {
			value := strings.ToLower(strings.TrimSpace(CellString(cell)))
			if value == "" {
				continue
			}
			if strings.Contains(value, needle) {
				return true
			}
		}
		return false
	})
}
