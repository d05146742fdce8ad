package extractor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel renders every sheet as a header line followed by one line per row
func extractExcel(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheet, err)
		}
		writeSheet(&out, sheet, rows)
	}
	return out.String(), nil
}

func writeSheet(out *strings.Builder, sheet string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	out.WriteString("Sheet: ")
	out.WriteString(sheet)
	out.WriteString("\nHeader: ")
	out.WriteString(strings.Join(rows[0], "\t"))
	out.WriteByte('\n')
	width := len(rows[0])
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		out.WriteString("Row ")
		out.WriteString(strconv.Itoa(i + 1))
		out.WriteString(": ")
		out.WriteString(strings.Join(row, "\t"))
		out.WriteByte('\n')
	}
}
