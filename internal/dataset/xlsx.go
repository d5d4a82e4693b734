package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/where2work/internal/model"
)

// XLSXOptions selects the worksheet holding the company table.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ParseXLSX parses workbook bytes into company records. The first row of
// the selected sheet is the header and is validated like a CSV header.
func ParseXLSX(data []byte, opts XLSXOptions) ([]model.Company, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, ErrEmpty
	}

	colIdx, err := indexColumns(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	companies := make([]model.Company, 0, len(sheet.Rows)-1)
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		c, err := parseRow(cells, colIdx)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: sheet %q row %d", sheet.Name, i+2)
		}
		companies = append(companies, c)
	}
	return companies, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("dataset: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("dataset: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// isBlank reports whether every cell is empty; spreadsheets often carry
// formatted but empty trailing rows.
func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
