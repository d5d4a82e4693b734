package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/where2work/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses CSV bytes into company records. The header must carry
// every column in model.RequiredColumns; extra columns are ignored.
func ParseCSV(data []byte) ([]model.Company, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv header")
	}

	colIdx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var companies []model.Company
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}
		line, _ := reader.FieldPos(0)

		c, err := parseRow(row, colIdx)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: line %d", line)
		}
		companies = append(companies, c)
	}

	return companies, nil
}

// indexColumns maps trimmed header names to positions and verifies that
// all required columns are present.
func indexColumns(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.TrimSpace(col)
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = i
		}
	}

	var missing []string
	for _, col := range model.RequiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return colIdx, nil
}

func parseRow(row []string, colIdx map[string]int) (model.Company, error) {
	c := model.Company{
		LegalName:    getCol(row, colIdx, model.ColLegalName),
		EntityType:   getCol(row, colIdx, model.ColEntityType),
		Location:     getCol(row, colIdx, model.ColLocation),
		EmployeeBand: getCol(row, colIdx, model.ColEmployeeBand),
		IndustryCode: getCol(row, colIdx, model.ColIndustryCode),
	}

	code, err := parseBandCode(getCol(row, colIdx, model.ColBandCode))
	if err != nil {
		return model.Company{}, err
	}
	c.BandCode = code
	return c, nil
}

// parseBandCode accepts integers and integral floats ("3.0"), which
// spreadsheet exports commonly produce. Blank means 0.
func parseBandCode(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, eris.Errorf("invalid %s %q", model.ColBandCode, s)
	}
	return int(f), nil
}

// getCol safely retrieves a trimmed column value from a row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
