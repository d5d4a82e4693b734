package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/where2work/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "companies.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoad_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Companies": {
			model.RequiredColumns,
			{"Acme Pty Ltd", "Company [1]", "Perth", "1-5 Employees", "1", "K6411 (Financial Services)"},
			{"", "", "", "", "", ""},
			{"Globex", "Partnership", "Hobart", "20–49 Employees", "3", "M6921"},
		},
	})

	d, err := Load(path, model.DefaultBands)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	c, ok := d.Lookup("Acme Pty Ltd")
	require.True(t, ok)
	assert.Equal(t, "1–5 Employees", c.StandardBand)
	assert.Equal(t, 1, c.BandCode)
	assert.Equal(t, "Company", c.EntityTypeLabel)
}

func TestParseXLSX_MissingColumns(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Entity_Legal_Name", "Entity_Type"},
			{"Acme", "Company"},
		},
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = ParseXLSX(data, XLSXOptions{})
	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Len(t, mce.Columns, 4)
}

func TestParseXLSX_SheetSelection(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {model.RequiredColumns},
	})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = ParseXLSX(data, XLSXOptions{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Nope" not found`)

	_, err = ParseXLSX(data, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	records, err := ParseXLSX(data, XLSXOptions{SheetName: "Sheet1"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseXLSX_InvalidBytes(t *testing.T) {
	_, err := ParseXLSX([]byte("not a workbook"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open xlsx")
}
