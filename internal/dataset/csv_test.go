package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/where2work/internal/model"
)

const header = "Entity_Legal_Name,Entity_Type,Headquarters_Location,Estimated_Employee_Band,Estimated_Employee_Band_Code,Primary_ANZSIC_Code\n"

func TestParseCSV_RowCountMatchesDataRows(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		var b strings.Builder
		b.WriteString(header)
		for i := 0; i < n; i++ {
			b.WriteString("Co,Company,Sydney,1–5 Employees,1,K6411\n")
		}

		records, err := ParseCSV([]byte(b.String()))
		require.NoError(t, err)
		assert.Len(t, records, n)
	}
}

func TestParseCSV_TrimsFields(t *testing.T) {
	data := header + "  Acme Pty Ltd ,  Company  ,  Perth  ,  6–19 Employees  , 2 , K6411 (Financial Services) \n"

	records, err := ParseCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 1)

	c := records[0]
	assert.Equal(t, "Acme Pty Ltd", c.LegalName)
	assert.Equal(t, "Company", c.EntityType)
	assert.Equal(t, "Perth", c.Location)
	assert.Equal(t, "6–19 Employees", c.EmployeeBand)
	assert.Equal(t, 2, c.BandCode)
	assert.Equal(t, "K6411 (Financial Services)", c.IndustryCode)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	data := "Entity_Legal_Name,Entity_Type,Estimated_Employee_Band\nAcme,Company,1–5 Employees\n"

	_, err := ParseCSV([]byte(data))
	require.Error(t, err)

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{
		model.ColLocation,
		model.ColBandCode,
		model.ColIndustryCode,
	}, mce.Columns)
	assert.Contains(t, err.Error(), "missing required columns: Headquarters_Location")
}

func TestParseCSV_HeaderWithBOMAndPadding(t *testing.T) {
	data := "\xEF\xBB\xBF Entity_Legal_Name , Entity_Type,Headquarters_Location,Estimated_Employee_Band,Estimated_Employee_Band_Code,Primary_ANZSIC_Code\nAcme,Company,Perth,1–5 Employees,1,K6411\n"

	records, err := ParseCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].LegalName)
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ParseCSV([]byte("\n\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	records, err := ParseCSV([]byte(header))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseCSV_BandCodes(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    int
		wantErr bool
	}{
		{"integer", "3", 3, false},
		{"integral float", "3.0", 3, false},
		{"blank", "", 0, false},
		{"fraction", "2.5", 0, true},
		{"text", "small", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := header + "Acme,Company,Perth,1–5 Employees," + tt.code + ",K6411\n"
			records, err := ParseCSV([]byte(data))
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "line 2")
				assert.Contains(t, err.Error(), model.ColBandCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0].BandCode)
		})
	}
}

func TestParseCSV_ShortRowsTolerated(t *testing.T) {
	data := header + "Acme,Company,Perth\n"

	records, err := ParseCSV([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].IndustryCode)
	assert.Equal(t, 0, records[0].BandCode)
}
