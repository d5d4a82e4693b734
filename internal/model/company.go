// Package model defines the company record and the derived attributes used for filtering and charting.
package model

import (
	"regexp"
	"strings"
)

// Required CSV columns, in the order they are reported when missing.
const (
	ColLegalName    = "Entity_Legal_Name"
	ColEntityType   = "Entity_Type"
	ColLocation     = "Headquarters_Location"
	ColEmployeeBand = "Estimated_Employee_Band"
	ColBandCode     = "Estimated_Employee_Band_Code"
	ColIndustryCode = "Primary_ANZSIC_Code"
)

// RequiredColumns lists every column a data file must carry.
var RequiredColumns = []string{
	ColLegalName,
	ColEntityType,
	ColLocation,
	ColEmployeeBand,
	ColBandCode,
	ColIndustryCode,
}

// Company is a single immutable company record loaded from the data file.
type Company struct {
	LegalName    string `json:"legal_name" csv:"Entity_Legal_Name"`
	EntityType   string `json:"entity_type" csv:"Entity_Type"`
	Location     string `json:"location" csv:"Headquarters_Location"`
	EmployeeBand string `json:"employee_band" csv:"Estimated_Employee_Band"`
	BandCode     int    `json:"employee_band_code" csv:"Estimated_Employee_Band_Code"`
	IndustryCode string `json:"industry_code" csv:"Primary_ANZSIC_Code"`

	// Derived at load time.
	StandardBand        string `json:"standard_band" csv:"-"`
	IndustryDescription string `json:"industry_description" csv:"-"`
	EntityTypeLabel     string `json:"entity_type_label" csv:"-"`
}

var (
	parenRe    = regexp.MustCompile(`\((.*?)\)`)
	footnoteRe = regexp.MustCompile(`\s*\[\d+\]`)
)

// IndustryDescription extracts the text inside the first parentheses of an
// ANZSIC code, e.g. "K6411 (Financial Services)" -> "Financial Services".
// Codes without a description are returned unchanged.
func IndustryDescription(code string) string {
	m := parenRe.FindStringSubmatch(code)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return code
	}
	return strings.TrimSpace(m[1])
}

// EntityTypeLabel strips footnote markers like " [1]" from an entity type.
func EntityTypeLabel(entityType string) string {
	return strings.TrimSpace(footnoteRe.ReplaceAllString(entityType, ""))
}

// Derive fills the derived attributes of c using the given band order.
func (c *Company) Derive(bands BandOrder) {
	c.StandardBand = bands.Standardize(c.EmployeeBand)
	c.IndustryDescription = IndustryDescription(c.IndustryCode)
	c.EntityTypeLabel = EntityTypeLabel(c.EntityType)
}
