// Package dataset loads company records from CSV or XLSX files into an
// immutable in-memory data set.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/where2work/internal/model"
)

// ErrEmpty is returned for a data file with no header row.
var ErrEmpty = eris.New("dataset: file is empty")

// MissingColumnsError reports required columns absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "dataset: missing required columns: " + strings.Join(e.Columns, ", ")
}

// Dataset is an immutable set of company records.
type Dataset struct {
	Path     string
	Version  string
	LoadedAt time.Time
	Bands    model.BandOrder

	records []model.Company
	byName  map[string]int
}

// Options holds the distinct values offered by each filter control.
type Options struct {
	Locations   []string        `json:"locations"`
	EntityTypes []string        `json:"entity_types"`
	Bands       model.BandOrder `json:"bands"`
	Industries  []string        `json:"industries"`
}

// New builds a Dataset from already-parsed records, deriving band,
// industry and entity labels with bands.
func New(records []model.Company, bands model.BandOrder) *Dataset {
	if len(bands) == 0 {
		bands = model.DefaultBands
	}
	d := &Dataset{
		Bands:    bands,
		LoadedAt: time.Now().UTC(),
		records:  records,
		byName:   make(map[string]int, len(records)),
	}
	for i := range d.records {
		d.records[i].Derive(bands)
		if _, ok := d.byName[d.records[i].LegalName]; !ok {
			d.byName[d.records[i].LegalName] = i
		}
	}
	return d
}

// Load reads the data file at path. The format is chosen by extension:
// .xlsx files are read as workbooks, everything else as CSV.
func Load(path string, bands model.BandOrder) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}

	var records []model.Company
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = ParseXLSX(data, XLSXOptions{})
	default:
		records, err = ParseCSV(data)
	}
	if err != nil {
		return nil, err
	}

	d := New(records, bands)
	d.Path = path
	d.Version = Version(data)
	return d, nil
}

// Version returns a short content hash identifying a data file revision.
func Version(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// Records returns the loaded records. The slice is shared and must not be modified.
func (d *Dataset) Records() []model.Company {
	return d.records
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Lookup returns the first record with the given legal name.
func (d *Dataset) Lookup(name string) (model.Company, bool) {
	i, ok := d.byName[name]
	if !ok {
		return model.Company{}, false
	}
	return d.records[i], true
}

// Options returns the sorted distinct values for every filter control.
func (d *Dataset) Options() Options {
	locations := make(map[string]bool)
	entityTypes := make(map[string]bool)
	industries := make(map[string]bool)
	for _, r := range d.records {
		locations[r.Location] = true
		entityTypes[r.EntityType] = true
		industries[r.IndustryCode] = true
	}
	return Options{
		Locations:   sortedKeys(locations),
		EntityTypes: sortedKeys(entityTypes),
		Bands:       d.Bands.Axis(d.records),
		Industries:  sortedKeys(industries),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}
	collate.New(language.English, collate.IgnoreCase, collate.Numeric).SortStrings(keys)
	return keys
}
