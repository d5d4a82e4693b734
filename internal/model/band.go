package model

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// BandOrder is the ascending list of standard employee band labels.
type BandOrder []string

// DefaultBands is used when no bands file is configured.
var DefaultBands = BandOrder{
	"1–5 Employees",
	"6–19 Employees",
	"20–49 Employees",
}

var dashReplacer = strings.NewReplacer(
	"\u00e2\u20ac\u201c", "–", // UTF-8 en dash read as cp1252
	"\u00e2\u20ac\u201d", "–", // same for em dash
	"—", "–",
	"‒", "–",
	"−", "–",
	"-", "–",
)

// NormalizeBand trims a raw band label and folds dash variants to an en dash.
func NormalizeBand(raw string) string {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	return dashReplacer.Replace(s)
}

// Standardize maps a raw band label onto the order by looking for each
// standard band's leading range token ("1–5") inside the raw value. Labels
// that match nothing are returned trimmed and dash-normalised.
func (o BandOrder) Standardize(raw string) string {
	clean := NormalizeBand(raw)
	for _, band := range o {
		fields := strings.Fields(NormalizeBand(band))
		if len(fields) == 0 {
			continue
		}
		if containsRange(clean, fields[0]) {
			return band
		}
	}
	return clean
}

// containsRange reports whether token appears in s as a whole number range,
// so "1–5" does not match inside "11–50".
func containsRange(s, token string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], token)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(token)
		if !isDigitAt(s, start-1) && !isDigitAt(s, end) {
			return true
		}
		from = start + 1
	}
}

func isDigitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}

// Index returns the ordinal position of band, or -1.
func (o BandOrder) Index(band string) int {
	for i, b := range o {
		if b == band {
			return i
		}
	}
	return -1
}

// Contains reports whether band is one of the standard bands.
func (o BandOrder) Contains(band string) bool {
	return o.Index(band) >= 0
}

type bandsFile struct {
	Bands []string `yaml:"bands"`
}

// LoadBands reads a band order from a YAML file of the form:
//
//	bands:
//	  - 1–5 Employees
//	  - 6–19 Employees
//
// An empty path returns DefaultBands.
func LoadBands(path string) (BandOrder, error) {
	if path == "" {
		return DefaultBands, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read bands file %s", path)
	}

	var f bandsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "model: parse bands file %s", path)
	}
	if len(f.Bands) == 0 {
		return nil, eris.Errorf("model: bands file %s lists no bands", path)
	}

	order := make(BandOrder, 0, len(f.Bands))
	seen := make(map[string]bool, len(f.Bands))
	for _, b := range f.Bands {
		b = NormalizeBand(b)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		order = append(order, b)
	}
	return order, nil
}

// Axis returns the chart axis order for records: the configured bands
// followed by any other bands present in records, ordered by band code and
// then label.
func (o BandOrder) Axis(records []Company) BandOrder {
	axis := make(BandOrder, len(o), len(o)+4)
	copy(axis, o)

	extraCode := make(map[string]int)
	for _, r := range records {
		if r.StandardBand == "" || o.Contains(r.StandardBand) {
			continue
		}
		if code, ok := extraCode[r.StandardBand]; !ok || r.BandCode < code {
			extraCode[r.StandardBand] = r.BandCode
		}
	}
	if len(extraCode) == 0 {
		return axis
	}

	extras := make([]string, 0, len(extraCode))
	for b := range extraCode {
		extras = append(extras, b)
	}
	sort.Slice(extras, func(i, j int) bool {
		ci, cj := extraCode[extras[i]], extraCode[extras[j]]
		if ci != cj {
			return ci < cj
		}
		return extras[i] < extras[j]
	})
	return append(axis, extras...)
}
