// Package filter applies sidebar selections to company records and computes
// the summary metrics shown next to the charts.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/where2work/internal/model"
)

// Query parameter names used by the page form and the JSON API.
const (
	ParamLocation   = "location"
	ParamEntityType = "entity_type"
	ParamBand       = "band"
	ParamIndustry   = "industry"
)

// Selection holds the allowed values of each filter. An empty list leaves
// that filter inactive. Filters combine by conjunction; values within one
// filter combine by membership.
type Selection struct {
	Locations   []string `json:"locations,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
	Bands       []string `json:"bands,omitempty"`
	Industries  []string `json:"industries,omitempty"`
}

// IsEmpty reports whether no filter is active.
func (s Selection) IsEmpty() bool {
	return len(s.Locations) == 0 && len(s.EntityTypes) == 0 &&
		len(s.Bands) == 0 && len(s.Industries) == 0
}

// Normalize trims, de-duplicates and sorts each list, drops blank values and
// folds band dash variants, so equal selections compare and hash equally.
func (s Selection) Normalize() Selection {
	bands := make([]string, 0, len(s.Bands))
	for _, b := range s.Bands {
		bands = append(bands, model.NormalizeBand(b))
	}
	return Selection{
		Locations:   cleanList(s.Locations),
		EntityTypes: cleanList(s.EntityTypes),
		Bands:       cleanList(bands),
		Industries:  cleanList(s.Industries),
	}
}

// Key returns a canonical string for the selection.
func (s Selection) Key() string {
	return s.Normalize().Query().Encode()
}

// FromQuery reads a selection from repeated query parameters.
func FromQuery(v url.Values) Selection {
	return Selection{
		Locations:   v[ParamLocation],
		EntityTypes: v[ParamEntityType],
		Bands:       v[ParamBand],
		Industries:  v[ParamIndustry],
	}.Normalize()
}

// Query encodes the selection as repeated query parameters.
func (s Selection) Query() url.Values {
	v := url.Values{}
	for _, l := range s.Locations {
		v.Add(ParamLocation, l)
	}
	for _, e := range s.EntityTypes {
		v.Add(ParamEntityType, e)
	}
	for _, b := range s.Bands {
		v.Add(ParamBand, b)
	}
	for _, i := range s.Industries {
		v.Add(ParamIndustry, i)
	}
	return v
}

// Apply returns the records satisfying every active filter, in input order.
// Bands compare on the standardised band label.
func Apply(records []model.Company, sel Selection) []model.Company {
	sel = sel.Normalize()
	if sel.IsEmpty() {
		return records
	}

	locations := toSet(sel.Locations)
	entityTypes := toSet(sel.EntityTypes)
	bands := toSet(sel.Bands)
	industries := toSet(sel.Industries)

	out := make([]model.Company, 0, len(records))
	for _, r := range records {
		if !allows(locations, r.Location) ||
			!allows(entityTypes, r.EntityType) ||
			!allows(bands, r.StandardBand) ||
			!allows(industries, r.IndustryCode) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Partition splits records into those whose legal name is in shortlisted
// and the rest, preserving order.
func Partition(records []model.Company, shortlisted map[string]bool) (in, out []model.Company) {
	for _, r := range records {
		if shortlisted[r.LegalName] {
			in = append(in, r)
		} else {
			out = append(out, r)
		}
	}
	return in, out
}

// allows reports whether an inactive (nil) set or a member value passes.
func allows(set map[string]bool, v string) bool {
	return set == nil || set[v]
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func cleanList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
