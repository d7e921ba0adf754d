package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Filter sentinels meaning "no restriction".
const (
	AllRegions        = "Todas"
	AllMunicipalities = "Todos"
)

// GeoKeyWidth is the length of a zero-padded IBGE municipality code.
const GeoKeyWidth = 7

// RawTable is a delimited file as read from disk: a header and string cells.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Source string     `json:"source,omitempty"`
}

// Column returns the index of name in the header, or -1.
func (t *RawTable) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Record is one municipality after cleaning.
type Record struct {
	Municipality         string            `json:"municipality"`
	IBGECode             *int64            `json:"ibge_code"`
	ImmediateRegion      string            `json:"immediate_region"`
	CAFIndividualActive  int64             `json:"caf_individual_active"`
	CAFLegalEntityActive int64             `json:"caf_legal_entity_active"`
	WomenActive          int64             `json:"women_active"`
	MenActive            int64             `json:"men_active"`
	FamilyFarmers        int64             `json:"family_farmers"`
	Operations           int64             `json:"operations"`
	Credit               float64           `json:"credit"`
	Extras               map[string]string `json:"extras,omitempty"`
}

// GeoKey returns the identifier zero-padded to seven characters, the key
// used by the boundary document. ok is false for records without a code.
func (r Record) GeoKey() (key string, ok bool) {
	if r.IBGECode == nil {
		return "", false
	}
	return fmt.Sprintf("%0*d", GeoKeyWidth, *r.IBGECode), true
}

// Dataset is an ordered, immutable collection of cleaned records together
// with the header order of the file it came from.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
	Source  string   `json:"source,omitempty"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// WithRecords returns a dataset sharing d's columns and source.
func (d *Dataset) WithRecords(records []Record) *Dataset {
	return &Dataset{Columns: d.Columns, Records: records, Source: d.Source}
}

// Regions returns the distinct non-blank immediate regions, sorted.
func (d *Dataset) Regions() []string {
	return distinctSorted(d.Records, func(r Record) string { return r.ImmediateRegion })
}

// Municipalities returns the distinct non-blank municipality names, sorted.
func (d *Dataset) Municipalities() []string {
	return distinctSorted(d.Records, func(r Record) string { return r.Municipality })
}

func distinctSorted(records []Record, key func(Record) string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0)
	for _, r := range records {
		v := key(r)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Selection is the filter state carried by each request.
type Selection struct {
	Region         string   `json:"region"`
	Municipalities []string `json:"municipalities"`
}

// AllRegionsSelected reports whether the region step is the identity.
func (s Selection) AllRegionsSelected() bool {
	return s.Region == "" || s.Region == AllRegions
}

// AllMunicipalitiesSelected reports whether the municipality step is the
// identity: nothing chosen, or the sentinel among the choices.
func (s Selection) AllMunicipalitiesSelected() bool {
	if len(s.Municipalities) == 0 {
		return true
	}
	for _, m := range s.Municipalities {
		if m == AllMunicipalities {
			return true
		}
	}
	return false
}

// Normalized returns the selection with sentinels made explicit.
func (s Selection) Normalized() Selection {
	out := Selection{Region: s.Region, Municipalities: s.Municipalities}
	if out.AllRegionsSelected() {
		out.Region = AllRegions
	}
	if out.AllMunicipalitiesSelected() {
		out.Municipalities = []string{AllMunicipalities}
	}
	return out
}
