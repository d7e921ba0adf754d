package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"pronafmonitor/internal/config"
	"pronafmonitor/pkg/contracts/domain"
)

// Clean coerces a raw table into a dataset. Numeric columns that cannot be
// parsed, or hold negative or non-finite values, become zero. Count columns
// are rounded half away from zero. The identifier becomes a nullable
// integer. Columns outside the declared set are carried as text, and
// declared columns absent from the source are appended to the header.
//
// Clean is idempotent: Clean(ToRawTable(Clean(t))) equals Clean(t).
func Clean(raw *domain.RawTable) *domain.Dataset {
	columns := append([]string(nil), raw.Header...)
	columns = append(columns, MissingColumns(raw.Header)...)

	index := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	declared := make(map[string]struct{}, len(config.DeclaredColumns))
	for _, c := range config.DeclaredColumns {
		declared[c] = struct{}{}
	}

	records := make([]domain.Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		rec := domain.Record{
			Municipality:         cell(config.ColMunicipality),
			IBGECode:             parseIdentifier(cell(config.ColIBGECode)),
			ImmediateRegion:      cell(config.ColImmediateRegion),
			CAFIndividualActive:  parseCount(cell(config.ColCAFIndividual)),
			CAFLegalEntityActive: parseCount(cell(config.ColCAFLegalEntity)),
			WomenActive:          parseCount(cell(config.ColWomenActive)),
			MenActive:            parseCount(cell(config.ColMenActive)),
			FamilyFarmers:        parseCount(cell(config.ColFamilyFarmers)),
			Operations:           parseCount(cell(config.ColOperations)),
			Credit:               parseAmount(cell(config.ColCredit)),
		}

		for i, h := range raw.Header {
			if _, ok := declared[h]; ok || i >= len(row) {
				continue
			}
			if rec.Extras == nil {
				rec.Extras = make(map[string]string)
			}
			if _, seen := rec.Extras[h]; !seen {
				rec.Extras[h] = row[i]
			}
		}
		records = append(records, rec)
	}

	return &domain.Dataset{Columns: columns, Records: records, Source: raw.Source}
}

// ParseNumber parses a numeric cell. It accepts plain decimals, an "R$"
// prefix and pt-BR grouping such as "1.234.567,89". ok is false for blank
// or unparsable cells.
//
// A lone separator is read as a decimal mark: "12.345" is 12.345. Count
// columns go through ParseCount, which reads it as grouping instead.
func ParseNumber(s string) (v float64, ok bool) {
	return parseNumber(s, false)
}

// ParseCount parses a cell of a count column. Counts are whole numbers, so
// a single "." or "," followed by exactly three digits separates thousands:
// "12.345" and "1,234" are 12345 and 1234.
func ParseCount(s string) (v float64, ok bool) {
	return parseNumber(s, true)
}

func parseNumber(s string, integer bool) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return 0, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		// whichever separator comes last is the decimal mark
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case integer && dots+commas == 1 && groupsThousands(s):
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// groupsThousands reports whether the single separator in s splits a
// leading group of one to three digits from exactly three digits.
func groupsThousands(s string) bool {
	i := strings.IndexAny(s, ".,")
	lead := strings.TrimPrefix(s[:i], "-")
	tail := s[i+1:]
	if len(lead) == 0 || len(lead) > 3 || lead[0] == '0' || len(tail) != 3 {
		return false
	}
	return isDigits(lead) && isDigits(tail)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseAmount returns a finite non-negative value or zero.
func parseAmount(s string) float64 {
	v, ok := ParseNumber(s)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func parseCount(s string) int64 {
	v, ok := ParseCount(s)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	// math.Round rounds half away from zero
	return int64(math.Round(v))
}

func parseIdentifier(s string) *int64 {
	v, ok := ParseNumber(s)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	code := int64(math.Round(v))
	return &code
}

// ToRawTable renders a dataset back to text cells in column order. Counts
// are written as integers and credit with the shortest exact decimal, so
// that the result cleans back to the same records.
func ToRawTable(ds *domain.Dataset) *domain.RawTable {
	rows := make([][]string, 0, len(ds.Records))
	for _, rec := range ds.Records {
		row := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			row[i] = CellText(rec, col)
		}
		rows = append(rows, row)
	}
	return &domain.RawTable{
		Header: append([]string(nil), ds.Columns...),
		Rows:   rows,
		Source: ds.Source,
	}
}

// CellText returns the textual value of col for rec.
func CellText(rec domain.Record, col string) string {
	switch col {
	case config.ColMunicipality:
		return rec.Municipality
	case config.ColIBGECode:
		if rec.IBGECode == nil {
			return ""
		}
		return strconv.FormatInt(*rec.IBGECode, 10)
	case config.ColImmediateRegion:
		return rec.ImmediateRegion
	case config.ColCAFIndividual:
		return strconv.FormatInt(rec.CAFIndividualActive, 10)
	case config.ColCAFLegalEntity:
		return strconv.FormatInt(rec.CAFLegalEntityActive, 10)
	case config.ColWomenActive:
		return strconv.FormatInt(rec.WomenActive, 10)
	case config.ColMenActive:
		return strconv.FormatInt(rec.MenActive, 10)
	case config.ColFamilyFarmers:
		return strconv.FormatInt(rec.FamilyFarmers, 10)
	case config.ColOperations:
		return strconv.FormatInt(rec.Operations, 10)
	case config.ColCredit:
		return strconv.FormatFloat(rec.Credit, 'f', -1, 64)
	default:
		return rec.Extras[col]
	}
}
