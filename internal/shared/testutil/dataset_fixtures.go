package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SampleHeader is the header of the sample municipality table. It carries one
// column outside the declared set ("Mesorregião") that must survive cleaning.
var SampleHeader = []string{
	"Município",
	"Código IBGE",
	"Região Geográfica Imediata (2022)",
	"Mesorregião",
	"CAFs PF ATIVO",
	"CAFs PJ ATIVO",
	"QUANTIDADE DE MULHERES EM CAF ATIVO",
	"QUANTIDADE DE HOMENS EM CAF ATIVO",
	"Quantidade de Agricultores Familiares",
	"Operações em 2025",
	"Crédito Pronaf em 2025 (R$)",
}

// SampleRows is a small Zona da Mata table exercising the repair paths:
// a blank credit cell, a pt-BR currency cell, a non-numeric count, a
// fractional count, a float-formatted identifier and a missing identifier.
var SampleRows = [][]string{
	{"Juiz de Fora", "3136702", "Juiz de Fora", "Zona da Mata", "820", "4", "410", "520", "1500", "310", "2500000.50"},
	{"Matias Barbosa", "3140506.0", "Juiz de Fora", "Zona da Mata", "95", "0", "40", "60", "120", "22", "150000"},
	{"Muriaé", "3143906", "Muriaé", "Zona da Mata", "640", "2", "300", "380", "900", "205", "1800000.25"},
	{"Miradouro", "3142007", "Muriaé", "Zona da Mata", "410", "1", "190", "250", "700", "130", ""},
	{"Ubá", "3169901", "Ubá", "Zona da Mata", "530", "3", "260", "300", "800", "190", "1200000"},
	{"Viçosa", "3171303", "Viçosa", "Zona da Mata", "700", "5", "350", "400", "1100", "250", "R$ 2.000.000,00"},
	{"Cajuri", "3110905", "Viçosa", "Zona da Mata", "abc", "0", "80", "100", "210.6", "35", "90000.75"},
	{"Sem Código", "", "Viçosa", "Zona da Mata", "10", "0", "5", "5", "12", "2", "1000"},
}

// Expected aggregates over the full sample after cleaning.
const (
	SampleRecordCount         = 8
	SampleTotalFamilyFarmers  = int64(5343)
	SampleTotalCredit         = 7741001.50
	SampleTotalWomen          = int64(1635)
	SampleTotalMen            = int64(2015)
	SampleMunicipalityCount   = 8
	SampleJuizDeForaFarmers   = int64(1620)
	SampleJuizDeForaCredit    = 2650000.50
	SampleRegionCount         = 4
	SampleMissingIBGECodeName = "Sem Código"
)

// SampleRegions lists the distinct regions of the sample, sorted.
var SampleRegions = []string{"Juiz de Fora", "Muriaé", "Ubá", "Viçosa"}

// WriteSampleCSV writes the sample table as a comma separated file and
// returns its path.
func WriteSampleCSV(t *testing.T, dir string) string {
	t.Helper()
	return WriteCSV(t, dir, "df_merged.csv", ',', SampleHeader, SampleRows)
}

// WriteCSV writes header and rows with the given delimiter.
func WriteCSV(t *testing.T, dir, name string, delimiter rune, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delimiter
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}

// WriteSampleXLSX writes the sample table to the first sheet of a workbook.
func WriteSampleXLSX(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	all := append([][]string{SampleHeader}, SampleRows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, "df_merged.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// SampleGeoJSON returns a boundary FeatureCollection covering the sample
// municipalities with an identifier, except Cajuri, so that unmatched codes
// can be asserted.
func SampleGeoJSON() string {
	features := []string{
		feature("3136702", "Juiz de Fora", -43.5, -21.8),
		feature("3140506", "Matias Barbosa", -43.3, -21.9),
		feature("3143906", "Muriaé", -42.4, -21.1),
		feature("3142007", "Miradouro", -42.3, -20.9),
		feature("3169901", "Ubá", -42.9, -21.1),
		feature("3171303", "Viçosa", -42.9, -20.75),
		feature("3100104", "Abadia dos Dourados", -47.4, -18.5),
	}
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

func feature(id, name string, lon, lat float64) string {
	ring := square(lon, lat, 0.1)
	return `{"type":"Feature","properties":{"id":"` + id + `","name":"` + name + `","description":"` + name + `"},` +
		`"geometry":{"type":"Polygon","coordinates":[` + ring + `]}}`
}

func square(lon, lat, d float64) string {
	pt := func(x, y float64) string {
		return "[" + ftoa(x) + "," + ftoa(y) + "]"
	}
	return "[" + strings.Join([]string{
		pt(lon, lat), pt(lon+d, lat), pt(lon+d, lat+d), pt(lon, lat+d), pt(lon, lat),
	}, ",") + "]"
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
