package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronafmonitor/internal/config"
	"pronafmonitor/internal/shared/testutil"
	"pronafmonitor/pkg/contracts/domain"
)

func sampleRaw() *domain.RawTable {
	return &domain.RawTable{Header: testutil.SampleHeader, Rows: testutil.SampleRows, Source: "sample.csv"}
}

func sampleDataset() *domain.Dataset {
	return Clean(sampleRaw())
}

func findRecord(t *testing.T, ds *domain.Dataset, name string) domain.Record {
	t.Helper()
	for _, r := range ds.Records {
		if r.Municipality == name {
			return r
		}
	}
	t.Fatalf("municipality %q not found", name)
	return domain.Record{}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"integer", "1500", 1500, true},
		{"decimal point", "2500000.50", 2500000.5, true},
		{"float identifier", "3140506.0", 3140506, true},
		{"pt-BR currency", "R$ 2.000.000,00", 2000000, true},
		{"pt-BR decimal comma", "1234,56", 1234.56, true},
		{"en grouping", "1,234,567.89", 1234567.89, true},
		{"dotted thousands", "1.234.567", 1234567, true},
		{"lone dot is decimal", "12.345", 12.345, true},
		{"lone comma is decimal", "1,234", 1.234, true},
		{"non breaking space", "R$\u00a01.500,25", 1500.25, true},
		{"negative", "-5", -5, true},
		{"blank", "", 0, false},
		{"spaces only", "   ", 0, false},
		{"text", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"12.345", 12345, true},
		{"1.234", 1234, true},
		{"1,234", 1234, true},
		{"999.000", 999000, true},
		{"1.234.567", 1234567, true},
		{"1.234,0", 1234, true},
		{"210.6", 210.6, true},
		{"2.50", 2.5, true},
		{"1234.567", 1234.567, true},
		{"0.500", 0.5, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCount(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestClean_RepairsDirtyCells(t *testing.T) {
	ds := sampleDataset()
	require.Equal(t, testutil.SampleRecordCount, ds.Len())

	t.Run("blank credit becomes zero", func(t *testing.T) {
		r := findRecord(t, ds, "Miradouro")
		assert.Equal(t, 0.0, r.Credit)
		assert.Equal(t, int64(700), r.FamilyFarmers)
	})

	t.Run("currency text is parsed", func(t *testing.T) {
		assert.Equal(t, 2000000.0, findRecord(t, ds, "Viçosa").Credit)
	})

	t.Run("non numeric count becomes zero", func(t *testing.T) {
		assert.Equal(t, int64(0), findRecord(t, ds, "Cajuri").CAFIndividualActive)
	})

	t.Run("fractional count is rounded", func(t *testing.T) {
		assert.Equal(t, int64(211), findRecord(t, ds, "Cajuri").FamilyFarmers)
	})

	t.Run("float identifier becomes integer", func(t *testing.T) {
		r := findRecord(t, ds, "Matias Barbosa")
		require.NotNil(t, r.IBGECode)
		assert.Equal(t, int64(3140506), *r.IBGECode)
	})

	t.Run("missing identifier stays absent", func(t *testing.T) {
		assert.Nil(t, findRecord(t, ds, testutil.SampleMissingIBGECodeName).IBGECode)
	})

	t.Run("pt-BR grouped counts keep every farmer", func(t *testing.T) {
		raw := &domain.RawTable{
			Header: config.DeclaredColumns,
			Rows: [][]string{
				{"Juiz de Fora", "3136702", "Juiz de Fora", "1.234", "0", "12.345", "1.000", "12.345", "1.234", "1.234"},
			},
		}
		r := Clean(raw).Records[0]
		assert.Equal(t, int64(1234), r.CAFIndividualActive)
		assert.Equal(t, int64(12345), r.WomenActive)
		assert.Equal(t, int64(1000), r.MenActive)
		assert.Equal(t, int64(12345), r.FamilyFarmers)
		assert.Equal(t, int64(1234), r.Operations)
		// credit is an amount, a lone dot stays a decimal mark
		assert.InDelta(t, 1.234, r.Credit, 1e-9)
	})

	t.Run("extra columns are preserved", func(t *testing.T) {
		assert.Equal(t, "Zona da Mata", findRecord(t, ds, "Ubá").Extras["Mesorregião"])
		assert.Equal(t, testutil.SampleHeader, ds.Columns)
	})
}

func TestClean_NonNegative(t *testing.T) {
	raw := &domain.RawTable{
		Header: config.DeclaredColumns,
		Rows: [][]string{
			{"Ubá", "3169901", "Ubá", "-3", "-1", "NaN", "Inf", "-10.4", "-2", "-1500.50"},
		},
	}
	r := Clean(raw).Records[0]

	assert.Equal(t, int64(0), r.CAFIndividualActive)
	assert.Equal(t, int64(0), r.CAFLegalEntityActive)
	assert.Equal(t, int64(0), r.WomenActive)
	assert.Equal(t, int64(0), r.MenActive)
	assert.Equal(t, int64(0), r.FamilyFarmers)
	assert.Equal(t, int64(0), r.Operations)
	assert.Equal(t, 0.0, r.Credit)
}

func TestClean_RoundsHalfAwayFromZero(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{config.ColMunicipality, config.ColFamilyFarmers, config.ColWomenActive},
		Rows:   [][]string{{"A", "2.5", "3.49"}},
	}
	r := Clean(raw).Records[0]
	assert.Equal(t, int64(3), r.FamilyFarmers)
	assert.Equal(t, int64(3), r.WomenActive)
}

func TestClean_AppendsMissingDeclaredColumns(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{config.ColMunicipality, config.ColImmediateRegion},
		Rows:   [][]string{{"Ubá", "Ubá"}},
	}
	ds := Clean(raw)

	assert.Len(t, ds.Columns, len(config.DeclaredColumns))
	assert.Equal(t, 0.0, ds.Records[0].Credit)
	assert.Nil(t, ds.Records[0].IBGECode)
}

func TestClean_Idempotent(t *testing.T) {
	once := sampleDataset()
	twice := Clean(ToRawTable(once))

	assert.Equal(t, once.Columns, twice.Columns)
	assert.Equal(t, once.Records, twice.Records)
}

func TestClean_CSVRoundTrip(t *testing.T) {
	ds := sampleDataset()
	table := ToRawTable(ds)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(table.Header))
	require.NoError(t, w.WriteAll(table.Rows))

	reread, err := ReadDelimited(&buf, ',')
	require.NoError(t, err)

	assert.Equal(t, ds.Records, Clean(reread).Records)
}

func TestCellText(t *testing.T) {
	r := findRecord(t, sampleDataset(), "Juiz de Fora")

	assert.Equal(t, "3136702", CellText(r, config.ColIBGECode))
	assert.Equal(t, "2500000.5", CellText(r, config.ColCredit))
	assert.Equal(t, "1500", CellText(r, config.ColFamilyFarmers))
	assert.Equal(t, "Zona da Mata", CellText(r, "Mesorregião"))
	assert.Equal(t, "", CellText(r, "coluna inexistente"))
}
