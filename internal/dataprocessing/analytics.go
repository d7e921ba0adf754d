package dataprocessing

import (
	"pronafmonitor/internal/config"
	"pronafmonitor/pkg/contracts/domain"
)

// KPI keys
const (
	KPIKeyFamilyFarmers  = "family_farmers"
	KPIKeyCredit         = "credit"
	KPIKeyWomen          = "women_active"
	KPIKeyMunicipalities = "municipalities"
)

// ComputeKPIs sums the headline indicators over ds. Municipalities counts
// distinct non-blank names.
func ComputeKPIs(ds *domain.Dataset) domain.KPISet {
	var k domain.KPISet
	names := make(map[string]struct{}, len(ds.Records))
	for _, r := range ds.Records {
		k.FamilyFarmers += r.FamilyFarmers
		k.Credit += r.Credit
		k.WomenActive += r.WomenActive
		if r.Municipality != "" {
			names[r.Municipality] = struct{}{}
		}
	}
	k.Municipalities = len(names)
	return k
}

// KPITiles formats a KPI set into the four dashboard tiles, in display order.
func KPITiles(k domain.KPISet) []domain.KPI {
	return []domain.KPI{
		{Key: KPIKeyFamilyFarmers, Label: config.KPIFamilyFarmersLabel, Value: FormatInt(k.FamilyFarmers), Raw: float64(k.FamilyFarmers)},
		{Key: KPIKeyCredit, Label: config.KPICreditLabel, Value: FormatBRL(k.Credit), Raw: k.Credit},
		{Key: KPIKeyWomen, Label: config.KPIWomenLabel, Value: FormatInt(k.WomenActive), Raw: float64(k.WomenActive)},
		{Key: KPIKeyMunicipalities, Label: config.KPIMunicipalityLabel, Value: FormatInt(int64(k.Municipalities)), Raw: float64(k.Municipalities)},
	}
}

// GenderTotals sums active registrations by gender.
func GenderTotals(ds *domain.Dataset) (women, men int64) {
	for _, r := range ds.Records {
		women += r.WomenActive
		men += r.MenActive
	}
	return women, men
}

// BuildTable returns the filtered dataset as text rows in source column order.
func BuildTable(ds *domain.Dataset) *domain.TableView {
	raw := ToRawTable(ds)
	return &domain.TableView{Columns: raw.Header, Rows: raw.Rows}
}
