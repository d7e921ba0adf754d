package dataprocessing

import (
	"pronafmonitor/pkg/contracts/domain"
)

// FilterByRegion keeps records whose immediate region equals region. The
// sentinel and the empty string select everything.
func FilterByRegion(ds *domain.Dataset, region string) *domain.Dataset {
	if region == "" || region == domain.AllRegions {
		return ds
	}
	out := make([]domain.Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if r.ImmediateRegion == region {
			out = append(out, r)
		}
	}
	return ds.WithRecords(out)
}

// FilterByMunicipalities keeps records whose municipality is in names. An
// empty list, or one containing the sentinel, selects everything.
func FilterByMunicipalities(ds *domain.Dataset, names []string) *domain.Dataset {
	sel := domain.Selection{Municipalities: names}
	if sel.AllMunicipalitiesSelected() {
		return ds
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	out := make([]domain.Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if _, ok := set[r.Municipality]; ok {
			out = append(out, r)
		}
	}
	return ds.WithRecords(out)
}

// ApplySelection runs the cascade: region first, then municipalities drawn
// from the region-filtered set. It also returns the municipality options
// offered for the chosen region.
func ApplySelection(ds *domain.Dataset, sel domain.Selection) (filtered *domain.Dataset, municipalityOptions []string) {
	byRegion := FilterByRegion(ds, sel.Region)
	return FilterByMunicipalities(byRegion, sel.Municipalities), byRegion.Municipalities()
}

// RegionOptions returns the sentinel followed by the sorted distinct regions.
func RegionOptions(ds *domain.Dataset) []string {
	return append([]string{domain.AllRegions}, ds.Regions()...)
}

// MunicipalityOptions returns the sentinel followed by the municipalities
// available once region has been applied.
func MunicipalityOptions(ds *domain.Dataset, region string) []string {
	return append([]string{domain.AllMunicipalities}, FilterByRegion(ds, region).Municipalities()...)
}
