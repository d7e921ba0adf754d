// Package api contains the request contracts of the dashboard JSON API.
// Version v1 represents the current stable API version.
package api

import (
	"net/url"
	"strconv"
	"strings"

	"pronafmonitor/pkg/contracts/domain"
)

// Query parameter names shared by every selection-aware endpoint.
const (
	ParamRegion       = "region"
	ParamMunicipality = "municipality"
	ParamFormat       = "format"
	ParamWidth        = "width"
	ParamHeight       = "height"
	ParamLon          = "lon"
	ParamLat          = "lat"
)

// SelectionRequest carries the filter state of a request.
type SelectionRequest struct {
	Region         string   `json:"region" query:"region" validate:"omitempty,max=120,placename"`
	Municipalities []string `json:"municipalities" query:"municipality" validate:"omitempty,max=1000,dive,min=1,max=120,placename"`
}

// Selection converts the request into a domain selection.
func (r SelectionRequest) Selection() domain.Selection {
	return domain.Selection{Region: r.Region, Municipalities: r.Municipalities}
}

// DashboardRequest asks for the render description of a selection.
type DashboardRequest struct {
	SelectionRequest
}

// ExportRequest asks for a download of the filtered table.
type ExportRequest struct {
	SelectionRequest
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}

// ChartRequest asks for a PNG rendering of one chart.
type ChartRequest struct {
	SelectionRequest
	Chart  string `json:"chart" param:"chart" validate:"required,oneof=concentration scatter gender"`
	Width  int    `json:"width" query:"width" validate:"omitempty,min=200,max=4000"`
	Height int    `json:"height" query:"height" validate:"omitempty,min=200,max=4000"`
}

// LocateRequest asks which municipality contains a point.
type LocateRequest struct {
	Lon float64 `json:"lon" query:"lon" validate:"gte=-180,lte=180"`
	Lat float64 `json:"lat" query:"lat" validate:"gte=-90,lte=90"`
}

// ClientLogRequest is an error or message reported by the browser page.
type ClientLogRequest struct {
	Level     string                 `json:"level" validate:"required,oneof=debug info warn error"`
	Message   string                 `json:"message" validate:"required,max=2000"`
	Category  string                 `json:"category" validate:"omitempty,max=64"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp string                 `json:"timestamp" validate:"omitempty,iso8601"`
	URL       string                 `json:"url" validate:"omitempty,max=2048"`
	UserAgent string                 `json:"user_agent" validate:"omitempty,max=512"`
}

// ParseSelection reads the selection parameters. Repeated municipality
// parameters and comma separated lists are both accepted.
func ParseSelection(q url.Values) SelectionRequest {
	req := SelectionRequest{Region: strings.TrimSpace(q.Get(ParamRegion))}
	for _, v := range q[ParamMunicipality] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Municipalities = append(req.Municipalities, name)
			}
		}
	}
	return req
}

// ParseLocate reads the coordinates of a locate request. ok is false when
// either coordinate is missing or not a number.
func ParseLocate(q url.Values) (req LocateRequest, ok bool) {
	lon, err := strconv.ParseFloat(q.Get(ParamLon), 64)
	if err != nil {
		return req, false
	}
	lat, err := strconv.ParseFloat(q.Get(ParamLat), 64)
	if err != nil {
		return req, false
	}
	return LocateRequest{Lon: lon, Lat: lat}, true
}
