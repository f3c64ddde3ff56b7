package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// SolveServiceArea runs a synchronous service-area solve against the
// portal's service area endpoint and reshapes the response into break
// polygons plus the echoed facilities.
func (c *Client) SolveServiceArea(ctx context.Context, facilities domain.FeatureSet, params domain.ServiceAreaParams) (*domain.ServiceAreaResult, error) {
	saURL, _, err := c.endpoints(ctx)
	if err != nil {
		return nil, err
	}

	facJSON, err := json.Marshal(facilities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode facilities: %w", err)
	}

	breaks := make([]string, len(params.Breaks))
	for i, b := range params.Breaks {
		breaks[i] = strconv.FormatFloat(b, 'f', -1, 64)
	}

	form := url.Values{
		"facilities":       {string(facJSON)},
		"defaultBreaks":    {strings.Join(breaks, ",")},
		"travelDirection":  {params.TravelDirection},
		"returnFacilities": {"true"},
		"outSR":            {strconv.Itoa(domain.WGS84.WKID)},
	}
	if params.TravelMode != "" {
		form.Set("travelMode", params.TravelMode)
	}
	if params.DetailPolygons {
		form.Set("outputPolygons", "esriNAOutputPolygonDetailed")
	} else {
		form.Set("outputPolygons", "esriNAOutputPolygonSimplified")
	}
	if params.OverlapPolygons {
		form.Set("overlapPolygons", "true")
	} else {
		form.Set("overlapPolygons", "false")
	}

	var resp solveServiceAreaResponse
	if err := c.callForm(ctx, "solve_service_area", saURL+"/solveServiceArea", form, &resp); err != nil {
		return nil, err
	}

	result := &domain.ServiceAreaResult{
		Polygons:   resp.SAPolygons,
		Facilities: resp.Facilities,
	}
	for _, m := range resp.Messages {
		result.Messages = append(result.Messages, m.Description)
	}
	c.log.Info("service area solved",
		"facilities", facilities.Len(),
		"breaks", len(params.Breaks),
		"polygons", result.Polygons.Len())
	return result, nil
}
