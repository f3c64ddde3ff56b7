package arcgis

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// endpoints resolves the solver URLs from the portal's self resource. The
// result is cached for the life of the client; the helper service layout
// of a portal does not change while a deployment runs.
func (c *Client) endpoints(ctx context.Context) (serviceArea, allocation string, err error) {
	c.epMu.Lock()
	defer c.epMu.Unlock()
	if c.serviceAreaURL != "" && c.allocationURL != "" {
		return c.serviceAreaURL, c.allocationURL, nil
	}

	var resp portalSelfResponse
	if err := c.callGet(ctx, "portal_self", c.portalURL+"/sharing/rest/portals/self", url.Values{}, &resp); err != nil {
		return "", "", fmt.Errorf("failed to discover helper services: %w", err)
	}

	hs := resp.HelperServices
	if hs.ServiceArea.URL == "" {
		return "", "", fmt.Errorf("portal exposes no service area helper service")
	}
	if hs.AsyncLocationAllocation.URL == "" {
		return "", "", fmt.Errorf("portal exposes no location allocation helper service")
	}

	c.serviceAreaURL = strings.TrimRight(hs.ServiceArea.URL, "/")
	c.allocationURL = strings.TrimRight(hs.AsyncLocationAllocation.URL, "/")
	c.routeURL = strings.TrimRight(hs.Route.URL, "/")
	c.log.Info("helper services discovered",
		"service_area", c.serviceAreaURL,
		"allocation", c.allocationURL)
	return c.serviceAreaURL, c.allocationURL, nil
}

// travelModesURL derives the travel mode listing endpoint from the
// service area helper service. The listing lives on the service, one
// level above the solver layer.
func (c *Client) travelModesURL(ctx context.Context) (string, error) {
	saURL, _, err := c.endpoints(ctx)
	if err != nil {
		return "", err
	}
	if i := strings.LastIndex(saURL, "/"); i > 0 {
		return saURL[:i] + "/retrieveTravelModes", nil
	}
	return saURL + "/retrieveTravelModes", nil
}
