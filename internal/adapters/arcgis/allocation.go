package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// gpTravelDirection translates the network analyst direction enum into
// the phrasing the geoprocessing service expects.
func gpTravelDirection(direction string) string {
	if direction == domain.TravelToFacility {
		return "Demand to Facility"
	}
	return "Facility to Demand"
}

// SubmitAllocationJob submits an asynchronous location-allocation job and
// returns the remote job id. The job runs on the platform; progress is
// observed through JobStatus.
func (c *Client) SubmitAllocationJob(ctx context.Context, facilities, demand domain.FeatureSet, params domain.AllocationParams) (string, error) {
	_, allocURL, err := c.endpoints(ctx)
	if err != nil {
		return "", err
	}

	facJSON, err := json.Marshal(facilities)
	if err != nil {
		return "", fmt.Errorf("failed to encode facilities: %w", err)
	}
	demJSON, err := json.Marshal(demand)
	if err != nil {
		return "", fmt.Errorf("failed to encode demand points: %w", err)
	}

	form := url.Values{
		"facilities":                   {string(facJSON)},
		"demand_points":                {string(demJSON)},
		"problem_type":                 {params.ProblemType},
		"number_of_facilities_to_find": {strconv.Itoa(params.FacilitiesToFind)},
		"measurement_units":            {params.MeasurementUnits},
		"travel_direction":             {gpTravelDirection(params.TravelDirection)},
	}
	if params.ImpedanceCutoff > 0 {
		form.Set("default_measurement_cutoff", strconv.FormatFloat(params.ImpedanceCutoff, 'f', -1, 64))
	}
	if params.TargetMarketShare > 0 {
		form.Set("target_market_share", strconv.FormatFloat(params.TargetMarketShare, 'f', -1, 64))
	}
	if params.TravelMode != "" {
		form.Set("travel_mode", params.TravelMode)
	}

	var resp submitJobResponse
	if err := c.callForm(ctx, "submit_allocation_job", allocURL+"/submitJob", form, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("submit returned no job id")
	}
	c.log.Info("allocation job submitted",
		"job_id", resp.JobID,
		"problem_type", params.ProblemType,
		"facilities", facilities.Len(),
		"demand_points", demand.Len())
	return resp.JobID, nil
}

// JobStatus reports the state of a submitted job mapped to a local job
// status, along with any solver messages.
func (c *Client) JobStatus(ctx context.Context, jobID string) (string, []string, error) {
	_, allocURL, err := c.endpoints(ctx)
	if err != nil {
		return "", nil, err
	}

	var resp jobStatusResponse
	if err := c.callGet(ctx, "job_status", allocURL+"/jobs/"+jobID, nil, &resp); err != nil {
		return "", nil, err
	}

	messages := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, m.Description)
	}
	return mapJobStatus(resp.JobStatus), messages, nil
}

// FetchAllocationResult retrieves the output parameters of a succeeded
// allocation job and reshapes them into a single result.
func (c *Client) FetchAllocationResult(ctx context.Context, jobID string) (*domain.AllocationResult, error) {
	_, allocURL, err := c.endpoints(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.AllocationResult{}
	if err := c.fetchResult(ctx, allocURL, jobID, "solve_succeeded", &result.SolveSucceeded); err != nil {
		return nil, err
	}

	outputs := []struct {
		param string
		dest  *domain.FeatureSet
	}{
		{"output_facilities", &result.Facilities},
		{"output_demand_points", &result.DemandPoints},
		{"output_allocation_lines", &result.AllocationLines},
	}
	for _, out := range outputs {
		if err := c.fetchResult(ctx, allocURL, jobID, out.param, out.dest); err != nil {
			return nil, err
		}
	}

	c.log.Info("allocation result fetched",
		"job_id", jobID,
		"solve_succeeded", result.SolveSucceeded,
		"chosen", len(result.ChosenFacilities()))
	return result, nil
}

func (c *Client) fetchResult(ctx context.Context, allocURL, jobID, param string, value any) error {
	var resp jobResultResponse
	endpoint := allocURL + "/jobs/" + jobID + "/results/" + param
	if err := c.callGet(ctx, "job_result", endpoint, nil, &resp); err != nil {
		return fmt.Errorf("failed to fetch result %s: %w", param, err)
	}
	if len(resp.Value) == 0 {
		return fmt.Errorf("result %s carried no value", param)
	}
	if err := json.Unmarshal(resp.Value, value); err != nil {
		return fmt.Errorf("failed to decode result %s: %w", param, err)
	}
	return nil
}

// CancelJob asks the platform to cancel a running job. Cancelling an
// already terminal job is not an error.
func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	_, allocURL, err := c.endpoints(ctx)
	if err != nil {
		return err
	}

	var resp cancelJobResponse
	if err := c.callGet(ctx, "cancel_job", allocURL+"/jobs/"+jobID+"/cancel", nil, &resp); err != nil {
		return err
	}
	c.log.Info("allocation job cancelled", "job_id", jobID, "remote_status", resp.JobStatus)
	return nil
}

// TravelModes lists the travel modes the routing service supports.
func (c *Client) TravelModes(ctx context.Context) ([]domain.TravelMode, error) {
	endpoint, err := c.travelModesURL(ctx)
	if err != nil {
		return nil, err
	}

	var resp travelModesResponse
	if err := c.callGet(ctx, "travel_modes", endpoint, nil, &resp); err != nil {
		return nil, err
	}

	modes := make([]domain.TravelMode, 0, len(resp.SupportedTravelModes))
	for _, m := range resp.SupportedTravelModes {
		modes = append(modes, domain.TravelMode{
			ID:                 m.ID,
			Name:               m.Name,
			Type:               m.Type,
			Description:        m.Description,
			ImpedanceAttribute: m.ImpedanceAttributeName,
		})
	}
	return modes, nil
}
