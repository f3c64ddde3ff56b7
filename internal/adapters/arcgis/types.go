package arcgis

import (
	"encoding/json"
	"fmt"

	"github.com/ryanwparks/georeach/internal/core/domain"
)

// ServiceError is the error envelope the platform returns inside an
// HTTP 200 response body.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("gis service error %d: %s (%s)", e.Code, e.Message, e.Details[0])
	}
	return fmt.Sprintf("gis service error %d: %s", e.Code, e.Message)
}

// InvalidToken reports whether the error means the token was rejected
// and a refresh may fix it.
func (e *ServiceError) InvalidToken() bool {
	return e.Code == 498 || e.Code == 499
}

type errorEnvelope struct {
	Error *ServiceError `json:"error"`
}

type tokenResponse struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"` // unix milliseconds
	errorEnvelope
}

type helperService struct {
	URL string `json:"url"`
}

type portalSelfResponse struct {
	HelperServices struct {
		Route                   helperService `json:"route"`
		ServiceArea             helperService `json:"serviceArea"`
		AsyncLocationAllocation helperService `json:"asyncLocationAllocation"`
	} `json:"helperServices"`
	errorEnvelope
}

// naMessage is a diagnostic emitted by the synchronous network analyst
// endpoints.
type naMessage struct {
	Type        int    `json:"type"`
	Description string `json:"description"`
}

type solveServiceAreaResponse struct {
	SAPolygons domain.FeatureSet `json:"saPolygons"`
	Facilities domain.FeatureSet `json:"facilities"`
	Messages   []naMessage       `json:"messages,omitempty"`
	errorEnvelope
}

// gpMessage is a diagnostic attached to a geoprocessing job.
type gpMessage struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type submitJobResponse struct {
	JobID     string `json:"jobId"`
	JobStatus string `json:"jobStatus"`
	errorEnvelope
}

type jobStatusResponse struct {
	JobID     string      `json:"jobId"`
	JobStatus string      `json:"jobStatus"`
	Messages  []gpMessage `json:"messages,omitempty"`
	errorEnvelope
}

type jobResultResponse struct {
	ParamName string          `json:"paramName"`
	DataType  string          `json:"dataType"`
	Value     json.RawMessage `json:"value"`
	errorEnvelope
}

type cancelJobResponse struct {
	JobID     string `json:"jobId"`
	JobStatus string `json:"jobStatus"`
	errorEnvelope
}

type wireTravelMode struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Type                   string `json:"type"`
	Description            string `json:"description"`
	ImpedanceAttributeName string `json:"impedanceAttributeName"`
}

type travelModesResponse struct {
	SupportedTravelModes []wireTravelMode `json:"supportedTravelModes"`
	errorEnvelope
}

// Remote geoprocessing job states.
const (
	jobStateNew        = "esriJobNew"
	jobStateSubmitted  = "esriJobSubmitted"
	jobStateWaiting    = "esriJobWaiting"
	jobStateExecuting  = "esriJobExecuting"
	jobStateSucceeded  = "esriJobSucceeded"
	jobStateFailed     = "esriJobFailed"
	jobStateTimedOut   = "esriJobTimedOut"
	jobStateCancelling = "esriJobCancelling"
	jobStateCancelled  = "esriJobCancelled"
)

// mapJobStatus translates a remote job state to a local job status.
func mapJobStatus(remote string) string {
	switch remote {
	case jobStateNew, jobStateSubmitted, jobStateWaiting:
		return domain.JobSubmitted
	case jobStateExecuting:
		return domain.JobRunning
	case jobStateSucceeded:
		return domain.JobSucceeded
	case jobStateCancelling, jobStateCancelled:
		return domain.JobCancelled
	default:
		return domain.JobFailed
	}
}
