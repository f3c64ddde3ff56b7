package domain

import (
	"time"
)

// Facility is a stored candidate site used as solver input.
type Facility struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Category  string         `json:"category,omitempty"`
	Location  GeoPoint       `json:"location"`
	Capacity  float64        `json:"capacity,omitempty"`
	Required  bool           `json:"required"` // always part of the chosen set
	Metadata  map[string]any `json:"metadata,omitempty"`
	Distance  *float64       `json:"distance,omitempty"` // computed field
	CreatedAt time.Time      `json:"created_at"`
}

// DemandPoint is a stored consumer location used as solver input.
type DemandPoint struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Location  GeoPoint       `json:"location"`
	Weight    float64        `json:"weight"` // e.g. population, sales volume
	GroupName string         `json:"group_name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Analysis kinds.
const (
	AnalysisServiceArea = "service_area"
	AnalysisAllocation  = "location_allocation"
)

// Analysis is a persisted solve run: the parameters that were sent and the
// reshaped result that came back.
type Analysis struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Params    map[string]any `json:"params"`
	Result    map[string]any `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Solve job statuses.
const (
	JobQueued    = "queued"
	JobSubmitted = "submitted"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// SolveJob tracks the lifecycle of an asynchronous solve against the
// remote service.
type SolveJob struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"` // analysis kind
	Status      string         `json:"status"`
	RemoteJobID string         `json:"remote_job_id,omitempty"`
	AnalysisID  string         `json:"analysis_id,omitempty"` // set once results are persisted
	Params      map[string]any `json:"params"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j *SolveJob) Terminal() bool {
	switch j.Status {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}

// JobEvent is published on every job status transition.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// TravelMode describes one travel mode offered by the routing service.
type TravelMode struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Description        string `json:"description,omitempty"`
	ImpedanceAttribute string `json:"impedance_attribute,omitempty"`
}
