package usecases

// InternalError wraps a failure in local infrastructure (persistence,
// queue delivery) that occurs after the request itself validated, so
// transports can report a server fault instead of a bad request.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return e.Err.Error() }

func (e *InternalError) Unwrap() error { return e.Err }

func internalErr(err error) error {
	return &InternalError{Err: err}
}
