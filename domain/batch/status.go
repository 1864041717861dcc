package batch

// Status is the lifecycle state of a file job
type Status int

const (
	// StatusIdle jobs are waiting for a batch run
	StatusIdle Status = iota
	// StatusProcessing jobs are being decoded, trimmed and encoded
	StatusProcessing
	// StatusDone jobs hold their encoded output
	StatusDone
	// StatusError jobs hold the message of the step that failed
	StatusError
)

// String returns the lower-case status name
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProcessing:
		return "processing"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether a run is finished with the job (DONE or ERROR)
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}
