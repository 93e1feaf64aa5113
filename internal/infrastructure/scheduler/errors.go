package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJobKind is returned by the executor for kinds it cannot run
	ErrUnknownJobKind = errors.New("unknown job kind")

	// ErrInvalidSchedule is returned for a daily schedule it cannot parse
	ErrInvalidSchedule = errors.New("invalid daily schedule")
)
