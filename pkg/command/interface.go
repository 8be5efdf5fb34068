package command

// Command is an instruction sent to a worker about one of its jobs.
type Command string

const (
	// CANCEL tells the worker to stop the job so it can finalize normally.
	CANCEL Command = "cancel"

	// ABORT tells the worker to drop the job immediately; a replacement
	// has been scheduled.
	ABORT Command = "abort"
)

// Commander is the fleet command channel. Sends are fire-and-forget: the
// core never waits for a worker to acknowledge, and a missing worker at
// delivery time is tolerated.
type Commander interface {
	// Send dispatches a command about jobID to the given worker.
	Send(workerID int64, cmd Command, jobID int64) error

	// Register a handler for commands addressed to the given worker.
	// Used by the worker process, not the scheduler.
	Register(workerID int64, handler func(p *Payload) error) error

	// Run consumes registered worker queues until Close is called.
	Run() error

	// Close & shutdown the channel.
	Close() error
}
