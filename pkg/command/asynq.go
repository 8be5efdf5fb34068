package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
)

const (
	cmdTaskType = "worker:command"
)

// Asynq delivers worker commands over redis using asynq. Every worker owns
// its own queue; the scheduler enqueues into it and forgets, the worker
// process consumes it.
type Asynq struct {
	opts *Options
	cli  *asynq.Client

	// set when Register is called, ie. we're a worker process
	lock     sync.Mutex
	mux      *asynq.ServeMux
	srv      *asynq.Server
	queues   map[string]int
	handlers map[string]func(p *Payload) error
}

// NewAsynqCommander returns a Commander backed by redis via asynq.
func NewAsynqCommander(opts *Options) (*Asynq, error) {
	cli := asynq.NewClient(asynq.RedisClientOpt{Addr: opts.URL, TLSConfig: opts.TLSConfig})
	return &Asynq{
		opts:     opts,
		cli:      cli,
		queues:   map[string]int{},
		handlers: map[string]func(p *Payload) error{},
	}, nil
}

func (a *Asynq) Close() error {
	if a.srv == nil {
		return nil
	}
	a.srv.Stop()
	a.srv.Shutdown()
	return nil
}

// Send enqueues one command into the worker's queue. Fire-and-forget; the
// caller only learns about enqueue failures, never about delivery.
func (a *Asynq) Send(workerID int64, cmd Command, jobID int64) error {
	data, err := (&Payload{Command: cmd, JobID: jobID}).Encode()
	if err != nil {
		return err
	}
	_, err = a.cli.Enqueue(asynq.NewTask(cmdTaskType, data), asynq.Queue(workerQueue(workerID)))
	return err
}

// Register subscribes a handler to commands addressed to the given worker.
func (a *Asynq) Register(workerID int64, handler func(p *Payload) error) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.mux == nil {
		a.mux = asynq.NewServeMux()
		a.mux.HandleFunc(cmdTaskType, func(ctx context.Context, t *asynq.Task) error {
			p, err := DecodePayload(t.Payload())
			if err != nil {
				return err
			}
			queue, _ := asynq.GetQueueName(ctx)
			a.lock.Lock()
			h, ok := a.handlers[queue]
			a.lock.Unlock()
			if !ok {
				return fmt.Errorf("no handler for queue %s", queue)
			}
			return h(p)
		})
	}
	a.queues[workerQueue(workerID)] = 1
	a.handlers[workerQueue(workerID)] = handler
	return nil
}

// Run consumes the registered worker queues until Close is called.
func (a *Asynq) Run() error {
	a.lock.Lock()
	if a.mux == nil {
		a.lock.Unlock()
		return fmt.Errorf("no workers registered")
	}
	a.srv = asynq.NewServer(
		asynq.RedisClientOpt{Addr: a.opts.URL, TLSConfig: a.opts.TLSConfig},
		asynq.Config{Queues: a.queues},
	)
	a.lock.Unlock()
	return a.srv.Run(a.mux)
}

func workerQueue(workerID int64) string {
	return fmt.Sprintf("worker:%d", workerID)
}
