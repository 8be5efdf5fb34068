package command

import (
	"log"
)

// Logger is a Commander that only logs. Used by the demo command and
// anywhere the fleet isn't reachable (there's nothing to notify).
type Logger struct{}

func NewLogger() *Logger { return &Logger{} }

func (l *Logger) Send(workerID int64, cmd Command, jobID int64) error {
	log.Println("[command]", cmd, "worker", workerID, "job", jobID)
	return nil
}

func (l *Logger) Register(workerID int64, handler func(p *Payload) error) error { return nil }

func (l *Logger) Run() error { return nil }

func (l *Logger) Close() error { return nil }
