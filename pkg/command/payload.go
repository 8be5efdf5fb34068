package command

import (
	"encoding/json"
	"fmt"
)

// Payload is the wire form of one worker command.
type Payload struct {
	Command Command `json:"command"`
	JobID   int64   `json:"job_id"`
}

// Encode serialises the payload for the queue.
func (p *Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses a queued command.
func DecodePayload(data []byte) (*Payload, error) {
	p := &Payload{}
	err := json.Unmarshal(data, p)
	if err != nil {
		return nil, err
	}
	if p.Command != CANCEL && p.Command != ABORT {
		return nil, fmt.Errorf("unknown command %q", p.Command)
	}
	return p, nil
}
