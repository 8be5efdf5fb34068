package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadRoundTrip(t *testing.T) {
	in := &Payload{Command: CANCEL, JobID: 7}

	data, err := in.Encode()
	assert.Nil(t, err)

	out, err := DecodePayload(data)

	assert.Nil(t, err)
	assert.Equal(t, in, out)
}

func TestDecodePayloadRejectsUnknownCommand(t *testing.T) {
	cases := []struct {
		Name  string
		Given []byte
	}{
		{"UnknownCommand", []byte(`{"command":"explode","job_id":1}`)},
		{"EmptyCommand", []byte(`{"job_id":1}`)},
		{"BadJson", []byte(`{`)},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			out, err := DecodePayload(c.Given)

			assert.NotNil(t, err)
			assert.Nil(t, out)
		})
	}
}
