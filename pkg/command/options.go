package command

import (
	"crypto/tls"
)

// Options are options for the command channel.
type Options struct {
	// URL encodes how we'll connect to the queue backend (redis).
	URL string

	// TLSConfig needed to connect to the queue (optional).
	TLSConfig *tls.Config
}
