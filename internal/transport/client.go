package transport

import (
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
)

const oneShotDialTimeout = 2 * time.Second

// Client opens one TCP connection and serves one caller; it is not
// safe for concurrent use, matching the teacher's one-connection
// client helpers (services/kafka's per-topic *kafka.Writer has the
// same single-owner shape).
type Client struct {
	conn net.Conn
}

// NewClient dials address and returns a Client, or the dial error.
func NewClient(address string) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// MustNewClient dials address and panics on failure. This is the
// externally specified Client Helper contract (spec §4.5: "Connection
// errors panic") for interactive tooling such as the console client,
// mirrored on the teacher's own uuid.Must convention.
func MustNewClient(address string) *Client {
	c, err := NewClient(address)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultConsumerID generates an opaque consumer id for callers that
// do not supply one of their own.
func DefaultConsumerID() string {
	return uuid.New().String()
}

// SendMessage writes the encoded request, flushes it, reads up to
// 1024 bytes of response, and decodes it into a response list. A
// write failure panics (it is a connection error); a read failure
// returns a single Empty rather than panicking, since the wire
// contract treats the connection closing mid-read as "no more
// responses" rather than a fatal client error.
//
// The whole fixed-size buffer is handed to the decoder, not just the
// bytes actually read: a fresh buffer is zero-filled, so any unwritten
// tail naturally decodes as a trailing Empty (tag 0) terminator
// instead of silently dropping it.
func (c *Client) SendMessage(m protocol.ActionMessage) []protocol.ResponseMessage {
	if _, err := c.conn.Write(protocol.EncodeAction(m)); err != nil {
		panic(err)
	}

	buf := make([]byte, 1024)
	if _, err := c.conn.Read(buf); err != nil {
		return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
	}

	responses, err := protocol.DecodeResponses(buf)
	if err != nil {
		return []protocol.ResponseMessage{protocol.NewEmptyResponse()}
	}
	return responses
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SendOneShot dials address, writes each message in order ignoring any
// response, and closes the connection. It never panics: dial or write
// failures are returned to the caller so that peer unreachability can
// be swallowed and treated as silence, per spec §7's failure-detector
// propagation policy, instead of aborting the calling goroutine.
func SendOneShot(address string, messages ...protocol.ActionMessage) error {
	conn, err := net.DialTimeout("tcp", address, oneShotDialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, m := range messages {
		if _, err := conn.Write(protocol.EncodeAction(m)); err != nil {
			return err
		}
	}
	return nil
}
