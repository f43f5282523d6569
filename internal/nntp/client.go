package nntp

import (
	"context"
	"errors"
	"strconv"

	"github.com/datallboy/newsreader/internal/domain"
	"github.com/datallboy/newsreader/internal/infra/logger"
	"github.com/segmentio/ksuid"
)

// Client is one NNTP reader session. It owns its connection exclusively
// and is not safe for concurrent use; open one Client per goroutine.
type Client struct {
	id     string
	server Endpoint
	conn   *Conn
	log    *logger.Logger
	group  string
}

var _ domain.Reader = (*Client)(nil)

// Connect dials ep and returns a ready session. The caller must Close it.
func Connect(ctx context.Context, ep Endpoint, opts ...Option) (*Client, error) {
	id := ksuid.New().String()

	o := buildOptions(opts)
	log := o.log.With(id)
	opts = append(opts[:len(opts):len(opts)], WithLogger(log))

	conn, err := Dial(ctx, ep, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{id: id, server: ep, conn: conn, log: log}, nil
}

// ID is the ksuid tagging this session's log lines.
func (c *Client) ID() string { return c.id }

// Server is the endpoint the session was opened against.
func (c *Client) Server() Endpoint { return c.server }

// Group is the last group the server confirmed as selected, or "".
func (c *Client) Group() string { return c.group }

// Close ends the session with quit and releases the socket.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.log.Debug("session closed")
	return err
}

// Execute sends command and returns the status code of the reply. With
// enforce set, a non-positive code is returned as an error.
func (c *Client) Execute(ctx context.Context, command string, enforce bool) (int, error) {
	if c.conn == nil {
		return StatusReadFailure, domain.ErrSessionClosed
	}

	stop := c.conn.arm(ctx)
	defer stop()

	code, err := c.roundTrip(command)
	if err != nil {
		return code, c.broken(err)
	}
	if enforce && !Positive(code) {
		return code, statusError(c.conn.RemoteAddr(), command, code)
	}
	return code, nil
}

// ExecuteBody runs an enforced Execute and returns the multi-line payload
// that follows the status line.
func (c *Client) ExecuteBody(ctx context.Context, command string) (string, error) {
	if c.conn == nil {
		return "", domain.ErrSessionClosed
	}

	stop := c.conn.arm(ctx)
	defer stop()

	code, err := c.roundTrip(command)
	if err != nil {
		return "", c.broken(err)
	}
	if !Positive(code) {
		return "", statusError(c.conn.RemoteAddr(), command, code)
	}

	body, err := c.conn.ReadBody()
	if err != nil {
		return "", c.broken(err)
	}
	c.log.Debug("%s: %d bytes", command, len(body))
	return body, nil
}

// broken drops the connection after an I/O failure mid-exchange, since a
// late reply would otherwise be read as the answer to the next command.
// Later calls see ErrSessionClosed.
func (c *Client) broken(err error) error {
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		return err
	}
	c.log.Warn("dropping session to %s: %v", c.conn.RemoteAddr(), err)
	c.conn.Abort()
	c.conn = nil
	c.group = ""
	return err
}

func (c *Client) roundTrip(command string) (int, error) {
	if err := c.conn.SendLine(command); err != nil {
		return StatusReadFailure, err
	}
	line, err := c.conn.ReadLine()
	if err != nil {
		return StatusReadFailure, err
	}
	code := parseStatus(line)
	c.log.Debug("> %s < %d", command, code)
	return code, nil
}

// parseStatus reads the leading three digits of a status line; anything
// else is 0.
func parseStatus(line string) int {
	if len(line) < 3 {
		return StatusReadFailure
	}
	for i := 0; i < 3; i++ {
		if line[i] < '0' || line[i] > '9' {
			return StatusReadFailure
		}
	}
	code, _ := strconv.Atoi(line[:3])
	return code
}
