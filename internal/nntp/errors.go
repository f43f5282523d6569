package nntp

import (
	"errors"
	"fmt"

	"github.com/datallboy/newsreader/internal/domain"
)

// ErrMalformedStatus means a status line did not start with a number.
var ErrMalformedStatus = errors.New("malformed status line")

// ErrInvalidCommand means a command would have spanned more than one line.
var ErrInvalidCommand = errors.New("command contains a line break")

// ProtocolError is a status code the server answered instead of success.
type ProtocolError struct {
	Code    int
	Text    string
	Command string
}

func (e *ProtocolError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("nntp %d: %s", e.Code, e.Text)
	}
	return fmt.Sprintf("nntp %q: %d %s", e.Command, e.Code, e.Text)
}

// Kind is the classification of the carried code.
func (e *ProtocolError) Kind() Kind { return Classify(e.Code) }

// Is lets callers test for status-backed conditions with errors.Is.
func (e *ProtocolError) Is(target error) bool {
	return sentinelFor(e.Code) == target && target != nil
}

func sentinelFor(code int) error {
	switch code {
	case StatusNoSuchGroup:
		return domain.ErrNoSuchGroup
	case StatusNoGroupSelected:
		return domain.ErrNoGroupSelected
	case StatusNoArticleSelected:
		return domain.ErrNoArticleSelected
	case StatusNoNextArticle:
		return domain.ErrNoNextArticle
	case StatusNoPreviousArticle:
		return domain.ErrNoPreviousArticle
	case StatusNoSuchArticleNum:
		return domain.ErrNoSuchArticleNumber
	case StatusNoSuchArticle:
		return domain.ErrArticleNotFound
	case StatusAuthRejected:
		return domain.ErrAuthRejected
	}
	return nil
}

// ConnectionError is a failure below the protocol: resolving, dialing,
// or reading and writing the socket.
type ConnectionError struct {
	Op   string // "resolve", "dial", "read", "write", "status"
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("nntp %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// statusError builds the error for a non-positive code.
func statusError(addr, command string, code int) error {
	if Classify(code) == KindConnection {
		return &ConnectionError{Op: "status", Addr: addr, Err: ErrMalformedStatus}
	}
	return &ProtocolError{Code: code, Text: StatusText(code), Command: command}
}

// StatusCode extracts the status code carried by err, or -1.
func StatusCode(err error) int {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.Code
	}
	var ce *ConnectionError
	if errors.As(err, &ce) && errors.Is(ce.Err, ErrMalformedStatus) {
		return StatusReadFailure
	}
	return -1
}
