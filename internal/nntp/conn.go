package nntp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/datallboy/newsreader/internal/infra/logger"
)

// DefaultService is used when an Endpoint names no port.
const DefaultService = "nntp"

// defaultPort backs the "nntp" service name on hosts without /etc/services.
const defaultPort = 119

const (
	lineTerminator = "\r\n"
	bodyTerminator = "." + lineTerminator
	quitCommand    = "quit"
)

// Endpoint is the server a session talks to.
type Endpoint struct {
	Host    string
	Service string // port number or service name
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, e.service())
}

func (e Endpoint) service() string {
	if e.Service == "" {
		return DefaultService
	}
	return e.Service
}

// Resolver turns an Endpoint into candidate addresses. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// DialFunc opens one TCP connection to a resolved address.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type options struct {
	resolver       Resolver
	dial           DialFunc
	connectTimeout time.Duration
	timeout        time.Duration
	unstuff        bool
	user           string
	pass           string
	log            *logger.Logger
}

// Option configures Dial.
type Option func(*options)

func WithResolver(r Resolver) Option { return func(o *options) { o.resolver = r } }

func WithDialFunc(d DialFunc) Option { return func(o *options) { o.dial = d } }

// WithConnectTimeout bounds each connect attempt. Zero means no limit.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// WithTimeout bounds every request/response exchange when the caller's
// context carries no deadline. Zero means no limit.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithDotUnstuffing reduces a leading ".." on body lines to ".".
func WithDotUnstuffing(on bool) Option { return func(o *options) { o.unstuff = on } }

// WithAuth sends AUTHINFO USER/PASS right after the greeting. An empty
// user skips authentication.
func WithAuth(user, pass string) Option {
	return func(o *options) { o.user, o.pass = user, pass }
}

func WithLogger(l *logger.Logger) Option { return func(o *options) { o.log = l } }

func buildOptions(opts []Option) options {
	o := options{
		resolver: net.DefaultResolver,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dial == nil {
		d := &net.Dialer{Timeout: o.connectTimeout}
		o.dial = d.DialContext
	}
	return o
}

// Conn owns one TCP connection and the raw line protocol on top of it.
type Conn struct {
	endpoint Endpoint
	addr     string
	raw      net.Conn
	text     *textproto.Conn
	timeout  time.Duration
	unstuff  bool
	log      *logger.Logger
	closed   bool
}

// Dial resolves ep, connects to the first candidate that accepts, and
// consumes the server greeting.
func Dial(ctx context.Context, ep Endpoint, opts ...Option) (*Conn, error) {
	o := buildOptions(opts)

	candidates, err := resolve(ctx, o.resolver, ep)
	if err != nil {
		return nil, err
	}

	var raw net.Conn
	var addr string
	var lastErr error
	for _, candidate := range candidates {
		raw, lastErr = o.dial(ctx, "tcp", candidate)
		if lastErr == nil {
			addr = candidate
			break
		}
		o.log.Debug("connect %s failed: %v", candidate, lastErr)
	}
	if raw == nil {
		return nil, &ConnectionError{Op: "dial", Addr: ep.String(),
			Err: fmt.Errorf("cannot connect to news server: %w", lastErr)}
	}

	c := &Conn{
		endpoint: ep,
		addr:     addr,
		raw:      raw,
		text:     textproto.NewConn(raw),
		timeout:  o.timeout,
		unstuff:  o.unstuff,
		log:      o.log,
	}

	stop := c.arm(ctx)
	err = c.handshake(o.user, o.pass)
	stop()
	if err != nil {
		c.Abort()
		return nil, err
	}

	return c, nil
}

// handshake consumes the greeting and logs in when a user is set.
func (c *Conn) handshake(user, pass string) error {
	// Servers greet unsolicited; nothing may be sent before it is read
	greeting, err := c.ReadLine()
	if err != nil {
		return err
	}
	c.log.Debug("connected to %s: %s", c.addr, greeting)

	if user == "" {
		return nil
	}

	code, err := c.command("authinfo user " + user)
	if err != nil {
		return err
	}
	switch code {
	case StatusAuthAccepted:
		return nil
	case StatusPasswordRequired:
	default:
		return statusError(c.addr, "authinfo user", code)
	}

	code, err = c.command("authinfo pass " + pass)
	if err != nil {
		return err
	}
	if code != StatusAuthAccepted {
		return statusError(c.addr, "authinfo pass", code)
	}
	c.log.Debug("authenticated to %s as %s", c.addr, user)
	return nil
}

// command sends line and parses the status of the one-line reply.
func (c *Conn) command(line string) (int, error) {
	if err := c.SendLine(line); err != nil {
		return StatusReadFailure, err
	}
	reply, err := c.ReadLine()
	if err != nil {
		return StatusReadFailure, err
	}
	return parseStatus(reply), nil
}

func resolve(ctx context.Context, r Resolver, ep Endpoint) ([]string, error) {
	if ep.Host == "" {
		return nil, &ConnectionError{Op: "resolve", Addr: ep.String(), Err: errors.New("host is required")}
	}

	port, err := lookupPort(ctx, r, ep.service())
	if err != nil {
		return nil, &ConnectionError{Op: "resolve", Addr: ep.String(), Err: err}
	}

	hosts, err := r.LookupHost(ctx, ep.Host)
	if err != nil {
		return nil, &ConnectionError{Op: "resolve", Addr: ep.String(), Err: err}
	}
	if len(hosts) == 0 {
		return nil, &ConnectionError{Op: "resolve", Addr: ep.String(), Err: errors.New("no addresses")}
	}

	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, net.JoinHostPort(h, strconv.Itoa(port)))
	}
	return out, nil
}

func lookupPort(ctx context.Context, r Resolver, service string) (int, error) {
	if n, err := strconv.Atoi(service); err == nil {
		if n <= 0 || n > 65535 {
			return 0, fmt.Errorf("invalid port %d", n)
		}
		return n, nil
	}
	port, err := r.LookupPort(ctx, "tcp", service)
	if err != nil {
		if service == DefaultService {
			return defaultPort, nil
		}
		return 0, err
	}
	return port, nil
}

// Endpoint is the server this connection was dialed for.
func (c *Conn) Endpoint() Endpoint { return c.endpoint }

// RemoteAddr is the candidate address that accepted the connection.
func (c *Conn) RemoteAddr() string { return c.addr }

// arm applies the exchange deadline and wires ctx cancellation to the
// socket. The returned func must be called when the exchange is done.
func (c *Conn) arm(ctx context.Context) func() {
	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	c.raw.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		c.raw.SetDeadline(time.Now())
	})
	return func() { stop() }
}

// SendLine writes text followed by CRLF. Text holding a line break is
// refused before anything reaches the socket.
func (c *Conn) SendLine(text string) error {
	if c.closed {
		return &ConnectionError{Op: "write", Addr: c.addr, Err: net.ErrClosed}
	}
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, text)
	}
	if err := c.text.PrintfLine("%s", text); err != nil {
		return &ConnectionError{Op: "write", Addr: c.addr, Err: err}
	}
	return nil
}

// ReadLine returns the next line without its terminator.
func (c *Conn) ReadLine() (string, error) {
	if c.closed {
		return "", &ConnectionError{Op: "read", Addr: c.addr, Err: net.ErrClosed}
	}
	line, err := c.text.ReadLine()
	if err != nil {
		return "", &ConnectionError{Op: "read", Addr: c.addr, Err: err}
	}
	return line, nil
}

// ReadBody reads a multi-line payload up to the "\r\n.\r\n" terminator
// and returns everything before the terminator line. Line endings and
// dot-stuffing are left untouched unless unstuffing is enabled.
func (c *Conn) ReadBody() (string, error) {
	if c.closed {
		return "", &ConnectionError{Op: "read", Addr: c.addr, Err: net.ErrClosed}
	}

	var b strings.Builder
	atLineStart := true // previous bytes ended with CRLF, or nothing read yet
	for {
		line, err := c.text.R.ReadString('\n')
		if err != nil {
			return "", &ConnectionError{Op: "read", Addr: c.addr, Err: err}
		}
		if atLineStart && line == bodyTerminator {
			return b.String(), nil
		}
		if c.unstuff && strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		b.WriteString(line)
		atLineStart = strings.HasSuffix(line, lineTerminator)
	}
}

// Abort releases the socket without quit. It is used once the stream can
// no longer be trusted to pair commands with replies.
func (c *Conn) Abort() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.raw.Close()
}

// Close sends quit when it can and always releases the socket.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	grace := c.timeout
	if grace <= 0 || grace > 5*time.Second {
		grace = 5 * time.Second
	}
	c.raw.SetDeadline(time.Now().Add(grace))
	if err := c.text.PrintfLine(quitCommand); err != nil {
		c.log.Debug("quit to %s failed: %v", c.addr, err)
	}

	return c.text.Close()
}
