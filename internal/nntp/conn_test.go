package nntp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/datallboy/newsreader/internal/domain"
	"github.com/datallboy/newsreader/internal/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeConn returns a Conn whose peer writes payload and then hangs up.
func pipeConn(t *testing.T, payload string, unstuff bool) *Conn {
	t.Helper()
	client, server := net.Pipe()
	go func() {
		server.Write([]byte(payload))
		server.Close()
	}()
	t.Cleanup(func() { client.Close() })

	return &Conn{
		addr:    "pipe",
		raw:     client,
		text:    textproto.NewConn(client),
		unstuff: unstuff,
		log:     logger.Nop(),
	}
}

func TestReadBody(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		unstuff bool
		want    string
	}{
		{"strips terminator", "line1\r\nline2\r\n.\r\n", false, "line1\r\nline2\r\n"},
		{"empty body", ".\r\n", false, ""},
		{"keeps dot stuffing", "..hidden\r\n.\r\n", false, "..hidden\r\n"},
		{"unstuffs when asked", "..hidden\r\n.\r\n", true, ".hidden\r\n"},
		{"bare LF is not a terminator boundary", "a\n.\r\nb\r\n.\r\n", false, "a\n.\r\nb\r\n"},
		{"dot with text is content", ".x\r\n.\r\n", false, ".x\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := pipeConn(t, tt.payload, tt.unstuff)
			got, err := c.ReadBody()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBodyUnterminated(t *testing.T) {
	c := pipeConn(t, "line1\r\nline2\r\n", false)

	_, err := c.ReadBody()

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "read", ce.Op)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLineStripsTerminator(t *testing.T) {
	c := pipeConn(t, "211 5 1 5 alt.test\r\n", false)

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "211 5 1 5 alt.test", line)
}

type stubResolver struct {
	hosts   []string
	port    int
	portErr error
}

func (r stubResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return r.hosts, nil
}

func (r stubResolver) LookupPort(ctx context.Context, network, service string) (int, error) {
	return r.port, r.portErr
}

func TestResolveServiceNames(t *testing.T) {
	ctx := context.Background()

	got, err := resolve(ctx, stubResolver{hosts: []string{"192.0.2.1", "2001:db8::1"}, portErr: errors.New("unknown service")}, Endpoint{Host: "news"})
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:119", "[2001:db8::1]:119"}, got)

	got, err = resolve(ctx, stubResolver{hosts: []string{"192.0.2.1"}, port: 433}, Endpoint{Host: "news", Service: "nnsp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:433"}, got)

	got, err = resolve(ctx, stubResolver{hosts: []string{"192.0.2.1"}}, Endpoint{Host: "news", Service: "1119"})
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:1119"}, got)

	_, err = resolve(ctx, stubResolver{hosts: []string{"192.0.2.1"}, portErr: errors.New("unknown service")}, Endpoint{Host: "news", Service: "bogus"})
	assert.Error(t, err)

	_, err = resolve(ctx, stubResolver{}, Endpoint{Host: "news", Service: "119"})
	assert.Error(t, err)

	_, err = resolve(ctx, stubResolver{hosts: []string{"192.0.2.1"}}, Endpoint{})
	assert.Error(t, err)
}

func TestDialTriesEachCandidate(t *testing.T) {
	s := startFakeServer(t, scripted(nil))
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	portNum, _ := strconv.Atoi(port)

	var attempts []string
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		attempts = append(attempts, address)
		if strings.HasPrefix(address, "192.0.2.") {
			return nil, errors.New("connection refused")
		}
		var d net.Dialer
		return d.DialContext(ctx, network, address)
	}

	c, err := Dial(context.Background(), Endpoint{Host: "news.example"},
		WithResolver(stubResolver{hosts: []string{"192.0.2.1", "192.0.2.2", "127.0.0.1"}, port: portNum}),
		WithDialFunc(dial))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"192.0.2.1:" + port, "192.0.2.2:" + port, "127.0.0.1:" + port}, attempts)
	assert.Equal(t, "127.0.0.1:"+port, c.RemoteAddr())
}

func TestDialAllCandidatesFail(t *testing.T) {
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	_, err := Dial(context.Background(), Endpoint{Host: "news.example", Service: "119"},
		WithResolver(stubResolver{hosts: []string{"192.0.2.1", "192.0.2.2"}}),
		WithDialFunc(dial))

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "dial", ce.Op)
	assert.Contains(t, err.Error(), "cannot connect to news server")
}

func TestDialConsumesGreeting(t *testing.T) {
	s := startFakeServer(t, scripted(map[string]string{
		"group alt.test": "211 3 1 3 alt.test\r\n",
	}))

	c := connectFake(t, s)

	code, err := c.Execute(context.Background(), "group alt.test", true)
	require.NoError(t, err)
	assert.Equal(t, 211, code)
}

func TestDialGreetingTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// never greet
		time.Sleep(time.Second)
		conn.Close()
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	_, err = Dial(context.Background(), Endpoint{Host: host, Service: port}, WithTimeout(50*time.Millisecond))

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "read", ce.Op)
}

func TestCloseSendsQuit(t *testing.T) {
	s := startFakeServer(t, scripted(nil))

	c, err := Dial(context.Background(), s.endpoint())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "second close is a no-op")
	s.waitFor(t, "quit")

	assert.Equal(t, []string{"quit"}, s.Commands())

	_, err = c.ReadLine()
	assert.ErrorIs(t, err, net.ErrClosed)
	assert.ErrorIs(t, c.SendLine("next"), net.ErrClosed)
}

func TestDialAuthenticates(t *testing.T) {
	s := startFakeServer(t, scripted(map[string]string{
		"authinfo user reader": "381 password required\r\n",
		"authinfo pass s3cret": "281 authentication accepted\r\n",
	}))

	c, err := Dial(context.Background(), s.endpoint(), WithAuth("reader", "s3cret"))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"authinfo user reader", "authinfo pass s3cret"}, s.Commands())
}

func TestDialAuthUserOnly(t *testing.T) {
	s := startFakeServer(t, scripted(map[string]string{
		"authinfo user reader": "281 authentication accepted\r\n",
	}))

	c, err := Dial(context.Background(), s.endpoint(), WithAuth("reader", ""))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"authinfo user reader"}, s.Commands())
}

func TestDialAuthRejected(t *testing.T) {
	s := startFakeServer(t, scripted(map[string]string{
		"authinfo user reader": "381 password required\r\n",
		"authinfo pass wrong":  "481 authentication failed\r\n",
	}))

	_, err := Dial(context.Background(), s.endpoint(), WithAuth("reader", "wrong"))
	assert.ErrorIs(t, err, domain.ErrAuthRejected)
	assert.Equal(t, 481, StatusCode(err))
	assert.NotContains(t, err.Error(), "wrong", "password stays out of errors")
}

func TestDialWithoutAuthSendsNothing(t *testing.T) {
	s := startFakeServer(t, scripted(nil))

	c, err := Dial(context.Background(), s.endpoint(), WithAuth("", "ignored"))
	require.NoError(t, err)
	require.NoError(t, c.Close())
	s.waitFor(t, "quit")

	assert.Equal(t, []string{"quit"}, s.Commands())
}
