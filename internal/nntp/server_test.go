package nntp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeServer speaks just enough NNTP for the client tests: it greets,
// records every command and answers with whatever respond returns.
type fakeServer struct {
	ln       net.Listener
	greeting string
	respond  func(cmd string) string

	mu       sync.Mutex
	commands []string
	wg       sync.WaitGroup
}

func startFakeServer(t *testing.T, respond func(cmd string) string) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, greeting: "200 fake news server ready\r\n", respond: respond}
	s.wg.Add(1)
	go s.accept()

	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

// scripted answers from a fixed table; unknown commands get 500.
func scripted(script map[string]string) func(string) string {
	return func(cmd string) string {
		if resp, ok := script[cmd]; ok {
			return resp
		}
		return "500 command not recognized\r\n"
	}
}

func (s *fakeServer) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *fakeServer) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Write([]byte(s.greeting)); err != nil {
		return
	}

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()

		if cmd == quitCommand {
			conn.Write([]byte("205 closing connection\r\n"))
			return
		}
		if _, err := conn.Write([]byte(s.respond(cmd))); err != nil {
			return
		}
	}
}

func (s *fakeServer) endpoint() Endpoint {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	return Endpoint{Host: host, Service: port}
}

func (s *fakeServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *fakeServer) waitFor(t *testing.T, cmd string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, c := range s.Commands() {
			if c == cmd {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "server never received %q", cmd)
}

func connectFake(t *testing.T, s *fakeServer, opts ...Option) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := Connect(ctx, s.endpoint(), append([]Option{WithTimeout(2 * time.Second)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}
