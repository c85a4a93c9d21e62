package blob

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFTPServer speaks just enough FTP for Dial, Login, MakeDir and Stor.
// With stall set it accepts the upload but never confirms it.
type fakeFTPServer struct {
	ln    net.Listener
	stall bool

	mu     sync.Mutex
	dirs   []string
	stored map[string][]byte
}

func newFakeFTPServer(t *testing.T, stall bool) *fakeFTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeFTPServer{ln: ln, stall: stall, stored: map[string][]byte{}}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *fakeFTPServer) port() string {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	return port
}

func (s *fakeFTPServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeFTPServer) handle(conn net.Conn) {
	defer conn.Close()
	reply := func(line string) { _, _ = fmt.Fprintf(conn, "%s\r\n", line) }

	reply("220 ready")
	var data net.Listener
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch strings.ToUpper(cmd) {
		case "USER":
			reply("230 logged in")
		case "TYPE":
			reply("200 binary")
		case "MKD":
			s.mu.Lock()
			s.dirs = append(s.dirs, arg)
			s.mu.Unlock()
			reply("257 created")
		case "EPSV":
			data, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				reply("425 no data connection")
				continue
			}
			_, port, _ := net.SplitHostPort(data.Addr().String())
			reply("229 Entering Extended Passive Mode (|||" + port + "|)")
		case "STOR":
			reply("150 opening data connection")
			dc, err := data.Accept()
			_ = data.Close()
			if err != nil {
				return
			}
			body, _ := io.ReadAll(dc)
			_ = dc.Close()
			if s.stall {
				_, _ = io.Copy(io.Discard, r)
				return
			}
			s.mu.Lock()
			s.stored[arg] = body
			s.mu.Unlock()
			reply("226 transfer complete")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("502 not implemented")
		}
	}
}

func TestFTPStore_Upload(t *testing.T) {
	server := newFakeFTPServer(t, false)
	store := NewFTPStore(FTPConfig{Host: "127.0.0.1", Port: server.port(), User: "civic", Password: "pw", PublicURL: "http://files.example/"})
	data := bytes.Repeat([]byte{7}, 2048)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url, err := store.Upload(ctx, "issues/2024/a.png", data, "image/png")

	require.NoError(t, err)
	assert.Equal(t, "http://files.example/issues/2024/a.png", url)
	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Equal(t, []string{"issues", "issues/2024"}, server.dirs)
	assert.Equal(t, data, server.stored["issues/2024/a.png"])
}

func TestFTPStore_StalledUploadHonoursDeadline(t *testing.T) {
	server := newFakeFTPServer(t, true)
	store := NewFTPStore(FTPConfig{Host: "127.0.0.1", Port: server.port(), PublicURL: "http://files.example"})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	url, err := store.Upload(ctx, "issues/a.png", []byte("payload"), "image/png")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, url)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFTPStore_StalledUploadHonoursCancel(t *testing.T) {
	server := newFakeFTPServer(t, true)
	store := NewFTPStore(FTPConfig{Host: "127.0.0.1", Port: server.port(), PublicURL: "http://files.example"})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)
	start := time.Now()
	_, err := store.Upload(ctx, "issues/a.png", []byte("payload"), "image/png")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
