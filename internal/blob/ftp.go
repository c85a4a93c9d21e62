package blob

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPConfig describes the FTP server and the HTTP base its files are served from
type FTPConfig struct {
	Host      string
	Port      string
	User      string
	Password  string
	PublicURL string
}

// FTPStore opens a connection per upload; uploads are rare and the server may
// drop idle sessions.
type FTPStore struct {
	cfg FTPConfig
}

func NewFTPStore(cfg FTPConfig) *FTPStore {
	return &FTPStore{cfg: cfg}
}

const ftpDialTimeout = 10 * time.Second

// ftpSession dials every control and data connection of one upload. Each
// connection inherits the context deadline, and abort closes them all so a
// stalled transfer returns as soon as the context is done.
type ftpSession struct {
	ctx   context.Context
	mu    sync.Mutex
	conns []net.Conn
}

func (fs *ftpSession) dial(network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: ftpDialTimeout}
	conn, err := dialer.DialContext(fs.ctx, network, address)
	if err != nil {
		return nil, err
	}
	if deadline, ok := fs.ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	// abort may already have run
	if err := fs.ctx.Err(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	fs.conns = append(fs.conns, conn)
	return conn, nil
}

func (fs *ftpSession) abort() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, conn := range fs.conns {
		_ = conn.Close()
	}
}

func (s *FTPStore) connect(session *ftpSession) (*ftp.ServerConn, error) {
	addr := s.cfg.Host + ":" + s.cfg.Port
	conn, err := ftp.Dial(addr, ftp.DialWithDialFunc(session.dial))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP: %w", err)
	}

	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("failed to login to FTP: %w", err)
	}

	return conn, nil
}

func (s *FTPStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	session := &ftpSession{ctx: ctx}
	done := make(chan error, 1)
	go func() {
		done <- s.store(session, objectPath, data)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		session.abort()
		<-done
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("failed to upload file: %w", ctxErr)
	}
	if err != nil {
		return "", err
	}

	return joinURL(s.cfg.PublicURL, objectPath), nil
}

func (s *FTPStore) store(session *ftpSession, objectPath string, data []byte) error {
	conn, err := s.connect(session)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if dir := path.Dir(objectPath); dir != "." && dir != "/" {
		s.makeDirs(conn, dir)
	}

	if err := conn.Stor(objectPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// makeDirs creates each segment of dir; errors for existing directories are ignored
func (s *FTPStore) makeDirs(conn *ftp.ServerConn, dir string) {
	current := ""
	for _, segment := range strings.Split(strings.Trim(dir, "/"), "/") {
		if current == "" {
			current = segment
		} else {
			current = current + "/" + segment
		}
		_ = conn.MakeDir(current)
	}
}
