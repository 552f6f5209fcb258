package brotherql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// BackendKind names a transport to the printer.
type BackendKind string

const (
	BackendNetwork     BackendKind = "network"
	BackendLinuxKernel BackendKind = "linux_kernel"
	BackendUSB         BackendKind = "usb"
)

const defaultNetworkPort = "9100"

// ErrUnsupportedBackend is returned for transports this build cannot drive.
var ErrUnsupportedBackend = errors.New("unsupported printer backend")

// Backend writes a finished raster stream to a printer.
type Backend interface {
	Write(ctx context.Context, data []byte) error
	Close() error
}

// GuessBackend derives the transport from a printer identifier such as
// tcp://192.168.0.23:9100 or file:///dev/usb/lp0.
func GuessBackend(identifier string) (BackendKind, error) {
	switch {
	case strings.HasPrefix(identifier, "usb://"), strings.HasPrefix(identifier, "0x"):
		return BackendUSB, nil
	case strings.HasPrefix(identifier, "file://"), strings.HasPrefix(identifier, "/dev/usb/"), strings.HasPrefix(identifier, "lp"):
		return BackendLinuxKernel, nil
	case strings.HasPrefix(identifier, "tcp://"):
		return BackendNetwork, nil
	default:
		return "", fmt.Errorf("cannot guess backend for printer identifier %q", identifier)
	}
}

// NewBackend opens a backend of the given kind. Connections are made lazily
// on the first Write.
func NewBackend(kind BackendKind, identifier string) (Backend, error) {
	switch kind {
	case BackendNetwork:
		addr, err := networkAddress(identifier)
		if err != nil {
			return nil, err
		}
		return &networkBackend{addr: addr, dialer: net.Dialer{Timeout: 5 * time.Second}}, nil
	case BackendLinuxKernel:
		return &fileBackend{path: devicePath(identifier)}, nil
	case BackendUSB:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, kind)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, kind)
	}
}

// Open guesses the backend for identifier and creates it.
func Open(identifier string) (Backend, error) {
	kind, err := GuessBackend(identifier)
	if err != nil {
		return nil, err
	}
	return NewBackend(kind, identifier)
}

func networkAddress(identifier string) (string, error) {
	hostPort := strings.TrimPrefix(identifier, "tcp://")
	hostPort = strings.TrimSuffix(hostPort, "/")
	if hostPort == "" {
		return "", fmt.Errorf("empty network printer address in %q", identifier)
	}
	if _, _, err := net.SplitHostPort(hostPort); err != nil {
		return net.JoinHostPort(strings.Trim(hostPort, "[]"), defaultNetworkPort), nil
	}
	return hostPort, nil
}

func devicePath(identifier string) string {
	if p := strings.TrimPrefix(identifier, "file://"); p != identifier {
		return p
	}
	if strings.HasPrefix(identifier, "lp") {
		return "/dev/usb/" + identifier
	}
	return identifier
}

type networkBackend struct {
	addr   string
	dialer net.Dialer
	conn   net.Conn
}

func (b *networkBackend) Write(ctx context.Context, data []byte) error {
	if b.conn == nil {
		conn, err := b.dialer.DialContext(ctx, "tcp", b.addr)
		if err != nil {
			return fmt.Errorf("connect to printer %s: %w", b.addr, err)
		}
		b.conn = conn
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.conn.SetWriteDeadline(deadline)
	}
	if _, err := b.conn.Write(data); err != nil {
		return fmt.Errorf("write to printer %s: %w", b.addr, err)
	}
	return nil
}

func (b *networkBackend) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

type fileBackend struct {
	path string
	f    *os.File
}

func (b *fileBackend) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.f == nil {
		f, err := os.OpenFile(b.path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open printer device: %w", err)
		}
		b.f = f
	}
	if _, err := b.f.Write(data); err != nil {
		return fmt.Errorf("write to printer device %s: %w", b.path, err)
	}
	return nil
}

func (b *fileBackend) Close() error {
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}
