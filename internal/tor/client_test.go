package tor

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProxy starts a listener that hands its first connection to serve.
func fakeProxy(t *testing.T, serve func(conn net.Conn)) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}()

	return listener.Addr().String()
}

// socksForwarder is a minimal SOCKS5 proxy that relays CONNECT requests.
type socksForwarder struct {
	listener net.Listener
	connects atomic.Int32
}

func newSocksForwarder(t *testing.T) *socksForwarder {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to start proxy: %v", err)
	}
	f := &socksForwarder{listener: listener}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go f.handle(conn)
		}
	}()
	return f
}

func (f *socksForwarder) handle(conn net.Conn) {
	defer conn.Close()

	greeting := make([]byte, 2)
	if _, err := io.ReadFull(conn, greeting); err != nil {
		return
	}
	if _, err := io.ReadFull(conn, make([]byte, greeting[1])); err != nil {
		return
	}
	if _, err := conn.Write([]byte{0x05, 0x00}); err != nil {
		return
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return
	}
	var host string
	switch header[3] {
	case 0x01:
		ip := make([]byte, 4)
		if _, err := io.ReadFull(conn, ip); err != nil {
			return
		}
		host = net.IP(ip).String()
	case 0x03:
		n := make([]byte, 1)
		if _, err := io.ReadFull(conn, n); err != nil {
			return
		}
		name := make([]byte, n[0])
		if _, err := io.ReadFull(conn, name); err != nil {
			return
		}
		host = string(name)
	default:
		return
	}
	port := make([]byte, 2)
	if _, err := io.ReadFull(conn, port); err != nil {
		return
	}

	target, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(int(binary.BigEndian.Uint16(port))))) //nolint:noctx // test code
	if err != nil {
		_, _ = conn.Write([]byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
		return
	}
	defer target.Close()
	f.connects.Add(1)

	if _, err := conn.Write([]byte{0x05, 0x00, 0x00, 0x01, 0, 0, 0, 0, 0, 0}); err != nil {
		return
	}
	go func() { _, _ = io.Copy(target, conn) }()
	_, _ = io.Copy(conn, target)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("accepts valid address", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 30*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.ProxyAddress() != "127.0.0.1:9050" {
			t.Errorf("expected proxy address 127.0.0.1:9050, got %s", client.ProxyAddress())
		}
	})

	t.Run("rejects invalid address", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("localhost", 30*time.Second)
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		valid   bool
	}{
		{"127.0.0.1:9050", true},
		{"localhost:9150", true},
		{"[::1]:9050", true},
		{"tor:1", true},
		{"127.0.0.1", false},
		{":9050", false},
		{"127.0.0.1:", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1:port", false},
		{"::1:9050", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()

			if got := isValidProxyAddress(tt.address); got != tt.valid {
				t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.valid)
			}
		})
	}
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status ProxyStatus
		text   string
		err    error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not Tor)", ErrProxyNotTor},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			if tt.status.String() != tt.text {
				t.Errorf("expected %q, got %q", tt.text, tt.status.String())
			}
			if !errors.Is(tt.status.Err(), tt.err) {
				t.Errorf("expected %v, got %v", tt.err, tt.status.Err())
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		if ProxyStatus(99).String() != "unknown" {
			t.Errorf("expected unknown, got %q", ProxyStatus(99).String())
		}
		if ProxyStatus(99).Err() == nil {
			t.Error("expected error for unknown status")
		}
	})
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("configures timeout and proxy dialer", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:9050", 45*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		httpClient := client.NewHTTPClient()
		if httpClient.Timeout != 45*time.Second {
			t.Errorf("expected timeout 45s, got %v", httpClient.Timeout)
		}
		transport, ok := httpClient.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("expected *http.Transport, got %T", httpClient.Transport)
		}
		if transport.DialContext == nil {
			t.Error("expected DialContext to be set")
		}
		if transport.TLSClientConfig != nil && transport.TLSClientConfig.InsecureSkipVerify {
			t.Error("expected certificate verification to stay enabled")
		}
		if httpClient.Jar != nil {
			t.Error("expected no cookie jar")
		}
	})

	t.Run("routes requests through the proxy", func(t *testing.T) {
		t.Parallel()

		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("[]"))
		}))
		defer backend.Close()

		forwarder := newSocksForwarder(t)
		client, err := NewClient(forwarder.listener.Addr().String(), 5*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, backend.URL, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := client.NewHTTPClient().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != "[]" {
			t.Errorf("expected body [], got %q", body)
		}
		if forwarder.connects.Load() != 1 {
			t.Errorf("expected 1 proxied connection, got %d", forwarder.connects.Load())
		}
	})
}

// TestCheckConnection tests the SOCKS5 proxy verification.
func TestCheckConnection(t *testing.T) {
	t.Parallel()

	t.Run("returns CannotConnect for non-existent proxy", func(t *testing.T) {
		t.Parallel()

		// Use a port that's unlikely to be in use
		client, err := NewClient("127.0.0.1:59999", 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		status := client.CheckConnection(context.Background())
		if status != ProxyStatusCannotConnect {
			t.Errorf("expected ProxyStatusCannotConnect, got %v", status)
		}
	})

	tests := []struct {
		name  string
		serve func(conn net.Conn)
		want  ProxyStatus
	}{
		{
			name: "returns WrongType for non-SOCKS5 server",
			serve: func(conn net.Conn) {
				// Read the greeting first (important for Windows)
				_, _ = conn.Read(make([]byte, 3))
				_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\n\r\n"))
			},
			want: ProxyStatusWrongType,
		},
		{
			name: "returns WrongType for SOCKS5 requiring auth",
			serve: func(conn net.Conn) {
				_, _ = conn.Read(make([]byte, 3))
				// 0xFF = no acceptable methods
				_, _ = conn.Write([]byte{0x05, 0xFF})
			},
			want: ProxyStatusWrongType,
		},
		{
			name: "returns OK for refused CONNECT",
			serve: func(conn net.Conn) {
				_, _ = conn.Read(make([]byte, 3))
				_, _ = conn.Write([]byte{0x05, 0x00})
				_, _ = conn.Read(make([]byte, 256))
				// host unreachable
				_, _ = conn.Write([]byte{0x05, 0x04, 0x00, 0x01, 0, 0, 0, 0, 0, 0})
			},
			want: ProxyStatusOK,
		},
		{
			name: "returns WrongType for wrong version in CONNECT response",
			serve: func(conn net.Conn) {
				_, _ = conn.Read(make([]byte, 3))
				_, _ = conn.Write([]byte{0x05, 0x00})
				_, _ = conn.Read(make([]byte, 256))
				_, _ = conn.Write([]byte{0x04, 0x00, 0x00, 0x01})
			},
			want: ProxyStatusWrongType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := NewClient(fakeProxy(t, tt.serve), 30*time.Second)
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			if status := client.CheckConnection(context.Background()); status != tt.want {
				t.Errorf("expected %v, got %v", tt.want, status)
			}
		})
	}

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:59998", 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		status := client.CheckConnection(ctx)
		if status != ProxyStatusCannotConnect && status != ProxyStatusTimeout {
			t.Errorf("expected ProxyStatusCannotConnect or ProxyStatusTimeout, got %v", status)
		}
	})
}

func TestDialContext(t *testing.T) {
	t.Parallel()

	t.Run("returns error for cancelled context", func(t *testing.T) {
		t.Parallel()

		forwarder := newSocksForwarder(t)
		client, err := NewClient(forwarder.listener.Addr().String(), 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := client.DialContext(ctx, "tcp", "127.0.0.1:80"); err == nil {
			t.Error("expected error for cancelled context")
		}
	})

	t.Run("returns error for unreachable proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("127.0.0.1:59997", 30*time.Second)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		if _, err := client.DialContext(ctx, "tcp", "127.0.0.1:80"); err == nil {
			t.Error("expected error for unreachable proxy")
		}
	})
}
