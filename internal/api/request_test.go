package api

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// readFrom feeds raw to ReadRequest over an in-memory connection.
func readFrom(t *testing.T, raw string, limits Limits) (*PendingRequest, error) {
	t.Helper()
	server, client := net.Pipe()
	defer server.Close()
	go func() {
		_, _ = client.Write([]byte(raw))
	}()
	t.Cleanup(func() { _ = client.Close() })
	return ReadRequest(server, Routes{}, limits)
}

func TestReadRequest_Classification(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		kind   Kind
		method string
		path   string
	}{
		{"status", "GET /status HTTP/1.1\r\n\r\n", KindStatus, "GET", "/status"},
		{"status with query", "GET /status?x=1 HTTP/1.1\r\n\r\n", KindStatus, "GET", "/status?x=1"},
		{"set", "POST /set HTTP/1.1\r\n\r\n", KindSet, "POST", "/set"},
		{"bare LF", "GET /status\n\n", KindStatus, "GET", "/status"},
		{"wrong method", "POST /status HTTP/1.1\r\n\r\n", KindNotFound, "POST", "/status"},
		{"lowercase method", "get /status HTTP/1.1\r\n\r\n", KindNotFound, "get", "/status"},
		{"other path", "GET /index.html HTTP/1.1\r\n\r\n", KindNotFound, "GET", "/index.html"},
		{"garbage", "hello\r\n\r\n", KindNotFound, "hello", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := readFrom(t, tt.raw, Limits{})
			if err != nil {
				t.Fatalf("ReadRequest() error = %v", err)
			}
			if req.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", req.Kind, tt.kind)
			}
			if req.Method != tt.method || req.Path != tt.path {
				t.Errorf("Method, Path = %q, %q, want %q, %q", req.Method, req.Path, tt.method, tt.path)
			}
		})
	}
}

func TestReadRequest_ContentLength(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"canonical", "Content-Length: 2", 2},
		{"lowercase", "content-length: 2", 2},
		{"uppercase no space", "CONTENT-LENGTH:2", 2},
		{"non-numeric", "Content-Length: abc", 0},
		{"negative", "Content-Length: -4", 0},
		{"missing", "Host: node", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "POST /set HTTP/1.1\r\n" + tt.header + "\r\n\r\n{}"
			req, err := readFrom(t, raw, Limits{})
			if err != nil {
				t.Fatalf("ReadRequest() error = %v", err)
			}
			if req.DeclaredLength != tt.want {
				t.Errorf("DeclaredLength = %d, want %d", req.DeclaredLength, tt.want)
			}
			if len(req.Body) != tt.want {
				t.Errorf("len(Body) = %d, want %d", len(req.Body), tt.want)
			}
		})
	}
}

func TestReadRequest_BodyOnlyForSet(t *testing.T) {
	req, err := readFrom(t, "GET /status HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello", Limits{})
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if req.DeclaredLength != 5 || req.Body != nil {
		t.Errorf("status request read a body: declared=%d body=%q", req.DeclaredLength, req.Body)
	}
}

func TestReadRequest_Limits(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		limits  Limits
		wantErr error
	}{
		{
			name:    "request line too long",
			raw:     "GET /" + strings.Repeat("a", 600) + " HTTP/1.1\r\n\r\n",
			wantErr: ErrLineTooLong,
		},
		{
			name:    "header line too long",
			raw:     "GET /status HTTP/1.1\r\nX-Pad: " + strings.Repeat("b", 600) + "\r\n\r\n",
			wantErr: ErrLineTooLong,
		},
		{
			name:    "too many headers",
			raw:     "GET /status HTTP/1.1\r\n" + strings.Repeat("X-A: 1\r\n", 4) + "\r\n",
			limits:  Limits{MaxHeaders: 3},
			wantErr: ErrTooManyHeaders,
		},
		{
			name:    "body over limit",
			raw:     "POST /set HTTP/1.1\r\nContent-Length: 1025\r\n\r\n",
			wantErr: ErrBodyTooLarge,
		},
		{
			name:    "closed before request line",
			raw:     "",
			wantErr: ErrTransport,
		},
		{
			name:    "short body",
			raw:     "POST /set HTTP/1.1\r\nContent-Length: 10\r\n\r\n{}",
			limits:  Limits{BodyTimeout: 50 * time.Millisecond},
			wantErr: ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, client := net.Pipe()
			defer server.Close()
			go func() {
				if tt.raw == "" {
					_ = client.Close()
					return
				}
				_, _ = client.Write([]byte(tt.raw))
			}()
			defer client.Close()

			_, err := ReadRequest(server, Routes{}, tt.limits)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadRequest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadRequest_BodyDeadlineIsBounded(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		_, _ = client.Write([]byte("POST /set HTTP/1.1\r\nContent-Length: 20\r\n\r\n{\"dev"))
		// Trickle the rest one byte at a time; a per-read timeout would never fire.
		for i := 0; i < 40; i++ {
			time.Sleep(10 * time.Millisecond)
			if _, err := client.Write([]byte(" ")); err != nil {
				return
			}
		}
	}()

	start := time.Now()
	_, err := ReadRequest(server, Routes{}, Limits{BodyTimeout: 100 * time.Millisecond})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("ReadRequest() error = %v, want ErrTransport", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("body read took %v, want bounded by the deadline", elapsed)
	}
}

func TestReadRequest_EOFEndsHeaders(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	go func() {
		_, _ = client.Write([]byte("GET /status HTTP/1.1\r\nHost: node"))
		_ = client.Close()
	}()

	req, err := ReadRequest(server, Routes{}, Limits{})
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if req.Kind != KindStatus {
		t.Errorf("Kind = %v, want status", req.Kind)
	}
}

func TestKind_String(t *testing.T) {
	if KindStatus.String() != "status" || KindSet.String() != "set" || KindNotFound.String() != "not_found" {
		t.Error("unexpected Kind names")
	}
}
