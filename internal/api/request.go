package api

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// Request reader errors. Use errors.Is to check for them.
var (
	ErrTransport      = errors.New("api: transport error")
	ErrBodyTooLarge   = errors.New("api: body too large")
	ErrLineTooLong    = errors.New("api: line too long")
	ErrTooManyHeaders = errors.New("api: too many headers")
)

// Default limits.
const (
	DefaultMaxLineBytes = 512
	DefaultMaxHeaders   = 32
	DefaultMaxBodyBytes = 1024
	DefaultHeadTimeout  = 2 * time.Second
	DefaultBodyTimeout  = 2 * time.Second
	DefaultWriteTimeout = 2 * time.Second
	DefaultStatusPath   = "/status"
	DefaultSetPath      = "/set"
)

const contentLengthHeader = "content-length"

// Limits bounds what a single request may cost the control loop.
type Limits struct {
	MaxLineBytes int
	MaxHeaders   int
	MaxBodyBytes int
	HeadTimeout  time.Duration
	BodyTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxLineBytes: DefaultMaxLineBytes,
		MaxHeaders:   DefaultMaxHeaders,
		MaxBodyBytes: DefaultMaxBodyBytes,
		HeadTimeout:  DefaultHeadTimeout,
		BodyTimeout:  DefaultBodyTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxLineBytes <= 0 {
		l.MaxLineBytes = d.MaxLineBytes
	}
	if l.MaxHeaders <= 0 {
		l.MaxHeaders = d.MaxHeaders
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = d.MaxBodyBytes
	}
	if l.HeadTimeout <= 0 {
		l.HeadTimeout = d.HeadTimeout
	}
	if l.BodyTimeout <= 0 {
		l.BodyTimeout = d.BodyTimeout
	}
	if l.WriteTimeout <= 0 {
		l.WriteTimeout = d.WriteTimeout
	}
	return l
}

// Routes names the two request lines the node answers.
type Routes struct {
	StatusPath string
	SetPath    string
}

func (r Routes) withDefaults() Routes {
	if r.StatusPath == "" {
		r.StatusPath = DefaultStatusPath
	}
	if r.SetPath == "" {
		r.SetPath = DefaultSetPath
	}
	return r
}

// Kind classifies a request by its request line.
type Kind int

const (
	KindNotFound Kind = iota
	KindStatus
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindSet:
		return "set"
	default:
		return "not_found"
	}
}

// PendingRequest is one request read off a connection.
type PendingRequest struct {
	Line           string
	Method         string
	Path           string
	Kind           Kind
	DeclaredLength int
	Body           []byte
	RemoteAddr     string
}

// ReadRequest reads one request from conn. The head is read under
// HeadTimeout. The body is read only for set requests, with a single
// BodyTimeout deadline covering the whole read. On ErrBodyTooLarge the
// returned request carries the head so the caller can log it.
func ReadRequest(conn net.Conn, routes Routes, limits Limits) (*PendingRequest, error) {
	routes = routes.withDefaults()
	limits = limits.withDefaults()

	req := &PendingRequest{RemoteAddr: remoteAddr(conn)}
	br := bufio.NewReader(conn)

	if err := conn.SetReadDeadline(time.Now().Add(limits.HeadTimeout)); err != nil {
		return nil, fmt.Errorf("%w: set deadline: %v", ErrTransport, err)
	}

	line, eof, err := readLine(br, limits.MaxLineBytes)
	if err != nil {
		return nil, fmt.Errorf("request line: %w", err)
	}
	if line == "" && eof {
		return nil, fmt.Errorf("%w: connection closed before request line", ErrTransport)
	}
	req.Line = line
	req.Method, req.Path = splitRequestLine(line)
	req.Kind = classify(line, routes)

	headers := 0
	for !eof {
		var h string
		h, eof, err = readLine(br, limits.MaxLineBytes)
		if err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		if h == "" {
			break
		}
		headers++
		if headers > limits.MaxHeaders {
			return nil, ErrTooManyHeaders
		}
		if name, value, ok := strings.Cut(h, ":"); ok && strings.EqualFold(strings.TrimSpace(name), contentLengthHeader) {
			req.DeclaredLength = parseContentLength(value)
		}
	}

	if req.Kind != KindSet || req.DeclaredLength == 0 {
		return req, nil
	}
	if req.DeclaredLength > limits.MaxBodyBytes {
		return req, fmt.Errorf("%w: declared %d, limit %d", ErrBodyTooLarge, req.DeclaredLength, limits.MaxBodyBytes)
	}

	if err := conn.SetReadDeadline(time.Now().Add(limits.BodyTimeout)); err != nil {
		return nil, fmt.Errorf("%w: set deadline: %v", ErrTransport, err)
	}
	body := make([]byte, req.DeclaredLength)
	n, err := io.ReadFull(br, body)
	if err != nil {
		return nil, fmt.Errorf("%w: body read %d of %d bytes: %v", ErrTransport, n, req.DeclaredLength, err)
	}
	req.Body = body
	return req, nil
}

// readLine reads up to '\n' and returns the line without trailing CR/LF and
// surrounding whitespace. eof reports that the peer closed the stream; a
// partial last line is still returned.
func readLine(br *bufio.Reader, max int) (string, bool, error) {
	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			return strings.TrimSpace(sb.String()), true, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if c == '\n' {
			return strings.TrimSpace(sb.String()), false, nil
		}
		if sb.Len() >= max {
			return "", false, fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, max)
		}
		sb.WriteByte(c)
	}
}

func splitRequestLine(line string) (method, path string) {
	parts := strings.Fields(line)
	if len(parts) > 0 {
		method = parts[0]
	}
	if len(parts) > 1 {
		path = parts[1]
	}
	return method, path
}

func classify(line string, routes Routes) Kind {
	switch {
	case strings.HasPrefix(line, "GET "+routes.StatusPath):
		return KindStatus
	case strings.HasPrefix(line, "POST "+routes.SetPath):
		return KindSet
	default:
		return KindNotFound
	}
}

// parseContentLength treats anything that is not a non-negative integer as 0.
func parseContentLength(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return "unknown"
}
