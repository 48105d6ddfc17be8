package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// ErrorType is the category of a failed node request
type ErrorType int

const (
	ErrTypeNetwork           ErrorType = iota // transport failure not covered below
	ErrTypeTimeout                            // no answer in time
	ErrTypeConnectionRefused                  // nothing listening on the node port
	ErrTypeDNS                                // node hostname did not resolve
	ErrTypeUnreachable                        // no route to the node or its network
	ErrTypeHTTP                               // unexpected status code
	ErrTypeRejected                           // the node refused the command (400)
	ErrTypeParse                              // malformed response body
	ErrTypeValidation                         // bad arguments, nothing was sent
)

var errorTypeNames = [...]string{
	ErrTypeNetwork:           "Network Error",
	ErrTypeTimeout:           "Timeout",
	ErrTypeConnectionRefused: "Connection Refused",
	ErrTypeDNS:               "DNS Error",
	ErrTypeUnreachable:       "Unreachable",
	ErrTypeHTTP:              "HTTP Error",
	ErrTypeRejected:          "Command Rejected",
	ErrTypeParse:             "Parse Error",
	ErrTypeValidation:        "Validation Error",
}

func (t ErrorType) String() string {
	if t >= 0 && int(t) < len(errorTypeNames) {
		return errorTypeNames[t]
	}
	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// NodeError is the error returned by every Client operation
type NodeError struct {
	Type       ErrorType
	Message    string
	StatusCode int    // set for ErrTypeHTTP and ErrTypeRejected
	Addr       string // node base URL, when known
	Retryable  bool
	Err        error
}

func (e *NodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

var errnoTypes = []struct {
	errno   syscall.Errno
	typ     ErrorType
	message string
}{
	{syscall.ECONNREFUSED, ErrTypeConnectionRefused, "node refused connection"},
	{syscall.EHOSTUNREACH, ErrTypeUnreachable, "host unreachable"},
	{syscall.ENETUNREACH, ErrTypeUnreachable, "network unreachable"},
}

// ClassifyNetworkError turns a transport error into a NodeError. Everything
// except a DNS failure is retryable.
func ClassifyNetworkError(err error, addr string) *NodeError {
	if err == nil {
		return nil
	}
	e := &NodeError{Type: ErrTypeNetwork, Message: "network error", Addr: addr, Retryable: true, Err: err}

	var (
		timeout interface{ Timeout() bool }
		dnsErr  *net.DNSError
	)
	switch {
	case errors.As(err, &timeout) && timeout.Timeout():
		e.Type, e.Message = ErrTypeTimeout, "request timed out"
	case errors.As(err, &dnsErr):
		e.Type, e.Message, e.Retryable = ErrTypeDNS, "cannot resolve "+dnsErr.Name, false
	default:
		for _, et := range errnoTypes {
			if errors.Is(err, et.errno) {
				e.Type, e.Message = et.typ, et.message
				break
			}
		}
	}
	return e
}

// NewNetworkError classifies err and replaces the message
func NewNetworkError(message string, err error) *NodeError {
	e := ClassifyNetworkError(err, "")
	if e == nil {
		return &NodeError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	e.Message = message
	return e
}

// NewHTTPError reports an unexpected status code. The node answers 408
// when it gave up reading the request, so that is retryable like a 5xx.
func NewHTTPError(statusCode int, message string) *NodeError {
	return &NodeError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 || statusCode == http.StatusRequestTimeout,
	}
}

// NewRejectedError reports a command the node refused
func NewRejectedError(statusCode int, message string) *NodeError {
	return &NodeError{Type: ErrTypeRejected, Message: message, StatusCode: statusCode}
}

func NewParseError(message string, err error) *NodeError {
	return &NodeError{Type: ErrTypeParse, Message: message, Err: err}
}

func NewValidationError(message string) *NodeError {
	return &NodeError{Type: ErrTypeValidation, Message: message}
}

func errorType(err error) (ErrorType, bool) {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Type, true
	}
	return 0, false
}

// IsNetworkError reports a transport-level failure of any kind
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	if !ok {
		return false
	}
	switch t {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeUnreachable:
		return true
	}
	return false
}

// IsRejected reports whether the node refused a command
func IsRejected(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeRejected
}

// IsRetryable reports whether err may succeed on a second try
func IsRetryable(err error) bool {
	var nodeErr *NodeError
	return errors.As(err, &nodeErr) && nodeErr.Retryable
}

// Hints returns troubleshooting tips for err, or nil when the error
// message says it all.
func Hints(err error) []string {
	var e *NodeError
	if !errors.As(err, &e) {
		return nil
	}

	switch e.Type {
	case ErrTypeTimeout:
		return []string{
			"Check that the node is powered and its status display is lit",
			"The node may be reconnecting to WiFi; try again in a minute",
			"Raise --timeout on a slow network",
		}
	case ErrTypeConnectionRefused:
		return []string{
			"The node only listens while it has a network address",
			"Check the port (default 80)",
			"Run 'garage-ctl scan' to find the node's current address",
		}
	case ErrTypeDNS:
		return []string{
			"Use the address shown on the node's display instead",
			"Run 'garage-ctl scan' to discover nodes via mDNS",
		}
	case ErrTypeUnreachable:
		tips := []string{"Check that this machine is on the same network as the node"}
		if host := hostOf(e.Addr); host != "" {
			tips = append(tips, "Try: ping "+host)
		}
		return tips
	case ErrTypeNetwork:
		return []string{
			"Check that the node is powered",
			"Check this machine's network connection",
		}
	case ErrTypeHTTP:
		switch e.StatusCode {
		case http.StatusNotFound:
			return []string{"The node does not serve that path; check --status-path and --set-path"}
		case http.StatusRequestEntityTooLarge:
			return []string{"The request is larger than the node's api.max_body_bytes"}
		}
		return []string{fmt.Sprintf("The node answered HTTP %d", e.StatusCode)}
	case ErrTypeParse:
		return []string{"The node may run a version this tool does not understand; compare 'garage-ctl scan' versions"}
	}
	return nil
}

func hostOf(addr string) string {
	if addr == "" {
		return ""
	}
	if u, err := url.Parse(addr); err == nil && u.Host != "" {
		return u.Hostname()
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// ShortMessage returns a one-line description of err for the user
func ShortMessage(err error) string {
	var e *NodeError
	if !errors.As(err, &e) {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeTimeout:
		return "Node did not respond (timeout)"
	case ErrTypeConnectionRefused:
		return "Node refused connection"
	case ErrTypeDNS:
		return "Cannot resolve node hostname"
	case ErrTypeNetwork, ErrTypeUnreachable:
		return "Cannot reach node"
	case ErrTypeHTTP:
		return fmt.Sprintf("Node error (HTTP %d)", e.StatusCode)
	case ErrTypeParse:
		return "Invalid response from node"
	case ErrTypeValidation:
		return "Invalid arguments: " + e.Message
	}
	return e.Message
}
