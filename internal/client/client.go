package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/flatobj"
	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// DefaultStatusPath and DefaultSetPath match the node's default routes
	DefaultStatusPath = "/status"
	DefaultSetPath    = "/set"

	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 4096
)

// Client talks to a garage node over its request protocol
type Client struct {
	// BaseURL is the base URL for the node (e.g., "http://192.168.1.190:80")
	BaseURL string

	// StatusPath and SetPath are the node's routes
	StatusPath string
	SetPath    string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a client for a node at addr ("host" or "host:port").
func NewClient(addr string) *Client {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "80")
	}
	return NewClientWithURL("http://" + addr)
}

// NewClientWithURL creates a new client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimSuffix(baseURL, "/"),
		StatusPath:            DefaultStatusPath,
		SetPath:               DefaultSetPath,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// SetPaths overrides the node routes. Empty values keep the current ones.
func (c *Client) SetPaths(statusPath, setPath string) {
	if statusPath != "" {
		c.StatusPath = statusPath
	}
	if setPath != "" {
		c.SetPath = setPath
	}
}

// Command is a request to change actuator state
type Command struct {
	Device   string
	Action   string
	Duration time.Duration // lamp on only; zero uses the node default
}

// Body encodes the command as a set request body.
func (cmd Command) Body() []byte {
	enc := flatobj.NewEncoder().
		String("device", cmd.Device).
		String("action", cmd.Action)
	if cmd.Duration > 0 {
		enc.Int("duration", int64(cmd.Duration/time.Second))
	}
	return enc.Bytes()
}

// Validate checks the command against the actions the node understands
func (cmd Command) Validate() error {
	switch cmd.Device {
	case "door":
		if cmd.Action != "open" && cmd.Action != "close" {
			return NewValidationError(fmt.Sprintf("door action must be open or close, got %q", cmd.Action))
		}
	case "lamp":
		if cmd.Action != "on" && cmd.Action != "off" {
			return NewValidationError(fmt.Sprintf("lamp action must be on or off, got %q", cmd.Action))
		}
	default:
		return NewValidationError(fmt.Sprintf("unknown device %q", cmd.Device))
	}
	if cmd.Duration < 0 {
		return NewValidationError("duration must not be negative")
	}
	if cmd.Duration > 0 && cmd.Duration < time.Second {
		return NewValidationError("duration must be at least one second")
	}
	return nil
}

// GetStatus retrieves the node's status snapshot
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var status *Status
	err := c.retry(ctx, IsRetryable, func() error {
		body, err := c.roundTrip(ctx, http.MethodGet, c.StatusPath, nil)
		if err != nil {
			return err
		}
		status, err = ParseStatus(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Door opens or closes the door. The node rejects a request that matches the
// current door state.
func (c *Client) Door(ctx context.Context, action string) (string, error) {
	return c.Send(ctx, Command{Device: "door", Action: action})
}

// Lamp switches the lamp. duration applies to "on"; zero uses the node default.
func (c *Client) Lamp(ctx context.Context, action string, duration time.Duration) (string, error) {
	return c.Send(ctx, Command{Device: "lamp", Action: action, Duration: duration})
}

// Send delivers a command and returns the node's message. A door command is
// a relay pulse, so only failures where the request never reached the node
// are retried.
func (c *Client) Send(ctx context.Context, cmd Command) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	var message string
	err := c.retry(ctx, neverDelivered, func() error {
		body, err := c.roundTrip(ctx, http.MethodPost, c.SetPath, cmd.Body())
		if err != nil {
			return err
		}
		message, err = parseResult(body)
		return err
	})
	return message, err
}

func neverDelivered(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeConnectionRefused
}

// retry runs attempt until it succeeds, fails with an error retryable
// rejects, or the retry budget is spent.
func (c *Client) retry(ctx context.Context, retryable func(error) bool, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for n := 0; n <= c.MaxRetries; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return NewNetworkError("request cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
		logging.Debug("Retrying node request",
			zap.String("node", c.BaseURL),
			zap.Int("attempt", n+1),
			zap.Error(err),
		)
	}

	return lastErr
}

// roundTrip performs one request and returns the body of a 200 response.
func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid request: %v", err))
	}
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, c.BaseURL)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return data, nil
	case resp.StatusCode == http.StatusBadRequest:
		msg := parseMessage(data)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, NewRejectedError(resp.StatusCode, msg)
	default:
		msg := parseMessage(data)
		if msg == "" {
			msg = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		}
		return nil, NewHTTPError(resp.StatusCode, msg)
	}
}

func parseMessage(body []byte) string {
	obj, err := flatobj.Decode(body)
	if err != nil {
		return ""
	}
	return obj.String("message")
}

func parseResult(body []byte) (string, error) {
	obj, err := flatobj.Decode(body)
	if err != nil {
		return "", NewParseError("invalid command response", err)
	}
	if obj.String("result") != "ok" {
		return "", NewParseError(fmt.Sprintf("unexpected result %q", obj.String("result")), nil)
	}
	return obj.String("message"), nil
}
