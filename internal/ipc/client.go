package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CommandError is a handler error relayed by the bridge.
type CommandError struct {
	Command string
	Status  int
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

// Client invokes commands on a running backend.
type Client struct {
	http *http.Client
	base string
}

// NewUnixClient returns a client that talks to the socket at path.
func NewUnixClient(path string) *Client {
	return &Client{
		base: "http://vidassist",
		http: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
		},
	}
}

// Invoke calls command with args and decodes the result into result.
// args may be nil; result may be nil to discard the reply.
func (c *Client) Invoke(ctx context.Context, command string, args, result any) error {
	var body io.Reader = http.NoBody
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("encoding arguments: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/v1/invoke/"+url.PathEscape(command), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to backend: %w (is vidassist running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(command, resp)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding %s result: %w", command, err)
	}
	return nil
}

// Commands lists the commands the backend serves.
func (c *Client) Commands(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/commands", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connecting to backend: %w (is vidassist running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError("commands", resp)
	}
	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("decoding commands: %w", err)
	}
	return names, nil
}

func decodeError(command string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var payload struct {
		Error string `json:"error"`
	}
	msg := string(data)
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &CommandError{Command: command, Status: resp.StatusCode, Message: msg}
}
