package wda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

// SpringboardBundleID is the bundle identifier of the iOS home screen.
const SpringboardBundleID = "com.apple.springboard"

// Client is an HTTP client for WebDriverAgent.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewClientURL creates a new WDA client for a base URL such as
// http://192.168.1.20:8100.
func NewClientURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// BaseURL returns the WDA endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session management

// CreateSession creates a new WDA session attached to bundleID.
func (c *Client) CreateSession(bundleID string) error {
	caps := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": map[string]interface{}{
				"bundleId":                bundleID,
				"shouldWaitForQuiescence": false,
			},
		},
	}

	resp, err := c.post("/session", caps)
	if err != nil {
		return core.ErrSessionFailed.WithCause(err)
	}

	// Extract session ID
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if sessionID, ok := value["sessionId"].(string); ok {
			c.sessionID = sessionID
		}
	}
	if c.sessionID == "" {
		if sessionID, ok := resp["sessionId"].(string); ok {
			c.sessionID = sessionID
		}
	}
	if c.sessionID == "" {
		return core.ErrSessionFailed.WithCause(fmt.Errorf("no session id in response"))
	}

	return nil
}

// DeleteSession ends the current session.
func (c *Client) DeleteSession() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(fmt.Sprintf("/session/%s", c.sessionID))
	c.sessionID = ""
	return err
}

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool {
	return c.sessionID != ""
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Status returns WDA status.
func (c *Client) Status() (map[string]interface{}, error) {
	return c.get("/status")
}

// WaitForReady polls /status until WDA answers or ctx is done.
func (c *Client) WaitForReady(ctx context.Context, interval time.Duration) error {
	var lastErr error
	for {
		if _, err := c.Status(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return core.ErrServerUnreachable.
				WithDetails(map[string]interface{}{"url": c.baseURL}).
				WithCause(fmt.Errorf("%s: %w", ctx.Err(), lastErr))
		case <-time.After(interval):
		}
	}
}

// Touch actions

// Tap performs a tap at coordinates.
func (c *Client) Tap(x, y float64) error {
	_, err := c.post(c.sessionPath("/wda/tap"), map[string]interface{}{
		"x": x,
		"y": y,
	})
	return err
}

// Screen

// WindowSize returns the screen dimensions in points.
func (c *Client) WindowSize() (width, height float64, err error) {
	resp, err := c.get(c.sessionPath("/window/size"))
	if err != nil {
		return 0, 0, err
	}

	if value, ok := resp["value"].(map[string]interface{}); ok {
		width, _ = value["width"].(float64)
		height, _ = value["height"].(float64)
		return width, height, nil
	}
	return 0, 0, fmt.Errorf("invalid window size response")
}

// Device control

// PressButton presses a hardware button (home, volumeUp, volumeDown).
func (c *Client) PressButton(button string) error {
	_, err := c.post(c.sessionPath("/wda/pressButton"), map[string]interface{}{
		"name": button,
	})
	return err
}

// Home presses the home button.
func (c *Client) Home() error {
	return c.PressButton("home")
}

// Element finding

// FindElement finds a single element.
func (c *Client) FindElement(using, value string) (string, error) {
	resp, err := c.post(c.sessionPath("/element"), map[string]interface{}{
		"using": using,
		"value": value,
	})
	if err != nil {
		return "", err
	}

	if val, ok := resp["value"].(map[string]interface{}); ok {
		if id := elementID(val); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("element not found")
}

// FindElements finds multiple elements.
func (c *Client) FindElements(using, value string) ([]string, error) {
	resp, err := c.post(c.sessionPath("/elements"), map[string]interface{}{
		"using": using,
		"value": value,
	})
	if err != nil {
		return nil, err
	}

	var elements []string
	if val, ok := resp["value"].([]interface{}); ok {
		for _, elem := range val {
			if m, ok := elem.(map[string]interface{}); ok {
				if id := elementID(m); id != "" {
					elements = append(elements, id)
				}
			}
		}
	}
	return elements, nil
}

// elementID extracts the element reference from legacy or W3C payloads.
func elementID(m map[string]interface{}) string {
	if id, ok := m["ELEMENT"].(string); ok {
		return id
	}
	for k, v := range m {
		if str, ok := v.(string); ok && k != "error" {
			return str
		}
	}
	return ""
}

// ElementClick clicks an element.
func (c *Client) ElementClick(elementID string) error {
	_, err := c.post(c.sessionPath(fmt.Sprintf("/element/%s/click", elementID)), nil)
	return err
}

// ElementTouchAndHold long-presses an element.
func (c *Client) ElementTouchAndHold(elementID string, duration time.Duration) error {
	_, err := c.post(c.sessionPath(fmt.Sprintf("/wda/element/%s/touchAndHold", elementID)), map[string]interface{}{
		"duration": duration.Seconds(),
	})
	return err
}

// ElementAttribute returns a raw element attribute (label, hittable, ...).
func (c *Client) ElementAttribute(elementID, name string) (interface{}, error) {
	resp, err := c.get(c.sessionPath(fmt.Sprintf("/element/%s/attribute/%s", elementID, url.PathEscape(name))))
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// ElementRect returns an element's bounds.
func (c *Client) ElementRect(elementID string) (core.Rect, error) {
	resp, err := c.get(c.sessionPath(fmt.Sprintf("/element/%s/rect", elementID)))
	if err != nil {
		return core.Rect{}, err
	}
	var r core.Rect
	if value, ok := resp["value"].(map[string]interface{}); ok {
		r.X, _ = value["x"].(float64)
		r.Y, _ = value["y"].(float64)
		r.Width, _ = value["width"].(float64)
		r.Height, _ = value["height"].(float64)
	}
	return r, nil
}

// HTTP helpers

func (c *Client) sessionPath(path string) string {
	if c.sessionID != "" {
		return fmt.Sprintf("/session/%s%s", c.sessionID, path)
	}
	return path
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.parseResponse(resp)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.parseResponse(resp)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.parseResponse(resp)
}

func (c *Client) parseResponse(resp *http.Response) (map[string]interface{}, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (body: %s)", err, string(body))
	}

	// Check for WDA error
	if value, ok := result["value"].(map[string]interface{}); ok {
		if errMsg, ok := value["error"].(string); ok {
			message := errMsg
			if msg, ok := value["message"].(string); ok {
				message = msg
			}
			return nil, fmt.Errorf("WDA error: %s", message)
		}
	}

	return result, nil
}
