package wda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
	"github.com/devicelab-dev/springboard-runner/pkg/logger"
)

// DefaultPollInterval is the delay between element lookups while waiting.
const DefaultPollInterval = 250 * time.Millisecond

// alertButtonChain matches every button inside a displayed alert.
const alertButtonChain = "**/XCUIElementTypeAlert/**/XCUIElementTypeButton"

var (
	_ core.Application = (*Springboard)(nil)
	_ core.Device      = (*Springboard)(nil)
	_ core.Element     = (*Element)(nil)
)

// Springboard implements core.Application and core.Device over a WDA
// session attached to com.apple.springboard.
type Springboard struct {
	client *Client
	poll   time.Duration
}

// NewSpringboard wraps a client whose session is attached to Springboard.
func NewSpringboard(client *Client, poll time.Duration) *Springboard {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Springboard{client: client, poll: poll}
}

// Connect creates a Springboard session on the WDA server at baseURL.
func Connect(ctx context.Context, baseURL string, poll time.Duration) (*Springboard, error) {
	client := NewClientURL(baseURL)
	if err := client.WaitForReady(ctx, time.Second); err != nil {
		return nil, err
	}
	if err := client.CreateSession(SpringboardBundleID); err != nil {
		return nil, err
	}
	logger.Info("WDA session %s created on %s", client.SessionID(), baseURL)
	return NewSpringboard(client, poll), nil
}

// Close ends the WDA session.
func (s *Springboard) Close() error {
	return s.client.DeleteSession()
}

// Client returns the underlying WDA client.
func (s *Springboard) Client() *Client {
	return s.client
}

// Icon returns the home-screen icon with the given display name.
func (s *Springboard) Icon(name string) core.Element {
	return s.query("predicate string", typedPredicate("XCUIElementTypeIcon", name), name)
}

// Button returns the button with the given label or identifier.
func (s *Springboard) Button(label string) core.Element {
	return s.query("predicate string", typedPredicate("XCUIElementTypeButton", label), label)
}

// AlertButtons lists the buttons of the displayed alerts, in tree order.
func (s *Springboard) AlertButtons() []core.Element {
	ids, err := s.client.FindElements("class chain", alertButtonChain)
	if err != nil {
		logger.Debug("alert button lookup failed: %v", err)
		return nil
	}
	buttons := make([]core.Element, 0, len(ids))
	for _, id := range ids {
		buttons = append(buttons, &Element{
			client: s.client,
			poll:   s.poll,
			id:     id,
			desc:   "alert button " + id,
		})
	}
	return buttons
}

// Frame returns the screen frame in points.
func (s *Springboard) Frame() core.Rect {
	width, height, err := s.client.WindowSize()
	if err != nil {
		logger.Warn("window size failed: %v", err)
		return core.Rect{}
	}
	return core.Rect{Width: width, Height: height}
}

// TapNormalized taps at a fraction of the screen frame.
func (s *Springboard) TapNormalized(offset core.Vector) error {
	frame := s.Frame()
	if frame.IsEmpty() {
		return fmt.Errorf("screen size unavailable")
	}
	x, y := offset.Point(frame)
	return s.client.Tap(x, y)
}

// PressHome implements core.Device.
func (s *Springboard) PressHome() error {
	return s.client.Home()
}

func (s *Springboard) query(using, value, desc string) *Element {
	return &Element{
		client: s.client,
		poll:   s.poll,
		using:  using,
		value:  value,
		desc:   desc,
	}
}

// typedPredicate matches an element type by label or identifier.
func typedPredicate(elemType, text string) string {
	quoted := quotePredicate(text)
	return fmt.Sprintf("type == '%s' AND (label == %s OR identifier == %s)", elemType, quoted, quoted)
}

// quotePredicate returns text as a single-quoted NSPredicate string literal.
func quotePredicate(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(text)
	return "'" + escaped + "'"
}

// Element is a lazily resolved WDA element. Query-backed elements are
// looked up on first use; elements returned by AlertButtons are already
// resolved.
type Element struct {
	client *Client
	poll   time.Duration
	using  string
	value  string
	desc   string
	id     string
}

// WaitForExistence polls until the element is found or timeout elapses.
// At least one lookup is made even with a zero timeout.
func (e *Element) WaitForExistence(timeout time.Duration) bool {
	if e.id != "" {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		if _, err := e.resolve(); err == nil {
			return true
		}
		select {
		case <-ctx.Done():
			logger.Debug("%s not found within %s", e.desc, timeout)
			return false
		case <-time.After(e.poll):
		}
	}
}

// IsHittable reads the element's hittable attribute.
func (e *Element) IsHittable() bool {
	id, err := e.resolve()
	if err != nil {
		return false
	}
	value, err := e.client.ElementAttribute(id, "hittable")
	if err != nil {
		logger.Debug("hittable lookup for %s failed: %v", e.desc, err)
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case float64:
		return v != 0
	}
	return false
}

// Tap clicks the element.
func (e *Element) Tap() error {
	id, err := e.resolve()
	if err != nil {
		return err
	}
	return e.client.ElementClick(id)
}

// Press touches and holds the element.
func (e *Element) Press(duration time.Duration) error {
	id, err := e.resolve()
	if err != nil {
		return err
	}
	return e.client.ElementTouchAndHold(id, duration)
}

// Frame returns the element rect, or an empty rect if unavailable.
func (e *Element) Frame() core.Rect {
	id, err := e.resolve()
	if err != nil {
		return core.Rect{}
	}
	rect, err := e.client.ElementRect(id)
	if err != nil {
		logger.Warn("rect for %s failed: %v", e.desc, err)
		return core.Rect{}
	}
	return rect
}

// Label returns the accessibility label, or "" if unavailable.
func (e *Element) Label() string {
	id, err := e.resolve()
	if err != nil {
		return ""
	}
	value, err := e.client.ElementAttribute(id, "label")
	if err != nil {
		return ""
	}
	label, _ := value.(string)
	return label
}

// ID returns the resolved WDA element ID, or "".
func (e *Element) ID() string {
	return e.id
}

func (e *Element) resolve() (string, error) {
	if e.id != "" {
		return e.id, nil
	}
	if e.using == "" {
		return "", fmt.Errorf("%s has no query", e.desc)
	}
	id, err := e.client.FindElement(e.using, e.value)
	if err != nil {
		return "", err
	}
	e.id = id
	return id, nil
}
