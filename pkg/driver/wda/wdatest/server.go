// Package wdatest provides a fake WebDriverAgent server that behaves like
// Springboard for the delete-app gestures. It should only be used in tests.
package wdatest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
)

// Mode selects which iOS delete gesture the fake home screen accepts.
type Mode int

const (
	// IOS14 shows a "Remove App" context menu item and a two-step alert.
	IOS14 Mode = iota
	// IOS13 shows a "Delete App" context menu item.
	IOS13
	// IOS12 shows jiggling icons with a corner delete badge.
	IOS12
)

// SessionID is the session every fake server hands out.
const SessionID = "fake-session"

// Icon geometry on the fake home screen.
const (
	Width      = 300.0
	Height     = 600.0
	iconSize   = 60.0
	iconColumn = 75.0
	iconRow    = 90.0
	badgeSize  = 10.0
)

type stage int

const (
	stageHome stage = iota
	stageMenu
	stageRemoveAlert
	stageConfirmAlert
)

var labelPattern = regexp.MustCompile(`label == '((?:[^'\\]|\\.)*)'`)

// Server is a fake WDA endpoint for a single Springboard.
type Server struct {
	*httptest.Server

	ios Mode

	mu      sync.Mutex
	mode    stage
	apps    []string
	target  string
	labels  map[string]string
	calls   []string
	deleted []string
}

// NewServer starts a fake Springboard with the given apps installed.
func NewServer(mode Mode, apps ...string) *Server {
	s := &Server{
		ios:    mode,
		apps:   append([]string(nil), apps...),
		labels: map[string]string{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Installed reports whether an app icon is still on the home screen.
func (s *Server) Installed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(name) >= 0
}

// Deleted returns the apps removed so far, in order.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Calls returns "METHOD path" for every request, session prefix stripped.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) index(name string) int {
	for i, app := range s.apps {
		if app == name {
			return i
		}
	}
	return -1
}

func (s *Server) iconRect(i int) map[string]interface{} {
	return map[string]interface{}{
		"x":      10 + float64(i%4)*iconColumn,
		"y":      20 + float64(i/4)*iconRow,
		"width":  iconSize,
		"height": iconSize,
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/session/"+SessionID)
	s.calls = append(s.calls, r.Method+" "+path)

	var body map[string]interface{}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case path == "/status":
		reply(w, map[string]interface{}{"ready": true})
	case r.Method == http.MethodPost && path == "/session":
		reply(w, map[string]interface{}{"sessionId": SessionID})
	case r.Method == http.MethodDelete && path == "":
		reply(w, nil)
	case path == "/window/size":
		reply(w, map[string]interface{}{"width": Width, "height": Height})
	case path == "/element":
		s.findElement(w, body)
	case path == "/elements":
		reply(w, s.alertButtons())
	case strings.HasPrefix(path, "/element/"):
		s.elementCommand(w, r.Method, strings.TrimPrefix(path, "/element/"))
	case strings.HasPrefix(path, "/wda/element/") && strings.HasSuffix(path, "/touchAndHold"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/wda/element/"), "/touchAndHold")
		if name, ok := s.labels[id]; ok && strings.HasPrefix(id, "icon-") {
			s.target = name
			s.mode = stageMenu
		}
		reply(w, nil)
	case path == "/wda/tap":
		s.tap(body)
		reply(w, nil)
	case path == "/wda/pressButton":
		s.mode = stageHome
		s.target = ""
		reply(w, nil)
	default:
		noSuchElement(w, "unknown command "+path)
	}
}

func (s *Server) findElement(w http.ResponseWriter, body map[string]interface{}) {
	value, _ := body["value"].(string)
	m := labelPattern.FindStringSubmatch(value)
	if m == nil {
		noSuchElement(w, value)
		return
	}
	label := strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(m[1])

	switch {
	case strings.Contains(value, "XCUIElementTypeIcon"):
		if s.index(label) >= 0 {
			reply(w, map[string]interface{}{"ELEMENT": s.register(iconID(label), label)})
			return
		}
	case s.mode == stageMenu && s.ios == IOS14 && label == "Remove App":
		reply(w, map[string]interface{}{"ELEMENT": s.register("menu-remove", label)})
		return
	case s.mode == stageMenu && s.ios == IOS13 && label == "Delete App":
		reply(w, map[string]interface{}{"ELEMENT": s.register("menu-delete", label)})
		return
	}
	noSuchElement(w, value)
}

func (s *Server) alertButtons() []interface{} {
	var buttons []string
	switch s.mode {
	case stageRemoveAlert:
		buttons = []string{
			s.register("remove-delete", "Delete App"),
			s.register("remove-library", "Move to App Library"),
			s.register("remove-cancel", "Cancel"),
		}
	case stageConfirmAlert:
		buttons = []string{
			s.register("confirm-cancel", "Cancel"),
			s.register("confirm-delete", "Delete"),
		}
	}
	out := make([]interface{}, 0, len(buttons))
	for _, id := range buttons {
		out = append(out, map[string]interface{}{"ELEMENT": id})
	}
	return out
}

func (s *Server) elementCommand(w http.ResponseWriter, method, rest string) {
	parts := strings.SplitN(rest, "/", 3)
	id := parts[0]
	label, ok := s.labels[id]
	if !ok || len(parts) < 2 {
		noSuchElement(w, id)
		return
	}

	switch {
	case parts[1] == "attribute" && len(parts) == 3 && parts[2] == "hittable":
		reply(w, true)
	case parts[1] == "attribute" && len(parts) == 3 && parts[2] == "label":
		reply(w, label)
	case parts[1] == "rect":
		if i := s.index(label); i >= 0 {
			reply(w, s.iconRect(i))
			return
		}
		reply(w, map[string]interface{}{"x": 0, "y": 0, "width": 100, "height": 44})
	case parts[1] == "click" && method == http.MethodPost:
		s.click(id)
		reply(w, nil)
	default:
		noSuchElement(w, rest)
	}
}

func (s *Server) click(id string) {
	switch id {
	case "menu-remove":
		s.mode = stageRemoveAlert
	case "menu-delete":
		s.mode = stageConfirmAlert
	case "remove-delete":
		s.mode = stageConfirmAlert
	case "confirm-delete":
		if i := s.index(s.target); i >= 0 {
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			s.deleted = append(s.deleted, s.target)
		}
		s.mode = stageHome
	case "remove-cancel", "remove-library", "confirm-cancel":
		s.mode = stageHome
	}
}

// tap hits the delete badge when it lands in the icon's top-left corner.
func (s *Server) tap(body map[string]interface{}) {
	if s.ios != IOS12 || s.mode != stageMenu {
		return
	}
	x, _ := body["x"].(float64)
	y, _ := body["y"].(float64)
	i := s.index(s.target)
	if i < 0 {
		return
	}
	rect := s.iconRect(i)
	minX, minY := rect["x"].(float64), rect["y"].(float64)
	if x >= minX && x <= minX+badgeSize && y >= minY && y <= minY+badgeSize {
		s.mode = stageConfirmAlert
	}
}

// iconID turns a display name into a URL-safe element ID.
func iconID(name string) string {
	return "icon-" + strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
}

func (s *Server) register(id, label string) string {
	s.labels[id] = label
	return id
}

func reply(w http.ResponseWriter, value interface{}) {
	writeJSON(w, http.StatusOK, value)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"value":     value,
		"sessionId": SessionID,
	})
}

func noSuchElement(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "no such element",
		"message": fmt.Sprintf("unable to find %s", what),
	})
}
