package hass

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Sentinel states Home Assistant reports for entities without a usable value.
const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// State mirrors the payload returned by /api/states/<entity_id>.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed"`
	LastUpdated string         `json:"last_updated"`
}

// IsSentinel reports whether the state carries no meaningful value.
func (s State) IsSentinel() bool {
	return IsSentinel(s.State)
}

// Attribute returns the named attribute rendered as a string, or "" when absent.
func (s State) Attribute(name string) string {
	if s.Attributes == nil {
		return ""
	}
	return stringify(s.Attributes[name])
}

// IsSentinel reports whether value is one of the sentinel entity states.
func IsSentinel(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case StateUnknown, StateUnavailable:
		return true
	default:
		return false
	}
}

// stringify renders decoded JSON values the way they would appear in the
// frontend: strings verbatim, integral numbers without a fraction.
func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		return value.String()
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// templateRequest is the body of POST /api/template.
type templateRequest struct {
	Template string `json:"template"`
}

// wsMessage covers every frame tminus exchanges over /api/websocket.
type wsMessage struct {
	ID           int       `json:"id,omitempty"`
	Type         string    `json:"type"`
	AccessToken  string    `json:"access_token,omitempty"`
	Template     string    `json:"template,omitempty"`
	ReportErrors bool      `json:"report_errors,omitempty"`
	Subscription int       `json:"subscription,omitempty"`
	Success      *bool     `json:"success,omitempty"`
	Message      string    `json:"message,omitempty"`
	Error        *wsError  `json:"error,omitempty"`
	Event        *wsRender `json:"event,omitempty"`
	HAVersion    string    `json:"ha_version,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsRender struct {
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
	Level  string `json:"level,omitempty"`
}
