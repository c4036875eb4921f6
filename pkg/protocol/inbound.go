// Package protocol decodes the game portal's websocket frames and encodes the
// client's replies.
//
// Inbound frames are JSON objects with any of the keys oob, prompt,
// clear_links, text and type. Anything else is plain text for the main window.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotStructured reports a frame that is not a JSON object. Callers display
// such frames verbatim.
var ErrNotStructured = errors.New("frame is not a structured message")

// TextType selects how the text field of a message is presented.
type TextType string

const (
	TextPlain         TextType = "text"
	TextInput         TextType = "input_text"
	TextInputPassword TextType = "input_password"
	TextAlert         TextType = "alert"
)

// InboundMessage is one decoded server frame. Several fields may be set at
// once; a zero field means the key was absent or falsy.
type InboundMessage struct {
	OOB        []OOBCall `json:"oob,omitempty"`
	Prompt     string    `json:"prompt,omitempty"`
	ClearLinks bool      `json:"clear_links,omitempty"`
	Text       string    `json:"text,omitempty"`
	Type       TextType  `json:"type,omitempty"`
}

// OOBCall is one [name, args, kwargs] entry of an oob batch.
type OOBCall struct {
	Name   string
	Args   []any
	Kwargs Kwargs
}

// Decode parses one inbound frame.
//
// Field values are read leniently: a non-string prompt or text is kept as its
// JSON text, clear_links follows JSON truthiness, and malformed oob entries
// survive as calls with whatever name could be read so the dispatcher can
// report them.
func Decode(payload []byte) (InboundMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return InboundMessage{}, ErrNotStructured
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return InboundMessage{}, fmt.Errorf("%w: %v", ErrNotStructured, err)
	}

	var msg InboundMessage
	if raw, ok := fields["oob"]; ok {
		msg.OOB = decodeOOB(raw)
	}
	if raw, ok := fields["prompt"]; ok {
		msg.Prompt = textValue(raw)
	}
	if raw, ok := fields["clear_links"]; ok {
		msg.ClearLinks = truthy(raw)
	}
	if raw, ok := fields["text"]; ok {
		msg.Text = textValue(raw)
	}
	if raw, ok := fields["type"]; ok {
		var kind string
		if json.Unmarshal(raw, &kind) == nil {
			msg.Type = TextType(kind)
		}
	}

	return msg, nil
}

// UnmarshalJSON reads one [name, args, kwargs] tuple. Missing or mistyped
// parts are left empty instead of failing the whole frame.
func (c *OOBCall) UnmarshalJSON(data []byte) error {
	*c = OOBCall{}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		var name string
		if json.Unmarshal(data, &name) == nil {
			c.Name = name
		}
		return nil
	}

	if len(parts) > 0 {
		var name string
		if json.Unmarshal(parts[0], &name) == nil {
			c.Name = name
		} else {
			c.Name = strings.TrimSpace(string(parts[0]))
		}
	}
	if len(parts) > 1 {
		c.Args = decodeArgs(parts[1])
	}
	if len(parts) > 2 {
		var kwargs Kwargs
		if json.Unmarshal(parts[2], &kwargs) == nil {
			c.Kwargs = kwargs
		}
	}

	return nil
}

// MarshalJSON writes the call back as a [name, args, kwargs] tuple.
func (c OOBCall) MarshalJSON() ([]byte, error) {
	args := c.Args
	if args == nil {
		args = []any{}
	}
	kwargs := c.Kwargs
	if kwargs == nil {
		kwargs = Kwargs{}
	}

	return json.Marshal([]any{c.Name, args, kwargs})
}

func decodeOOB(raw json.RawMessage) []OOBCall {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	calls := make([]OOBCall, 0, len(entries))
	for _, entry := range entries {
		var call OOBCall
		_ = call.UnmarshalJSON(entry)
		calls = append(calls, call)
	}

	return calls
}

func decodeArgs(raw json.RawMessage) []any {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil || value == nil {
		return nil
	}

	if list, ok := value.([]any); ok {
		return list
	}

	return []any{value}
}

func textValue(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	trimmed := strings.TrimSpace(string(raw))
	if !truthy(raw) {
		return ""
	}

	return trimmed
}

// truthy mirrors JSON-in-a-browser truthiness: false, null, 0 and "" are false.
func truthy(raw json.RawMessage) bool {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}

	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case float64:
		return typed != 0
	case string:
		return typed != ""
	default:
		return true
	}
}
