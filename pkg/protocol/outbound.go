package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// OOBPrefix marks an out-of-band frame sent to the server.
	OOBPrefix = "OOB"
	// KeepaliveToken is sent periodically so proxies keep the socket open.
	KeepaliveToken = "idle"
	// NoInputCommand tells the server an input request was cancelled.
	NoInputCommand = "__noinput_command"

	// DebugOOBPrefix lets a user type raw oob payloads, e.g. ##OOB{"echo":[1,2]}.
	DebugOOBPrefix = "##OOB"
	// DebugOOBUnitTest runs the built-in oob self test.
	DebugOOBUnitTest = "##OOBUNITTEST"
)

// EncodeOOB renders a handler-name to arguments mapping as one outbound frame.
func EncodeOOB(calls map[string]any) (string, error) {
	if calls == nil {
		calls = map[string]any{}
	}

	payload, err := json.Marshal(calls)
	if err != nil {
		return "", fmt.Errorf("encode oob payload: %w", err)
	}

	return OOBPrefix + string(payload), nil
}

// IsDebugOOB reports whether a typed line should take the oob debug path.
func IsDebugOOB(line string) bool {
	return strings.HasPrefix(line, DebugOOBPrefix)
}

// ParseDebugOOB decodes the JSON mapping following the ##OOB prefix.
func ParseDebugOOB(line string) (map[string]any, error) {
	body := strings.TrimPrefix(line, DebugOOBPrefix)

	var calls map[string]any
	if err := json.Unmarshal([]byte(body), &calls); err != nil {
		return nil, fmt.Errorf("decode oob input: %w", err)
	}
	if calls == nil {
		return nil, fmt.Errorf("decode oob input: expected a JSON object")
	}

	return calls, nil
}

// UnitTestCalls is the batch sent by ##OOBUNITTEST, one frame per entry.
func UnitTestCalls() []map[string]any {
	return []map[string]any{
		{"ECHO": "Echo test"},
		{"LIST": "COMMANDS"},
		{"SEND": "CHARACTER_NAME"},
		{"REPORT": "TEST"},
		{"UNREPORT": "TEST"},
		{"REPEAT": 1},
		{"UNREPEAT": 1},
	}
}
