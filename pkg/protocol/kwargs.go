package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kwarg is one keyword argument of an oob call.
type Kwarg struct {
	Key   string
	Value any
}

// Kwargs keeps keyword arguments in the order the server sent them, so
// handlers that print one line per key print them in a stable order.
type Kwargs []Kwarg

// Get returns the value stored under key.
func (k Kwargs) Get(key string) (any, bool) {
	for _, kwarg := range k {
		if kwarg.Key == key {
			return kwarg.Value, true
		}
	}

	return nil, false
}

// UnmarshalJSON decodes a JSON object, keeping key order. A repeated key keeps
// its first position and takes the last value.
func (k *Kwargs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*k = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("kwargs must be a JSON object")
	}

	out := Kwargs{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected kwargs key %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}

		if i, seen := index[key]; seen {
			out[i].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, Kwarg{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*k = out
	return nil
}

// MarshalJSON encodes the kwargs as a JSON object in stored order.
func (k Kwargs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kwarg := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kwarg.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(kwarg.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
