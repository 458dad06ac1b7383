package models

import (
	"bytes"
	"encoding/json"
)

// Records keep caller-supplied fields they don't model so a document
// round-trips without losing anything the frontend stored.

// MarshalNoEscape is json.Marshal without HTML escaping, so stored text
// reads the way the user typed it.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalWithExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := MarshalNoEscape(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	fields := make(map[string]json.RawMessage, len(extra)+8)
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	// Decoders only put a modelled key in extra when its value didn't fit
	// the field, so the raw value wins.
	for k, v := range extra {
		fields[k] = v
	}
	return MarshalNoEscape(fields)
}

func extraFields(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

// present reports whether key exists in a raw object with a non-null value.
func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
