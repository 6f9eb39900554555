// Package jsontree provides a JSON object representation that preserves
// document key order. Package manifests are order-sensitive: the order of
// subpath keys in an exports map is part of the resolution contract, and
// encoding/json maps discard it.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedToken is returned when a JSON document does not decode to an object.
var ErrUnexpectedToken = errors.New("unexpected JSON token")

// Object is a JSON object with stable key order.
// Nested objects decode as *Object, arrays as []any, and scalars as the
// usual encoding/json types (string, float64, bool, nil).
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Keys returns the keys in document order. The returned slice is shared; do not mutate.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	return o.keys
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}

	v, ok := o.values[key]

	return v, ok
}

// GetString returns the value for key if it is a string.
func (o *Object) GetString(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// GetObject returns the value for key if it is a nested object.
func (o *Object) GetObject(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}

	nested, ok := v.(*Object)

	return nested, ok
}

// Set stores a value, keeping the original position for existing keys and
// appending new keys at the end.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}

	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}

	o.values[key] = value
}

// Delete removes a key, preserving the order of the remaining keys.
func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}

	delete(o.values, key)

	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)

			break
		}
	}
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode object: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("%w: expected '{', got %v", ErrUnexpectedToken, tok)
	}

	return o.decodeMembers(dec)
}

// decodeMembers consumes key/value pairs until the closing brace.
func (o *Object) decodeMembers(dec *json.Decoder) error {
	o.keys = o.keys[:0]
	o.values = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode key: %w", err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: expected object key, got %v", ErrUnexpectedToken, keyTok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return err
		}

		o.Set(key, value)
	}

	// Consume the closing '}'.
	_, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode object end: %w", err)
	}

	return nil
}

// decodeValue decodes the next JSON value, using *Object for nested objects.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		nested := NewObject()

		decodeErr := nested.decodeMembers(dec)
		if decodeErr != nil {
			return nil, decodeErr
		}

		return nested, nil
	case '[':
		var items []any

		for dec.More() {
			item, itemErr := decodeValue(dec)
			if itemErr != nil {
				return nil, itemErr
			}

			items = append(items, item)
		}

		// Consume the closing ']'.
		_, endErr := dec.Token()
		if endErr != nil {
			return nil, fmt.Errorf("decode array end: %w", endErr)
		}

		return items, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedToken, delim)
	}
}

// MarshalJSON encodes the object with its original key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}

		buf.Write(keyJSON)
		buf.WriteByte(':')

		valueJSON, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", key, err)
		}

		buf.Write(valueJSON)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
