// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pdiddy/qbank/pkg/types"
)

// ErrNotObject marks a question set element that is not a JSON object.
var ErrNotObject = errors.New("not a JSON object")

// Document is one question object kept in its on-disk form. Key order and
// every value, modeled by types.Question or not, survive a read/write
// cycle; only keys replaced with Set change. A repeated key keeps its first
// position and its last value.
type Document struct {
	keys   []string
	fields map[string]json.RawMessage
}

// Keys returns the object's keys in document order.
func (d Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Lookup decodes the value of key into v. It reports false, leaving v
// untouched, when the key is absent.
func (d Document) Lookup(key string, v any) (bool, error) {
	raw, ok := d.fields[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Set replaces the value of key, appending the key when it is new.
func (d *Document) Set(key string, v any) error {
	raw, err := types.MarshalNoEscape(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	if d.fields == nil {
		d.fields = make(map[string]json.RawMessage)
	}
	if _, ok := d.fields[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = raw
	return nil
}

// UnmarshalJSON reads one JSON object, recording its keys in order.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	d.keys = nil
	d.fields = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		if _, seen := d.fields[key]; !seen {
			d.keys = append(d.keys, key)
		}
		d.fields[key] = raw
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON writes the object with its keys in document order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := types.MarshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(d.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ReadDocuments decodes a JSON array of question objects without
// interpreting them.
func ReadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding questions from %s: %w", path, err)
	}

	docs := make([]Document, len(raws))
	for i, raw := range raws {
		if err := json.Unmarshal(raw, &docs[i]); err != nil {
			return nil, fmt.Errorf("%s: question %d: %w", path, i+1, err)
		}
	}
	return docs, nil
}

// WriteDocuments encodes docs like Write and replaces path atomically.
func WriteDocuments(path string, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	data, err := encodeIndented(docs)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}
