// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Kind tags the variant held by a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Field is one object member. Object members keep their document order.
type Field struct {
	Key   string
	Value *Node
}

// Node is a JSON value that preserves object key order, so traversals follow
// declaration order and re-encoding does not reshuffle the document.
type Node struct {
	Kind   Kind
	Bool   bool
	Num    json.Number
	Str    string
	Fields []Field
	Items  []*Node
}

// String returns a string node.
func String(s string) *Node {
	return &Node{Kind: KindString, Str: s}
}

// Number returns a number node.
func Number(n json.Number) *Node {
	return &Node{Kind: KindNumber, Num: n}
}

// Object returns an object node holding fields in the given order.
func Object(fields ...Field) *Node {
	return &Node{Kind: KindObject, Fields: fields}
}

// Array returns an array node.
func Array(items ...*Node) *Node {
	return &Node{Kind: KindArray, Items: items}
}

// Get returns the member value for key, or nil when n is not an object or
// has no such member.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Set replaces the member value for key in place, or appends it.
func (n *Node) Set(key string, value *Node) {
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields[i].Value = value
			return
		}
	}
	n.Fields = append(n.Fields, Field{Key: key, Value: value})
}

// IsString reports whether n is a string node.
func (n *Node) IsString() bool {
	return n != nil && n.Kind == KindString
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Fields != nil {
		c.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = Field{Key: f.Key, Value: f.Value.Clone()}
		}
	}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			c.Items[i] = item.Clone()
		}
	}
	return &c
}

// ParseDocument decodes exactly one JSON value from data.
func ParseDocument(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse document: trailing data after top-level value")
	}
	return n, nil
}

func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDocument(data)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	switch v := tok.(type) {
	case nil:
		return &Node{Kind: KindNull}, nil
	case bool:
		return &Node{Kind: KindBool, Bool: v}, nil
	case json.Number:
		return Number(v), nil
	case string:
		return String(v), nil
	case json.Delim:
		switch v {
		case '{':
			obj := Object()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("parse document: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("parse document: unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				// Duplicate keys: last value wins, first position is kept
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("parse document: %w", err)
			}
			return obj, nil
		case '[':
			arr := Array()
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Items = append(arr.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("parse document: %w", err)
			}
			return arr, nil
		}
	}
	return nil, fmt.Errorf("parse document: unexpected token %v", tok)
}

func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.Bool))
	case KindNumber:
		if n.Num == "" {
			buf.WriteString("0")
			return nil
		}
		buf.WriteString(n.Num.String())
	case KindString:
		return encodeString(buf, n.Str)
	case KindObject:
		buf.WriteByte('{')
		for i, f := range n.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, f.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("encode document: unknown node kind %s", n.Kind)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder.Encode terminates with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
