// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"

	"go.yaml.in/yaml/v3"
)

// Field is one labeled display value in a FieldTable.
type Field struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// FieldTable is an ordered sequence of labeled fields with unique labels.
// Insertion order is display order. A FieldTable is immutable: it is built
// with a FieldTableBuilder and every accessor returns copies.
type FieldTable struct {
	fields []Field
}

// Len returns the number of fields.
func (t FieldTable) Len() int { return len(t.fields) }

// Fields returns a copy of the fields in display order.
func (t FieldTable) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// At returns the field at position i.
func (t FieldTable) At(i int) Field { return t.fields[i] }

// Get returns the value stored under label.
func (t FieldTable) Get(label string) (string, bool) {
	for _, f := range t.fields {
		if f.Label == label {
			return f.Value, true
		}
	}
	return "", false
}

// Labels returns the labels in display order.
func (t FieldTable) Labels() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Label
	}
	return out
}

// Equal reports whether both tables hold the same fields in the same order.
func (t FieldTable) Equal(other FieldTable) bool {
	if len(t.fields) != len(other.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the table as a JSON object whose keys keep display order.
func (t FieldTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range t.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Label); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// MarshalYAML encodes the table as a YAML mapping whose keys keep display order.
// Values are tagged as strings so "12" stays a string on the way back in.
func (t FieldTable) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range t.fields {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Label},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}
	return node, nil
}

// FieldTableBuilder accumulates fields for a FieldTable. Setting a label
// that already exists replaces its value without moving it.
type FieldTableBuilder struct {
	fields []Field
	index  map[string]int
}

// NewFieldTableBuilder returns an empty builder.
func NewFieldTableBuilder() *FieldTableBuilder {
	return &FieldTableBuilder{index: make(map[string]int)}
}

// Set stores value under label.
func (b *FieldTableBuilder) Set(label, value string) {
	if i, ok := b.index[label]; ok {
		b.fields[i].Value = value
		return
	}
	b.index[label] = len(b.fields)
	b.fields = append(b.fields, Field{Label: label, Value: value})
}

// Build returns the finished table. The builder may keep being used; later
// calls to Set do not affect tables already built.
func (b *FieldTableBuilder) Build() FieldTable {
	fields := make([]Field, len(b.fields))
	copy(fields, b.fields)
	return FieldTable{fields: fields}
}
