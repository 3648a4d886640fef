// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render prints field tables and extraction failures as aligned
// text, JSON or YAML.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfmeta/internal/locale"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// Envelope is the structured form of one extraction result. Exactly one of
// Fields and Error is set.
type Envelope struct {
	File   string            `json:"file,omitempty" yaml:"file,omitempty"`
	Fields *types.FieldTable `json:"fields,omitempty" yaml:"fields,omitempty"`
	Error  *ErrorBody        `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorBody describes a failed extraction.
type ErrorBody struct {
	Kind    types.ErrorKind `json:"kind" yaml:"kind"`
	Message string          `json:"message" yaml:"message"`
}

// NewEnvelope wraps a result for JSON or YAML output. A non-nil err wins over
// table; its message is localized with loc.
func NewEnvelope(file string, table types.FieldTable, err error, loc *locale.Localizer) Envelope {
	if err == nil {
		return Envelope{File: file, Fields: &table}
	}
	kind := types.KindOther
	var ee *types.ExtractionError
	if errors.As(err, &ee) {
		kind = ee.Kind
	}
	return Envelope{File: file, Error: &ErrorBody{Kind: kind, Message: loc.ErrorMessage(err)}}
}

// Text writes title, a rule, and one "label  value" row per field with the
// values aligned in a single column.
func Text(w io.Writer, title string, table types.FieldTable) error {
	width := 0
	for _, l := range table.Labels() {
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("-", max(utf8.RuneCountInString(title), width+2)))
		b.WriteByte('\n')
	}
	for _, f := range table.Fields() {
		fmt.Fprintf(&b, "%-*s  %s\n", width, f.Label, f.Value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Error writes a one-line localized error banner for the named file.
func Error(w io.Writer, loc *locale.Localizer, file string, err error) error {
	msg := loc.ErrorMessage(err)
	if file != "" {
		msg = file + ": " + msg
	}
	_, werr := fmt.Fprintln(w, msg)
	return werr
}

// JSON writes v indented, without HTML escaping.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as a single YAML document.
func YAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Printer writes a sequence of results in one output format. Text failures
// go to errW so stdout carries only tables; structured formats keep every
// result on w. A YAML run is one stream of documents separated by "---".
type Printer struct {
	w      io.Writer
	errW   io.Writer
	format types.OutputFormat
	loc    *locale.Localizer
	yenc   *yaml.Encoder
	// n counts text tables written so far.
	n int
}

// NewPrinter returns a Printer. Unknown formats are rejected.
func NewPrinter(w, errW io.Writer, format types.OutputFormat, loc *locale.Localizer) (*Printer, error) {
	p := &Printer{w: w, errW: errW, format: format, loc: loc}
	switch format {
	case types.OutputText, types.OutputJSON:
	case types.OutputYAML:
		p.yenc = yaml.NewEncoder(w)
		p.yenc.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
	return p, nil
}

// Print writes one result. err, when non-nil, is rendered instead of table.
func (p *Printer) Print(file string, table types.FieldTable, err error) error {
	switch p.format {
	case types.OutputJSON:
		return JSON(p.w, NewEnvelope(file, table, err, p.loc))
	case types.OutputYAML:
		return p.yenc.Encode(NewEnvelope(file, table, err, p.loc))
	}

	if err != nil {
		return Error(p.errW, p.loc, file, err)
	}
	if p.n > 0 {
		if _, werr := io.WriteString(p.w, "\n"); werr != nil {
			return werr
		}
	}
	p.n++
	return Text(p.w, p.loc.Text(locale.MetadataHeading), table)
}

// Close flushes buffered output.
func (p *Printer) Close() error {
	if p.yenc != nil {
		return p.yenc.Close()
	}
	return nil
}
