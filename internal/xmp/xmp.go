// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package xmp enumerates the properties of an XMP metadata packet.
//
// Only the flat rdf:Description form is read: each child element of an
// rdf:Description becomes one Property named "prefix:local" in lower case.
// dc:creator and dc:subject are list-valued; every other property is the
// trimmed text content of its element. Properties keep the order in which
// they first appear.
package xmp

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Property is one XMP property. List is non-nil for list-valued properties,
// in which case Value is empty.
type Property struct {
	Name  string
	Value string
	List  []string
}

// IsText reports whether the property holds a single text value.
func (p Property) IsText() bool {
	return p.List == nil
}

// listProperties are read as rdf:Bag/rdf:Seq/rdf:Alt containers.
var listProperties = map[string]bool{
	"dc:creator": true,
	"dc:subject": true,
}

// Parse reads an XMP packet and returns its properties in document order.
// A packet without an rdf:RDF element yields no properties. A repeated
// property keeps its first position and takes the last value.
func Parse(r io.Reader) ([]Property, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader

	p := &parser{d: d, index: make(map[string]int)}
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			return p.props, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading XMP packet: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok && qname(se.Name) == "rdf:rdf" {
			if err := p.rdf(); err != nil {
				return nil, fmt.Errorf("reading XMP packet: %w", err)
			}
			return p.props, nil
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported XMP encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

type parser struct {
	d     *xml.Decoder
	props []Property
	index map[string]int
}

func (p *parser) set(prop Property) {
	if i, ok := p.index[prop.Name]; ok {
		p.props[i] = prop
		return
	}
	p.index[prop.Name] = len(p.props)
	p.props = append(p.props, prop)
}

func (p *parser) next() (xml.Token, error) {
	tok, err := p.d.RawToken()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

// rdf reads the children of rdf:RDF up to its end tag.
func (p *parser) rdf() error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if qname(t.Name) == "rdf:description" {
				if err := p.description(); err != nil {
					return err
				}
				continue
			}
			if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) description() error {
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := qname(t.Name)
			if listProperties[name] {
				list, found, err := p.list()
				if err != nil {
					return err
				}
				if found {
					p.set(Property{Name: name, List: list})
				}
				continue
			}
			text, err := p.text()
			if err != nil {
				return err
			}
			p.set(Property{Name: name, Value: text})
		case xml.EndElement:
			return nil
		}
	}
}

// list reads a list-valued property. found is false when the element has no
// child nodes at all. A first child that is not a container yields an empty
// list.
func (p *parser) list() (list []string, found bool, err error) {
	list = []string{}
	first := true
	for {
		tok, err := p.next()
		if err != nil {
			return nil, false, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				found = true
				first = false
			}
		case xml.StartElement:
			found = true
			if first && isContainer(qname(t.Name)) {
				items, err := p.items()
				if err != nil {
					return nil, false, err
				}
				list = items
			} else if err := p.skip(); err != nil {
				return nil, false, err
			}
			first = false
		case xml.EndElement:
			return list, found, nil
		}
	}
}

// items reads the rdf:li children of a container.
func (p *parser) items() ([]string, error) {
	items := []string{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if qname(t.Name) != "rdf:li" {
				if err := p.skip(); err != nil {
					return nil, err
				}
				continue
			}
			text, err := p.text()
			if err != nil {
				return nil, err
			}
			items = append(items, text)
		case xml.EndElement:
			return items, nil
		}
	}
}

// text returns the trimmed text content of the current element, descendants
// included, and consumes its end tag.
func (p *parser) text() (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := p.next()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.TrimSpace(b.String()), nil
			}
			depth--
		}
	}
}

// skip consumes the rest of the current element.
func (p *parser) skip() error {
	depth := 0
	for {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func isContainer(name string) bool {
	return name == "rdf:bag" || name == "rdf:seq" || name == "rdf:alt"
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return strings.ToLower(n.Local)
	}
	return strings.ToLower(n.Space + ":" + n.Local)
}
