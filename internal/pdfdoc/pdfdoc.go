// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc adapts github.com/ledongthuc/pdf to the extract.Parser
// interface, falling back to pdfcpu for files the former cannot open. It is
// the only place that inspects the libraries' errors; everything it returns
// is already classified as a *types.ExtractionError.
package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdfmeta/internal/extract"
	"github.com/pdiddy/pdfmeta/internal/xmp"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// headerWindow is how far into the file the %PDF-x.y header is searched.
const headerWindow = 1024

var headerRe = regexp.MustCompile(`%PDF-(\d+\.\d+)`)

// Parser loads documents with ledongthuc/pdf. The zero value is usable.
type Parser struct {
	// Password is tried when the empty user password does not open an
	// encrypted document.
	Password string
	Logger   *slog.Logger
}

// New returns a Parser configured from the process-wide parser settings.
func New(cfg types.ParserConfig, logger *slog.Logger) *Parser {
	return &Parser{Password: cfg.Password, Logger: logger}
}

var _ extract.Parser = (*Parser)(nil)

// Load parses data and returns the loaded document.
func (p *Parser) Load(ctx context.Context, data []byte) (doc extract.Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewExtractionError(types.KindOther, "loading document", err)
	}

	// The library reports some structural problems by panicking.
	defer func() {
		if r := recover(); r != nil {
			p.logger().Debug("pdf library panicked while loading", "panic", r)
			doc = nil
			err = types.NewExtractionError(types.KindInvalidDocument, "", fmt.Errorf("malformed PDF: %v", r))
		}
	}()

	version := headerVersion(data)
	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), p.passwords())
	if err != nil {
		if needsFallback(err, version) {
			p.logger().Debug("retrying with pdfcpu", "error", err)
			return p.loadCPU(data, version)
		}
		return nil, classify(err)
	}

	// Objects resolve lazily; a broken catalog would otherwise surface as
	// an empty document.
	root := r.Trailer().Key("Root")
	if root.Kind() != pdf.Dict || root.Key("Pages").Kind() != pdf.Dict {
		return nil, types.NewExtractionError(types.KindInvalidDocument, "", errors.New("malformed PDF: missing catalog or page tree"))
	}

	return &Document{
		r:       r,
		version: version,
		logger:  p.logger(),
	}, nil
}

// passwords yields the configured password once, then stops the library's
// retry loop. A nil callback makes the library give up after the empty
// password.
func (p *Parser) passwords() func() string {
	if p.Password == "" {
		return nil
	}
	tried := false
	return func() string {
		if tried {
			return ""
		}
		tried = true
		return p.Password
	}
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// classify maps a library error onto an extraction error kind.
func classify(err error) *types.ExtractionError {
	msg := err.Error()
	switch {
	case errors.Is(err, pdf.ErrInvalidPassword):
		return types.NewExtractionError(types.KindPasswordProtected, "", err)
	case strings.HasPrefix(msg, "not a PDF file"),
		strings.HasPrefix(msg, "malformed PDF"):
		return types.NewExtractionError(types.KindInvalidDocument, "", err)
	default:
		return types.NewExtractionError(types.KindOther, msg, nil)
	}
}

func headerVersion(data []byte) string {
	if len(data) > headerWindow {
		data = data[:headerWindow]
	}
	m := headerRe.FindSubmatch(data)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// Document is a loaded PDF.
type Document struct {
	r       *pdf.Reader
	version string
	logger  *slog.Logger
}

// NumPages returns the page count from the page tree root.
func (d *Document) NumPages() (n int) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("reading page count failed", "panic", r)
			n = 0
		}
	}()
	return d.r.NumPage()
}

// Encrypted reports whether the trailer names an encryption dictionary.
func (d *Document) Encrypted() bool {
	return d.r.Trailer().Key("Encrypt").Kind() != pdf.Null
}

// Version returns the header version, or "" when the header is missing.
func (d *Document) Version() string { return d.version }

// Metadata returns the string entries of the info dictionary and, when the
// catalog has one, the XMP metadata stream. ok is false only when walking
// the info dictionary fails outright.
func (d *Document) Metadata() (md extract.Metadata, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("reading info dictionary failed", "panic", r)
			md, ok = extract.Metadata{}, false
		}
	}()

	md.Info = make(map[string]string)
	info := d.r.Trailer().Key("Info")
	if info.Kind() == pdf.Dict {
		for _, key := range info.Keys() {
			v := info.Key(key)
			if v.Kind() == pdf.String {
				md.Info[key] = v.Text()
			}
		}
	}

	stream := d.r.Trailer().Key("Root").Key("Metadata")
	if stream.Kind() == pdf.Stream {
		md.XMP = &xmpStream{v: stream}
	}
	return md, true
}

// xmpStream reads the catalog's metadata stream lazily.
type xmpStream struct {
	v pdf.Value
}

func (s *xmpStream) Entries() (props []xmp.Property, err error) {
	defer func() {
		if r := recover(); r != nil {
			props, err = nil, fmt.Errorf("reading XMP stream: %v", r)
		}
	}()

	rc := s.v.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading XMP stream: %w", err)
	}
	return xmp.Parse(bytes.NewReader(data))
}
