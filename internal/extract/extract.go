// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a PDF file into an ordered table of display fields.
//
// Structural parsing is delegated to a Parser; this package only sequences
// the calls, applies placeholders and date formatting, and decides which
// failures abort the extraction. Reading or loading the document is fatal.
// A missing info dictionary or an unreadable XMP packet is not.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pdiddy/pdfmeta/internal/locale"
	"github.com/pdiddy/pdfmeta/internal/pdfdate"
	"github.com/pdiddy/pdfmeta/internal/xmp"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// XMPLabelPrefix is prepended to every XMP property name in the table.
const XMPLabelPrefix = "XMP: "

// Parser abstracts the external document parser so tests can supply a fake.
// Load returns a *types.ExtractionError for every failure, already
// classified by kind.
type Parser interface {
	Load(ctx context.Context, data []byte) (Document, error)
}

// Document is the parser's view of one loaded PDF.
type Document interface {
	NumPages() int
	Encrypted() bool
	// Version is the header version ("1.7"), or "" when unknown.
	Version() string
	// Metadata returns the info dictionary and XMP packet. ok is false when
	// the parser could not produce metadata at all; the caller then proceeds
	// with an empty dictionary.
	Metadata() (md Metadata, ok bool)
}

// Metadata is the document's info dictionary plus its optional XMP packet.
type Metadata struct {
	// Info maps info dictionary keys without the leading slash ("Title")
	// to their decoded string values.
	Info map[string]string
	// XMP is nil when the document carries no XMP packet.
	XMP XMPSource
}

// XMPSource enumerates XMP properties on demand.
type XMPSource interface {
	Entries() ([]xmp.Property, error)
}

// Info dictionary keys used for the baseline fields.
const (
	infoTitle        = "Title"
	infoAuthor       = "Author"
	infoCreator      = "Creator"
	infoProducer     = "Producer"
	infoCreationDate = "CreationDate"
	infoModDate      = "ModDate"
)

// Extractor builds field tables. It holds only configuration fixed at
// construction and is safe for concurrent use.
type Extractor struct {
	parser Parser
	loc    *locale.Localizer
	dates  pdfdate.Formatter
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocalizer sets the language for labels and placeholders. The date
// layout follows the localizer unless WithDateFormatter is also given.
func WithLocalizer(l *locale.Localizer) Option {
	return func(e *Extractor) {
		e.loc = l
	}
}

// WithDateFormatter overrides the date formatter.
func WithDateFormatter(f pdfdate.Formatter) Option {
	return func(e *Extractor) {
		e.dates = f
	}
}

// WithLogger sets the logger for diagnostic messages.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New returns an Extractor that delegates parsing to p.
func New(p Parser, opts ...Option) *Extractor {
	e := &Extractor{parser: p}
	for _, opt := range opts {
		opt(e)
	}
	if e.loc == nil {
		e.loc = locale.New(types.DefaultLocale)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.dates.Layout == "" {
		e.dates.Layout = e.loc.DateLayout()
	}
	if e.dates.Placeholder == "" {
		e.dates.Placeholder = e.loc.Placeholder()
	}
	return e
}

// Extract reads file, parses it and returns its field table. On failure the
// error is a *types.ExtractionError and the table is empty.
func (e *Extractor) Extract(ctx context.Context, file File) (types.FieldTable, error) {
	log := e.logger.With("file", file.Name())

	data, err := readAll(ctx, file)
	if err != nil {
		log.Error("reading PDF file failed", "error", err)
		return types.FieldTable{}, types.NewExtractionError(types.KindOther, "reading file", err)
	}

	log.Debug("loading PDF document", "bytes", len(data))
	doc, err := e.parser.Load(ctx, data)
	if err != nil {
		log.Error("loading PDF document failed", "error", err)
		return types.FieldTable{}, classify(err)
	}
	log.Debug("PDF document loaded", "pages", doc.NumPages())

	md, ok := doc.Metadata()
	if !ok {
		log.Warn("metadata unavailable, using empty info dictionary")
		md = Metadata{}
	}

	table := e.build(file, doc, md, log)
	log.Debug("metadata extracted", "fields", table.Len())
	return table, nil
}

func (e *Extractor) build(file File, doc Document, md Metadata, log *slog.Logger) types.FieldTable {
	b := types.NewFieldTableBuilder()
	text := e.loc.Text
	info := func(key string) string {
		if v := md.Info[key]; v != "" {
			return v
		}
		return e.loc.Placeholder()
	}

	b.Set(text(locale.FileName), file.Name())
	b.Set(text(locale.Size), formatSize(file.Size()))
	b.Set(text(locale.PageCount), strconv.Itoa(doc.NumPages()))
	b.Set(text(locale.Title), info(infoTitle))
	b.Set(text(locale.Author), info(infoAuthor))
	b.Set(text(locale.Creator), info(infoCreator))
	b.Set(text(locale.Producer), info(infoProducer))
	b.Set(text(locale.CreationDate), e.dates.Format(md.Info[infoCreationDate]))
	b.Set(text(locale.ModDate), e.dates.Format(md.Info[infoModDate]))
	b.Set(text(locale.PDFVersion), e.version(doc.Version()))
	b.Set(text(locale.Encrypted), e.loc.Bool(doc.Encrypted()))

	for _, p := range e.xmpEntries(md.XMP, log) {
		if !p.IsText() || strings.TrimSpace(p.Value) == "" {
			continue
		}
		b.Set(XMPLabelPrefix+p.Name, p.Value)
	}
	return b.Build()
}

// xmpEntries returns no entries when the packet is absent or cannot be read.
func (e *Extractor) xmpEntries(src XMPSource, log *slog.Logger) []xmp.Property {
	if src == nil {
		return nil
	}
	entries, err := src.Entries()
	if err != nil {
		log.Warn("failed to parse XMP metadata", "error", err)
		return nil
	}
	return entries
}

func (e *Extractor) version(v string) string {
	if v == "" {
		return e.loc.Placeholder()
	}
	return "PDF " + v
}

// formatSize renders a byte count in mebibytes with two decimals.
func formatSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

func readAll(ctx context.Context, file File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// classify passes parser errors through and wraps anything else as KindOther.
func classify(err error) *types.ExtractionError {
	var ee *types.ExtractionError
	if errors.As(err, &ee) {
		return ee
	}
	return types.NewExtractionError(types.KindOther, "loading document", err)
}
