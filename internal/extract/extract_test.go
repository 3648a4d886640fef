// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmeta/internal/locale"
	"github.com/pdiddy/pdfmeta/internal/pdfdate"
	"github.com/pdiddy/pdfmeta/internal/xmp"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// fakeParser implements Parser for testing. It returns a canned document or
// error and records the bytes it was handed.
type fakeParser struct {
	doc *fakeDocument
	err error

	mu   sync.Mutex
	seen [][]byte
}

func (f *fakeParser) Load(ctx context.Context, data []byte) (Document, error) {
	f.mu.Lock()
	f.seen = append(f.seen, data)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fakeDocument struct {
	pages     int
	encrypted bool
	version   string
	md        Metadata
	noMD      bool
}

func (d *fakeDocument) NumPages() int   { return d.pages }
func (d *fakeDocument) Encrypted() bool { return d.encrypted }
func (d *fakeDocument) Version() string { return d.version }
func (d *fakeDocument) Metadata() (Metadata, bool) {
	if d.noMD {
		return Metadata{}, false
	}
	return d.md, true
}

type fakeXMP struct {
	props []xmp.Property
	err   error
}

func (x *fakeXMP) Entries() ([]xmp.Property, error) { return x.props, x.err }

// failingFile fails on Open or on Read.
type failingFile struct {
	openErr error
	readErr error
}

func (f *failingFile) Name() string { return "broken.pdf" }
func (f *failingFile) Size() int64  { return 10 }
func (f *failingFile) Open() (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(&errReader{err: f.readErr}), nil
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExtractor(p Parser, tag string) *Extractor {
	loc := locale.New(tag)
	return New(p,
		WithLocalizer(loc),
		WithDateFormatter(pdfdate.Formatter{Layout: time.DateTime, Location: time.UTC, Placeholder: loc.Placeholder()}),
		WithLogger(quietLogger()),
	)
}

var baselineLabels = []string{
	"File name", "Size", "Page count", "Title", "Author", "Creator", "Producer",
	"Creation date", "Modification date", "PDF version", "Encrypted",
}

func TestExtractBaseline(t *testing.T) {
	p := &fakeParser{doc: &fakeDocument{
		pages:   12,
		version: "1.7",
		md: Metadata{Info: map[string]string{
			"Title":        "T",
			"Author":       "A. Writer",
			"Creator":      "Writer",
			"Producer":     "LibreOffice 7.5",
			"CreationDate": "D:20230615143000",
			"ModDate":      "D:20230616",
		}},
	}}
	file := MemoryFile("report.pdf", bytes.Repeat([]byte{'x'}, 1536*1024))

	table, err := newTestExtractor(p, "en").Extract(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, []types.Field{
		{Label: "File name", Value: "report.pdf"},
		{Label: "Size", Value: "1.50 MB"},
		{Label: "Page count", Value: "12"},
		{Label: "Title", Value: "T"},
		{Label: "Author", Value: "A. Writer"},
		{Label: "Creator", Value: "Writer"},
		{Label: "Producer", Value: "LibreOffice 7.5"},
		{Label: "Creation date", Value: "2023-06-15 14:30:00"},
		{Label: "Modification date", Value: "2023-06-16 00:00:00"},
		{Label: "PDF version", Value: "PDF 1.7"},
		{Label: "Encrypted", Value: "No"},
	}, table.Fields())

	require.Len(t, p.seen, 1)
	assert.Len(t, p.seen[0], 1536*1024)
}

func TestExtractPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		doc  *fakeDocument
	}{
		{name: "empty info dictionary", doc: &fakeDocument{pages: 1, md: Metadata{Info: map[string]string{}}}},
		{name: "nil info dictionary", doc: &fakeDocument{pages: 1}},
		{name: "metadata unavailable", doc: &fakeDocument{pages: 1, noMD: true}},
		{name: "empty strings count as absent", doc: &fakeDocument{pages: 1, md: Metadata{Info: map[string]string{"Title": "", "ModDate": ""}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := newTestExtractor(&fakeParser{doc: tt.doc}, "en").Extract(context.Background(), MemoryFile("a.pdf", []byte("%PDF")))
			require.NoError(t, err)

			assert.Equal(t, baselineLabels, table.Labels())
			for _, f := range table.Fields()[3:10] {
				assert.Equal(t, "Not specified", f.Value, f.Label)
			}
			assert.Equal(t, "a.pdf", table.At(0).Value)
			assert.Equal(t, "0.00 MB", table.At(1).Value)
			assert.Equal(t, "1", table.At(2).Value)
			assert.Equal(t, "No", table.At(10).Value)
		})
	}
}

func TestExtractRussian(t *testing.T) {
	p := &fakeParser{doc: &fakeDocument{
		pages:     2,
		encrypted: true,
		md:        Metadata{Info: map[string]string{"CreationDate": "D:20230615143000"}},
	}}
	loc := locale.New("ru")
	e := New(p, WithLocalizer(loc), WithLogger(quietLogger()))

	table, err := e.Extract(context.Background(), MemoryFile("отчёт.pdf", nil))
	require.NoError(t, err)

	title, ok := table.Get("Заголовок")
	require.True(t, ok)
	assert.Equal(t, "Не указано", title)

	created, _ := table.Get("Дата создания")
	assert.Equal(t, "15.06.2023, 14:30:00", created)

	encrypted, _ := table.Get("Зашифрован")
	assert.Equal(t, "Да", encrypted)
}

func TestExtractXMP(t *testing.T) {
	tests := []struct {
		name string
		xmp  XMPSource
		want []types.Field
	}{
		{
			name: "no packet",
			xmp:  nil,
			want: nil,
		},
		{
			name: "string values appended in order",
			xmp: &fakeXMP{props: []xmp.Property{
				{Name: "dc:format", Value: "application/pdf"},
				{Name: "pdf:producer", Value: "Typst"},
			}},
			want: []types.Field{
				{Label: "XMP: dc:format", Value: "application/pdf"},
				{Label: "XMP: pdf:producer", Value: "Typst"},
			},
		},
		{
			name: "empty and list values skipped",
			xmp: &fakeXMP{props: []xmp.Property{
				{Name: "pdf:keywords", Value: ""},
				{Name: "dc:description", Value: "   "},
				{Name: "dc:creator", List: []string{"Jane"}},
				{Name: "dc:subject", List: []string{}},
				{Name: "xmp:creatortool", Value: "Word"},
			}},
			want: []types.Field{
				{Label: "XMP: xmp:creatortool", Value: "Word"},
			},
		},
		{
			name: "enumeration failure yields no XMP fields",
			xmp: &fakeXMP{
				props: []xmp.Property{{Name: "dc:format", Value: "application/pdf"}},
				err:   errors.New("XML syntax error"),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeParser{doc: &fakeDocument{pages: 1, md: Metadata{XMP: tt.xmp}}}
			table, err := newTestExtractor(p, "en").Extract(context.Background(), MemoryFile("x.pdf", nil))
			require.NoError(t, err)

			require.Equal(t, baselineLabels, table.Labels()[:len(baselineLabels)])
			var extra []types.Field
			if table.Len() > len(baselineLabels) {
				extra = table.Fields()[len(baselineLabels):]
			}
			assert.Equal(t, tt.want, extra)
		})
	}
}

func TestExtractErrors(t *testing.T) {
	passwordErr := types.NewExtractionError(types.KindPasswordProtected, "", errors.New("encrypted PDF: invalid password"))
	invalidErr := types.NewExtractionError(types.KindInvalidDocument, "", errors.New("not a PDF file: invalid header"))

	tests := []struct {
		name      string
		parser    *fakeParser
		file      File
		wantKind  types.ErrorKind
		wantCause error
	}{
		{
			name:      "password protected",
			parser:    &fakeParser{err: passwordErr},
			file:      MemoryFile("locked.pdf", []byte("%PDF")),
			wantKind:  types.KindPasswordProtected,
			wantCause: passwordErr,
		},
		{
			name:      "invalid document",
			parser:    &fakeParser{err: invalidErr},
			file:      MemoryFile("junk.pdf", []byte("junk")),
			wantKind:  types.KindInvalidDocument,
			wantCause: invalidErr,
		},
		{
			name:     "unclassified parser error",
			parser:   &fakeParser{err: errors.New("worker crashed")},
			file:     MemoryFile("a.pdf", []byte("%PDF")),
			wantKind: types.KindOther,
		},
		{
			name:      "open failure",
			parser:    &fakeParser{doc: &fakeDocument{}},
			file:      &failingFile{openErr: io.ErrClosedPipe},
			wantKind:  types.KindOther,
			wantCause: io.ErrClosedPipe,
		},
		{
			name:      "read failure",
			parser:    &fakeParser{doc: &fakeDocument{}},
			file:      &failingFile{readErr: io.ErrUnexpectedEOF},
			wantKind:  types.KindOther,
			wantCause: io.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := newTestExtractor(tt.parser, "en").Extract(context.Background(), tt.file)
			require.Error(t, err)
			assert.Equal(t, 0, table.Len())

			var ee *types.ExtractionError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.wantKind, ee.Kind)
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}
		})
	}
}

func TestExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeParser{doc: &fakeDocument{}}
	_, err := newTestExtractor(p, "en").Extract(ctx, MemoryFile("a.pdf", []byte("%PDF")))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.seen, "parser must not be called after cancellation")
}

func TestExtractIdempotentAndConcurrent(t *testing.T) {
	p := &fakeParser{doc: &fakeDocument{
		pages:   5,
		version: "1.5",
		md: Metadata{
			Info: map[string]string{"Title": "Same", "ModDate": "D:20240101120000"},
			XMP:  &fakeXMP{props: []xmp.Property{{Name: "dc:format", Value: "application/pdf"}}},
		},
	}}
	e := newTestExtractor(p, "en")
	file := MemoryFile("same.pdf", []byte("%PDF-1.5 content"))

	first, err := e.Extract(context.Background(), file)
	require.NoError(t, err)

	const n = 8
	results := make([]types.FieldTable, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			table, err := e.Extract(context.Background(), file)
			assert.NoError(t, err)
			results[i] = table
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		assert.True(t, first.Equal(r), "result %d differs", i)
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0.00 MB", formatSize(0))
	assert.Equal(t, "1.00 MB", formatSize(1<<20))
	assert.Equal(t, "2.50 MB", formatSize(5<<19))
}
