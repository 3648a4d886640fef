// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmeta/internal/pdfdoc/pdfdoctest"
	"github.com/pdiddy/pdfmeta/internal/xmp"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

const testXMP = `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
	`<rdf:Description xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:pdf="http://ns.adobe.com/pdf/1.3/">` +
	`<dc:format>application/pdf</dc:format><pdf:Producer>Typst 0.11</pdf:Producer>` +
	`</rdf:Description></rdf:RDF></x:xmpmeta>`

func TestLoad(t *testing.T) {
	data := pdfdoctest.Build(pdfdoctest.Options{
		Version: "1.7",
		Pages:   3,
		Info: map[string]string{
			"Title":        "Annual (Report)",
			"Author":       "Марина Иванова",
			"CreationDate": "D:20230615143000+02'00'",
		},
		XMP: testXMP,
	})

	doc, err := (&Parser{}).Load(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 3, doc.NumPages())
	assert.False(t, doc.Encrypted())
	assert.Equal(t, "1.7", doc.Version())

	md, ok := doc.Metadata()
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"Title":        "Annual (Report)",
		"Author":       "Марина Иванова",
		"CreationDate": "D:20230615143000+02'00'",
	}, md.Info)

	require.NotNil(t, md.XMP)
	props, err := md.XMP.Entries()
	require.NoError(t, err)
	assert.Equal(t, []xmp.Property{
		{Name: "dc:format", Value: "application/pdf"},
		{Name: "pdf:producer", Value: "Typst 0.11"},
	}, props)
}

func TestLoadPDF20(t *testing.T) {
	data := pdfdoctest.Build(pdfdoctest.Options{
		Version: "2.0",
		Pages:   5,
		Info:    map[string]string{"Title": "Next generation", "Author": "Марина Иванова"},
		XMP:     testXMP,
	})

	doc, err := (&Parser{}).Load(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 5, doc.NumPages())
	assert.False(t, doc.Encrypted())
	assert.Equal(t, "2.0", doc.Version())

	md, ok := doc.Metadata()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"Title": "Next generation", "Author": "Марина Иванова"}, md.Info)

	require.NotNil(t, md.XMP)
	props, err := md.XMP.Entries()
	require.NoError(t, err)
	assert.Equal(t, []xmp.Property{
		{Name: "dc:format", Value: "application/pdf"},
		{Name: "pdf:producer", Value: "Typst 0.11"},
	}, props)
}

func TestLoadWithoutMetadata(t *testing.T) {
	data := pdfdoctest.Build(pdfdoctest.Options{Pages: 1})

	doc, err := (&Parser{}).Load(context.Background(), data)
	require.NoError(t, err)

	md, ok := doc.Metadata()
	require.True(t, ok)
	assert.Empty(t, md.Info)
	assert.Nil(t, md.XMP)
	assert.Equal(t, "1.4", doc.Version())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		password string
		wantKind types.ErrorKind
	}{
		{
			name:     "not a PDF",
			data:     pdfdoctest.Garbage(),
			wantKind: types.KindInvalidDocument,
		},
		{
			name:     "empty buffer",
			data:     nil,
			wantKind: types.KindInvalidDocument,
		},
		{
			name:     "header without body",
			data:     append([]byte("%PDF-1.4\n"), pdfdoctest.Garbage()...),
			wantKind: types.KindInvalidDocument,
		},
		{
			name:     "password protected",
			data:     pdfdoctest.Build(pdfdoctest.Options{Pages: 2, Encrypt: true, UserPassword: "s3cret"}),
			wantKind: types.KindPasswordProtected,
		},
		{
			name:     "wrong password",
			data:     pdfdoctest.Build(pdfdoctest.Options{Pages: 2, Encrypt: true, UserPassword: "s3cret"}),
			password: "guess",
			wantKind: types.KindPasswordProtected,
		},
		{
			name:     "AES-256 password protected",
			data:     pdfdoctest.Build(pdfdoctest.Options{Pages: 2, Encrypt: true, AES256: true, UserPassword: "s3cret"}),
			wantKind: types.KindPasswordProtected,
		},
		{
			name:     "AES-256 wrong password",
			data:     pdfdoctest.Build(pdfdoctest.Options{Pages: 2, Encrypt: true, AES256: true, UserPassword: "s3cret"}),
			password: "guess",
			wantKind: types.KindPasswordProtected,
		},
		{
			name:     "corrupted catalog",
			data:     corruptCatalog(t, pdfdoctest.Build(pdfdoctest.Options{Pages: 2, Info: map[string]string{"Title": "T"}})),
			wantKind: types.KindInvalidDocument,
		},
		{
			name:     "PDF 2.0 header without body",
			data:     append([]byte("%PDF-2.0\n"), pdfdoctest.Garbage()...),
			wantKind: types.KindInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := (&Parser{Password: tt.password}).Load(context.Background(), tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)

			var ee *types.ExtractionError
			require.True(t, errors.As(err, &ee), "error %v is not an ExtractionError", err)
			assert.Equal(t, tt.wantKind, ee.Kind)
		})
	}
}

func TestLoadEncrypted(t *testing.T) {
	t.Run("empty user password opens without one", func(t *testing.T) {
		data := pdfdoctest.Build(pdfdoctest.Options{Pages: 4, Encrypt: true})
		doc, err := (&Parser{}).Load(context.Background(), data)
		require.NoError(t, err)
		assert.True(t, doc.Encrypted())
		assert.Equal(t, 4, doc.NumPages())
	})

	t.Run("configured password opens the document", func(t *testing.T) {
		data := pdfdoctest.Build(pdfdoctest.Options{Pages: 2, Encrypt: true, UserPassword: "s3cret"})
		p := New(types.ParserConfig{Password: "s3cret"}, nil)
		doc, err := p.Load(context.Background(), data)
		require.NoError(t, err)
		assert.True(t, doc.Encrypted())
		assert.Equal(t, 2, doc.NumPages())
	})

	t.Run("AES-256 with empty user password", func(t *testing.T) {
		data := pdfdoctest.Build(pdfdoctest.Options{Pages: 6, Encrypt: true, AES256: true})
		doc, err := (&Parser{}).Load(context.Background(), data)
		require.NoError(t, err)
		assert.True(t, doc.Encrypted())
		assert.Equal(t, 6, doc.NumPages())
		assert.Equal(t, "1.4", doc.Version())

		md, ok := doc.Metadata()
		require.True(t, ok)
		assert.Empty(t, md.Info)
	})

	t.Run("AES-256 with configured password", func(t *testing.T) {
		data := pdfdoctest.Build(pdfdoctest.Options{Pages: 3, Encrypt: true, AES256: true, UserPassword: "s3cret"})
		doc, err := New(types.ParserConfig{Password: "s3cret"}, nil).Load(context.Background(), data)
		require.NoError(t, err)
		assert.True(t, doc.Encrypted())
		assert.Equal(t, 3, doc.NumPages())
	})
}

// corruptCatalog overwrites the catalog object's body with filler of the
// same length, leaving every cross-reference offset valid.
func corruptCatalog(t *testing.T, data []byte) []byte {
	t.Helper()
	start := bytes.Index(data, []byte("<< /Type /Catalog"))
	require.GreaterOrEqual(t, start, 0)
	end := bytes.Index(data[start:], []byte("\nendobj"))
	require.Greater(t, end, 0)

	out := bytes.Clone(data)
	copy(out[start:start+end], bytes.Repeat([]byte("x"), end))
	return out
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Parser{}).Load(ctx, pdfdoctest.Build(pdfdoctest.Options{Pages: 1}))
	var ee *types.ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, types.KindOther, ee.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want types.ErrorKind
	}{
		{err: errors.New("not a PDF file: invalid header"), want: types.KindInvalidDocument},
		{err: errors.New("malformed PDF file: missing final startxref"), want: types.KindInvalidDocument},
		{err: errors.New("malformed PDF: xref table not followed by trailer dictionary"), want: types.KindInvalidDocument},
		{err: errors.New("stream filter /JBIG2Decode not implemented"), want: types.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err).Kind)
		})
	}
}

func TestHeaderVersion(t *testing.T) {
	assert.Equal(t, "1.5", headerVersion([]byte("%PDF-1.5\n...")))
	assert.Equal(t, "2.0", headerVersion([]byte("junk\n%PDF-2.0\n")))
	assert.Equal(t, "", headerVersion([]byte("no header here")))
}

func TestNeedsFallback(t *testing.T) {
	tests := []struct {
		msg     string
		version string
		want    bool
	}{
		{msg: "unsupported PDF: encryption version V=5", version: "1.7", want: true},
		{msg: "malformed PDF: 256-bit encryption key", version: "1.7", want: true},
		{msg: "not a PDF file: invalid header", version: "2.0", want: true},
		{msg: "not a PDF file: invalid header", version: "", want: false},
		{msg: "malformed PDF file: missing final startxref", version: "1.4", want: false},
		{msg: "not a PDF file: missing %%EOF", version: "1.4", want: false},
		{msg: "encrypted PDF: invalid password", version: "1.4", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.msg+" "+tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, needsFallback(errors.New(tt.msg), tt.version))
		})
	}
}

func TestClassifyCPU(t *testing.T) {
	tests := []struct {
		err  error
		want types.ErrorKind
	}{
		{err: pdfcpu.ErrWrongPassword, want: types.KindPasswordProtected},
		{err: fmt.Errorf("reading: %w", pdfcpu.ErrWrongPassword), want: types.KindPasswordProtected},
		{err: errors.New("pdfcpu: unsupported encryption filter"), want: types.KindOther},
		{err: errors.New("pdfcpu: headerVersion: corrupt pdf file"), want: types.KindInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, classifyCPU(tt.err).Kind)
		})
	}
}
