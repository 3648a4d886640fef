// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/pdfmeta/internal/extract"
	"github.com/pdiddy/pdfmeta/internal/xmp"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// pdfcpu writes a config directory on first use unless told not to.
var disableConfigDir = sync.OnceFunc(api.DisableConfigDir)

// needsFallback reports whether ledongthuc/pdf rejected data for a reason
// pdfcpu handles: AES-256 and other newer security handlers, and headers
// outside %PDF-1.0 to %PDF-1.7.
func needsFallback(err error, version string) bool {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "unsupported PDF: encryption"),
		strings.Contains(msg, "-bit encryption key"):
		return true
	case strings.HasPrefix(msg, "not a PDF file: invalid header"):
		return version != ""
	}
	return false
}

// loadCPU reads data with pdfcpu. Errors are classified the same way as
// the primary path.
func (p *Parser) loadCPU(data []byte, version string) (extract.Document, error) {
	disableConfigDir()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = p.Password

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, classifyCPU(err)
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, types.NewExtractionError(types.KindInvalidDocument, "", fmt.Errorf("malformed PDF: %w", err))
	}
	if _, ok := root.Find("Pages"); !ok {
		return nil, types.NewExtractionError(types.KindInvalidDocument, "", errors.New("malformed PDF: catalog has no page tree"))
	}

	return &cpuDocument{
		ctx:     ctx,
		root:    root,
		version: version,
		logger:  p.logger(),
	}, nil
}

func classifyCPU(err error) *types.ExtractionError {
	msg := err.Error()
	switch {
	case errors.Is(err, pdfcpu.ErrWrongPassword),
		strings.Contains(msg, "correct password"):
		return types.NewExtractionError(types.KindPasswordProtected, "", err)
	case strings.Contains(msg, "unsupported"):
		return types.NewExtractionError(types.KindOther, msg, nil)
	default:
		return types.NewExtractionError(types.KindInvalidDocument, "", err)
	}
}

// cpuDocument is a PDF loaded by pdfcpu. Objects are already decrypted.
type cpuDocument struct {
	ctx     *model.Context
	root    pdftypes.Dict
	version string
	logger  *slog.Logger
}

func (d *cpuDocument) NumPages() int {
	if err := d.ctx.EnsurePageCount(); err != nil {
		d.logger.Debug("reading page count failed", "error", err)
		return 0
	}
	return d.ctx.PageCount
}

func (d *cpuDocument) Encrypted() bool {
	return d.ctx.Encrypt != nil || d.ctx.E != nil
}

func (d *cpuDocument) Version() string { return d.version }

func (d *cpuDocument) Metadata() (md extract.Metadata, ok bool) {
	md.Info = make(map[string]string)
	if d.ctx.Info != nil {
		info, err := d.ctx.DereferenceDict(*d.ctx.Info)
		if err != nil {
			d.logger.Debug("reading info dictionary failed", "error", err)
			return extract.Metadata{}, false
		}
		for key, obj := range info {
			if s, ok := d.text(obj); ok {
				md.Info[key] = s
			}
		}
	}

	if obj, found := d.root.Find("Metadata"); found {
		md.XMP = &cpuXMP{ctx: d.ctx, obj: obj}
	}
	return md, true
}

// text decodes a string-valued object. Other kinds report false.
func (d *cpuDocument) text(obj pdftypes.Object) (string, bool) {
	obj, err := d.ctx.Dereference(obj)
	if err != nil {
		return "", false
	}
	var s string
	switch v := obj.(type) {
	case pdftypes.StringLiteral:
		s, err = pdftypes.StringLiteralToString(v)
	case pdftypes.HexLiteral:
		s, err = pdftypes.HexLiteralToString(v)
	default:
		return "", false
	}
	if err != nil {
		d.logger.Debug("decoding info string failed", "error", err)
		return "", false
	}
	return s, true
}

// cpuXMP reads the catalog's metadata stream lazily.
type cpuXMP struct {
	ctx *model.Context
	obj pdftypes.Object
}

func (s *cpuXMP) Entries() ([]xmp.Property, error) {
	sd, _, err := s.ctx.DereferenceStreamDict(s.obj)
	if err != nil {
		return nil, fmt.Errorf("reading XMP stream: %w", err)
	}
	if sd == nil {
		return nil, errors.New("reading XMP stream: not a stream")
	}
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("decoding XMP stream: %w", err)
	}
	return xmp.Parse(bytes.NewReader(sd.Content))
}
