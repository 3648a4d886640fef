// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the extractor over HTTP: an upload page for
// browsers and a JSON endpoint for programs.
//
// Routes:
//
//	GET  /              upload form
//	POST /              upload form with the result rendered below it
//	POST /api/metadata  {"fields": {...}} or {"error": {"kind", "message"}}
//
// Uploads are multipart requests carrying one file in the "file" field.
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pdiddy/pdfmeta/internal/extract"
	"github.com/pdiddy/pdfmeta/internal/httputil"
	"github.com/pdiddy/pdfmeta/internal/locale"
	"github.com/pdiddy/pdfmeta/internal/render"
	"github.com/pdiddy/pdfmeta/pkg/types"
)

// FormField is the multipart field that carries the PDF.
const FormField = "file"

//go:embed page.html
var pageHTML string

var page = template.Must(template.New("page").Parse(pageHTML))

// Extractor is the subset of *extract.Extractor the server needs.
type Extractor interface {
	Extract(ctx context.Context, file extract.File) (types.FieldTable, error)
}

// Server handles upload requests. It is safe for concurrent use.
type Server struct {
	ext       Extractor
	loc       *locale.Localizer
	maxUpload int64
	logger    *slog.Logger
}

// New returns a Server. Labels and messages use loc, which should match the
// extractor's localizer.
func New(ext Extractor, loc *locale.Localizer, cfg types.ServeConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{ext: ext, loc: loc, maxUpload: cfg.MaxUploadBytes, logger: logger}
}

// Handler returns the routed handler with request ids and the body limit
// applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /{$}", s.handleFormUpload)
	mux.HandleFunc("POST /api/metadata", s.handleMetadata)
	return httputil.WithRequestID(s.logger, httputil.LimitBody(s.maxUpload, mux))
}

// uploadError is a request problem detected before extraction starts.
type uploadError struct {
	status int
	kind   string
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With("request_id", httputil.RequestID(r.Context()))

	file, err := readUpload(r)
	if err != nil {
		var ue *uploadError
		if !errors.As(err, &ue) {
			ue = &uploadError{status: http.StatusBadRequest, kind: "bad_request", msg: err.Error()}
		}
		log.Warn("rejected upload", "status", ue.status, "error", ue.msg)
		s.writeJSON(w, log, ue.status, map[string]apiError{"error": {Kind: ue.kind, Message: ue.msg}})
		return
	}

	table, err := s.ext.Extract(r.Context(), file)
	if err != nil {
		status := extractionStatus(err)
		log.Info("extraction failed", "file", file.Name(), "status", status, "error", err)
		env := render.NewEnvelope("", table, err, s.loc)
		s.writeJSON(w, log, status, env)
		return
	}

	log.Info("metadata extracted", "file", file.Name(), "fields", table.Len())
	s.writeJSON(w, log, http.StatusOK, render.NewEnvelope("", table, nil, s.loc))
}

// extractionStatus maps document problems to 422 and everything else to 500.
func extractionStatus(err error) int {
	var ee *types.ExtractionError
	if errors.As(err, &ee) && ee.Kind != types.KindOther {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	if err := httputil.WriteJSON(w, status, v); err != nil {
		log.Error("writing response failed", "error", err)
	}
}

type pageData struct {
	Lang    string
	Prompt  string
	Button  string
	Loading string
	Heading string
	Error   string
	Fields  []types.Field
}

func (s *Server) pageData() pageData {
	return pageData{
		Lang:    s.loc.Tag().String(),
		Prompt:  s.loc.Text(locale.UploadPrompt),
		Button:  s.loc.Text(locale.UploadButton),
		Loading: s.loc.Text(locale.LoadingMetadata),
		Heading: s.loc.Text(locale.MetadataHeading),
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.pageData())
}

func (s *Server) handleFormUpload(w http.ResponseWriter, r *http.Request) {
	data := s.pageData()
	status := http.StatusOK

	file, err := readUpload(r)
	if err != nil {
		status = http.StatusBadRequest
		var ue *uploadError
		if errors.As(err, &ue) {
			status = ue.status
		}
		data.Error = err.Error()
		s.renderPage(w, r, status, data)
		return
	}

	table, err := s.ext.Extract(r.Context(), file)
	if err != nil {
		data.Error = s.loc.ErrorMessage(err)
		status = extractionStatus(err)
	} else {
		data.Fields = table.Fields()
	}
	s.renderPage(w, r, status, data)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var b strings.Builder
	if err := page.Execute(&b, data); err != nil {
		s.logger.Error("rendering page failed", "request_id", httputil.RequestID(r.Context()), "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, b.String())
}

// readUpload streams the multipart body and returns the first part named
// FormField as an in-memory file. Other parts are skipped.
func readUpload(r *http.Request) (extract.File, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &uploadError{status: http.StatusBadRequest, kind: "bad_request", msg: "expected a multipart/form-data upload"}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, &uploadError{status: http.StatusBadRequest, kind: "missing_file", msg: fmt.Sprintf("no %q field in upload", FormField)}
		}
		if err != nil {
			return nil, bodyError(err)
		}
		if part.FormName() != FormField {
			part.Close()
			continue
		}
		return readPart(part)
	}
}

func readPart(part *multipart.Part) (extract.File, error) {
	defer part.Close()

	name := part.FileName()
	if name == "" {
		return nil, &uploadError{status: http.StatusBadRequest, kind: "missing_file", msg: fmt.Sprintf("%q field is not a file", FormField)}
	}
	if !isPDF(name, part.Header.Get("Content-Type")) {
		return nil, &uploadError{status: http.StatusUnsupportedMediaType, kind: "unsupported_media_type", msg: fmt.Sprintf("%s is not a PDF file", name)}
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return nil, bodyError(err)
	}
	return extract.MemoryFile(name, data), nil
}

func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &uploadError{status: http.StatusRequestEntityTooLarge, kind: "too_large", msg: fmt.Sprintf("upload exceeds %d bytes", mbe.Limit)}
	}
	return &uploadError{status: http.StatusBadRequest, kind: "bad_request", msg: fmt.Sprintf("reading upload: %v", err)}
}

// isPDF accepts the PDF media type, or any type when the name ends in .pdf.
func isPDF(name, contentType string) bool {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/pdf"
}
