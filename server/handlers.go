package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/odfpack/history"
	"github.com/hazyhaar/odfpack/odf"
	"github.com/hazyhaar/odfpack/safe"
	"github.com/hazyhaar/odfpack/shield"
)

const defaultUploadName = "content.xml"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

type validateResponse struct {
	Name string `json:"name"`
	odf.Report
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	name := uploadName(r)
	report := s.conv.Validate(raw)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, validateResponse{Name: name, Report: report})
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, s.renderer.HTML(name, report))
	case "md", "markdown":
		md, err := s.renderer.Markdown(name, report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, md)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q (use json, html or md)", format))
	}
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]odf.DocumentType{"doc_type": odf.DetectString(raw)})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	name := uploadName(r)

	out, err := s.conv.Convert(r.Context(), odf.File{Name: name, Content: raw})
	if err != nil {
		writeConvertError(w, err)
		return
	}

	id := s.record(r.Context(), history.Record{
		Name:        name,
		OutputName:  out.Name,
		DocType:     out.DocType,
		InputSize:   int64(len(raw)),
		InputSHA256: history.Checksum(raw),
	}, out.Data)

	mimeType, _ := odf.MIMEType(out.DocType)
	writeAttachment(w, mimeType, out.Name, id, out.Data)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		code := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			code = http.StatusRequestEntityTooLarge
		}
		writeError(w, code, fmt.Errorf("parse multipart: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, odf.ErrEmptyBatch)
		return
	}

	files := make([]odf.File, 0, len(headers))
	var total int64
	for _, fh := range headers {
		if fh.Size > s.cfg.MaxUploadBytes() {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("%s: %w", fh.Filename, odf.ErrTooLarge))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("open %s: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read %s: %w", fh.Filename, err))
			return
		}
		name := safe.FileName(fh.Filename, defaultUploadName)
		files = append(files, odf.File{Name: name, Content: string(data)})
		total += int64(len(data))
	}

	out, err := s.conv.ConvertBatch(r.Context(), files)
	if err != nil {
		writeConvertError(w, err)
		return
	}

	sum := make([]string, len(files))
	for i, f := range files {
		sum[i] = history.Checksum(f.Content)
	}
	id := s.record(r.Context(), history.Record{
		Name:        fmt.Sprintf("%d files", len(files)),
		OutputName:  out.Name,
		DocType:     history.DocTypeBatch,
		InputSize:   total,
		InputSHA256: history.Checksum(strings.Join(sum, "")),
	}, out.Data)

	writeAttachment(w, "application/zip", out.Name, id, out.Data)
}

// record stores a history entry and returns its ID. History is best effort:
// a failed insert is logged and the conversion is still served.
func (s *Server) record(ctx context.Context, rec history.Record, data []byte) string {
	if s.store == nil {
		return ""
	}
	rec.OutputSize = int64(len(data))
	if s.cfg.KeepArchives {
		rec.Archive = data
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		shield.GetLogger(ctx).Error("history insert failed", "name", rec.Name, "error", err)
		return ""
	}
	return id
}

func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversions": recs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	data, err := s.store.Archive(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	mimeType, err := odf.MIMEType(rec.DocType)
	if err != nil {
		mimeType = "application/zip"
	}
	writeAttachment(w, mimeType, rec.OutputName, id, data)
}

func (s *Server) handleDeleteConversion(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// --- helpers ---

// readUpload reads a raw XML body, capped at the per-file upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func uploadName(r *http.Request) string {
	return safe.FileName(r.URL.Query().Get("name"), defaultUploadName)
}

func writeAttachment(w http.ResponseWriter, contentType, name, id string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	if id != "" {
		h.Set("X-Conversion-ID", id)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var ve *odf.ValidationError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &ve), errors.Is(err, odf.ErrUnknownType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, odf.ErrTooLarge), errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, odf.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrNoArchive):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

type convertErrorResponse struct {
	Error  string      `json:"error"`
	Name   string      `json:"name,omitempty"`
	Index  *int        `json:"index,omitempty"`
	Report *odf.Report `json:"report,omitempty"`
}

// writeConvertError reports a failed conversion. Validation failures carry
// the full report; batch failures name the offending file.
func writeConvertError(w http.ResponseWriter, err error) {
	resp := convertErrorResponse{Error: err.Error()}
	var be *odf.BatchError
	if errors.As(err, &be) {
		idx := be.Index
		resp.Index = &idx
		resp.Name = be.Name
	}
	var ve *odf.ValidationError
	if errors.As(err, &ve) {
		resp.Name = ve.Name
		resp.Report = &ve.Report
	}
	writeJSON(w, statusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
