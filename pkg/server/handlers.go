package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/codexrender/pkg/entry"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
	"github.com/matzehuels/codexrender/pkg/pipeline"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type renderResponse struct {
	OK   bool   `json:"ok"`
	File string `json:"file"`
	URL  string `json:"url"`
}

type errorResponse struct {
	OK     bool    `json:"ok"`
	Error  string  `json:"error"`
	Issues []Issue `json:"issues,omitempty"`
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "OK")
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	list, err := s.entries.List(r.Context())
	if err != nil {
		s.logger.Error("list entries", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Store error"})
		return
	}
	list, err = entry.Filter(list, r.URL.Query().Get("match"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "Invalid payload",
			Issues: []Issue{{Code: "invalid_string", Path: []string{"match"}, Message: err.Error()}},
		})
		return
	}
	if list == nil {
		list = []entry.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entries": list})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	rec, err := s.entries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusInternalServerError {
			s.logger.Error("get entry", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Store error"})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entry": rec})
}

func (s *Server) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid payload"})
		return
	}
	rec, err := entry.DecodeJSON(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "Invalid payload",
			Issues: []Issue{{Code: "invalid_type", Path: []string{}, Message: "Expected entry object"}},
		})
		return
	}
	if rec.ID != "" && rec.ID != id {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "Invalid payload",
			Issues: []Issue{{Code: "custom", Path: []string{"id"}, Message: "id does not match the request path"}},
		})
		return
	}
	rec.ID = id

	if err := s.entries.Save(r.Context(), rec); err != nil {
		if apperrors.HTTPStatus(err) == http.StatusBadRequest {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "Invalid payload",
				Issues: []Issue{{Code: "custom", Path: []string{"id"}, Message: apperrors.UserMessage(err)}},
			})
			return
		}
		s.logger.Error("save entry", "entry", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Store error"})
		return
	}
	s.logger.Info("saved entry", "entry", id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid payload"})
		return
	}
	cfg, issues := parseRenderRequest(body, s.defaults)
	if len(issues) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid payload", Issues: issues})
		return
	}

	res, err := s.render(r.Context(), cfg)
	if err != nil {
		s.writeRenderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{OK: true, File: s.localFile(res.FileName), URL: res.Locator})
}

func (s *Server) handleRenderRedirect(w http.ResponseWriter, r *http.Request) {
	cfg := s.defaults
	cfg.EntryID = chi.URLParam(r, "id")

	res, err := s.render(r.Context(), cfg)
	if err != nil {
		switch renderStatus(err) {
		case http.StatusNotFound:
			http.Error(w, "Entry not found", http.StatusNotFound)
		case http.StatusBadRequest:
			http.Error(w, apperrors.UserMessage(err), http.StatusBadRequest)
		case http.StatusServiceUnavailable:
			http.Error(w, "Busy", http.StatusServiceUnavailable)
		default:
			s.logger.Error("render", "entry", cfg.EntryID, "err", err)
			http.Error(w, "Render error", http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, res.Locator, http.StatusFound)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := s.media.Open(r.Context(), name)
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusInternalServerError {
			s.logger.Error("open media", "name", name, "err", err)
			http.Error(w, "Media error", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}

// render waits for a render slot and runs the pipeline. The pipeline call
// is detached from request cancellation.
func (s *Server) render(ctx context.Context, cfg pipeline.Config) (*pipeline.Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, errBusy
	}
	defer s.sem.Release(1)
	return s.runner.Render(context.WithoutCancel(ctx), cfg)
}

// errBusy reports that no render slot became free before the request ended.
var errBusy = &statusError{status: http.StatusServiceUnavailable}

type statusError struct{ status int }

func (e *statusError) Error() string { return http.StatusText(e.status) }

func (s *Server) writeRenderError(w http.ResponseWriter, err error) {
	switch status := renderStatus(err); status {
	case http.StatusNotFound:
		writeJSON(w, status, errorResponse{Error: "Entry not found"})
	case http.StatusBadRequest:
		writeJSON(w, status, errorResponse{
			Error:  "Invalid payload",
			Issues: []Issue{{Code: "custom", Path: []string{}, Message: apperrors.UserMessage(err)}},
		})
	case http.StatusServiceUnavailable:
		writeJSON(w, status, errorResponse{Error: "Busy"})
	default:
		s.logger.Error("render", "code", apperrors.GetCode(err), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Render error"})
	}
}

func renderStatus(err error) int {
	if se, ok := err.(*statusError); ok {
		return se.status
	}
	return apperrors.HTTPStatus(err)
}

// localFile returns the on-disk path for sinks that have one, else name.
func (s *Server) localFile(name string) string {
	if p, ok := s.media.(interface{ Path(string) string }); ok {
		return filepath.ToSlash(p.Path(name))
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
