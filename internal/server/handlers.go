package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/brochure-cli/internal/analyzer"
	"github.com/sells-group/brochure-cli/internal/extract"
	"github.com/sells-group/brochure-cli/internal/fetcher"
	"github.com/sells-group/brochure-cli/internal/prompt"
)

var errBadRequest = errors.New("bad request")

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, prompt.ModeAnalyze)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, prompt.ModeCompare)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, mode prompt.Mode) {
	req, err := s.parseRequest(w, r, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	a, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// parseRequest reads uploads from "file" fields, links from "url" fields and
// a plan name from "plan". Uploads come first, in form order.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request, mode prompt.Mode) (analyzer.Request, error) {
	req := analyzer.Request{Mode: mode}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, eris.Wrapf(fetcher.ErrTooLarge, "upload exceeds %d bytes", s.opts.MaxUploadBytes)
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return req, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["file"] {
			p, err := readUpload(fh)
			if err != nil {
				return req, err
			}
			req.Payloads = append(req.Payloads, p)
		}
	}
	for _, u := range r.Form["url"] {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !fetcher.IsURL(u) {
			return req, fmt.Errorf("%w: %q is not an http(s) URL", errBadRequest, u)
		}
		req.Sources = append(req.Sources, u)
	}
	req.PlanName = strings.TrimSpace(r.FormValue("plan"))

	if mode == prompt.ModeCompare && len(req.Payloads)+len(req.Sources) < 2 {
		return req, fmt.Errorf("%w: comparison needs two brochures", errBadRequest)
	}
	return req, nil
}

func readUpload(fh *multipart.FileHeader) (extract.Payload, error) {
	f, err := fh.Open()
	if err != nil {
		return extract.Payload{}, eris.Wrapf(err, "open upload %s", fh.Filename)
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return extract.Payload{}, eris.Wrapf(err, "read upload %s", fh.Filename)
	}
	return extract.Payload{Label: fh.Filename, Data: data}, nil
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, fmt.Errorf("%w: invalid limit %q", errBadRequest, v))
			return
		}
		limit = min(n, 200)
	}
	list, err := s.history.ListAnalyses(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "history is disabled"})
		return
	}
	a, err := s.history.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
