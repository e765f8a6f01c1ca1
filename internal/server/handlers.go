package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/multilevel/pkg/buildinfo"
	apperr "github.com/matzehuels/multilevel/pkg/errors"
	mlio "github.com/matzehuels/multilevel/pkg/io"
	"github.com/matzehuels/multilevel/pkg/pipeline"
)

// defaultAPIFormat is returned when the request names no format.
const defaultAPIFormat = pipeline.FormatJSON

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime"`
	Build  buildinfo.Info `json:"build"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Build:  buildinfo.Get(),
	})
}

func (s *Server) buildHierarchy(w http.ResponseWriter, r *http.Request) {
	format, err := mlio.FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, http.StatusUnsupportedMediaType, string(apperr.ErrCodeInvalidFormat), apperr.UserMessage(err))
		return
	}

	opts, err := s.parseOptions(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	// Decoders may flatten read errors into strings, so the limit is
	// enforced on the raw body before decoding.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, r, http.StatusBadRequest, string(apperr.ErrCodeInvalidDocument), "read request body: "+err.Error())
		return
	}

	doc, err := mlio.ReadDocument(bytes.NewReader(body), format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts.Logger = s.logger.With("request_id", RequestIDFromContext(r.Context()))
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := opts.Formats[0]
	w.Header().Set("Content-Type", pipeline.ContentTypes[out])
	w.Header().Set("X-Hierarchy-ID", res.Hierarchy.ID().String())
	w.Header().Set("X-Document-Hash", res.DocHash)
	if out == pipeline.FormatDOT || out == pipeline.FormatSVG {
		w.Header().Set("X-Cache", cacheStatus(res.CacheInfo.RenderHit))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[out])
}

// parseOptions merges query parameters over the server defaults.
func (s *Server) parseOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.defaults
	opts.Formats = []string{defaultAPIFormat}

	if f := q.Get("format"); f != "" {
		opts.Formats = []string{strings.ToLower(f)}
	}
	if v := q.Get("strategy"); v != "" {
		opts.Strategy = v
	}
	if v := q.Get("direction"); v != "" {
		opts.Direction = v
	}

	var err error
	if opts.Level, err = intParam(q.Get("level"), opts.Level, apperr.ErrCodeInvalidLevel, "level"); err != nil {
		return opts, err
	}
	if opts.Parallel, err = intParam(q.Get("parallel"), opts.Parallel, apperr.ErrCodeInvalidInput, "parallel"); err != nil {
		return opts, err
	}
	for _, p := range []struct {
		name string
		dst  *bool
	}{
		{"detailed", &opts.Detailed},
		{"hide_cross_edges", &opts.HideCrossEdges},
		{"verify", &opts.Verify},
		{"refresh", &opts.Refresh},
	} {
		if *p.dst, err = boolParam(q.Get(p.name), *p.dst, p.name); err != nil {
			return opts, err
		}
	}
	return opts, opts.ValidateAndSetDefaults()
}

func intParam(v string, def int, code apperr.Code, name string) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.New(code, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func boolParam(v string, def bool, name string) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.New(apperr.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
	}
	return b, nil
}

// fail writes err with the status its code maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(apperr.GetCode(err))
	if code == "" {
		code = string(apperr.ErrCodeInternal)
	}
	msg := apperr.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestIDFromContext(r.Context()), "error", err)
		msg = "internal error"
	}
	writeError(w, r, status, code, msg)
}

func statusFor(err error) int {
	switch apperr.GetCode(err) {
	case apperr.ErrCodeInvalidMembership:
		return http.StatusUnprocessableEntity
	case apperr.ErrCodeInvalidDocument, apperr.ErrCodeInvalidFormat,
		apperr.ErrCodeInvalidLevel, apperr.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrCodeNotFound, apperr.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperr.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
