package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"symbolcut/internal/config"
	"symbolcut/internal/isolate"
	"symbolcut/internal/logger"
	"symbolcut/internal/raster"
)

// Server exposes the isolation pipeline over HTTP: image bytes in, PNG out.
// The pipeline itself stays free of I/O; this is the external boundary that
// decodes uploads and encodes results.
type Server struct {
	opts config.Options
	log  *logger.Logger
}

func New(opts config.Options, log *logger.Logger) (*Server, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Server{opts: opts, log: log}, nil
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/isolate", s.handleIsolate)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleIsolate runs one image through the pipeline.
//
// Query parameters: force=1 bypasses the adaptive skip; edge_threshold,
// border_white_ratio and sharpen_amount override the server defaults for
// this call. Out-of-range overrides are a 400, mirroring the pipeline's
// eager config validation.
//
// Response headers report the outcome: X-Symbolcut-Skipped,
// X-Symbolcut-Fallback, and X-Symbolcut-Box as "minX,minY,maxX,maxY"
// (inclusive, input coordinates) when processing happened.
func (s *Server) handleIsolate(w http.ResponseWriter, r *http.Request) {
	opts, force, err := s.callOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, _, err := raster.Decode(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("undecodable image: %v", err), http.StatusBadRequest)
		return
	}

	pipe, err := isolate.New(opts, s.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := pipe.Run(r.Context(), img, isolate.RunOptions{Force: force})

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, res.Image); err != nil {
		s.log.Error("server", err, map[string]interface{}{"request_id": middleware.GetReqID(r.Context())})
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Symbolcut-Skipped", strconv.FormatBool(res.Skipped))
	w.Header().Set("X-Symbolcut-Fallback", strconv.FormatBool(res.FallbackUsed))
	if !res.Skipped && !res.FallbackUsed {
		w.Header().Set("X-Symbolcut-Box", fmt.Sprintf("%d,%d,%d,%d",
			res.Box.MinX, res.Box.MinY, res.Box.MaxX, res.Box.MaxY))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) callOptions(r *http.Request) (config.Options, bool, error) {
	opts := s.opts
	q := r.URL.Query()

	force := q.Get("force") == "1" || q.Get("force") == "true"

	if v := q.Get("edge_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, false, fmt.Errorf("bad edge_threshold %q", v)
		}
		opts.EdgeThreshold = f
	}
	if v := q.Get("border_white_ratio"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, false, fmt.Errorf("bad border_white_ratio %q", v)
		}
		opts.BorderWhiteRatio = f
	}
	if v := q.Get("sharpen_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, false, fmt.Errorf("bad sharpen_amount %q", v)
		}
		opts.SharpenAmount = f
	}
	return opts, force, nil
}
