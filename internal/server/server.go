// Package server serves generated diagram pages straight from the
// output store, so pages written to MinIO can be previewed without a
// separate web server.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/david-delgrosso/django-er-diagram/internal/errs"
	"github.com/david-delgrosso/django-er-diagram/internal/export"
	"github.com/david-delgrosso/django-er-diagram/internal/filestore"
	"github.com/david-delgrosso/django-er-diagram/internal/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// DefaultAddr only accepts connections from the local machine.
const DefaultAddr = "127.0.0.1:8000"

// Server is the preview HTTP server. It only serves the index and the
// module pages written into outputDir; every other key is 404.
type Server struct {
	store     filestore.Store
	outputDir string
	log       *logger.Logger
	router    chi.Router
}

// New returns a Server reading pages from store.
func New(store filestore.Store, outputDir string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{store: store, outputDir: outputDir, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/*", s.handleObject)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("preview server listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, "preview server failed", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down preview server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.With().Err(err).Logger().Error("preview server did not shut down cleanly")
		return errs.Wrap(errs.ErrKindTimeout, "preview server shutdown", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveObject(w, r, export.IndexFilename)
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request) {
	s.serveObject(w, r, chi.URLParam(r, "*"))
}

func (s *Server) serveObject(w http.ResponseWriter, r *http.Request, key string) {
	if !export.IsPageKey(key, s.outputDir) {
		http.NotFound(w, r)
		return
	}

	obj, err := s.store.GetObject(r.Context(), key)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).ErrorWith("failed to read object", err, map[string]interface{}{"key": key})
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer obj.Close()

	info := obj.Info()
	contentType := info.ContentType
	if contentType == "" {
		contentType = filestore.ContentTypeFor(key)
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	if info.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if info.ETag != "" {
		h.Set("ETag", `"`+info.ETag+`"`)
	}
	if !info.LastModified.IsZero() {
		h.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj); err != nil {
		logger.FromContext(r.Context()).ErrorWith("failed to stream object", err, map[string]interface{}{"key": key})
	}
}

// statusOf maps an error kind onto an HTTP status.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger attaches the server logger to the request context and
// logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		reqLog.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("duration", time.Since(start).String()).
			Logger().
			Info("request")
	})
}
