package ingestion

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/fileflow/internal/domain"
	"github.com/your-org/fileflow/internal/source"
)

// HTTPHandler exposes REST endpoints for the ingestion service.
type HTTPHandler struct {
	service      *Service
	logger       *zap.Logger
	maxSizeBytes int64
	formMemBytes int64
	router       chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(service *Service, logger *zap.Logger, maxSizeBytes, formMemBytes int64) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HTTPHandler{
		service:      service,
		logger:       logger,
		maxSizeBytes: maxSizeBytes,
		formMemBytes: formMemBytes,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/uploads", h.handleUpload)
		r.Get("/files/*", h.handleMetadata)
		r.Delete("/files/*", h.handleDelete)
		r.Get("/urls/*", h.handleURL)
	})

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// reserved form fields; everything else becomes object metadata.
var reservedFields = map[string]struct{}{
	"file":        {},
	"destination": {},
	"options":     {},
}

func (h *HTTPHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > 0 && r.ContentLength > h.maxSizeBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if err := r.ParseMultipartForm(h.formMemBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	file.Close()

	if header.Size > h.maxSizeBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds max size limit")
		return
	}

	var opts Options
	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			writeError(w, http.StatusBadRequest, "options must be a JSON object")
			return
		}
	}

	for key, values := range r.MultipartForm.Value {
		if _, ok := reservedFields[key]; ok || len(values) == 0 {
			continue
		}
		if opts.Metadata == nil {
			opts.Metadata = map[string]string{}
		}
		opts.Metadata[strings.ToLower(key)] = values[len(values)-1]
	}

	result, err := h.service.Upload(r.Context(), source.FromMultipart(header), r.FormValue("destination"), opts)
	if err != nil {
		h.writeServiceError(w, err, "upload failed")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *HTTPHandler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	md, err := h.service.GetMetadata(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		h.writeServiceError(w, err, "metadata lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.service.Delete(r.Context(), chi.URLParam(r, "*")) {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleURL(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	q := r.URL.Query()

	var (
		url string
		err error
	)
	switch {
	case q.Has("signed") || q.Has("expiration"):
		var signed *bool
		if q.Has("signed") {
			v, perr := strconv.ParseBool(q.Get("signed"))
			if perr != nil {
				writeError(w, http.StatusBadRequest, "signed must be a boolean")
				return
			}
			signed = &v
		}
		var expiration time.Duration
		if raw := q.Get("expiration"); raw != "" {
			secs, perr := strconv.Atoi(raw)
			if perr != nil || secs < 0 {
				writeError(w, http.StatusBadRequest, "expiration must be a non-negative number of seconds")
				return
			}
			expiration = time.Duration(secs) * time.Second
		}
		url, err = h.service.GetURL(r.Context(), p, expiration, signed)
	default:
		check := true
		if raw := q.Get("check"); raw != "" {
			if check, err = strconv.ParseBool(raw); err != nil {
				writeError(w, http.StatusBadRequest, "check must be a boolean")
				return
			}
		}
		url, err = h.service.GetURLPublic(r.Context(), p, check, q.Get("bucket"))
	}
	if err != nil {
		h.writeServiceError(w, err, "url generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// writeServiceError reports client errors verbatim. Server errors are logged
// and answered with generic instead, so storage and filesystem details stay internal.
func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error, generic string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(generic, zap.Error(err))
		writeError(w, status, generic)
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSource), errors.Is(err, domain.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrSecurityThreat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
