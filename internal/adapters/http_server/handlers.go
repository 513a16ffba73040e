// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"replydesk/internal/app"
	"replydesk/internal/domain"
)

type Handlers struct {
	Accounts  *app.AccountService
	Sync      *app.SyncService
	Templates *app.TemplateService
	Replies   *app.ReplyService
	Q         *app.QueryService

	validate *validator.Validate
}

func NewHandlers(accounts *app.AccountService, sync *app.SyncService, templates *app.TemplateService, replies *app.ReplyService, q *app.QueryService) *Handlers {
	return &Handlers{
		Accounts:  accounts,
		Sync:      sync,
		Templates: templates,
		Replies:   replies,
		Q:         q,
		validate:  validator.New(),
	}
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/auth/login", h.login)
	s.mux.Get("/auth/callback", h.callback)

	s.mux.Get("/v1/accounts", h.listAccounts)
	s.mux.Delete("/v1/accounts/{id}", h.disconnectAccount)
	s.mux.Post("/v1/accounts/{id}/sync", h.syncAccount)

	s.mux.Get("/v1/locations", h.listLocations)
	s.mux.Get("/v1/locations/{id}", h.getLocation)
	s.mux.Post("/v1/locations/{id}/sync", h.syncLocation)
	s.mux.Get("/v1/locations/{id}/reviews", h.listReviews)

	s.mux.Get("/v1/templates", h.listTemplates)
	s.mux.Post("/v1/templates", h.createTemplate)
	s.mux.Post("/v1/templates/preview", h.previewTemplate)
	s.mux.Get("/v1/templates/{id}", h.getTemplate)
	s.mux.Put("/v1/templates/{id}", h.updateTemplate)
	s.mux.Delete("/v1/templates/{id}", h.deleteTemplate)

	s.mux.Post("/v1/reviews/{id}/suggest-reply", h.suggestReply)
	s.mux.Delete("/v1/reviews/{id}/reply", h.deleteReply)

	s.mux.Get("/v1/replies/pending", h.listPending)
	s.mux.Post("/v1/replies/{id}/approve", h.approveReply)
	s.mux.Post("/v1/replies/{id}/reject", h.rejectReply)
	s.mux.Put("/v1/replies/{id}/edit", h.editReply)
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses. Publish failures
// come first: they wrap other sentinels and must keep their own status.
func writeError(w http.ResponseWriter, err error) {
	var pe *domain.PublishError
	if errors.As(err, &pe) {
		if pe.Retryable {
			writeProblem(w, http.StatusBadGateway, "Publish Failed", "the platform did not accept the reply; it is still pending")
			return
		}
		writeProblem(w, http.StatusUnprocessableEntity, "Publish Rejected", pe.Err.Error())
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrNoTemplate):
		writeProblem(w, http.StatusUnprocessableEntity, "No Matching Template", err.Error())
	case errors.Is(err, domain.ErrBadTemplate):
		writeProblem(w, http.StatusBadRequest, "Invalid Template", err.Error())
	case errors.Is(err, domain.ErrAuth):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v with an ETag, short-circuiting to 304 when the client
// already holds this version.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// decodeValid parses the JSON body into dst and validates it. It writes the
// problem response and reports false when the body is unusable. optional
// lets endpoints accept an empty body.
func (h *Handlers) decodeValid(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
			return false
		}
	}
	if err := h.validate.Struct(dst); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", validationDetail(verr))
		} else {
			writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		}
		return false
	}
	return true
}

func validationDetail(verr validator.ValidationErrors) string {
	parts := make([]string, 0, len(verr))
	for _, fe := range verr {
		parts = append(parts, strings.ToLower(fe.Field())+": failed on "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
