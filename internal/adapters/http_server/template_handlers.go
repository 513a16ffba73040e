package httpserver

import (
	"net/http"

	"replydesk/internal/domain"
)

type templateReq struct {
	Name      string `json:"name" validate:"required,max=120"`
	Body      string `json:"body" validate:"required"`
	RatingMin int    `json:"rating_min" validate:"required,min=1,max=5"`
	RatingMax int    `json:"rating_max" validate:"required,min=1,max=5,gtefield=RatingMin"`
	Active    *bool  `json:"active"`
}

// absent active defaults to true so new templates match right away
func (t templateReq) toDomain(id int64) domain.Template {
	active := true
	if t.Active != nil {
		active = *t.Active
	}
	return domain.Template{
		ID:        id,
		Name:      t.Name,
		Body:      t.Body,
		RatingMin: t.RatingMin,
		RatingMax: t.RatingMax,
		Active:    active,
	}
}

func (h *Handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	ts, err := h.Templates.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *Handlers) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateReq
	if !h.decodeValid(w, r, &req, false) {
		return
	}
	t, err := h.Templates.Create(r.Context(), req.toDomain(0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	t, err := h.Templates.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req templateReq
	if !h.decodeValid(w, r, &req, false) {
		return
	}
	t, err := h.Templates.Update(r.Context(), req.toDomain(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Templates.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type previewReq struct {
	Body    string `json:"body" validate:"required"`
	Author  string `json:"author"`
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment"`
}

func (h *Handlers) previewTemplate(w http.ResponseWriter, r *http.Request) {
	var req previewReq
	if !h.decodeValid(w, r, &req, false) {
		return
	}
	out, err := h.Templates.Preview(req.Body, req.Author, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{ Preview string }{out})
}
