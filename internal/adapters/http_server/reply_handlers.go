package httpserver

import (
	"net/http"
)

type approveReq struct {
	EditedText *string `json:"edited_text" validate:"omitempty,min=1"`
}

type rejectReq struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type editReq struct {
	Text string `json:"text" validate:"required"`
}

func (h *Handlers) suggestReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	pr, err := h.Replies.Suggest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}

func (h *Handlers) deleteReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Replies.DeleteReply(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listPending(w http.ResponseWriter, r *http.Request) {
	out, err := h.Replies.Pending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}

func (h *Handlers) approveReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req approveReq
	if !h.decodeValid(w, r, &req, true) {
		return
	}
	pr, err := h.Replies.Approve(r.Context(), id, req.EditedText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (h *Handlers) rejectReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req rejectReq
	if !h.decodeValid(w, r, &req, true) {
		return
	}
	if err := h.Replies.Reject(r.Context(), id, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) editReply(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req editReq
	if !h.decodeValid(w, r, &req, false) {
		return
	}
	pr, err := h.Replies.Edit(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}
