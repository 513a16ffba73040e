package httpserver

import (
	"net/http"
	"strconv"
)

func (h *Handlers) listLocations(w http.ResponseWriter, r *http.Request) {
	var accountID *int64
	if s := r.URL.Query().Get("account_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid account_id", "account_id must be a positive number")
			return
		}
		accountID = &v
	}
	ls, err := h.Q.ListLocations(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ls)
}

func (h *Handlers) getLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	l, err := h.Q.GetLocation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, l)
}

func (h *Handlers) syncLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	n, err := h.Sync.SyncReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{ Reviews int }{n})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	// existence first so unknown locations 404 instead of listing empty
	if _, err := h.Q.GetLocation(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Q.ListReviews(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, out)
}
