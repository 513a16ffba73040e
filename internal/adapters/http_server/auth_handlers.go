package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"replydesk/internal/domain"
)

const stateCookie = "oauth_state"

// login mints a state nonce, parks it in a short-lived cookie, and sends the
// browser to the consent screen.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Accounts.BeginLogin(state), http.StatusTemporaryRedirect)
}

// callback finishes the OAuth dance. The state query parameter must match
// the cookie minted by login.
func (h *Handlers) callback(w http.ResponseWriter, r *http.Request) {
	if e := r.URL.Query().Get("error"); e != "" {
		writeProblem(w, http.StatusUnauthorized, "Consent Denied", e)
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		writeProblem(w, http.StatusBadRequest, "Bad State", "state mismatch; restart the login flow")
		return
	}
	// one-shot cookie
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Code", "no authorization code in callback")
		return
	}
	a, err := h.Accounts.CompleteLogin(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResp(a))
}

type accountView struct {
	ID          int64
	Email       string
	Connected   bool
	TokenExpiry *time.Time
}

// accountResp keeps tokens out of the API surface.
func accountResp(a domain.Account) accountView {
	return accountView{
		ID:          a.ID,
		Email:       a.Email,
		Connected:   a.RefreshToken != nil && *a.RefreshToken != "",
		TokenExpiry: a.TokenExpiry,
	}
}

func (h *Handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	as, err := h.Accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]accountView, 0, len(as))
	for _, a := range as {
		out = append(out, accountResp(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) disconnectAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.Accounts.Disconnect(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) syncAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	locations, reviews, err := h.Sync.SyncAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{ Locations, Reviews int }{locations, reviews})
}
