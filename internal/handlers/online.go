package handlers

import "net/http"

// Online returns the currently joined members, optionally filtered with the
// q parameter by case-insensitive substring match on email.
func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	h.JSON(w, http.StatusOK, h.hub.Online(q))
}
