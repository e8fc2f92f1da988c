package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/xeot403/chatx/internal/metrics"
	"github.com/xeot403/chatx/internal/store"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// IdentityResponse is returned by both registration and login.
type IdentityResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Register handles account registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if !isValidEmail(req.Email) {
		h.Error(w, http.StatusBadRequest, "invalid email format")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, string(hash), sanitizeName(req.DisplayName))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			h.Error(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	metrics.UsersRegistered.Inc()
	h.JSON(w, http.StatusOK, IdentityResponse{
		Email:       user.Email,
		DisplayName: user.DisplayName,
	})
}
